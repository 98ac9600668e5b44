package domain

// Account is the simulated bankroll the engine trades against.
// The ID comes from the session collaborator (device/account context);
// the engine never validates it.
type Account struct {
	ID       string
	Balance  float64
	Currency string
}

// Asset is a tradeable instrument as reported by the registry.
type Asset struct {
	Name   string // display name, e.g. "EUR/USD"
	RIC    string // platform instrument code, e.g. "EURUSD"
	Active bool
}
