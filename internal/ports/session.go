package ports

// Session supplies the device/account context the engine trades under.
// The engine only uses it to namespace the account; it never validates
// or refreshes credentials.
type Session interface {
	AccountID() string
}
