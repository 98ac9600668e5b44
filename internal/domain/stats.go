package domain

// Statistics is the aggregate view over the full option history. It is
// derived, never stored: recompute it from the ledger on every call so it
// cannot drift.
type Statistics struct {
	TradeCount int
	OpenCount  int
	WonCount   int
	LostCount  int
	WinRate    float64 // won / (won + lost), 0 when nothing settled
	GrossStake float64
	NetProfit  float64 // sum of settled payouts minus their stakes
}

// ComputeStatistics derives the aggregate stats from an option ledger.
func ComputeStatistics(history []Option) Statistics {
	var s Statistics
	for _, o := range history {
		s.TradeCount++
		s.GrossStake += o.Stake
		switch o.Status {
		case StatusWon:
			s.WonCount++
			s.NetProfit += o.Profit()
		case StatusLost:
			s.LostCount++
			s.NetProfit += o.Profit()
		default:
			s.OpenCount++
		}
	}
	if settled := s.WonCount + s.LostCount; settled > 0 {
		s.WinRate = float64(s.WonCount) / float64(settled)
	}
	return s
}
