package risk

// Limits caps how much a single trade request may move. Zero disables the cap.
type Limits struct {
	MaxTradeAmount float64
}

func (l Limits) Allow(amount float64) bool {
	if l.MaxTradeAmount <= 0 {
		return true
	}
	return amount <= l.MaxTradeAmount
}
