package market

import "time"

// Quote is the current top of book for an instrument.
type Quote struct {
	Instrument string
	Time       time.Time
	Bid        float64
	Ask        float64
}

func (q Quote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

func (q Quote) Spread() float64 {
	return q.Ask - q.Bid
}

// EntryPrice is the side of the book a new position fills at:
// longs buy the ask, shorts sell the bid.
func (q Quote) EntryPrice(s Side) float64 {
	if s == Short {
		return q.Bid
	}
	return q.Ask
}

// MarkPrice is the side of the book an open position would close at:
// longs sell the bid, shorts buy back the ask.
func (q Quote) MarkPrice(s Side) float64 {
	if s == Short {
		return q.Ask
	}
	return q.Bid
}
