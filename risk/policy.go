package risk

// Policy is the process-wide risk configuration. It is read-only for the
// lifetime of a decision loop.
type Policy struct {
	// RiskPercent of the account balance put at risk per trade (1 = 1%).
	RiskPercent float64 `json:"risk_percent" yaml:"risk_percent"`

	// MaxPositions caps simultaneously open positions across all
	// instruments. Zero disables the cap.
	MaxPositions int `json:"max_positions" yaml:"max_positions"`

	// AllowStacking permits a new entry on an instrument that already has
	// an open position.
	AllowStacking bool `json:"allow_stacking" yaml:"allow_stacking"`

	// MinRR rejects entries whose reward:risk is below it. Zero disables.
	MinRR float64 `json:"min_rr" yaml:"min_rr"`

	// LotPrecision is the number of decimals volumes are rounded to.
	LotPrecision int `json:"lot_precision" yaml:"lot_precision"`
}

func DefaultPolicy() Policy {
	return Policy{
		RiskPercent:  1,
		MaxPositions: 3,
		LotPrecision: 2,
	}
}

// TradeIntent is a fully computed candidate entry.
type TradeIntent struct {
	Instrument string
	Volume     float64
	Entry      float64
	Stop       float64
	TakeProfit float64
}

// Exposure is what is already open when the intent is evaluated.
type Exposure struct {
	OpenPositions int
	OnInstrument  int
}
