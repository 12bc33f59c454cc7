package risk

import "fmt"

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	PlannedRR float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

func (d Decision) String() string {
	if d.Allowed {
		return "allowed"
	}
	s := ""
	for i, v := range d.Violations {
		if i > 0 {
			s += "; "
		}
		s += v.Code + ": " + v.Msg
	}
	return s
}

// Evaluate runs the pre-trade checks for an intent against what is
// already open.
func Evaluate(p Policy, intent TradeIntent, exp Exposure) Decision {
	d := Decision{Allowed: true}

	if intent.Stop == 0 || intent.Entry == 0 {
		d.add("NO_STOP_OR_ENTRY", "entry/stop must be set")
		return d
	}
	if intent.Volume <= 0 {
		d.add("NO_VOLUME", "volume must be positive")
		return d
	}

	d.PlannedRR = RR(intent.Entry, intent.Stop, intent.TakeProfit)
	if p.MinRR > 0 && d.PlannedRR < p.MinRR {
		d.add("RR_TOO_LOW",
			fmt.Sprintf("RR %.2f below minimum %.2f", d.PlannedRR, p.MinRR))
	}

	if p.MaxPositions > 0 && exp.OpenPositions >= p.MaxPositions {
		d.add("TOO_MANY_OPEN_TRADES",
			fmt.Sprintf("open trades %d >= max %d", exp.OpenPositions, p.MaxPositions))
	}
	if !p.AllowStacking && exp.OnInstrument > 0 {
		d.add("ALREADY_IN_INSTRUMENT",
			fmt.Sprintf("%d position(s) already open on %s", exp.OnInstrument, intent.Instrument))
	}

	return d
}
