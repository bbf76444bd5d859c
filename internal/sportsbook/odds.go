package sportsbook

// MatchPool é o pool pari-mutuel de uma partida
type MatchPool struct {
	Home  uint64 `json:"home"`
	Away  uint64 `json:"away"`
	Draw  uint64 `json:"draw"`
	Total uint64 `json:"total"`
}

// Amount devolve o sub-pool de um outcome
func (p MatchPool) Amount(o Outcome) uint64 {
	switch o {
	case OutcomeHome:
		return p.Home
	case OutcomeAway:
		return p.Away
	case OutcomeDraw:
		return p.Draw
	}
	return 0
}

func (p *MatchPool) add(o Outcome, amount uint64) error {
	total, err := addU64(p.Total, amount)
	if err != nil {
		return err
	}
	var sub *uint64
	switch o {
	case OutcomeHome:
		sub = &p.Home
	case OutcomeAway:
		sub = &p.Away
	case OutcomeDraw:
		sub = &p.Draw
	default:
		return ErrInvalidOutcome
	}
	v, err := addU64(*sub, amount)
	if err != nil {
		return err
	}
	*sub, p.Total = v, total
	return nil
}

// LockedOdds são as odds fixadas no seed; depois de Locked nunca mudam
type LockedOdds struct {
	Home   Odds `json:"home"`
	Away   Odds `json:"away"`
	Draw   Odds `json:"draw"`
	Locked bool `json:"locked"`
}

// For devolve a odd travada de um outcome
func (l LockedOdds) For(o Outcome) Odds {
	switch o {
	case OutcomeHome:
		return l.Home
	case OutcomeAway:
		return l.Away
	case OutcomeDraw:
		return l.Draw
	}
	return 0
}

// ComputeOdds aplica a fórmula pari-mutuel amortecida a cada outcome do pool:
// (total + virtual) / (outcome + virtual/3), limitada a [1.0x, ceiling].
func ComputeOdds(pool MatchPool, virtual uint64, ceiling Odds) (LockedOdds, error) {
	var out LockedOdds
	for _, o := range [...]Outcome{OutcomeHome, OutcomeAway, OutcomeDraw} {
		raw, err := pariMutuelOdds(pool.Total, pool.Amount(o), virtual)
		if err != nil {
			return LockedOdds{}, err
		}
		v := clampOdds(Odds(raw), ceiling)
		switch o {
		case OutcomeHome:
			out.Home = v
		case OutcomeAway:
			out.Away = v
		case OutcomeDraw:
			out.Draw = v
		}
	}
	return out, nil
}

func clampOdds(v, ceiling Odds) Odds {
	if v < OneX {
		return OneX
	}
	if v > ceiling {
		return ceiling
	}
	return v
}
