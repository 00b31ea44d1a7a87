package tally

// SignedTally is a tally that is almost always positive but may in rare
// situations be negative, like votes lost to rounding when rounding is
// not always down. Serialized as a string so negative values survive
// the integer tally encoding.
type SignedTally struct {
	// Negative is always false for zero.
	Negative bool
	Value    Tally
}

func ZeroSigned(kind Kind) SignedTally {
	return SignedTally{Value: Zero(kind)}
}

func (s SignedTally) IsZero() bool { return s.Value.IsZero() }

// AddTally adds a non-negative tally.
func (s SignedTally) AddTally(t Tally) SignedTally {
	if !s.Negative {
		return SignedTally{Value: s.Value.Add(t)}
	}
	switch s.Value.Cmp(t) {
	case 0:
		return SignedTally{Value: Zero(t.Kind())}
	case 1:
		return SignedTally{Negative: true, Value: s.Value.Sub(t)}
	default:
		return SignedTally{Value: t.Sub(s.Value)}
	}
}

// SubTally subtracts a non-negative tally.
func (s SignedTally) SubTally(t Tally) SignedTally {
	if s.Negative {
		return SignedTally{Negative: true, Value: s.Value.Add(t)}
	}
	switch s.Value.Cmp(t) {
	case 0:
		return SignedTally{Value: Zero(t.Kind())}
	case 1:
		return SignedTally{Value: s.Value.Sub(t)}
	default:
		return SignedTally{Negative: true, Value: t.Sub(s.Value)}
	}
}

func (s SignedTally) String() string {
	if s.Negative {
		return "-" + s.Value.String()
	}
	return s.Value.String()
}

func (s SignedTally) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *SignedTally) UnmarshalJSON(b []byte) error {
	str := string(b)
	if len(str) > 1 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	neg := len(str) > 0 && str[0] == '-'
	if neg {
		str = str[1:]
	}
	var v Tally
	if err := v.parseString(str); err != nil {
		return err
	}
	s.Negative = neg && !v.IsZero()
	s.Value = v
	return nil
}
