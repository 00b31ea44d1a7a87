package tally

import (
	"math/big"
	"strings"

	"github.com/AndrewConway/ConcreteSTV/util"
)

var (
	InvalidTallyError = util.NewError("invalid tally")
)

// Kind selects the arithmetic a rule set counts votes in. All kinds are
// exact; floating point never appears in the counting path.
type Kind uint8

const (
	// Integer counts whole votes only; fractions are lost to rounding.
	Integer Kind = iota
	// SixDecimal counts votes to six decimal places, as ACT and NSW do.
	SixDecimal
	// Rational counts votes as exact rationals, never rounding.
	Rational
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case SixDecimal:
		return "six-decimal"
	case Rational:
		return "rational"
	default:
		return "<unknown tally kind>"
	}
}

// Rounding is the direction votes are rounded after a transfer value is
// applied.
type Rounding uint8

const (
	// RoundDown truncates, the standard legislative choice.
	RoundDown Rounding = iota
	// RoundNearest rounds half up; reproduces the ACT 2020 behaviour.
	RoundNearest
	// RoundNone keeps the exact value; only meaningful for Rational.
	RoundNone
)

var million = big.NewInt(1_000_000)

// Tally is an exact number of votes. A Tally is immutable; arithmetic
// returns new values.
type Tally struct {
	kind Kind
	r    *big.Rat
}

func Zero(kind Kind) Tally {
	return Tally{kind: kind, r: new(big.Rat)}
}

// FromCount makes a tally from a whole number of ballot papers.
func FromCount(kind Kind, n int) Tally {
	return Tally{kind: kind, r: new(big.Rat).SetInt64(int64(n))}
}

// FromRat makes a tally from an exact rational, rounding it to the
// kind's precision in the given direction.
func FromRat(kind Kind, r *big.Rat, rounding Rounding) Tally {
	return Tally{kind: kind, r: roundRat(r, kind, rounding)}
}

func (t Tally) Kind() Kind { return t.kind }

// Rat returns a copy of the exact value.
func (t Tally) Rat() *big.Rat {
	return new(big.Rat).Set(t.rat())
}

func (t Tally) rat() *big.Rat {
	if t.r == nil {
		return new(big.Rat)
	}
	return t.r
}

func (t Tally) Add(o Tally) Tally {
	return Tally{kind: t.kind, r: new(big.Rat).Add(t.rat(), o.rat())}
}

func (t Tally) Sub(o Tally) Tally {
	return Tally{kind: t.kind, r: new(big.Rat).Sub(t.rat(), o.rat())}
}

func (t Tally) Cmp(o Tally) int { return t.rat().Cmp(o.rat()) }

func (t Tally) Equal(o Tally) bool { return t.Cmp(o) == 0 }

func (t Tally) IsZero() bool { return t.rat().Sign() == 0 }

// Key is a canonical representation usable as a map key; tallies with
// equal value share a key regardless of kind.
func (t Tally) Key() string { return t.rat().RatString() }

func (t Tally) String() string {
	r := t.rat()
	switch t.kind {
	case SixDecimal:
		return sixDecimalString(r)
	default:
		return r.RatString()
	}
}

func sixDecimalString(r *big.Rat) string {
	neg := r.Sign() < 0
	abs := new(big.Rat).Abs(r)
	scaled := new(big.Int).Mul(abs.Num(), million)
	scaled.Quo(scaled, abs.Denom())
	intPart := new(big.Int)
	fracPart := new(big.Int)
	intPart.QuoRem(scaled, million, fracPart)

	s := intPart.String()
	if fracPart.Sign() != 0 {
		frac := fracPart.String()
		for len(frac) < 6 {
			frac = "0" + frac
		}
		s += "." + strings.TrimRight(frac, "0")
	}
	if neg {
		s = "-" + s
	}
	return s
}

// MarshalJSON encodes integer tallies as JSON numbers and fractional
// kinds as decimal strings, matching the transcript file format.
func (t Tally) MarshalJSON() ([]byte, error) {
	switch t.kind {
	case Integer:
		return []byte(t.rat().Num().String()), nil
	default:
		return []byte(`"` + t.String() + `"`), nil
	}
}

func (t *Tally) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) > 1 && s[0] == '"' && s[len(s)-1] == '"' {
		return t.parseString(s[1 : len(s)-1])
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return InvalidTallyError.Errorf("not a number: %s", s)
	}
	t.kind = Integer
	t.r = r
	return nil
}

func (t *Tally) parseString(s string) error {
	kind := SixDecimal
	if strings.ContainsRune(s, '/') {
		kind = Rational
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return InvalidTallyError.Errorf("not a number: %q", s)
	}
	t.kind = kind
	t.r = r
	return nil
}

// ParseTally reads a tally in any of its serialized forms.
func ParseTally(kind Kind, s string) (Tally, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Tally{}, InvalidTallyError.Errorf("not a number: %q", s)
	}
	return Tally{kind: kind, r: r}, nil
}

// Sum adds tallies of a common kind.
func Sum(kind Kind, ts ...Tally) Tally {
	res := new(big.Rat)
	for i := range ts {
		res.Add(res, ts[i].rat())
	}
	return Tally{kind: kind, r: res}
}

func roundRat(r *big.Rat, kind Kind, rounding Rounding) *big.Rat {
	switch kind {
	case Rational:
		return new(big.Rat).Set(r)
	case Integer:
		return new(big.Rat).SetInt(roundToInt(r, rounding))
	case SixDecimal:
		scaled := new(big.Rat).Mul(r, new(big.Rat).SetInt(million))
		i := roundToInt(scaled, rounding)
		return new(big.Rat).SetFrac(i, new(big.Int).Set(million))
	default:
		return new(big.Rat).Set(r)
	}
}

// roundToInt rounds a rational down to an integer (floor, so negative
// values round away from zero). RoundNearest rounds half up.
func roundToInt(r *big.Rat, rounding Rounding) *big.Int {
	switch rounding {
	case RoundNearest:
		// floor(r + 1/2)
		half := big.NewRat(1, 2)
		sum := new(big.Rat).Add(r, half)
		return new(big.Int).Div(sum.Num(), sum.Denom())
	default:
		return new(big.Int).Div(r.Num(), r.Denom())
	}
}

// RoundDownToInteger rounds a tally down to a whole number of votes,
// keeping the kind. Used by the ACT 2020 treatment of exhausted votes
// during exclusions.
func (t Tally) RoundDownToInteger() Tally {
	i := new(big.Int).Div(t.rat().Num(), t.rat().Denom())
	return Tally{kind: t.kind, r: new(big.Rat).SetInt(i)}
}
