package tally

import (
	"math/big"
	"strings"

	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/util"
)

var (
	InvalidTransferValueError = util.NewError("invalid transfer value")
)

// TransferValue is the exact rational weight applied to each ballot in
// a parcel during distribution. The numerator and denominator are held
// unreduced so the displayed fraction matches what the commission
// publishes.
type TransferValue struct {
	num, den *big.Int
}

func NewTransferValue(num, den int64) TransferValue {
	return TransferValue{num: big.NewInt(num), den: big.NewInt(den)}
}

func TransferValueOne() TransferValue {
	return NewTransferValue(1, 1)
}

// TransferValueFromSurplus builds surplus/ballots, unreduced. A
// fractional surplus p/q yields p/(q*ballots).
func TransferValueFromSurplus(surplus Tally, ballots base.BallotPaperCount) TransferValue {
	r := surplus.Rat()
	return TransferValue{
		num: new(big.Int).Set(r.Num()),
		den: new(big.Int).Mul(r.Denom(), big.NewInt(int64(ballots))),
	}
}

// TransferValueFromRat keeps the rational's reduced form.
func TransferValueFromRat(r *big.Rat) TransferValue {
	return TransferValue{num: new(big.Int).Set(r.Num()), den: new(big.Int).Set(r.Denom())}
}

func (tv TransferValue) numOrZero() *big.Int {
	if tv.num == nil {
		return big.NewInt(0)
	}
	return tv.num
}

func (tv TransferValue) denOrOne() *big.Int {
	if tv.den == nil || tv.den.Sign() == 0 {
		return big.NewInt(1)
	}
	return tv.den
}

// Rat returns the exact (reduced) value.
func (tv TransferValue) Rat() *big.Rat {
	return new(big.Rat).SetFrac(tv.numOrZero(), tv.denOrOne())
}

func (tv TransferValue) IsOne() bool {
	return tv.numOrZero().Cmp(tv.denOrOne()) == 0
}

// Cmp compares by exact numerical value.
func (tv TransferValue) Cmp(o TransferValue) int {
	a := new(big.Int).Mul(tv.numOrZero(), o.denOrOne())
	b := new(big.Int).Mul(o.numOrZero(), tv.denOrOne())
	return a.Cmp(b)
}

func (tv TransferValue) Equal(o TransferValue) bool { return tv.Cmp(o) == 0 }

// Mul multiplies two transfer values, unreduced. Used for the NSW style
// scaling of incoming transfer values.
func (tv TransferValue) Mul(o TransferValue) TransferValue {
	return TransferValue{
		num: new(big.Int).Mul(tv.numOrZero(), o.numOrZero()),
		den: new(big.Int).Mul(tv.denOrOne(), o.denOrOne()),
	}
}

// Key is the canonical reduced form, usable as a map key; transfer
// values with equal numerical value share a key.
func (tv TransferValue) Key() string {
	return tv.Rat().RatString()
}

// Apply multiplies the transfer value over a number of ballot papers
// and rounds the worth to the arithmetic's precision.
func (tv TransferValue) Apply(kind Kind, rounding Rounding, ballots base.BallotPaperCount) Tally {
	prod := new(big.Rat).Mul(tv.Rat(), new(big.Rat).SetInt64(int64(ballots)))
	return FromRat(kind, prod, rounding)
}

// RoundDownSixDecimals truncates the transfer value to six decimal
// places. Reproduces the ACT 2020 treatment of an incoming transfer
// value used as a limit.
func (tv TransferValue) RoundDownSixDecimals() TransferValue {
	num := new(big.Int).Mul(tv.numOrZero(), million)
	num.Quo(num, tv.denOrOne())
	return TransferValue{num: num, den: new(big.Int).Set(million)}
}

func (tv TransferValue) String() string {
	num := tv.numOrZero()
	den := tv.denOrOne()
	switch {
	case num.Cmp(den) == 0:
		return "1"
	case den.Cmp(big.NewInt(1)) == 0:
		return num.String()
	default:
		return num.String() + "/" + den.String()
	}
}

func (tv TransferValue) MarshalJSON() ([]byte, error) {
	return []byte(`"` + tv.String() + `"`), nil
}

func (tv *TransferValue) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) > 1 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return tv.parse(s)
}

func (tv *TransferValue) parse(s string) error {
	if num, den, found := strings.Cut(s, "/"); found {
		n, ok := new(big.Int).SetString(num, 10)
		if !ok {
			return InvalidTransferValueError.Errorf("numerator %q", num)
		}
		d, ok := new(big.Int).SetString(den, 10)
		if !ok || d.Sign() <= 0 {
			return InvalidTransferValueError.Errorf("denominator %q", den)
		}
		tv.num = n
		tv.den = d
		return nil
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return InvalidTransferValueError.Errorf("not a number: %q", s)
	}
	tv.num = new(big.Int).Set(r.Num())
	tv.den = new(big.Int).Set(r.Denom())
	return nil
}

// ParseTransferValue reads a transfer value in "n/d", integer or
// decimal form.
func ParseTransferValue(s string) (TransferValue, error) {
	var tv TransferValue
	if err := tv.parse(s); err != nil {
		return TransferValue{}, err
	}
	return tv, nil
}
