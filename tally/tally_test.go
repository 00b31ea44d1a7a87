package tally

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/AndrewConway/ConcreteSTV/base"
)

type testTally struct {
	suite.Suite
}

func (t *testTally) TestFromCount() {
	v := FromCount(Integer, 42)
	t.Equal("42", v.String())
	t.False(v.IsZero())
	t.True(Zero(Integer).IsZero())
}

func (t *testTally) TestAddSub() {
	a := FromCount(Integer, 10)
	b := FromCount(Integer, 3)
	t.Equal("13", a.Add(b).String())
	t.Equal("7", a.Sub(b).String())
	t.Equal(1, a.Cmp(b))
	t.Equal(-1, b.Cmp(a))
	t.True(a.Equal(FromCount(Integer, 10)))
}

func (t *testTally) TestRoundingDown() {
	r := big.NewRat(7, 2) // 3.5
	t.Equal("3", FromRat(Integer, r, RoundDown).String())
	t.Equal("4", FromRat(Integer, r, RoundNearest).String())

	// floor of a negative value rounds away from zero.
	neg := big.NewRat(-7, 2)
	t.Equal("-4", FromRat(Integer, neg, RoundDown).String())
}

func (t *testTally) TestSixDecimal() {
	r := big.NewRat(1, 3)
	v := FromRat(SixDecimal, r, RoundDown)
	t.Equal("0.333333", v.String())

	v = FromRat(SixDecimal, big.NewRat(2, 3), RoundNearest)
	t.Equal("0.666667", v.String())

	whole := FromCount(SixDecimal, 42)
	t.Equal("42", whole.String())
}

func (t *testTally) TestRationalKeepsExactValue() {
	r := big.NewRat(110, 42)
	v := FromRat(Rational, r, RoundNone)
	t.Equal("55/21", v.String())
}

func (t *testTally) TestRoundDownToInteger() {
	v := FromRat(SixDecimal, big.NewRat(7, 2), RoundDown)
	t.Equal("3", v.RoundDownToInteger().String())
}

func (t *testTally) TestJSONEncoding() {
	b, err := FromCount(Integer, 345).MarshalJSON()
	t.NoError(err)
	t.Equal("345", string(b))

	b, err = FromRat(SixDecimal, big.NewRat(345288272, 1000000), RoundDown).MarshalJSON()
	t.NoError(err)
	t.Equal(`"345.288272"`, string(b))

	var v Tally
	t.NoError(v.UnmarshalJSON([]byte("345")))
	t.Equal(Integer, v.Kind())
	t.Equal("345", v.String())

	t.NoError(v.UnmarshalJSON([]byte(`"345.288272"`)))
	t.Equal(SixDecimal, v.Kind())
	t.Equal("345.288272", v.String())

	t.NoError(v.UnmarshalJSON([]byte(`"55/21"`)))
	t.Equal(Rational, v.Kind())
	t.Equal("55/21", v.String())
}

func (t *testTally) TestSignedTally() {
	s := ZeroSigned(Integer)
	s = s.AddTally(FromCount(Integer, 3))
	t.Equal("3", s.String())

	s = s.SubTally(FromCount(Integer, 5))
	t.Equal("-2", s.String())
	t.True(s.Negative)

	s = s.AddTally(FromCount(Integer, 2))
	t.True(s.IsZero())
	t.False(s.Negative)

	b, err := s.SubTally(FromCount(Integer, 1)).MarshalJSON()
	t.NoError(err)
	t.Equal(`"-1"`, string(b))

	var parsed SignedTally
	t.NoError(parsed.UnmarshalJSON([]byte(`"-1"`)))
	t.True(parsed.Negative)
	t.Equal("1", parsed.Value.String())
}

func TestTally(t *testing.T) {
	suite.Run(t, new(testTally))
}

type testTransferValue struct {
	suite.Suite
}

func (t *testTransferValue) TestFromSurplusKeepsUnreducedForm() {
	tv := TransferValueFromSurplus(FromCount(Integer, 50), base.BallotPaperCount(100))
	t.Equal("50/100", tv.String())
	t.Equal("1/2", tv.Key())
	t.True(tv.Equal(NewTransferValue(1, 2)))
}

func (t *testTransferValue) TestOne() {
	tv := TransferValueOne()
	t.True(tv.IsOne())
	t.Equal("1", tv.String())
}

func (t *testTransferValue) TestApplyRoundsDown() {
	tv := TransferValueFromSurplus(FromCount(Integer, 49), base.BallotPaperCount(110))
	got := tv.Apply(Integer, RoundDown, base.BallotPaperCount(100))
	t.Equal("44", got.String()) // 100*49/110 = 44.54...

	got = tv.Apply(Integer, RoundDown, base.BallotPaperCount(10))
	t.Equal("4", got.String())
}

func (t *testTransferValue) TestCmpIsNumeric() {
	a := NewTransferValue(50, 100)
	b := NewTransferValue(1, 2)
	t.Equal(0, a.Cmp(b))
	t.Equal(-1, NewTransferValue(1, 3).Cmp(b))
	t.Equal(1, NewTransferValue(2, 3).Cmp(b))
}

func (t *testTransferValue) TestMul() {
	tv := NewTransferValue(9, 11).Mul(NewTransferValue(1, 2))
	t.Equal("9/22", tv.String())
}

func (t *testTransferValue) TestRoundDownSixDecimals() {
	tv := NewTransferValue(1, 3).RoundDownSixDecimals()
	t.Equal("333333/1000000", tv.String())
}

func (t *testTransferValue) TestJSONRoundTrip() {
	tv := TransferValueFromSurplus(FromCount(Integer, 49), base.BallotPaperCount(110))
	b, err := tv.MarshalJSON()
	t.NoError(err)
	t.Equal(`"49/110"`, string(b))

	var parsed TransferValue
	t.NoError(parsed.UnmarshalJSON(b))
	t.Equal("49/110", parsed.String())

	t.NoError(parsed.UnmarshalJSON([]byte(`"1"`)))
	t.True(parsed.IsOne())
}

func (t *testTransferValue) TestParseErrors() {
	_, err := ParseTransferValue("not-a-number")
	t.Error(err)

	_, err = ParseTransferValue("1/0")
	t.Error(err)
}

func TestTransferValue(t *testing.T) {
	suite.Run(t, new(testTransferValue))
}
