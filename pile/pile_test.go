package pile

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/tally"
)

type testVote struct {
	suite.Suite
}

func continuingSet(cs ...base.CandidateIndex) map[base.CandidateIndex]struct{} {
	res := map[base.CandidateIndex]struct{}{}
	for _, c := range cs {
		res[c] = struct{}{}
	}
	return res
}

func (t *testVote) TestNextSkipsNotContinuing() {
	v := NewVote(3, []base.CandidateIndex{0, 1, 2}, false)
	t.Equal(base.CandidateIndex(0), v.Candidate())

	next, ok := v.Next(continuingSet(1, 2))
	t.True(ok)
	t.Equal(base.CandidateIndex(1), next.Candidate())
	t.Equal(base.BallotPaperCount(3), next.N)

	next, ok = v.Next(continuingSet(2))
	t.True(ok)
	t.Equal(base.CandidateIndex(2), next.Candidate())

	_, ok = v.Next(continuingSet(5))
	t.False(ok)
}

func (t *testVote) TestDistribute() {
	votes := []Vote{
		NewVote(5, []base.CandidateIndex{0, 1}, false),
		NewVote(3, []base.CandidateIndex{1, 0}, true),
		NewVote(2, []base.CandidateIndex{2}, false),
	}

	distributed := Distribute(votes, continuingSet(0, 1), 3)
	t.Equal(base.BallotPaperCount(5), distributed.ByCandidate[0].NumBallots)
	t.Equal(base.BallotPaperCount(3), distributed.ByCandidate[1].NumBallots)
	t.Equal(base.BallotPaperCount(3), distributed.ByCandidate[1].NumATLBallots)
	t.Equal(base.BallotPaperCount(0), distributed.ByCandidate[2].NumBallots)
	t.Equal(base.BallotPaperCount(2), distributed.Exhausted)
	t.Equal(base.BallotPaperCount(0), distributed.ExhaustedATL)
}

func TestVote(t *testing.T) {
	suite.Run(t, new(testVote))
}

type testPile struct {
	suite.Suite
}

func (t *testPile) addParcel(p *Pile, n int, tv tally.TransferValue, count base.CountIndex, worth int) {
	var votes VotesWithSameTransferValue
	votes.AddVote(NewVote(n, []base.CandidateIndex{0, 1}, false))
	created := count
	p.Add(&votes, tv, count, &created, tally.FromCount(tally.Integer, worth))
}

func (t *testPile) TestNumBallots() {
	p := NewPile(DoNotSplitByCountNumber, tally.Integer)
	t.addParcel(p, 10, tally.TransferValueOne(), 0, 10)
	t.addParcel(p, 5, tally.NewTransferValue(1, 2), 1, 2)
	t.Equal(base.BallotPaperCount(15), p.NumBallots())
}

func (t *testPile) TestExtractLastParcel() {
	p := NewPile(DoNotSplitByCountNumber, tally.Integer)
	t.addParcel(p, 10, tally.TransferValueOne(), 0, 10)
	t.addParcel(p, 5, tally.NewTransferValue(1, 2), 1, 2)

	votes, portion, err := p.ExtractLastParcel()
	t.NoError(err)
	t.Equal(base.BallotPaperCount(5), votes.NumBallots)
	t.NotNil(portion.TransferValue)
	t.Equal("1/2", portion.TransferValue.String())
	t.Equal([]base.CountIndex{1}, portion.PapersCameFromCounts)
	t.Equal(base.BallotPaperCount(10), p.NumBallots())

	// a second extraction has nothing to take.
	_, _, err = p.ExtractLastParcel()
	t.Error(err)
}

func (t *testPile) TestExtractAllByTransferValueMergesAndSortsHighestFirst() {
	p := NewPile(FullySplitByCountNumber, tally.Integer)
	t.addParcel(p, 10, tally.TransferValueOne(), 0, 10)
	t.addParcel(p, 5, tally.NewTransferValue(1, 2), 1, 2)
	// numerically equal to 1/2, different count, merges.
	t.addParcel(p, 3, tally.NewTransferValue(2, 4), 2, 1)

	parcels := p.ExtractAllByTransferValue()
	t.Len(parcels, 2)
	t.True(parcels[0].TV.IsOne())
	t.Equal(base.BallotPaperCount(10), parcels[0].Votes.NumBallots)
	t.Equal("1/2", parcels[1].TV.Key())
	t.Equal(base.BallotPaperCount(8), parcels[1].Votes.NumBallots)
	t.Equal("3", parcels[1].Tally.String())
	t.Equal([]base.CountIndex{1, 2}, parcels[1].Portion.PapersCameFromCounts)
	t.Equal(base.BallotPaperCount(0), p.NumBallots())
}

func (t *testPile) TestExtractAllByKeyKeepsCountsSeparate() {
	p := NewPile(FullySplitByCountNumber, tally.Integer)
	t.addParcel(p, 5, tally.NewTransferValue(1, 2), 1, 2)
	t.addParcel(p, 10, tally.TransferValueOne(), 0, 10)

	parcels := p.ExtractAllByKey(nil)
	t.Len(parcels, 2)
	// ordered by the count the papers arrived in.
	t.Equal([]base.CountIndex{0}, parcels[0].Portion.PapersCameFromCounts)
	t.Equal([]base.CountIndex{1}, parcels[1].Portion.PapersCameFromCounts)
}

func (t *testPile) TestExtractByProvenance() {
	p := NewPile(DoNotSplitByCountNumber, tally.Integer)
	t.addParcel(p, 10, tally.TransferValueOne(), 0, 10)

	keys := p.ProvenanceKeys()
	t.Len(keys, 1)

	prov, votes, ok := p.ExtractByProvenance(keys[0])
	t.True(ok)
	t.Equal("10", prov.Tally.String())
	t.Equal(base.BallotPaperCount(10), votes.NumBallots)

	_, _, ok = p.ExtractByProvenance(keys[0])
	t.False(ok)
}

func (t *testPile) TestProvenanceKeysSortedByTransferValueDescending() {
	p := NewPile(DoNotSplitByCountNumber, tally.Integer)
	t.addParcel(p, 5, tally.NewTransferValue(1, 3), 1, 1)
	t.addParcel(p, 10, tally.TransferValueOne(), 0, 10)
	t.addParcel(p, 5, tally.NewTransferValue(1, 2), 2, 2)

	keys := p.ProvenanceKeys()
	t.Len(keys, 3)
	t.True(keys[0].TV.IsOne())
	t.Equal("1/2", keys[1].TV.Key())
	t.Equal("1/3", keys[2].TV.Key())
}

func TestPile(t *testing.T) {
	suite.Run(t, new(testPile))
}
