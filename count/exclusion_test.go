package count

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/pile"
	"github.com/AndrewConway/ConcreteSTV/tally"
	"github.com/AndrewConway/ConcreteSTV/tiebreak"
	"github.com/AndrewConway/ConcreteSTV/transcript"
)

type testBulkExclusion struct {
	suite.Suite
}

// distributorWithTallies builds a mid-count state directly so the bulk
// exclusion arithmetic can be checked in isolation.
func (t *testBulkExclusion) distributorWithTallies(quota int, vacancies int, elected int, tallies map[base.CandidateIndex]int) *Distributor {
	numCandidates := 0
	for c := range tallies {
		if int(c) >= numCandidates {
			numCandidates = int(c) + 1
		}
	}

	profile := Federal2013Like()
	candidates := make([]base.Candidate, numCandidates)
	for i := range candidates {
		candidates[i] = base.Candidate{Name: string(rune('A' + i))}
	}
	data := &base.ElectionData{Metadata: base.ElectionMetadata{
		Name:       base.ElectionName{Year: "0", Authority: "test", Name: "bulk", Electorate: "x"},
		Candidates: candidates,
	}}

	d := NewDistributor(data, profile, nil, base.NumberOfCandidates(vacancies), nil,
		tiebreak.NewECResolutions(nil, tiebreak.FallbackDonkey, 0))
	d.quota = tally.FromCount(tally.Integer, quota)
	for c, v := range tallies {
		d.tallys[c] = tally.FromCount(tally.Integer, v)
	}
	for i := 0; i < elected; i++ {
		// mark as already elected without going through a count.
		d.electedCandidates = append(d.electedCandidates, base.CandidateIndex(numCandidates+i))
	}
	d.resortCandidates()
	return d
}

// Federal2013Like is a bulk-exclusion federal profile for tests.
func Federal2013Like() *Profile {
	return &Profile{
		Name:                          "test-federal",
		Kind:                          tally.Integer,
		VoteRounding:                  tally.RoundDown,
		SplitBy:                       pile.DoNotSplitByCountNumber,
		TransferValueMethod:           transcript.SurplusOverBallots,
		SurplusMethod:                 JustOneTransferValue,
		CapSurplusFractionAtOne:       true,
		SortExclusionsByTransferValue: true,
		TiesElectedOneOfLastTwo:       tiebreak.RequireAllDifferent,
		TiesElectedByQuota:            tiebreak.RequireAllDifferent,
		TiesElectedAllRemaining:       tiebreak.RequireAllDifferent,
		TiesLowestForExclusion:        tiebreak.RequireAllDifferent,
		CheckElectedMidSurplus:        true,
		CheckElectedMidExclusion:      true,
		HasQuota:                      true,
		BulkExclusion:                 BulkExclusionOn,
	}
}

func (t *testBulkExclusion) TestExcludesLowestGroup() {
	// quota 100, 2 vacancies remaining. Tallies: 80, 60, 20, 10, 5.
	// Vacancy shortfall 60; candidate B is the 20-vote candidate, whose
	// notional votes (35) are at least the leading shortfall (20), so
	// candidate C is the highest with notional votes below 20: the two
	// lowest are excluded together.
	d := t.distributorWithTallies(100, 2, 0, map[base.CandidateIndex]int{
		0: 80, 1: 60, 2: 20, 3: 10, 4: 5,
	})

	got, err := d.findCandidatesForBulkExclusion()
	t.NoError(err)
	t.ElementsMatch([]base.CandidateIndex{3, 4}, got)
}

func (t *testBulkExclusion) TestNoCandidateBMeansNoBulkExclusion() {
	// no candidate's notional votes (the lowest is 49) fall below the
	// vacancy shortfall of 10, so no candidate B exists.
	d := t.distributorWithTallies(100, 1, 0, map[base.CandidateIndex]int{
		0: 90, 1: 50, 2: 49,
	})

	got, err := d.findCandidatesForBulkExclusion()
	t.NoError(err)
	t.Nil(got)
}

func (t *testBulkExclusion) TestLeavesEnoughContinuingCandidates() {
	// (13B): the exclusion may not reduce continuing candidates below
	// the remaining vacancies.
	d := t.distributorWithTallies(1000, 2, 0, map[base.CandidateIndex]int{
		0: 30, 1: 20, 2: 10,
	})

	got, err := d.findCandidatesForBulkExclusion()
	t.NoError(err)
	t.Len(got, 1)
	t.Equal(base.CandidateIndex(2), got[0])
}

func TestBulkExclusion(t *testing.T) {
	suite.Run(t, new(testBulkExclusion))
}
