package rules

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/count"
	"github.com/AndrewConway/ConcreteSTV/transcript"
)

func vacancies(n int) *base.NumberOfCandidates {
	v := base.NumberOfCandidates(n)
	return &v
}

func newElection(names []string, seats int, btl ...base.BTL) *base.ElectionData {
	candidates := make([]base.Candidate, len(names))
	for i, name := range names {
		candidates[i] = base.Candidate{Name: name}
	}
	return &base.ElectionData{
		Metadata: base.ElectionMetadata{
			Name:       base.ElectionName{Year: "2021", Authority: "test", Name: "Synthetic", Electorate: "X"},
			Candidates: candidates,
			Vacancies:  vacancies(seats),
		},
		BTL: btl,
	}
}

func lastCount(tr *transcript.Transcript) *transcript.SingleCount {
	return tr.Counts[len(tr.Counts)-1]
}

type testScenarios struct {
	suite.Suite
}

func (t *testScenarios) run(data *base.ElectionData, profile *count.Profile) *transcript.Transcript {
	result, err := count.DistributePreferences(data, profile, count.Options{})
	t.Require().NoError(err)
	return result.Transcript
}

// simpleExample is the annotated worked example: 240 ballots, 5
// candidates, 3 vacancies, quota 61.
func simpleExample() *base.ElectionData {
	return newElection(
		[]string{"A1", "A2", "C1", "C2", "P1"}, 3,
		base.BTL{Candidates: []base.CandidateIndex{0, 1}, N: 100},
		base.BTL{Candidates: []base.CandidateIndex{0, 4, 1}, N: 10},
		base.BTL{Candidates: []base.CandidateIndex{2, 3}, N: 110},
		base.BTL{Candidates: []base.CandidateIndex{4, 1}, N: 10},
		base.BTL{Candidates: []base.CandidateIndex{4}, N: 10},
	)
}

func (t *testScenarios) TestSimpleExample() {
	tr := t.run(simpleExample(), NSWLocalGov2021())

	t.NotNil(tr.Quota)
	t.Equal("61", tr.Quota.Quota.String())
	t.Equal(base.BallotPaperCount(240), tr.Quota.Papers)

	// C1 and A1 elected on first preferences; A2 elected once P1's
	// votes flow through, with a tally of 58.
	t.Equal([]base.CandidateIndex{2, 0, 1}, tr.Elected)

	status := lastCount(tr).Status
	t.Equal("61", status.Tallies.Candidate[0].String()) // A1 holds quota
	t.Equal("58", status.Tallies.Candidate[1].String()) // A2: 44+10+4
	t.Equal("61", status.Tallies.Candidate[2].String()) // C1 holds quota
	t.Equal("49", status.Tallies.Candidate[3].String()) // C2 from C1's surplus
	t.Equal("0", status.Tallies.Candidate[4].String())  // P1 fully distributed
	t.Equal("10", status.Tallies.Exhausted.String())
	t.Equal("1", status.Tallies.Rounding.String())
	t.Equal(base.BallotPaperCount(10), status.Papers.Exhausted)
}

// exclusionTimingElection distinguishes how the federal profiles handle
// an exclusion that leaves exactly as many continuing candidates as
// unfilled vacancies: 2019 aborts before moving papers, 2016 carries
// the transfer out in full.
func exclusionTimingElection() *base.ElectionData {
	return newElection(
		[]string{"A", "B", "C", "D", "E"}, 4,
		base.BTL{Candidates: []base.CandidateIndex{0}, N: 40},
		base.BTL{Candidates: []base.CandidateIndex{1}, N: 7},
		base.BTL{Candidates: []base.CandidateIndex{2}, N: 8},
		base.BTL{Candidates: []base.CandidateIndex{3}, N: 9},
		base.BTL{Candidates: []base.CandidateIndex{4, 1}, N: 3},
	)
}

func (t *testScenarios) TestExclusionTimingDiffersAcrossFederalYears() {
	tr2016 := t.run(exclusionTimingElection(), AEC2016())
	tr2019 := t.run(exclusionTimingElection(), AEC2019())
	tr2013 := t.run(exclusionTimingElection(), AEC2013())

	// 2016 finishes the exclusion: E's ballots reach B before anyone is
	// elected, so B stands higher than D.
	t.Equal([]base.CandidateIndex{0, 1, 3, 2}, tr2016.Elected)

	// 2019 aborts the exclusion once the survivors fill the vacancies:
	// B never receives E's ballots and is elected last.
	t.Equal([]base.CandidateIndex{0, 3, 2, 1}, tr2019.Elected)

	// 2013 has no occasion for a bulk exclusion here and matches 2016.
	t.Equal(tr2016.Elected, tr2013.Elected)
	t.Equal(transcript.CandidatesOrderedDifferentWay, transcript.CompareElected(tr2016, tr2019))

	last2019 := lastCount(tr2019)
	t.True(last2019.Reason.IsElimination())
	t.False(last2019.ReasonCompleted)
	t.Equal("7", last2019.Status.Tallies.Candidate[1].String())

	last2016 := lastCount(tr2016)
	t.True(last2016.ReasonCompleted)
	t.Equal("10", last2016.Status.Tallies.Candidate[1].String())
}

// bulkExclusionElection gives AEC2013 a s273(13A) bulk exclusion of the
// three lowest candidates that AEC2016 does one at a time.
func bulkExclusionElection() *base.ElectionData {
	return newElection(
		[]string{"A", "B", "C", "D", "E", "F"}, 3,
		base.BTL{Candidates: []base.CandidateIndex{0}, N: 48},
		base.BTL{Candidates: []base.CandidateIndex{1, 4}, N: 1},
		base.BTL{Candidates: []base.CandidateIndex{2, 4}, N: 2},
		base.BTL{Candidates: []base.CandidateIndex{3, 4}, N: 3},
		base.BTL{Candidates: []base.CandidateIndex{4}, N: 10},
		base.BTL{Candidates: []base.CandidateIndex{5}, N: 12},
	)
}

func (t *testScenarios) TestBulkExclusion() {
	tr2013 := t.run(bulkExclusionElection(), AEC2013())
	tr2016 := t.run(bulkExclusionElection(), AEC2016())

	t.Equal([]base.CandidateIndex{0, 4, 5}, tr2013.Elected)
	t.Equal(tr2013.Elected, tr2016.Elected)

	// 2013 excludes B, C and D in one transfer.
	var bulk *transcript.SingleCount
	for _, c := range tr2013.Counts {
		if c.Reason.IsElimination() {
			bulk = c
			break
		}
	}
	t.Require().NotNil(bulk)
	t.Len(bulk.Reason.Elimination, 3)
	t.Equal(3, tr2013.NumCounts())

	// 2016 needs a count per excluded candidate.
	t.Equal(5, tr2016.NumCounts())
	for _, c := range tr2016.Counts {
		if c.Reason.IsElimination() {
			t.Len(c.Reason.Elimination, 1)
		}
	}
}

// valueLeakElection shows the cost of the single transfer value in the
// inclusive Gregory method: an elected candidate's surplus is spread
// over low-value ballots that then exhaust, starving the next in line.
// The NSW weighted method with per-value sub-transfers keeps the value.
func valueLeakElection() *base.ElectionData {
	return newElection(
		[]string{"X", "A", "B", "C"}, 3,
		base.BTL{Candidates: []base.CandidateIndex{0, 1}, N: 200},
		base.BTL{Candidates: []base.CandidateIndex{1, 2}, N: 80},
		base.BTL{Candidates: []base.CandidateIndex{3}, N: 50},
	)
}

func (t *testScenarios) TestSurplusMethodChangesWinner() {
	trFederal := t.run(valueLeakElection(), AEC2016())
	trNSW := t.run(valueLeakElection(), NSWLocalGov2021())

	// under the single transfer value B receives only 32 of A's surplus
	// and loses the last seat to C.
	t.Equal([]base.CandidateIndex{0, 1, 3}, trFederal.Elected)

	// the weighted method caps the surplus fraction at one and passes
	// A's first preference ballots on to B at full value.
	t.Equal([]base.CandidateIndex{0, 1, 2}, trNSW.Elected)

	t.Equal(transcript.DifferentCandidatesElected, transcript.CompareElected(trFederal, trNSW))
}

// singleBallotElection is balanced so that one added above the line
// ballot flips the winner.
func singleBallotElection(extraATL bool) *base.ElectionData {
	data := newElection(
		[]string{"A", "B"}, 1,
		base.BTL{Candidates: []base.CandidateIndex{0}, N: 5},
		base.BTL{Candidates: []base.CandidateIndex{1}, N: 5},
	)
	data.Metadata.Parties = []base.Party{
		{ColumnID: "A", Name: "Alpha", ATLAllowed: true, Candidates: []base.CandidateIndex{0}},
		{ColumnID: "B", Name: "Beta", ATLAllowed: true, Candidates: []base.CandidateIndex{1}},
	}
	if extraATL {
		data.ATL = []base.ATL{{Parties: []base.PartyIndex{0}, N: 1}}
	}
	return data
}

func (t *testScenarios) TestSingleAddedBallotChangesWinner() {
	without := t.run(singleBallotElection(false), SimpleIRV())
	with := t.run(singleBallotElection(true), SimpleIRV())

	// tied on 5 each: the paper-order fallback ranks A below B, so B is
	// elected as the higher of the last two standing.
	t.Equal([]base.CandidateIndex{1}, without.Elected)

	// one above the line ballot for Alpha gives A a majority.
	t.Equal([]base.CandidateIndex{0}, with.Elected)
	t.Equal(transcript.DifferentCandidatesElected, transcript.CompareElected(without, with))
}

func (t *testScenarios) TestVicAndWAAgreeOnSimpleExample() {
	trVic := t.run(simpleExample(), Vic2018())
	trWA := t.run(simpleExample(), WA2008())

	// both jurisdictions use a surplus over all ballots rounded down,
	// so the worked example lands on the same winners and tallies.
	t.Equal([]base.CandidateIndex{2, 0, 1}, trVic.Elected)
	t.Equal([]base.CandidateIndex{2, 0, 1}, trWA.Elected)

	for _, tr := range []*transcript.Transcript{trVic, trWA} {
		status := lastCount(tr).Status
		t.Equal("58", status.Tallies.Candidate[1].String())
		t.Equal("1", status.Tallies.Rounding.String())
	}

	// WA names counts major.minor; Victoria numbers them implicitly.
	t.Equal("1.1", trWA.Counts[0].CountName)
	t.Equal("", trVic.Counts[0].CountName)
}

func TestScenarios(t *testing.T) {
	suite.Run(t, new(testScenarios))
}
