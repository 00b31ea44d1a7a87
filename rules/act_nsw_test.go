package rules

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/count"
	"github.com/AndrewConway/ConcreteSTV/transcript"
)

type testACTRules struct {
	suite.Suite
}

func (t *testACTRules) run(data *base.ElectionData, profile *count.Profile) *transcript.Transcript {
	result, err := count.DistributePreferences(data, profile, count.Options{})
	t.Require().NoError(err)
	return result.Transcript
}

// actBugElection drives a second-stage surplus whose transfer value is
// limited by the incoming one: the 2020 and 2021 arithmetic then
// diverge in every later tally.
func actBugElection() *base.ElectionData {
	return newElection(
		[]string{"A", "B", "C", "D"}, 3,
		base.BTL{Candidates: []base.CandidateIndex{0, 1, 2}, N: 2},
		base.BTL{Candidates: []base.CandidateIndex{0, 1}, N: 4},
		base.BTL{Candidates: []base.CandidateIndex{1}, N: 3},
		base.BTL{Candidates: []base.CandidateIndex{2}, N: 2},
		base.BTL{Candidates: []base.CandidateIndex{3}, N: 2},
	)
}

func (t *testACTRules) TestACT2020ReproducesBugsACT2021DoesNot() {
	tr2021 := t.run(actBugElection(), ACT2021())
	tr2020 := t.run(actBugElection(), ACT2020())

	// the winners happen to agree; the arithmetic does not.
	t.Equal([]base.CandidateIndex{0, 1, 2}, tr2021.Elected)
	t.Equal(tr2021.Elected, tr2020.Elected)

	// B's surplus of 1 over 2 continuing papers gives transfer value
	// 1/2, limited to the incoming 1/3. The exact rules hand C 2/3 of a
	// vote; the 2020 code truncates the limit to six decimals first and
	// rounds the result to the nearest millionth.
	final2021 := lastCount(tr2021).Status.Tallies
	final2020 := lastCount(tr2020).Status.Tallies
	t.Equal("8/3", final2021.Candidate[2].String())
	t.Equal("2.666666", final2020.Candidate[2].String())

	// the set aside votes are booked against rounding either way.
	t.Equal("1/3", final2021.Rounding.String())
	t.Equal("0.333334", final2020.Rounding.String())
}

func (t *testACTRules) TestCasualVacancyElectsFirstPreferenceLeader() {
	data := newElection(
		[]string{"A", "B", "C"}, 1,
		base.BTL{Candidates: []base.CandidateIndex{0}, N: 12},
		base.BTL{Candidates: []base.CandidateIndex{1}, N: 6},
		base.BTL{Candidates: []base.CandidateIndex{2}, N: 4},
	)
	tr := t.run(data, ACTCasualVacancy2021())

	t.Equal([]base.CandidateIndex{0}, tr.Elected)
	t.NotNil(tr.Quota)
}

func TestACTRules(t *testing.T) {
	suite.Run(t, new(testACTRules))
}

type testNSWLiteral struct {
	suite.Suite
}

func (t *testNSWLiteral) run(data *base.ElectionData, profile *count.Profile) *transcript.Transcript {
	result, err := count.DistributePreferences(data, profile, count.Options{})
	t.Require().NoError(err)
	return result.Transcript
}

// literalFractionElection engineers a surplus whose clause 7(4)(a)
// "resulting fraction" has a negative denominator: the value of the
// exhausting parcels exceeds the candidate's rounded-down tally. The
// literal reading drives a continuing candidate's tally below zero; the
// capped reading does not.
func literalFractionElection() *base.ElectionData {
	data := newElection(
		[]string{"H", "P2", "P", "E", "F", "S1", "S2"}, 5,
		base.BTL{Candidates: []base.CandidateIndex{0, 3}, N: 11},
		base.BTL{Candidates: []base.CandidateIndex{0, 5}, N: 50},
		base.BTL{Candidates: []base.CandidateIndex{0, 6}, N: 50},
		base.BTL{Candidates: []base.CandidateIndex{2, 3, 4}, N: 10},
		base.BTL{Candidates: []base.CandidateIndex{2, 5}, N: 36},
		base.BTL{Candidates: []base.CandidateIndex{1, 3}, N: 46},
		base.BTL{Candidates: []base.CandidateIndex{3}, N: 37},
		base.BTL{Candidates: []base.CandidateIndex{5}, N: 11},
		base.BTL{Candidates: []base.CandidateIndex{6}, N: 11},
	)
	// P and P2 tie on first preferences; replay the commission's call
	// so P's surplus is handled first.
	data.Metadata.TieResolutions = []base.TieResolutionExplicitDecision{
		{Favoured: []base.CandidateIndex{2}, Disfavoured: []base.CandidateIndex{1}},
	}
	return data
}

func (t *testNSWLiteral) TestLiteralAndCappedFractionsDiverge() {
	trLiteral := t.run(literalFractionElection(), NSWECLocalGov2021Literal())
	trCapped := t.run(literalFractionElection(), NSWECLocalGov2021())

	// the same five candidates win either way.
	t.Equal([]base.CandidateIndex{0, 2, 1, 3, 5}, trLiteral.Elected)
	t.Equal(trLiteral.Elected, trCapped.Elected)

	// E's surplus: quota 44, tally 45, but the exhausting parcels carry
	// 71/111 more value than E's rounded tally, so the literal fraction
	// is 1/(-71/111). F's ten papers arrive at a negative value.
	finalLiteral := lastCount(trLiteral).Status.Tallies
	finalCapped := lastCount(trCapped).Status.Tallies
	t.Equal(-1, finalLiteral.Candidate[4].Cmp(finalCapped.Candidate[4]))
	t.Equal("-1", finalLiteral.Candidate[4].String())
	t.Equal("0", finalCapped.Candidate[4].String())
}

func TestNSWLiteral(t *testing.T) {
	suite.Run(t, new(testNSWLiteral))
}
