package rules

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/count"
	"github.com/AndrewConway/ConcreteSTV/tiebreak"
	"github.com/AndrewConway/ConcreteSTV/transcript"
	"github.com/AndrewConway/ConcreteSTV/util"
)

type testProperties struct {
	suite.Suite
}

// elections returns a spread of small elections for property checks.
func (t *testProperties) elections() []*base.ElectionData {
	return []*base.ElectionData{
		simpleExample(),
		exclusionTimingElection(),
		bulkExclusionElection(),
		valueLeakElection(),
		literalFractionElection(),
	}
}

func (t *testProperties) profiles() []*count.Profile {
	return []*count.Profile{
		Federal(), AEC2013(), AEC2016(), AEC2019(),
		NSWLocalGov2021(), NSWECLocalGov2021(), NSWECLocalGov2021Literal(),
		Vic2018(), WA2008(),
	}
}

func (t *testProperties) TestDeterminism() {
	for _, data := range t.elections() {
		for _, profile := range t.profiles() {
			a, err := count.DistributePreferences(data, profile, count.Options{})
			t.Require().NoError(err, profile.Name)
			b, err := count.DistributePreferences(data, profile, count.Options{})
			t.Require().NoError(err, profile.Name)

			ja, err := util.JSONMarshal(a)
			t.Require().NoError(err)
			jb, err := util.JSONMarshal(b)
			t.Require().NoError(err)
			t.Equal(string(ja), string(jb), profile.Name)
		}
	}
}

func (t *testProperties) TestConservationOfVotes() {
	// the engine aborts on a conservation violation, so every count of
	// every transcript satisfies: candidate tallies + exhausted +
	// set aside + rounding = formal papers. Verify independently here.
	for _, data := range t.elections() {
		total := int64(data.NumVotes())
		for _, profile := range t.profiles() {
			result, err := count.DistributePreferences(data, profile, count.Options{})
			t.Require().NoError(err, profile.Name)

			for i, c := range result.Transcript.Counts {
				sum := new(big.Rat)
				for _, v := range c.Status.Tallies.Candidate {
					sum.Add(sum, v.Rat())
				}
				sum.Add(sum, c.Status.Tallies.Exhausted.Rat())
				if c.Status.Tallies.SetAside != nil {
					sum.Add(sum, c.Status.Tallies.SetAside.Rat())
				}
				rounding := c.Status.Tallies.Rounding.Value.Rat()
				if c.Status.Tallies.Rounding.Negative {
					rounding.Neg(rounding)
				}
				sum.Add(sum, rounding)
				t.Zero(sum.Cmp(new(big.Rat).SetInt64(total)), "%s count %d", profile.Name, i)
			}
		}
	}
}

func (t *testProperties) TestContinuingCandidatesOnlyDecrease() {
	for _, data := range t.elections() {
		for _, profile := range t.profiles() {
			result, err := count.DistributePreferences(data, profile, count.Options{})
			t.Require().NoError(err, profile.Name)

			notContinuing := map[base.CandidateIndex]struct{}{}
			for _, c := range result.Transcript.Counts {
				for _, gone := range c.NotContinuing {
					_, seen := notContinuing[gone]
					t.False(seen, "%s: candidate %d left the count twice", profile.Name, gone)
					notContinuing[gone] = struct{}{}
				}
			}
		}
	}
}

func (t *testProperties) TestPaperConservation() {
	for _, data := range t.elections() {
		total := base.BallotPaperCount(data.NumVotes())
		for _, profile := range t.profiles() {
			result, err := count.DistributePreferences(data, profile, count.Options{})
			t.Require().NoError(err, profile.Name)

			for i, c := range result.Transcript.Counts {
				var sum base.BallotPaperCount
				for _, v := range c.Status.Papers.Candidate {
					sum += v
				}
				sum += c.Status.Papers.Exhausted
				t.Equal(total, sum, "%s count %d", profile.Name, i)
			}
		}
	}
}

func (t *testProperties) TestQuotaDefinition() {
	for _, data := range t.elections() {
		result, err := count.DistributePreferences(data, Federal(), count.Options{})
		t.Require().NoError(err)

		quota := result.Transcript.Quota
		t.Require().NotNil(quota)
		expected := int(quota.Papers)/(int(quota.Vacancies)+1) + 1
		t.Equal(int64(expected), quota.Quota.Rat().Num().Int64())
	}
}

func (t *testProperties) TestTranscriptRoundTrip() {
	result, err := count.DistributePreferences(simpleExample(), NSWLocalGov2021(), count.Options{})
	t.Require().NoError(err)

	path := t.T().TempDir() + "/out.transcript"
	t.Require().NoError(result.Save(path))

	loaded, err := transcript.LoadTranscript(path)
	t.Require().NoError(err)

	a, err := util.JSONMarshal(result)
	t.Require().NoError(err)
	b, err := util.JSONMarshal(loaded)
	t.Require().NoError(err)
	t.Equal(string(a), string(b))
}

func (t *testProperties) TestBallotFileRoundTrip() {
	data := simpleExample()
	path := t.T().TempDir() + "/ballots.stv"
	t.Require().NoError(data.Save(path))

	loaded, err := base.LoadElectionData(path)
	t.Require().NoError(err)

	a, err := util.JSONMarshal(data)
	t.Require().NoError(err)
	b, err := util.JSONMarshal(loaded)
	t.Require().NoError(err)
	t.Equal(string(a), string(b))
}

func (t *testProperties) TestSeededTieShuffleIsReproducible() {
	data := newElection(
		[]string{"A", "B", "C"}, 1,
		base.BTL{Candidates: []base.CandidateIndex{0}, N: 5},
		base.BTL{Candidates: []base.CandidateIndex{1}, N: 5},
		base.BTL{Candidates: []base.CandidateIndex{2}, N: 2},
	)

	run := func(seed int64) []base.CandidateIndex {
		result, err := count.DistributePreferences(data, SimpleIRV(), count.Options{
			TieFallback: tiebreak.FallbackRandom,
			Seed:        seed,
		})
		t.Require().NoError(err)
		return result.Transcript.Elected
	}

	t.Equal(run(3), run(3))
}

func TestProperties(t *testing.T) {
	suite.Run(t, new(testProperties))
}

type testRegistry struct {
	suite.Suite
}

func (t *testRegistry) TestAllProfilesValid() {
	for _, name := range Names() {
		profile, err := FromString(name)
		t.NoError(err, name)
		t.NoError(profile.IsValid(nil), name)
		t.Equal(name, profile.Name)
	}
}

func (t *testRegistry) TestUnknownName() {
	_, err := FromString("Atlantis1999")
	t.Error(err)
	t.ErrorIs(err, UnknownRulesError)
}

func TestRegistry(t *testing.T) {
	suite.Run(t, new(testRegistry))
}
