package pile

import (
	"github.com/AndrewConway/ConcreteSTV/base"
)

// Vote is a vote, resolved into a below the line preference list, that
// is somewhere through being distributed. Preferences with index less
// than upto are spent. It may represent multiple identical votes.
type Vote struct {
	upto int
	// the number of voters.
	N     base.BallotPaperCount
	prefs []base.CandidateIndex
	atl   bool
}

func NewVote(n int, prefs []base.CandidateIndex, atl bool) Vote {
	return Vote{N: base.BallotPaperCount(n), prefs: prefs, atl: atl}
}

func (v Vote) Exhausted() bool { return v.upto == len(v.prefs) }

// Candidate is the current preferred candidate.
func (v Vote) Candidate() base.CandidateIndex { return v.prefs[v.upto] }

// IsATL reports whether this was an above the line vote.
func (v Vote) IsATL() bool { return v.atl }

// Prefs is the full preference list, including spent preferences.
func (v Vote) Prefs() []base.CandidateIndex { return v.prefs }

// Next advances to the first remaining preference for a continuing
// candidate, or reports exhaustion.
func (v Vote) Next(continuing map[base.CandidateIndex]struct{}) (Vote, bool) {
	for i := v.upto; i < len(v.prefs); i++ {
		if _, ok := continuing[v.prefs[i]]; ok {
			return Vote{upto: i, N: v.N, prefs: v.prefs, atl: v.atl}, true
		}
	}
	return Vote{}, false
}

// VotesWithSameTransferValue is a pile of votes sharing a transfer
// value. In a physical count this would typically be a single pile.
type VotesWithSameTransferValue struct {
	Votes         []Vote
	NumBallots    base.BallotPaperCount
	NumATLBallots base.BallotPaperCount
}

func (p *VotesWithSameTransferValue) NumBTLBallots() base.BallotPaperCount {
	return p.NumBallots - p.NumATLBallots
}

func (p *VotesWithSameTransferValue) AddVote(v Vote) {
	p.NumBallots += v.N
	if v.atl {
		p.NumATLBallots += v.N
	}
	p.Votes = append(p.Votes, v)
}

// stateBeforeAddition allows reverting to an earlier state, for
// jurisdictions that use a last parcel.
type stateBeforeAddition struct {
	votesLen int
}

// Add appends votes and returns a token that extractLastParcel can use
// to revert to the prior state.
func (p *VotesWithSameTransferValue) Add(votes []Vote) stateBeforeAddition {
	old := stateBeforeAddition{votesLen: len(p.Votes)}
	for _, v := range votes {
		p.AddVote(v)
	}
	return old
}

// extractLastParcel reverts to the state the token captured, returning
// the votes removed.
func (p *VotesWithSameTransferValue) extractLastParcel(old stateBeforeAddition) VotesWithSameTransferValue {
	var res VotesWithSameTransferValue
	for _, v := range p.Votes[old.votesLen:] {
		res.AddVote(v)
	}
	p.Votes = p.Votes[:old.votesLen]
	p.NumBallots -= res.NumBallots
	p.NumATLBallots -= res.NumATLBallots
	return res
}

// DistributedVotes is votes distributed amongst continuing candidates.
type DistributedVotes struct {
	ByCandidate  []VotesWithSameTransferValue
	Exhausted    base.BallotPaperCount
	ExhaustedATL base.BallotPaperCount
}

// Distribute assigns each vote to its next preferred continuing
// candidate, or to exhausted.
func Distribute(votes []Vote, continuing map[base.CandidateIndex]struct{}, numCandidates int) *DistributedVotes {
	res := &DistributedVotes{ByCandidate: make([]VotesWithSameTransferValue, numCandidates)}
	for _, vote := range votes {
		if next, ok := vote.Next(continuing); ok {
			res.ByCandidate[next.Candidate()].AddVote(next)
		} else {
			res.Exhausted += vote.N
			if vote.IsATL() {
				res.ExhaustedATL += vote.N
			}
		}
	}
	return res
}
