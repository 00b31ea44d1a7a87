package tiebreak

import (
	"math/rand"
	"sort"

	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/util"
)

var UnresolvedTieError = util.NewError("unresolved tie")

// Purpose describes what a tie resolution is for. The oracle never
// observes ballots, only candidate identities and purpose.
type Purpose string

const (
	PurposeExclude      Purpose = "exclude"
	PurposeElectOrder   Purpose = "elect-order"
	PurposeSurplusOrder Purpose = "surplus-order"
	PurposeOther        Purpose = "other"
)

// Fallback is what the oracle does when no explicit decision covers a
// tie.
type Fallback uint8

const (
	// FallbackDonkey puts the candidate earlier on the paper in the
	// worse position, which is what commissions tend to do in practice.
	FallbackDonkey Fallback = iota
	// FallbackRandom shuffles with a seeded deterministic generator.
	FallbackRandom
	// FallbackNone surfaces the tie to the caller.
	FallbackNone
)

// ECResolutions replays decisions made by an electoral commission, with
// a configurable fallback for ties no decision covers. To exactly match
// a commission's results the identical decisions must be provided.
type ECResolutions struct {
	Decisions []base.TieResolutionExplicitDecision

	fallback Fallback
	rng      *rand.Rand
}

func NewECResolutions(decisions []base.TieResolutionExplicitDecision, fallback Fallback, seed int64) *ECResolutions {
	ec := &ECResolutions{Decisions: decisions, fallback: fallback}
	if fallback == FallbackRandom {
		ec.rng = rand.New(rand.NewSource(seed)) // nolint:gosec
	}
	return ec
}

// Resolve orders tied candidates low to high (increasing favour). An
// explicit decision is used if one covers the tie; otherwise the
// fallback applies. FallbackNone returns UnresolvedTieError carrying
// the candidate set and purpose.
func (ec *ECResolutions) Resolve(tied []base.CandidateIndex, g Granularity, purpose Purpose) error {
	for _, decision := range ec.Decisions {
		ordering := decision.Ordering()
		deemed := make([]base.CandidateIndex, 0, len(ordering))
		for _, c := range ordering {
			if containsCandidate(tied, c) {
				deemed = append(deemed, c)
			}
		}

		if len(deemed) == len(tied) {
			copy(tied, deemed)
			return nil
		}

		// A 2-way decision is sufficient to separate the lowest: one
		// candidate will be excluded and the tie should not re-arise.
		if g.Lowest() == 1 && len(ordering) == 2 && len(deemed) == 2 {
			last := ordering[0]
			rest := make([]base.CandidateIndex, 0, len(tied)-1)
			for _, c := range tied {
				if c != last {
					rest = append(rest, c)
				}
			}
			tied[0] = last
			copy(tied[1:], rest)
			return nil
		}
	}

	switch ec.fallback {
	case FallbackRandom:
		ec.rng.Shuffle(len(tied), func(i, j int) {
			tied[i], tied[j] = tied[j], tied[i]
		})
		return nil
	case FallbackNone:
		return UnresolvedTieError.Errorf("purpose %s, candidates %v", purpose, tied)
	default:
		sort.Slice(tied, func(i, j int) bool { return tied[i] < tied[j] })
		return nil
	}
}

func containsCandidate(cs []base.CandidateIndex, c base.CandidateIndex) bool {
	for _, x := range cs {
		if x == c {
			return true
		}
	}
	return false
}
