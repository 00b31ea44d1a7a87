package tiebreak

import (
	"sort"

	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/tally"
	"github.com/AndrewConway/ConcreteSTV/transcript"
)

// Method is the count-back rule used to break ties before the electoral
// commission is consulted.
type Method uint8

const (
	None Method = iota
	// RequireAllDifferent resolves only if at some prior count *all*
	// the tied candidates had different tallies. Federal s273(20)(b).
	RequireAllDifferent
	// AnyDifference uses any prior count where at least two tallies
	// differ as a partial discriminator, recursing on tied subsets.
	AnyDifference
	// RequireAllDifferentMajor is RequireAllDifferent considering only
	// counts where an action finished, ignoring sub-transfers.
	RequireAllDifferentMajor
	// AnyDifferenceMajor is AnyDifference considering only counts where
	// an action finished.
	AnyDifferenceMajor
)

func (m Method) String() string {
	switch m {
	case None:
		return "None"
	case RequireAllDifferent:
		return "RequireAllDifferent"
	case AnyDifference:
		return "AnyDifference"
	case RequireAllDifferentMajor:
		return "RequireAllDifferentMajor"
	case AnyDifferenceMajor:
		return "AnyDifferenceMajor"
	default:
		return "<unknown tie method>"
	}
}

// Granularity says how precise a tie resolution needs to be: a total
// order of all the tied candidates, or just the lowest n separated from
// the remainder.
type Granularity struct {
	lowestSeparated int
}

func Total() Granularity { return Granularity{} }

func LowestSeparated(n int) Granularity { return Granularity{lowestSeparated: n} }

func (g Granularity) IsTotal() bool { return g.lowestSeparated == 0 }

func (g Granularity) Lowest() int { return g.lowestSeparated }

// Resolve sorts tied candidates low to high based on recorded tallies
// at prior counts, per the method. Returns false if the method does not
// resolve the tie to the required granularity; the caller then consults
// the electoral commission.
func (m Method) Resolve(tied []base.CandidateIndex, tr *transcript.Transcript, g Granularity) bool {
	switch m {
	case RequireAllDifferent:
		return resolveRequireAllDifferent(tied, tr, false)
	case AnyDifference:
		return resolveAnyDifference(tied, tr, g, false)
	case RequireAllDifferentMajor:
		return resolveRequireAllDifferent(tied, tr, true)
	case AnyDifferenceMajor:
		return resolveAnyDifference(tied, tr, g, true)
	default:
		return false
	}
}

// resolveRequireAllDifferent sorts candidates low to high based on some
// prior count when they all had different tallies.
func resolveRequireAllDifferent(tied []base.CandidateIndex, tr *transcript.Transcript, majorCountsOnly bool) bool {
	for i := len(tr.Counts) - 1; i >= 0; i-- {
		count := tr.Counts[i]
		if majorCountsOnly && !count.ReasonCompleted {
			continue
		}

		observed := map[string]struct{}{}
		for _, c := range tied {
			observed[count.Status.Tallies.Candidate[c].Key()] = struct{}{}
		}
		if len(observed) == len(tied) { // all different
			tallies := count.Status.Tallies.Candidate
			sort.SliceStable(tied, func(a, b int) bool {
				return tallies[tied[a]].Cmp(tallies[tied[b]]) < 0
			})
			return true
		}
	}
	return false
}

// resolveAnyDifference sorts candidates low to high using the first
// prior count with at least one difference, recursing on still-tied
// subsets.
func resolveAnyDifference(tied []base.CandidateIndex, tr *transcript.Transcript, g Granularity, majorCountsOnly bool) bool {
	for i := len(tr.Counts) - 1; i >= 0; i-- {
		count := tr.Counts[i]
		if majorCountsOnly && !count.ReasonCompleted {
			continue
		}

		talliesAt := count.Status.Tallies.Candidate
		groups := groupByTally(tied, talliesAt)
		if len(groups) < 2 {
			continue
		}

		ok := true
		upto := 0
		for _, who := range groups {
			if len(who) > 1 {
				switch {
				case g.IsTotal():
					ok = resolveAnyDifference(who, tr, g, majorCountsOnly) && ok
				case g.Lowest() > upto && g.Lowest() < upto+len(who):
					ok = resolveAnyDifference(who, tr, LowestSeparated(g.Lowest()-upto), majorCountsOnly) && ok
				default:
					// granularity means this subset does not matter.
				}
			}
			copy(tied[upto:upto+len(who)], who)
			upto += len(who)
		}
		return ok
	}
	return false
}

// groupByTally partitions candidates by their tally at a count, groups
// ordered by increasing tally.
func groupByTally(tied []base.CandidateIndex, talliesAt []tally.Tally) [][]base.CandidateIndex {
	byKey := map[string][]base.CandidateIndex{}
	keys := []string{}
	for _, c := range tied {
		k := talliesAt[c].Key()
		if _, ok := byKey[k]; !ok {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], c)
	}

	sort.Slice(keys, func(a, b int) bool {
		return talliesAt[byKey[keys[a]][0]].Cmp(talliesAt[byKey[keys[b]][0]]) < 0
	})

	res := make([][]base.CandidateIndex, len(keys))
	for i, k := range keys {
		res[i] = byKey[k]
	}
	return res
}
