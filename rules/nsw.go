package rules

import (
	"github.com/AndrewConway/ConcreteSTV/count"
	"github.com/AndrewConway/ConcreteSTV/pile"
	"github.com/AndrewConway/ConcreteSTV/tally"
	"github.com/AndrewConway/ConcreteSTV/tiebreak"
	"github.com/AndrewConway/ConcreteSTV/transcript"
)

// nswBase is the NSW Local Government (General) Regulation 2021
// schedule 5 machinery: weighted inclusive Gregory with per transfer
// value sub-transfers, the surplus fraction computed over non-exhausted
// value, parcels split fully by the count they arrived in, and
// sub-counts named after the counts the papers came from.
func nswBase(name string) *count.Profile {
	return &count.Profile{
		Name:                    name,
		Kind:                    tally.Integer,
		VoteRounding:            tally.RoundDown,
		SplitBy:                 pile.FullySplitByCountNumber,
		TransferValueMethod:     transcript.SurplusOverContinuingBallots,
		SurplusMethod:           count.MergeSameTransferValuesAndScale,
		CapSurplusFractionAtOne: true,
		TiesElectedOneOfLastTwo: tiebreak.RequireAllDifferent,
		TiesElectedByQuota:      tiebreak.RequireAllDifferent,
		TiesElectedAllRemaining: tiebreak.RequireAllDifferent,
		TiesLowestForExclusion:  tiebreak.RequireAllDifferent,
		CheckElectedMidSurplus:  false,
		CheckElectedMidExclusion: true,
		WhenShortcutLastTwo:      count.AfterCheckingQuotaIfNoUndistributedSurplusExistsAndExclusionNotOngoing,
		WhenElectAllRemaining:    count.AfterCheckingQuotaIfExclusionNotOngoing,
		WhenOverwhelmingVotes:    count.AfterCheckingQuotaIfExclusionNotOngoing,
		HasQuota:                 true,
		CountNaming:              count.BasedOnSourceName,
		MinATLPrefs:              1,
		MinBTLPrefs:              1,
	}
}

// NSWLocalGov2021 is a best guess at what the highly ambiguous
// legislation means: sub-transfers merged by transfer value and done
// highest first.
func NSWLocalGov2021() *count.Profile {
	return nswBase("NSWLocalGov2021")
}

// NSWECLocalGov2021 reproduces the NSWEC's 2021 local government count:
// separate sub-transfers per origin count ordered by the commission's
// part numeric, part lexicographic count name comparison, no election
// checks in the middle of a transfer, ties broken by any difference at
// completed counts, and the surplus fraction capped at one.
func NSWECLocalGov2021() *count.Profile {
	p := nswBase("NSWECLocalGov2021")
	p.SurplusMethod = count.ScaleTransferValues
	p.TiesElectedOneOfLastTwo = tiebreak.AnyDifferenceMajor
	p.TiesElectedByQuota = tiebreak.AnyDifferenceMajor
	p.TiesElectedAllRemaining = tiebreak.AnyDifferenceMajor
	p.TiesLowestForExclusion = tiebreak.AnyDifferenceMajor
	p.CheckElectedMidExclusion = false
	p.SortSubcountsByCountName = true
	p.FinishSurplusesEvenWhenAllElected = true
	return p
}

// NSWECLocalGov2021Literal is NSWECLocalGov2021 with clause 7(4)(a)
// read literally: a resulting fraction above one, or negative, is used
// as is. A candidate can end up elected with a negative tally.
func NSWECLocalGov2021Literal() *count.Profile {
	p := NSWECLocalGov2021()
	p.Name = "NSWECLocalGov2021Literal"
	p.CapSurplusFractionAtOne = false
	return p
}

// SimpleIRV is a single winner instant runoff count: no quota, a
// majority terminates via the overwhelming votes check.
func SimpleIRV() *count.Profile {
	return &count.Profile{
		Name:                     "IRV",
		Kind:                     tally.Integer,
		VoteRounding:             tally.RoundDown,
		SplitBy:                  pile.DoNotSplitByCountNumber,
		TransferValueMethod:      transcript.SurplusOverContinuingBallots,
		SurplusMethod:            count.ScaleTransferValues,
		CapSurplusFractionAtOne:  true,
		TiesElectedOneOfLastTwo:  tiebreak.AnyDifferenceMajor,
		TiesElectedByQuota:       tiebreak.AnyDifferenceMajor,
		TiesElectedAllRemaining:  tiebreak.AnyDifferenceMajor,
		TiesLowestForExclusion:   tiebreak.AnyDifferenceMajor,
		WhenShortcutLastTwo:      count.AfterCheckingQuotaIfNoUndistributedSurplusExistsAndExclusionNotOngoing,
		WhenElectAllRemaining:    count.AfterCheckingQuotaIfExclusionNotOngoing,
		WhenOverwhelmingVotes:    count.AfterCheckingQuota,
		MinATLPrefs:              1,
		MinBTLPrefs:              1,
	}
}
