package rules

import (
	"github.com/AndrewConway/ConcreteSTV/count"
	"github.com/AndrewConway/ConcreteSTV/pile"
	"github.com/AndrewConway/ConcreteSTV/tally"
	"github.com/AndrewConway/ConcreteSTV/tiebreak"
	"github.com/AndrewConway/ConcreteSTV/transcript"
)

// actBase is the ACT Electoral Act 1992 schedule 4 machinery: only the
// last parcel transfers on a surplus, the transfer value is
// surplus/continuing-papers capped at the incoming value, and votes set
// aside by the cap are booked against rounding, which is what Elections
// ACT does even though nothing requires it.
func actBase(name string) *count.Profile {
	return &count.Profile{
		Name:                          name,
		Kind:                          tally.Integer,
		VoteRounding:                  tally.RoundDown,
		SplitBy:                       pile.DoNotSplitByCountNumber,
		UseLastParcelForSurplus:       true,
		TransferValueMethod:           transcript.SurplusOverContinuingBallotsLimitedToPriorTransferValue,
		SurplusMethod:                 count.JustOneTransferValue,
		CapSurplusFractionAtOne:       true,
		SortExclusionsByTransferValue: true,
		TiesElectedOneOfLastTwo:       tiebreak.AnyDifference,
		TiesElectedByQuota:            tiebreak.AnyDifference,
		TiesElectedAllRemaining:       tiebreak.AnyDifference,
		TiesLowestForExclusion:        tiebreak.AnyDifference,
		CheckElectedMidSurplus:        true,
		CheckElectedMidExclusion:      true,
		WhenShortcutLastTwo:           count.Never,
		WhenElectAllRemaining:         count.AfterCheckingQuotaIfNoUndistributedSurplusExistsAndExclusionNotOngoing,
		HasQuota:                      true,
		CountSetAsideAsRounding:       true,
		CountNaming:                   count.MajorMinor,
		MinATLPrefs:                   1,
		MinBTLPrefs:                   1,
	}
}

// ACTPre2020 is the integer arithmetic used before 2020.
func ACTPre2020() *count.Profile {
	return actBase("ACTPre2020")
}

// ACT2020 reproduces the five documented bugs in the Elections ACT 2020
// count: votes rounded to nearest rather than down, the incoming
// transfer value truncated to six decimals before being used as a
// limit, numerically equal transfer values of different origin kept as
// separate parcels, exhausted votes rounded to an integer during
// exclusions, and surplus distribution continuing after all seats are
// filled.
func ACT2020() *count.Profile {
	p := actBase("ACT2020")
	p.Kind = tally.SixDecimal
	p.VoteRounding = tally.RoundNearest
	p.SplitBy = pile.SplitByWhenTransferValueWasCreated
	p.LimitTVRoundedToSixDecimals = true
	p.RoundExhaustedToIntegerOnExclusion = true
	p.FinishSurplusesEvenWhenAllElected = true
	return p
}

// ACT2021 is the corrected arithmetic introduced for the 2021 casual
// vacancy: exact rational tallies; votes are never rounded.
func ACT2021() *count.Profile {
	p := actBase("ACT2021")
	p.Kind = tally.Rational
	p.VoteRounding = tally.RoundNone
	return p
}

// ACTCasualVacancy2021 is ACT2021 with the quota recomputed every count
// from continuing candidates' tallies, as part 4.3 of the Act requires
// for casual vacancies. The count may continue past a natural
// termination point, which cannot change the elected set.
func ACTCasualVacancy2021() *count.Profile {
	p := ACT2021()
	p.Name = "ACTCasualVacancy2021"
	p.QuotaRecomputePerCount = true
	return p
}
