// Package rules defines the named rule profiles reproducing how real
// electoral commissions count, including their documented bugs, plus
// reference interpretations of the legislation.
package rules

import (
	"github.com/AndrewConway/ConcreteSTV/count"
	"github.com/AndrewConway/ConcreteSTV/pile"
	"github.com/AndrewConway/ConcreteSTV/tally"
	"github.com/AndrewConway/ConcreteSTV/tiebreak"
	"github.com/AndrewConway/ConcreteSTV/transcript"
)

// federalBase is the Commonwealth Electoral Act 1918 s273 machinery
// shared by all federal profiles: integer tallies rounded down, a
// single transfer value per surplus computed over all ballots, and
// exclusions transferred highest transfer value first.
func federalBase(name string) *count.Profile {
	return &count.Profile{
		Name:                          name,
		Kind:                          tally.Integer,
		VoteRounding:                  tally.RoundDown,
		SplitBy:                       pile.DoNotSplitByCountNumber,
		TransferValueMethod:           transcript.SurplusOverBallots,
		SurplusMethod:                 count.JustOneTransferValue,
		CapSurplusFractionAtOne:       true,
		SortExclusionsByTransferValue: true,
		TiesElectedOneOfLastTwo:       tiebreak.RequireAllDifferent,
		TiesElectedByQuota:            tiebreak.RequireAllDifferent,
		TiesElectedAllRemaining:       tiebreak.RequireAllDifferent,
		TiesLowestForExclusion:        tiebreak.RequireAllDifferent,
		CheckElectedMidSurplus:        true,
		CheckElectedMidExclusion:      true,
		HasQuota:                      true,
		MinATLPrefs:                   1,
		MinBTLPrefs:                   6,
	}
}

// Federal is a straight reading of the legislation: bulk exclusion on,
// rules 17 and 18 checked after every quota check.
func Federal() *count.Profile {
	p := federalBase("Federal")
	p.WhenShortcutLastTwo = count.AfterCheckingQuota
	p.WhenElectAllRemaining = count.AfterCheckingQuota
	p.BulkExclusion = count.BulkExclusionOn
	return p
}

// AEC2013 reproduces the AEC's 2013 count, reverse engineered from the
// published distribution of preferences: bulk exclusion applied, any
// tally difference breaks an exclusion tie.
func AEC2013() *count.Profile {
	p := federalBase("AEC2013")
	p.TiesLowestForExclusion = tiebreak.AnyDifference
	p.WhenShortcutLastTwo = count.AfterCheckingQuotaIfNoUndistributedSurplusExistsAndExclusionNotOngoing
	p.WhenElectAllRemaining = count.AfterCheckingQuotaIfNoUndistributedSurplusExists
	p.BulkExclusion = count.BulkExclusionOn
	return p
}

// AEC2016 reproduces the AEC's 2016 count: no bulk exclusion, rule 18
// applied only with no undistributed surplus, so an exclusion is
// carried out in full even when the winners are already determined.
func AEC2016() *count.Profile {
	p := federalBase("AEC2016")
	p.TiesLowestForExclusion = tiebreak.AnyDifference
	p.WhenShortcutLastTwo = count.AfterCheckingQuotaIfNoUndistributedSurplusExistsAndExclusionNotOngoing
	p.WhenElectAllRemaining = count.AfterCheckingQuotaIfNoUndistributedSurplusExists
	return p
}

// AEC2019 reproduces the AEC's 2019 count: an exclusion is aborted
// before any papers move once the remaining candidates fill the
// remaining vacancies.
func AEC2019() *count.Profile {
	p := federalBase("AEC2019")
	p.WhenShortcutLastTwo = count.AfterCheckingQuotaIfNoUndistributedSurplusExistsAndExclusionNotOngoing
	p.WhenElectAllRemaining = count.AfterDeterminingWhoToExcludeButBeforeTransferringAnyPapers
	return p
}

// FederalPost2021 follows the 2021 amendments: the exclusion tie-break
// constructs a total order from pairwise differences at the earliest
// differing count rather than requiring all tallies distinct at once.
func FederalPost2021() *count.Profile {
	p := federalBase("FederalPost2021")
	p.TiesLowestForExclusion = tiebreak.AnyDifference
	p.WhenShortcutLastTwo = count.AfterCheckingQuotaIfNoUndistributedSurplusExistsAndExclusionNotOngoing
	p.WhenElectAllRemaining = count.AfterCheckingQuotaIfNoUndistributedSurplusExists
	return p
}

// FederalPost2021Manual is FederalPost2021 with the s273(13A) bulk
// exclusion available when the operator asks for it.
func FederalPost2021Manual() *count.Profile {
	p := FederalPost2021()
	p.Name = "FederalPost2021Manual"
	p.BulkExclusion = count.BulkExclusionManualOnly
	return p
}
