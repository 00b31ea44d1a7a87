package rules

import (
	"github.com/AndrewConway/ConcreteSTV/count"
	"github.com/AndrewConway/ConcreteSTV/pile"
	"github.com/AndrewConway/ConcreteSTV/tally"
	"github.com/AndrewConway/ConcreteSTV/tiebreak"
	"github.com/AndrewConway/ConcreteSTV/transcript"
)

// WA2008 is the Western Australian Legislative Council count, Electoral
// Act 1907 schedule 1, as the WAEC applied it from 2008: surpluses
// divided into sub-transfers by the count the papers arrived in (the
// 2008 East Metropolitan count 28 shows separate sub-transfers for
// counts 1.1, 6.1 and 7.1 even though all carried transfer value 1),
// and an excluded candidate's papers transferred in the order the
// transfers were obtained, earliest first.
func WA2008() *count.Profile {
	return &count.Profile{
		Name:                "WA2008",
		Kind:                tally.Integer,
		VoteRounding:        tally.RoundDown,
		SplitBy:             pile.FullySplitByCountNumber,
		TransferValueMethod: transcript.SurplusOverBallots,
		SurplusMethod:       count.ScaleTransferValues,
		CapSurplusFractionAtOne: true,
		// clause 8(b): by originating transfer, not transfer value.
		SortExclusionsByTransferValue: false,
		// clause 12: by lot, no count-back.
		TiesElectedOneOfLastTwo: tiebreak.None,
		// clause 15.
		TiesElectedByQuota: tiebreak.RequireAllDifferent,
		// order elected is not mentioned in the legislation.
		TiesElectedAllRemaining: tiebreak.None,
		// clause 17.
		TiesLowestForExclusion: tiebreak.RequireAllDifferent,
		// clause 19 makes a surplus one transfer (2018 East Metro count
		// 28.5: XAMON over quota but not elected until the distribution
		// finished); clauses 9 and 11 allow election mid-exclusion.
		CheckElectedMidSurplus:   false,
		CheckElectedMidExclusion: true,
		// the WAEC stopped mid-exclusion once the seats were filled
		// (2008 Agricultural region, count 25.36).
		WhenShortcutLastTwo:   count.AfterCheckingQuotaIfNoUndistributedSurplusExistsAndExclusionNotOngoing,
		WhenElectAllRemaining: count.AfterCheckingQuotaIfNoUndistributedSurplusExistsAndExclusionNotOngoing,
		WhenOverwhelmingVotes: count.Never,
		HasQuota:              true,
		CountNaming:           count.MajorMinor,
		// 2008 South West: HOLT reached quota at count 26.1 during an
		// exclusion and the next count was 27.1, not 26.2.
		MajorCountOnElection: true,
		MinATLPrefs:          1,
		MinBTLPrefs:          1,
	}
}
