package rules

import (
	"github.com/AndrewConway/ConcreteSTV/count"
	"github.com/AndrewConway/ConcreteSTV/pile"
	"github.com/AndrewConway/ConcreteSTV/tally"
	"github.com/AndrewConway/ConcreteSTV/tiebreak"
	"github.com/AndrewConway/ConcreteSTV/transcript"
)

// Vic2018 is the Victorian Legislative Council count, Electoral Act
// 2002 s114A: a single transfer value per surplus over all ballots,
// first preferences kept as a separate parcel from all later transfers,
// and final-count ties decided by lot. The 2018 amendment to
// s114A(28)(c) matched the legislation to what the VEC already did in
// 2014, hence the name.
func Vic2018() *count.Profile {
	return &count.Profile{
		Name:                          "Vic2018",
		Kind:                          tally.Integer,
		VoteRounding:                  tally.RoundDown,
		SplitBy:                       pile.SplitFirstCount,
		TransferValueMethod:           transcript.SurplusOverBallots,
		SurplusMethod:                 count.JustOneTransferValue,
		CapSurplusFractionAtOne:       true,
		SortExclusionsByTransferValue: true,
		// s114A(25): the final-count tie goes to the election manager's
		// lot, with no count-back first.
		TiesElectedOneOfLastTwo: tiebreak.None,
		// s114A(21): equal surpluses order by the last count at which
		// each had a different number of votes.
		TiesElectedByQuota: tiebreak.RequireAllDifferent,
		// not specified.
		TiesElectedAllRemaining: tiebreak.None,
		// s114A(24).
		TiesLowestForExclusion: tiebreak.RequireAllDifferent,
		// a surplus is one transfer; an exclusion elects per s114A(13),
		// though the elected candidate's own surplus waits (15).
		CheckElectedMidSurplus:   false,
		CheckElectedMidExclusion: true,
		// s114A(18); the legislation is vague on timing, but only after
		// a finished exclusion makes sense.
		WhenShortcutLastTwo: count.AfterCheckingQuotaIfExclusionNotOngoing,
		// s114A(19) "Despite any other provision of this section".
		WhenElectAllRemaining: count.AfterCheckingQuota,
		WhenOverwhelmingVotes: count.Never,
		HasQuota:              true,
		MinATLPrefs:           1,
		MinBTLPrefs:           5,
	}
}
