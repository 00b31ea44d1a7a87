package count

import (
	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/pile"
	"github.com/AndrewConway/ConcreteSTV/tally"
	"github.com/AndrewConway/ConcreteSTV/tiebreak"
	"github.com/AndrewConway/ConcreteSTV/transcript"
	"github.com/AndrewConway/ConcreteSTV/util"
	"github.com/AndrewConway/ConcreteSTV/util/isvalid"
)

var InvalidProfileError = util.NewError("invalid rule profile")

// SurplusMethod is the general algorithm used for surplus transfers.
type SurplusMethod uint8

const (
	// JustOneTransferValue bunches all the votes together and does a
	// single transfer. Federal.
	JustOneTransferValue SurplusMethod = iota
	// ScaleTransferValues does separate transfers based on provenance,
	// with incoming transfer values scaled by a common ratio. NSW 2021.
	ScaleTransferValues
	// MergeSameTransferValuesAndScale is like ScaleTransferValues
	// except numerically equal transfer values merge, highest first.
	MergeSameTransferValuesAndScale
)

// WhenClauseCheck is when a special termination clause is checked. Many
// systems elect remaining candidates early when the outcome is forced;
// legislation is vague about exactly when, and commissions differ.
type WhenClauseCheck uint8

const (
	Never WhenClauseCheck = iota
	// AfterCheckingQuota applies the clause after every quota check.
	AfterCheckingQuota
	// AfterCheckingQuotaIfNoUndistributedSurplusExistsAndExclusionNotOngoing
	// requires surplus quiescence and a finished exclusion. AEC 2013/2016 rule 17.
	AfterCheckingQuotaIfNoUndistributedSurplusExistsAndExclusionNotOngoing
	// AfterCheckingQuotaIfNoUndistributedSurplusExists requires only
	// surplus quiescence. AEC 2013/2016 rule 18.
	AfterCheckingQuotaIfNoUndistributedSurplusExists
	// AfterCheckingQuotaIfExclusionNotOngoing requires a finished
	// exclusion. NSW clause 11.
	AfterCheckingQuotaIfExclusionNotOngoing
	// AfterDeterminingWhoToExcludeButBeforeTransferringAnyPapers aborts
	// an exclusion before any papers move. AEC 2019 rule 18.
	AfterDeterminingWhoToExcludeButBeforeTransferringAnyPapers
)

// BulkExclusionMode controls the federal s273(13A) multiple exclusion.
type BulkExclusionMode uint8

const (
	BulkExclusionOff BulkExclusionMode = iota
	BulkExclusionOn
	// BulkExclusionManualOnly applies it only when the operator asks.
	BulkExclusionManualOnly
)

// CountNaming is how human readable count names are assigned.
type CountNaming uint8

const (
	// SimpleNumber names counts 1,2,3,... implicitly; no name is stored.
	SimpleNumber CountNaming = iota
	// MajorMinor names counts 1.1, 2.1, 3.1, 3.2, ... with a major
	// number per exclusion or surplus and a sequential minor number.
	MajorMinor
	// BasedOnSourceName names sub-counts after the counts the papers
	// came from, e.g. 42.41.20.5.1.
	BasedOnSourceName
)

// Profile is the complete set of switches selecting a jurisdiction's
// counting behaviour. The engine is a function of this flat record; no
// rule-specific code lives outside it.
type Profile struct {
	Name string

	// arithmetic.
	Kind         tally.Kind
	VoteRounding tally.Rounding
	// how a candidate's holding splits into parcels. Using
	// SplitByWhenTransferValueWasCreated makes numerically equal
	// transfer values of different origin distinct, as ACT 2020 did.
	SplitBy pile.SplitMethod

	// surplus distribution.
	UseLastParcelForSurplus bool
	TransferValueMethod     transcript.TransferValueMethod
	SurplusMethod           SurplusMethod
	// cap the surplus fraction at one rather than use it literally.
	// NSW clause 7(4)(a) is ambiguous; both readings are shipped.
	CapSurplusFractionAtOne bool

	// exclusion.
	SortExclusionsByTransferValue bool
	BulkExclusion                 BulkExclusionMode

	// tie resolution count-back per purpose.
	TiesElectedOneOfLastTwo tiebreak.Method
	TiesElectedByQuota      tiebreak.Method
	TiesElectedAllRemaining tiebreak.Method
	TiesLowestForExclusion  tiebreak.Method

	// when counting stops.
	CheckElectedMidSurplus            bool
	CheckElectedMidExclusion          bool
	FinishExclusionEvenWhenAllElected bool
	FinishSurplusesEvenWhenAllElected bool
	WhenShortcutLastTwo               WhenClauseCheck
	WhenElectAllRemaining             WhenClauseCheck
	WhenOverwhelmingVotes             WhenClauseCheck

	// quota.
	HasQuota                bool
	ExhaustedCountsForQuota bool
	// recompute the quota each count from continuing candidates'
	// tallies; used by casual vacancy counts.
	QuotaRecomputePerCount bool

	// documented commission bugs, reproduced on request.
	CountSetAsideAsRounding            bool
	RoundExhaustedToIntegerOnExclusion bool
	LimitTVRoundedToSixDecimals        bool
	SortSubcountsByCountName           bool

	// preference expansion.
	UseGroupVotingTickets bool
	MinATLPrefs           int
	MinBTLPrefs           int

	CountNaming CountNaming
	// start a new major count when someone is elected mid-transfer, as
	// the WAEC numbers its counts.
	MajorCountOnElection bool
}

// InterpretRawBallot applies the profile's formality cut-offs to a raw
// ballot: a sufficient below the line vote wins over an above the line
// one; both nil means informal.
func (p *Profile) InterpretRawBallot(r *base.RawBallotMarkings) (*base.ATL, *base.BTL) {
	return r.InterpretVote(p.MinATLPrefs, p.MinBTLPrefs)
}

func (p *Profile) IsValid([]byte) error {
	if p.Name == "" {
		return isvalid.InvalidError.Wrap(InvalidProfileError.Errorf("empty name"))
	}

	if p.TransferValueMethod.LimitToIncomingTransferValue() && p.SurplusMethod != JustOneTransferValue {
		return isvalid.InvalidError.Wrap(InvalidProfileError.Errorf(
			"%s: limiting to the incoming transfer value requires a single transfer value per surplus", p.Name))
	}

	if p.TransferValueMethod.LimitToIncomingTransferValue() && !p.UseLastParcelForSurplus {
		return isvalid.InvalidError.Wrap(InvalidProfileError.Errorf(
			"%s: limiting to the incoming transfer value requires a last parcel with a unique one", p.Name))
	}

	if p.SurplusMethod != JustOneTransferValue && p.UseLastParcelForSurplus {
		return isvalid.InvalidError.Wrap(InvalidProfileError.Errorf(
			"%s: last parcel surplus distribution is a single transfer", p.Name))
	}

	if p.Kind == tally.Rational && p.VoteRounding != tally.RoundNone {
		return isvalid.InvalidError.Wrap(InvalidProfileError.Errorf(
			"%s: rational tallies do not round", p.Name))
	}

	if !p.HasQuota && p.QuotaRecomputePerCount {
		return isvalid.InvalidError.Wrap(InvalidProfileError.Errorf(
			"%s: quota recomputation without a quota", p.Name))
	}

	return nil
}
