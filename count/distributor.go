package count

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/pile"
	"github.com/AndrewConway/ConcreteSTV/tally"
	"github.com/AndrewConway/ConcreteSTV/tiebreak"
	"github.com/AndrewConway/ConcreteSTV/transcript"
	"github.com/AndrewConway/ConcreteSTV/util"
	"github.com/AndrewConway/ConcreteSTV/util/logging"
)

var (
	InvariantViolatedError = util.NewError("engine invariant violated")
	NoLastParcelTVError    = util.NewError("limiting to an incoming transfer value requires a unique one")
	NoContinuingError      = util.NewError("no continuing candidates but vacancies remain")
)

// pendingTranscript is information about what is going on in the
// current count, not yet recorded.
type pendingTranscript struct {
	elected              []transcript.CandidateElected
	notContinuing        []base.CandidateIndex
	createdTransferValue *transcript.TransferValueCreation
	decisions            []transcript.DecisionMadeByEC
}

// Distributor is the workhorse that does a distribution of preferences.
// It is driven entirely by a Profile; nothing here is specific to one
// jurisdiction.
type Distributor struct {
	*logging.Logging

	data        *base.ElectionData
	profile     *Profile
	resolutions *tiebreak.ECResolutions

	originalVotes []pile.Vote
	numCandidates int
	toBeElected   base.NumberOfCandidates
	totalPapers   base.BallotPaperCount

	quota tally.Tally

	tallys []tally.Tally
	papers []*pile.Pile

	continuing map[base.CandidateIndex]struct{}
	// continuing candidates sorted lowest tally first, highest last.
	sortedByTally []base.CandidateIndex

	exhausted      base.BallotPaperCount
	exhaustedATL   base.BallotPaperCount
	lostToRounding tally.SignedTally
	tallyExhausted tally.Tally
	tallySetAside  *tally.Tally

	currentCount base.CountIndex
	currentMajor int
	currentMinor int

	pendingSurplus    []base.CandidateIndex
	electedCandidates []base.CandidateIndex

	manualBulkExclusion bool

	inThisCount pendingTranscript
	transcript  *transcript.Transcript
}

// NewDistributor sets up a count of the given votes under the profile.
// Candidates in excluded start out not continuing (e.g. ruled
// ineligible).
func NewDistributor(
	data *base.ElectionData,
	profile *Profile,
	votes []pile.Vote,
	toBeElected base.NumberOfCandidates,
	excluded map[base.CandidateIndex]struct{},
	resolutions *tiebreak.ECResolutions,
) *Distributor {
	numCandidates := data.Metadata.NumCandidates()

	tallys := make([]tally.Tally, numCandidates)
	papers := make([]*pile.Pile, numCandidates)
	for i := 0; i < numCandidates; i++ {
		tallys[i] = tally.Zero(profile.Kind)
		papers[i] = pile.NewPile(profile.SplitBy, profile.Kind)
	}

	continuing := map[base.CandidateIndex]struct{}{}
	var sortedByTally, notContinuing []base.CandidateIndex
	for i := 0; i < numCandidates; i++ {
		c := base.CandidateIndex(i)
		if _, isExcluded := excluded[c]; isExcluded {
			notContinuing = append(notContinuing, c)
		} else {
			continuing[c] = struct{}{}
			sortedByTally = append(sortedByTally, c)
		}
	}

	var totalPapers base.BallotPaperCount
	for _, v := range votes {
		totalPapers += v.N
	}

	return &Distributor{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "distributor").Str("rules", profile.Name)
		}),
		data:           data,
		profile:        profile,
		resolutions:    resolutions,
		originalVotes:  votes,
		numCandidates:  numCandidates,
		toBeElected:    toBeElected,
		totalPapers:    totalPapers,
		quota:          tally.Zero(profile.Kind),
		tallys:         tallys,
		papers:         papers,
		continuing:     continuing,
		sortedByTally:  sortedByTally,
		lostToRounding: tally.ZeroSigned(profile.Kind),
		tallyExhausted: tally.Zero(profile.Kind),
		currentMajor:   1,
		currentMinor:   1,
		inThisCount:    pendingTranscript{notContinuing: notContinuing},
		transcript:     transcript.NewTranscript(profile.Name),
	}
}

// Transcript returns the record produced so far. After Go completes it
// is frozen.
func (d *Distributor) Transcript() *transcript.Transcript { return d.transcript }

func (d *Distributor) tally(c base.CandidateIndex) tally.Tally { return d.tallys[c] }

func (d *Distributor) numberContinuing() base.NumberOfCandidates {
	return base.NumberOfCandidates(len(d.continuing))
}

func (d *Distributor) remainingToElect() base.NumberOfCandidates {
	return d.toBeElected - base.NumberOfCandidates(len(d.electedCandidates))
}

func (d *Distributor) resortCandidates() {
	sort.SliceStable(d.sortedByTally, func(i, j int) bool {
		return d.tally(d.sortedByTally[i]).Cmp(d.tally(d.sortedByTally[j])) < 0
	})
}

// Go runs the whole distribution of preferences.
func (d *Distributor) Go() error {
	if err := d.distributeFirstPreferences(); err != nil {
		return err
	}

	for d.remainingToElect() > 0 ||
		(d.profile.FinishSurplusesEvenWhenAllElected && len(d.sortedByTally) > 0 && len(d.pendingSurplus) > 0) {
		if d.profile.QuotaRecomputePerCount {
			d.recomputeQuota()
		}

		if len(d.pendingSurplus) > 0 {
			candidate := d.pendingSurplus[0]
			d.pendingSurplus = d.pendingSurplus[1:]
			if err := d.distributeSurplus(candidate); err != nil {
				return err
			}
		} else if len(d.sortedByTally) > 0 {
			if err := d.distributeLowest(); err != nil {
				return err
			}
		} else if d.remainingToElect() > 0 {
			return NoContinuingError.Errorf("%d vacancies unfilled", d.remainingToElect())
		} else {
			break
		}
	}

	d.transcript.Freeze()
	return nil
}

func (d *Distributor) distributeFirstPreferences() error {
	distributed := pile.Distribute(d.originalVotes, d.continuing, d.numCandidates)

	var totalFirstPreferences base.BallotPaperCount
	countZero := base.CountIndex(0)
	for i := 0; i < d.numCandidates; i++ {
		votes := &distributed.ByCandidate[i]
		if votes.NumBallots != 0 {
			t := tally.FromCount(d.profile.Kind, int(votes.NumBallots))
			totalFirstPreferences += votes.NumBallots
			d.tallys[i] = d.tallys[i].Add(t)
			d.papers[i].Add(votes, tally.TransferValueOne(), d.currentCount, &countZero, t)
		}
	}

	d.exhausted += distributed.Exhausted
	d.tallyExhausted = d.tallyExhausted.Add(tally.FromCount(d.profile.Kind, int(distributed.Exhausted)))
	if d.profile.ExhaustedCountsForQuota {
		totalFirstPreferences += distributed.Exhausted
	}
	d.exhaustedATL += distributed.ExhaustedATL

	d.computeQuota(totalFirstPreferences)

	return d.endOfCountStep(transcript.FirstPreferenceCount(), transcript.Portion{}, true)
}

// computeQuota sets quota = round_down(first_preferences/(1+vacancies))+1.
func (d *Distributor) computeQuota(totalFirstPreferences base.BallotPaperCount) {
	d.quota = tally.FromCount(d.profile.Kind, int(totalFirstPreferences)/(1+int(d.toBeElected))+1)
	_ = d.transcript.SetQuota(transcript.QuotaInfo{
		Papers:    totalFirstPreferences,
		Vacancies: d.toBeElected,
		Quota:     d.quota,
	})
	d.Log().Debug().Str("quota", d.quota.String()).Int("papers", int(totalFirstPreferences)).Msg("quota computed")
}

// recomputeQuota recalculates the quota from continuing candidates'
// current tallies. Casual vacancy counts do this every count.
func (d *Distributor) recomputeQuota() {
	sum := new(big.Rat)
	for _, c := range d.sortedByTally {
		sum.Add(sum, d.tally(c).Rat())
	}
	remaining := int(d.remainingToElect())
	if remaining < 1 {
		return
	}
	denom := new(big.Rat).SetInt64(int64(remaining + 1))
	q := new(big.Rat).Quo(sum, denom)
	floor := new(big.Int).Div(q.Num(), q.Denom())
	d.quota = tally.FromCount(d.profile.Kind, int(floor.Int64())+1)
	_ = d.transcript.SetQuota(transcript.QuotaInfo{
		Papers:    d.totalPapers,
		Vacancies: d.toBeElected,
		Quota:     d.quota,
	})
}

// noLongerContinuing declares that a candidate is no longer continuing.
func (d *Distributor) noLongerContinuing(candidate base.CandidateIndex, usedInCurrentCount bool) {
	if !usedInCurrentCount {
		d.inThisCount.notContinuing = append(d.inThisCount.notContinuing, candidate)
	}
	for i, c := range d.sortedByTally {
		if c == candidate {
			d.sortedByTally = append(d.sortedByTally[:i], d.sortedByTally[i+1:]...)
			break
		}
	}
	delete(d.continuing, candidate)
}

func (d *Distributor) declareElected(who base.CandidateIndex, why transcript.ElectionReason) {
	d.inThisCount.elected = append(d.inThisCount.elected, transcript.CandidateElected{Who: who, Why: why})
	d.Log().Debug().Int("candidate", int(who)).Str("name", d.data.Metadata.Candidate(who).Name).Str("why", string(why)).Msg("elected")
	d.electedCandidates = append(d.electedCandidates, who)
	_ = d.transcript.AddElected(who)
	d.noLongerContinuing(who, true)
}

// checkForTiesAndResolve looks for ties in the tallies of toCheck
// (already sorted by tally) and resolves them, first by the count-back
// method, then by the injected oracle, recording any decision needed.
func (d *Distributor) checkForTiesAndResolve(toCheck []base.CandidateIndex, how tiebreak.Method, g tiebreak.Granularity, purpose tiebreak.Purpose) error {
	i := 0
	for i < len(toCheck) {
		differs := i + 1
		for differs < len(toCheck) && d.tally(toCheck[i]).Equal(d.tally(toCheck[differs])) {
			differs++
		}
		if differs != i+1 { // a few with identical tallies
			tied := toCheck[i:differs]
			if !how.Resolve(tied, d.transcript, g) {
				if err := d.resolutions.Resolve(tied, g, purpose); err != nil {
					return err
				}
				groups := make([][]base.CandidateIndex, len(tied))
				for j, c := range tied {
					groups[j] = []base.CandidateIndex{c}
				}
				d.inThisCount.decisions = append(d.inThisCount.decisions, transcript.DecisionMadeByEC{IncreasingFavour: groups})
			}
		}
		i = differs
	}
	return nil
}

// checkForTiesAndResolveInplace does the same for a range of
// sortedByTally.
func (d *Distributor) checkForTiesAndResolveInplace(from, to int, how tiebreak.Method, g tiebreak.Granularity, purpose tiebreak.Purpose) error {
	tied := make([]base.CandidateIndex, to-from)
	copy(tied, d.sortedByTally[from:to])
	if err := d.checkForTiesAndResolve(tied, how, g, purpose); err != nil {
		return err
	}
	copy(d.sortedByTally[from:to], tied)
	return nil
}

func (d *Distributor) checkElectedByQuota() error {
	var electedByQuota []base.CandidateIndex
	for i := len(d.sortedByTally) - 1; i >= 0; i-- {
		c := d.sortedByTally[i]
		if d.tally(c).Cmp(d.quota) >= 0 {
			electedByQuota = append(electedByQuota, c)
		} else {
			break
		}
	}
	// low to high so tie checking ordering is compatible.
	reverseCandidates(electedByQuota)

	if err := d.checkForTiesAndResolve(electedByQuota, d.profile.TiesElectedByQuota, tiebreak.Total(), tiebreak.PurposeElectOrder); err != nil {
		return err
	}

	for i := len(electedByQuota) - 1; i >= 0; i-- {
		c := electedByQuota[i]
		d.declareElected(c, transcript.ReachedQuota)
		if d.tally(c).Cmp(d.quota) > 0 {
			d.pendingSurplus = append(d.pendingSurplus, c)
		}
	}
	return nil
}

// checkElectedByHighestOfRemainingTwo is the federal rule 17 analogue:
// for the last vacancy with two continuing candidates, the one with the
// larger tally is elected even below quota.
func (d *Distributor) checkElectedByHighestOfRemainingTwo() error {
	if len(d.sortedByTally) == 2 && d.remainingToElect() == 1 {
		possibilities := make([]base.CandidateIndex, 2)
		copy(possibilities, d.sortedByTally)
		if err := d.checkForTiesAndResolve(possibilities, d.profile.TiesElectedOneOfLastTwo, tiebreak.Total(), tiebreak.PurposeElectOrder); err != nil {
			return err
		}
		d.declareElected(possibilities[1], transcript.HighestOfLastTwoStanding)
	}
	return nil
}

// checkIfShouldElectAllRemaining is the federal rule 18 analogue: when
// the continuing candidates exactly fill the remaining vacancies, all
// are elected.
func (d *Distributor) checkIfShouldElectAllRemaining() error {
	if d.numberContinuing() == d.remainingToElect() {
		electedGroup := make([]base.CandidateIndex, len(d.sortedByTally))
		copy(electedGroup, d.sortedByTally)
		if err := d.checkForTiesAndResolve(electedGroup, d.profile.TiesElectedAllRemaining, tiebreak.Total(), tiebreak.PurposeElectOrder); err != nil {
			return err
		}
		for i := len(electedGroup) - 1; i >= 0; i-- {
			d.declareElected(electedGroup[i], transcript.AllRemainingMustBeElected)
		}
	}
	return nil
}

// checkIfTopFewHaveOverwhelmingVotes is the NSW clause 11(2)/(3)
// analogue: a candidate whose tally exceeds everyone below plus all
// undistributed surpluses is elected, along with all higher continuing
// candidates.
func (d *Distributor) checkIfTopFewHaveOverwhelmingVotes() error {
	remaining := int(d.remainingToElect())
	if remaining <= 0 || len(d.sortedByTally) < remaining {
		return nil
	}

	numBelowPotentialWinners := len(d.sortedByTally) - remaining
	possiblyOverwhelming := d.tally(d.sortedByTally[numBelowPotentialWinners])

	others := tally.Zero(d.profile.Kind)
	for _, c := range d.sortedByTally[:numBelowPotentialWinners] {
		others = others.Add(d.tally(c))
	}
	for _, c := range d.pendingSurplus {
		others = others.Add(d.tally(c).Sub(d.quota))
	}

	if possiblyOverwhelming.Cmp(others) > 0 {
		toElect := make([]base.CandidateIndex, 0, remaining)
		for i := len(d.sortedByTally) - 1; i >= numBelowPotentialWinners; i-- {
			toElect = append(toElect, d.sortedByTally[i])
		}
		for _, c := range toElect {
			d.declareElected(c, transcript.OverwhelmingTally)
		}
	}
	return nil
}

// shouldCheck says whether a particular termination clause applies now.
func (d *Distributor) shouldCheck(when WhenClauseCheck, reason transcript.ReasonForCount, reasonCompleted bool) bool {
	switch when {
	case Never:
		return false
	case AfterCheckingQuota:
		return true
	case AfterCheckingQuotaIfNoUndistributedSurplusExistsAndExclusionNotOngoing:
		return reasonCompleted && len(d.pendingSurplus) == 0
	case AfterCheckingQuotaIfExclusionNotOngoing:
		return reasonCompleted || !reason.IsElimination()
	case AfterDeterminingWhoToExcludeButBeforeTransferringAnyPapers:
		return true
	case AfterCheckingQuotaIfNoUndistributedSurplusExists:
		return len(d.pendingSurplus) == 0
	default:
		return false
	}
}

func (d *Distributor) checkElected(reason transcript.ReasonForCount, reasonCompleted bool) error {
	if d.profile.HasQuota {
		if err := d.checkElectedByQuota(); err != nil {
			return err
		}
	}
	if d.shouldCheck(d.profile.WhenShortcutLastTwo, reason, reasonCompleted) {
		if err := d.checkElectedByHighestOfRemainingTwo(); err != nil {
			return err
		}
	}
	if d.shouldCheck(d.profile.WhenElectAllRemaining, reason, reasonCompleted) {
		if err := d.checkIfShouldElectAllRemaining(); err != nil {
			return err
		}
	}
	if d.shouldCheck(d.profile.WhenOverwhelmingVotes, reason, reasonCompleted) {
		if err := d.checkIfTopFewHaveOverwhelmingVotes(); err != nil {
			return err
		}
	}
	return nil
}

// endOfCountStep closes out a count: checks elections, snapshots the
// status and appends one row to the transcript.
func (d *Distributor) endOfCountStep(reason transcript.ReasonForCount, portion transcript.Portion, reasonCompleted bool) error {
	d.resortCandidates()

	shouldCheckElected := reasonCompleted
	switch {
	case reason.IsFirstPreferenceCount():
		shouldCheckElected = true
	case reason.IsSurplus():
		shouldCheckElected = shouldCheckElected || d.profile.CheckElectedMidSurplus
	case reason.IsElimination():
		shouldCheckElected = shouldCheckElected || d.profile.CheckElectedMidExclusion
	}
	if shouldCheckElected {
		if err := d.checkElected(reason, reasonCompleted); err != nil {
			return err
		}
	}

	d.currentCount++
	countName := d.countName(reason, portion)

	status := d.snapshotStatus()

	row := &transcript.SingleCount{
		CountName:            countName,
		Reason:               reason,
		Portion:              portion,
		CreatedTransferValue: d.inThisCount.createdTransferValue,
		Status:               status,
		Elected:              append([]transcript.CandidateElected{}, d.inThisCount.elected...),
		NotContinuing:        append([]base.CandidateIndex{}, d.inThisCount.notContinuing...),
		ReasonCompleted:      reasonCompleted,
		Decisions:            append([]transcript.DecisionMadeByEC{}, d.inThisCount.decisions...),
	}
	d.inThisCount.createdTransferValue = nil

	if err := d.transcript.AddCount(row); err != nil {
		return err
	}

	if err := d.checkConservation(row); err != nil {
		return err
	}

	if reasonCompleted || (d.profile.MajorCountOnElection && len(row.Elected) > 0) {
		d.currentMajor++
		d.currentMinor = 1
	} else {
		d.currentMinor++
	}

	notContinuing := make([]base.CandidateIndex, 0, len(d.inThisCount.elected))
	for _, e := range d.inThisCount.elected {
		notContinuing = append(notContinuing, e.Who)
	}
	d.inThisCount.elected = nil
	d.inThisCount.notContinuing = notContinuing
	d.inThisCount.decisions = nil

	return nil
}

func (d *Distributor) countName(reason transcript.ReasonForCount, portion transcript.Portion) string {
	switch d.profile.CountNaming {
	case MajorMinor:
		return fmt.Sprintf("%d.%d", d.currentMajor, d.currentMinor)
	case BasedOnSourceName:
		switch {
		case reason.IsFirstPreferenceCount():
			return "1"
		case reason.IsSurplus() && d.profile.SurplusMethod != ScaleTransferValues:
			return fmt.Sprintf("%d_%d", d.currentMajor, d.currentMinor)
		default:
			if len(portion.PapersCameFromCounts) == 0 {
				return fmt.Sprintf("%d", d.currentMajor)
			}
			names := make([]string, len(portion.PapersCameFromCounts))
			for i, c := range portion.PapersCameFromCounts {
				names[i] = d.transcript.Count(c).CountName
			}
			return fmt.Sprintf("%d.%s", d.currentMajor, strings.Join(names, ","))
		}
	default:
		return ""
	}
}

func (d *Distributor) snapshotStatus() transcript.EndCountStatus {
	tallies := make([]tally.Tally, d.numCandidates)
	copy(tallies, d.tallys)

	papersPer := make([]base.BallotPaperCount, d.numCandidates)
	atlPer := make([]base.BallotPaperCount, d.numCandidates)
	for i := 0; i < d.numCandidates; i++ {
		papersPer[i] = d.papers[i].NumBallots()
		atlPer[i] = d.papers[i].NumATLBallots()
	}

	var setAside *tally.Tally
	if d.tallySetAside != nil {
		v := *d.tallySetAside
		setAside = &v
	}

	return transcript.EndCountStatus{
		Tallies: transcript.PerCandidateTally{
			Candidate: tallies,
			Exhausted: d.tallyExhausted,
			Rounding:  d.lostToRounding,
			SetAside:  setAside,
		},
		Papers: transcript.PerCandidatePapers{
			Candidate: papersPer,
			Exhausted: d.exhausted,
		},
		ATLPapers: &transcript.PerCandidatePapers{
			Candidate: atlPer,
			Exhausted: d.exhaustedATL,
		},
	}
}

// checkConservation verifies the conservation of votes at the end of a
// count: the sum of all tally columns equals the number of formal
// papers counted. A violation is a programming bug and aborts with the
// offending row.
func (d *Distributor) checkConservation(row *transcript.SingleCount) error {
	sum := new(big.Rat)
	for i := range d.tallys {
		sum.Add(sum, d.tallys[i].Rat())
	}
	sum.Add(sum, d.tallyExhausted.Rat())
	if d.tallySetAside != nil {
		sum.Add(sum, d.tallySetAside.Rat())
	}

	rounding := d.lostToRounding.Value.Rat()
	if d.lostToRounding.Negative {
		rounding.Neg(rounding)
	}
	sum.Add(sum, rounding)

	expected := new(big.Rat).SetInt64(int64(d.totalPapers))
	if sum.Cmp(expected) != 0 {
		d.Log().Error().
			Str("count", d.currentCount.String()).
			Str("sum", sum.RatString()).
			Str("expected", expected.RatString()).
			Str("status", util.ToString(row)).
			Msg("conservation of votes violated")
		return InvariantViolatedError.Errorf("count %d: tallies sum to %s, formal papers %s",
			d.currentCount, sum.RatString(), expected.RatString())
	}
	return nil
}

func (d *Distributor) addSetAside(setAside tally.Tally) {
	if d.tallySetAside == nil {
		d.tallySetAside = &setAside
	} else {
		v := d.tallySetAside.Add(setAside)
		d.tallySetAside = &v
	}
}

// parcelOutVotes gives distributed votes to their next continuing
// candidates at a given transfer value, reconciling rounding loss so
// the conservation invariant holds.
func (d *Distributor) parcelOutVotes(
	tv tally.TransferValue,
	distributed *pile.DistributedVotes,
	whenTVCreated *base.CountIndex,
	originalWorth tally.Tally,
	distributeExhaustedVotes bool,
	isExclusion bool,
	extraMultipleForExhausted *big.Rat,
) {
	tallyDistributed := tally.Zero(d.profile.Kind)

	for i := range distributed.ByCandidate {
		candidateBallots := &distributed.ByCandidate[i]
		if candidateBallots.NumBallots > 0 {
			worth := tv.Apply(d.profile.Kind, d.profile.VoteRounding, candidateBallots.NumBallots)
			d.tallys[i] = d.tallys[i].Add(worth)
			tallyDistributed = tallyDistributed.Add(worth)
			d.papers[i].Add(candidateBallots, tv, d.currentCount, whenTVCreated, worth)
		}
	}

	if distributed.Exhausted > 0 {
		if distributeExhaustedVotes {
			exhaustedTV := tv
			if extraMultipleForExhausted != nil {
				exhaustedTV = tv.Mul(tally.TransferValueFromRat(extraMultipleForExhausted))
			}
			worth := exhaustedTV.Apply(d.profile.Kind, d.profile.VoteRounding, distributed.Exhausted)
			if isExclusion && d.profile.RoundExhaustedToIntegerOnExclusion {
				worth = worth.RoundDownToInteger()
			}
			d.tallyExhausted = d.tallyExhausted.Add(worth)
			tallyDistributed = tallyDistributed.Add(worth)
		}
		// papers are always distributed.
		d.exhausted += distributed.Exhausted
		d.exhaustedATL += distributed.ExhaustedATL
	}

	d.lostToRounding = d.lostToRounding.AddTally(originalWorth)
	d.lostToRounding = d.lostToRounding.SubTally(tallyDistributed)
}

func reverseCandidates(cs []base.CandidateIndex) {
	for i, j := 0, len(cs)-1; i < j; i, j = i+1, j-1 {
		cs[i], cs[j] = cs[j], cs[i]
	}
}
