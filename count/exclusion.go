package count

import (
	"sort"
	"strconv"
	"strings"

	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/pile"
	"github.com/AndrewConway/ConcreteSTV/tally"
	"github.com/AndrewConway/ConcreteSTV/tiebreak"
	"github.com/AndrewConway/ConcreteSTV/transcript"
)

func (d *Distributor) distributeLowest() error {
	var candidatesToExclude []base.CandidateIndex

	if d.bulkExclusionEnabled() {
		bulk, err := d.findCandidatesForBulkExclusion()
		if err != nil {
			return err
		}
		candidatesToExclude = bulk
	}

	if candidatesToExclude == nil {
		lowest, err := d.findLowestCandidate()
		if err != nil {
			return err
		}
		candidatesToExclude = lowest
	}

	return d.exclude(candidatesToExclude)
}

func (d *Distributor) bulkExclusionEnabled() bool {
	switch d.profile.BulkExclusion {
	case BulkExclusionOn:
		return true
	case BulkExclusionManualOnly:
		return d.manualBulkExclusion
	default:
		return false
	}
}

func (d *Distributor) findLowestCandidate() ([]base.CandidateIndex, error) {
	lowestTally := d.tally(d.sortedByTally[0])
	var possibilities []base.CandidateIndex
	for _, c := range d.sortedByTally {
		if !d.tally(c).Equal(lowestTally) {
			break
		}
		possibilities = append(possibilities, c)
	}

	if err := d.checkForTiesAndResolve(possibilities, d.profile.TiesLowestForExclusion, tiebreak.LowestSeparated(1), tiebreak.PurposeExclude); err != nil {
		return nil, err
	}

	return possibilities[:1], nil
}

// findCandidatesForBulkExclusion implements the Commonwealth Electoral
// Act 1918 s273(13A) multiple exclusion, bounded by (13B): the lowest
// candidates whose combined (notional) votes cannot affect the leading
// candidates' shortfalls may be excluded together. Returns nil when no
// bulk exclusion can be made this round.
func (d *Distributor) findCandidatesForBulkExclusion() ([]base.CandidateIndex, error) {
	// shortfall: the number of votes a continuing candidate requires to
	// reach the quota.
	shortfall := func(c base.CandidateIndex) tally.Tally {
		return d.quota.Sub(d.tally(c))
	}

	// leading shortfall: the shortfall of the continuing candidate
	// standing highest in the poll.
	leadingShortfall := shortfall(d.sortedByTally[len(d.sortedByTally)-1])

	// vacancy shortfall: the aggregate of the shortfalls of the leading
	// candidates, as many as there are remaining unfilled vacancies.
	vacancyShortfall := tally.Zero(d.profile.Kind)
	remaining := int(d.remainingToElect())
	for i := 0; i < remaining && i < len(d.sortedByTally); i++ {
		vacancyShortfall = vacancyShortfall.Add(shortfall(d.sortedByTally[len(d.sortedByTally)-1-i]))
	}

	// notional votes: the aggregate of a candidate's votes and the
	// votes of everyone standing lower in the poll.
	notionalVotes := make([]tally.Tally, len(d.sortedByTally))
	running := tally.Zero(d.profile.Kind)
	for i, c := range d.sortedByTally {
		running = running.Add(d.tally(c))
		notionalVotes[i] = running
	}

	// Candidate B: the highest ranking candidate with fewer notional
	// votes than the vacancy shortfall and fewer notional votes than
	// the tally of the candidate immediately higher.
	numFewerThanVacancyShortfall := 0
	for numFewerThanVacancyShortfall < len(notionalVotes) &&
		notionalVotes[numFewerThanVacancyShortfall].Cmp(vacancyShortfall) < 0 {
		numFewerThanVacancyShortfall++
	}
	candidateBPlusOne := numFewerThanVacancyShortfall
	if max := len(d.sortedByTally) - 1; candidateBPlusOne > max {
		candidateBPlusOne = max
	}
	for candidateBPlusOne > 0 &&
		notionalVotes[candidateBPlusOne-1].Cmp(d.tally(d.sortedByTally[candidateBPlusOne])) >= 0 {
		candidateBPlusOne--
	}
	if candidateBPlusOne == 0 {
		return nil, nil // there is no candidate B, and nothing can be done.
	}
	candidateBStanding := candidateBPlusOne - 1

	var candidatesToExclude int
	if notionalVotes[candidateBStanding].Cmp(leadingShortfall) < 0 {
		// (13A)(c): candidate B and everyone lower may be excluded.
		candidatesToExclude = candidateBStanding + 1
	} else {
		// (13A)(d): candidate C is the highest candidate with notional
		// votes below the leading shortfall. The legislation says one
		// "shall be identified", which is not necessarily possible.
		numFewerThanLeadingShortfall := 0
		for numFewerThanLeadingShortfall < len(notionalVotes) &&
			notionalVotes[numFewerThanLeadingShortfall].Cmp(leadingShortfall) < 0 {
			numFewerThanLeadingShortfall++
		}
		if numFewerThanLeadingShortfall == 0 {
			return nil, nil
		}
		candidatesToExclude = numFewerThanLeadingShortfall
	}

	// (13B): leave enough continuing candidates to fill the vacancies.
	if max := len(d.sortedByTally) - remaining; candidatesToExclude > max {
		candidatesToExclude = max
	}
	if candidatesToExclude <= 0 {
		return nil, nil
	}

	// Candidate B cannot tie in a way that matters because of b(ii),
	// but the boundary of the excluded group might.
	tallyOfHighestExcluded := d.tally(d.sortedByTally[candidatesToExclude-1])
	tieEnd := candidatesToExclude
	for tieEnd < len(d.sortedByTally) && tallyOfHighestExcluded.Equal(d.tally(d.sortedByTally[tieEnd])) {
		tieEnd++
	}
	if tieEnd > candidatesToExclude {
		tieStart := candidatesToExclude - 1
		for tieStart > 0 && tallyOfHighestExcluded.Equal(d.tally(d.sortedByTally[tieStart-1])) {
			tieStart--
		}
		if err := d.checkForTiesAndResolveInplace(tieStart, tieEnd, d.profile.TiesLowestForExclusion,
			tiebreak.LowestSeparated(candidatesToExclude-tieStart), tiebreak.PurposeExclude); err != nil {
			return nil, err
		}
	}

	res := make([]base.CandidateIndex, candidatesToExclude)
	copy(res, d.sortedByTally[:candidatesToExclude])
	return res, nil
}

// exclude removes the candidates and transfers their papers, one
// sub-transfer per provenance key. Federal s273(13AA).
func (d *Distributor) exclude(candidatesToExclude []base.CandidateIndex) error {
	for _, c := range candidatesToExclude {
		d.Log().Debug().Int("candidate", int(c)).Str("name", d.data.Metadata.Candidate(c).Name).Msg("excluding")
		d.noLongerContinuing(c, false)
	}

	if (d.profile.WhenElectAllRemaining == AfterDeterminingWhoToExcludeButBeforeTransferringAnyPapers &&
		d.numberContinuing() == d.remainingToElect()) ||
		(d.profile.WhenShortcutLastTwo == AfterDeterminingWhoToExcludeButBeforeTransferringAnyPapers &&
			d.numberContinuing() == 2 && d.remainingToElect() == 1) {
		// don't transfer any papers.
		return d.endOfCountStep(transcript.Elimination(candidatesToExclude), transcript.Portion{}, false)
	}

	// collect the distinct provenance keys across all excluded candidates.
	seen := map[string]struct{}{}
	var provenances []pile.Key
	for _, c := range candidatesToExclude {
		for _, k := range d.papers[c].ProvenanceKeys() {
			id := strconv.Itoa(k.Split) + ":" + k.TV.Key()
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				provenances = append(provenances, k)
			}
		}
	}

	if len(provenances) == 0 {
		// the candidate got no votes; record a vacuous count so the
		// elimination is visible.
		return d.endOfCountStep(transcript.Elimination(candidatesToExclude), transcript.Portion{}, true)
	}

	sort.SliceStable(provenances, func(i, j int) bool {
		return provenances[i].Split < provenances[j].Split
	})
	if d.profile.SortExclusionsByTransferValue {
		sort.SliceStable(provenances, func(i, j int) bool {
			return provenances[i].TV.Cmp(provenances[j].TV) > 0
		})
	}
	if d.profile.SortSubcountsByCountName {
		sort.SliceStable(provenances, func(i, j int) bool {
			return d.countNameLess(provenances[i], provenances[j])
		})
	}

	togo := len(provenances)
	for _, key := range provenances {
		var allVotes pile.VotesWithSameTransferValue
		originalWorth := tally.Zero(d.profile.Kind)
		var whenTVCreated *base.CountIndex
		whenTVSet, whenTVConflict := false, false
		cameFrom := map[base.CountIndex]struct{}{}

		for _, c := range candidatesToExclude {
			prov, votes, ok := d.papers[c].ExtractByProvenance(key)
			if !ok {
				continue
			}
			w := prov.WhenTVCreated()
			if !whenTVSet {
				whenTVCreated = w
				whenTVSet = true
			} else if !sameWhen(whenTVCreated, w) {
				whenTVConflict = true
			}
			originalWorth = originalWorth.Add(prov.Tally)
			for _, cc := range prov.CountsComesFrom() {
				cameFrom[cc] = struct{}{}
			}
			d.tallys[c] = d.tallys[c].Sub(prov.Tally)
			for _, v := range votes.Votes {
				allVotes.AddVote(v)
			}
		}
		if whenTVConflict {
			whenTVCreated = nil
		}

		distributed := pile.Distribute(allVotes.Votes, d.continuing, d.numCandidates)
		d.parcelOutVotes(key.TV, distributed, whenTVCreated, originalWorth, true, true, nil)

		togo--
		tv := key.TV
		papersCameFromCounts := make([]base.CountIndex, 0, len(cameFrom))
		for c := range cameFrom {
			papersCameFromCounts = append(papersCameFromCounts, c)
		}
		sort.Slice(papersCameFromCounts, func(i, j int) bool { return papersCameFromCounts[i] < papersCameFromCounts[j] })

		if err := d.endOfCountStep(transcript.Elimination(candidatesToExclude), transcript.Portion{
			TransferValue:        &tv,
			WhenTVCreated:        whenTVCreated,
			PapersCameFromCounts: papersCameFromCounts,
		}, togo == 0); err != nil {
			return err
		}

		if d.remainingToElect() == 0 && !d.profile.FinishExclusionEvenWhenAllElected {
			break
		}
	}

	return nil
}

func sameWhen(a, b *base.CountIndex) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// countNameLess orders provenance keys by the names of the counts the
// papers came in, compared as dotted number sequences: numerically for
// the first three fields, lexicographically afterwards. This reproduces
// the NSWEC 2021 sub-count ordering, almost certainly a bug in their
// code, which cannot affect who is elected under their reading of the
// legislation.
func (d *Distributor) countNameLess(a, b pile.Key) bool {
	name1 := d.transcript.Count(base.CountIndex(a.Split)).CountName
	name2 := d.transcript.Count(base.CountIndex(b.Split)).CountName
	// the current count's number will be prefixed, so one field of the
	// numeric comparison is already consumed.
	return compareDottedCountNames(name1, name2, 1) < 0
}

// compareDottedCountNames compares strings of integers separated by '.'
// characters, numerically for the first 3-nAlreadyDone fields and
// lexicographically afterwards.
func compareDottedCountNames(name1, name2 string, nAlreadyDone int) int {
	switch {
	case name1 == name2:
		return 0
	case name1 == "":
		return -1
	case name2 == "":
		return 1
	}

	prefix1, suffix1, _ := strings.Cut(name1, ".")
	prefix2, suffix2, _ := strings.Cut(name2, ".")
	if prefix1 == prefix2 {
		return compareDottedCountNames(suffix1, suffix2, nAlreadyDone+1)
	}
	if nAlreadyDone < 3 {
		n1, err1 := strconv.Atoi(prefix1)
		n2, err2 := strconv.Atoi(prefix2)
		if err1 == nil && err2 == nil {
			switch {
			case n1 < n2:
				return -1
			case n1 > n2:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(prefix1, prefix2)
}
