package pile

import (
	"sort"

	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/tally"
	"github.com/AndrewConway/ConcreteSTV/transcript"
	"github.com/AndrewConway/ConcreteSTV/util"
)

var NoLastParcelError = util.NewError("no last parcel")

// SplitMethod says how a candidate's holding is divided into parcels by
// provenance. Different jurisdictions split by different keys.
type SplitMethod uint8

const (
	// DoNotSplitByCountNumber cares only about the transfer value.
	DoNotSplitByCountNumber SplitMethod = iota
	// FullySplitByCountNumber treats each count as a separate parcel.
	FullySplitByCountNumber
	// SplitFirstCount separates the first count from all others.
	SplitFirstCount
	// SplitByWhenTransferValueWasCreated divides by the count the
	// transfer value was created in; distinguishes numerically equal
	// transfer values of different origin.
	SplitByWhenTransferValueWasCreated
)

func (s SplitMethod) key(count base.CountIndex, whenTVCreated *base.CountIndex) int {
	switch s {
	case FullySplitByCountNumber:
		return int(count)
	case SplitFirstCount:
		if count == 0 {
			return 1
		}
		return 0
	case SplitByWhenTransferValueWasCreated:
		if whenTVCreated == nil {
			return 0
		}
		return int(*whenTVCreated)
	default:
		return 0
	}
}

// Provenance accumulates where a parcel's ballots came from.
type Provenance struct {
	countsComesFrom map[base.CountIndex]struct{}
	whenTVCreated   *base.CountIndex
	tvConflict      bool
	// the number of actual votes the ballots translated to.
	Tally tally.Tally
}

func newProvenance(whenTVCreated *base.CountIndex, kind tally.Kind) *Provenance {
	return &Provenance{
		countsComesFrom: map[base.CountIndex]struct{}{},
		whenTVCreated:   copyCountIndex(whenTVCreated),
		Tally:           tally.Zero(kind),
	}
}

func copyCountIndex(c *base.CountIndex) *base.CountIndex {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

func (p *Provenance) add(count base.CountIndex, whenTVCreated *base.CountIndex, t tally.Tally) {
	p.countsComesFrom[count] = struct{}{}
	if !sameCountIndex(p.whenTVCreated, whenTVCreated) {
		p.whenTVCreated = nil
		p.tvConflict = true
	}
	p.Tally = p.Tally.Add(t)
}

func sameCountIndex(a, b *base.CountIndex) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// WhenTVCreated is the unique count the transfer value was created in,
// or nil if there was none or more than one.
func (p *Provenance) WhenTVCreated() *base.CountIndex {
	if p.tvConflict {
		return nil
	}
	return copyCountIndex(p.whenTVCreated)
}

// CountsComesFrom is the sorted set of counts the ballots arrived in.
func (p *Provenance) CountsComesFrom() []base.CountIndex {
	res := make([]base.CountIndex, 0, len(p.countsComesFrom))
	for c := range p.countsComesFrom {
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// Key identifies one parcel within a candidate's holding: the split key
// plus the transfer value.
type Key struct {
	Split int
	TV    tally.TransferValue
}

type mapKey struct {
	split int
	tv    string
}

type entry struct {
	key   mapKey
	tv    tally.TransferValue
	prov  *Provenance
	votes VotesWithSameTransferValue
}

type lastParcelInfo struct {
	prior         stateBeforeAddition
	key           mapKey
	tv            tally.TransferValue
	whenTVCreated *base.CountIndex
	countIndex    base.CountIndex
}

// Pile is a candidate's holding: votes potentially with multiple
// transfer values and sources.
type Pile struct {
	split        SplitMethod
	kind         tally.Kind
	byProvenance map[mapKey]*entry
	lastParcel   *lastParcelInfo
}

func NewPile(split SplitMethod, kind tally.Kind) *Pile {
	return &Pile{split: split, kind: kind, byProvenance: map[mapKey]*entry{}}
}

// Add appends a parcel acquired in countIndex at the given transfer
// value, worth t votes.
func (p *Pile) Add(votes *VotesWithSameTransferValue, tv tally.TransferValue, countIndex base.CountIndex, whenTVCreated *base.CountIndex, t tally.Tally) {
	key := mapKey{split: p.split.key(countIndex, whenTVCreated), tv: tv.Key()}
	e, ok := p.byProvenance[key]
	if !ok {
		e = &entry{key: key, tv: tv, prov: newProvenance(whenTVCreated, p.kind)}
		p.byProvenance[key] = e
	}
	e.prov.add(countIndex, whenTVCreated, t)
	prior := e.votes.Add(votes.Votes)
	p.lastParcel = &lastParcelInfo{
		prior:         prior,
		key:           key,
		tv:            tv,
		whenTVCreated: copyCountIndex(whenTVCreated),
		countIndex:    countIndex,
	}
}

func (p *Pile) NumBallots() base.BallotPaperCount {
	var res base.BallotPaperCount
	for _, e := range p.byProvenance {
		res += e.votes.NumBallots
	}
	return res
}

func (p *Pile) NumATLBallots() base.BallotPaperCount {
	var res base.BallotPaperCount
	for _, e := range p.byProvenance {
		res += e.votes.NumATLBallots
	}
	return res
}

// ProvenanceKeys lists every parcel key, sorted by split key ascending
// then transfer value descending, so iteration is deterministic.
func (p *Pile) ProvenanceKeys() []Key {
	entries := p.sortedEntries()
	res := make([]Key, len(entries))
	for i, e := range entries {
		res[i] = Key{Split: e.key.split, TV: e.tv}
	}
	return res
}

func (p *Pile) sortedEntries() []*entry {
	entries := make([]*entry, 0, len(p.byProvenance))
	for _, e := range p.byProvenance {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].key.split != entries[j].key.split {
			return entries[i].key.split < entries[j].key.split
		}
		if c := entries[i].tv.Cmp(entries[j].tv); c != 0 {
			return c > 0
		}
		return entries[i].key.tv < entries[j].key.tv
	})
	return entries
}

// ExtractLastParcel removes the most recently received parcel.
func (p *Pile) ExtractLastParcel() (VotesWithSameTransferValue, transcript.Portion, error) {
	lp := p.lastParcel
	if lp == nil {
		return VotesWithSameTransferValue{}, transcript.Portion{}, NoLastParcelError.Call()
	}
	p.lastParcel = nil

	e, ok := p.byProvenance[lp.key]
	if !ok {
		return VotesWithSameTransferValue{}, transcript.Portion{}, NoLastParcelError.Errorf("last parcel has vanished")
	}

	res := e.votes.extractLastParcel(lp.prior)
	tv := lp.tv
	portion := transcript.Portion{
		TransferValue:        &tv,
		WhenTVCreated:        copyCountIndex(lp.whenTVCreated),
		PapersCameFromCounts: []base.CountIndex{lp.countIndex},
	}
	return res, portion, nil
}

// ExtractedParcel is one parcel removed from a pile, ready to be
// transferred as a sub-transfer.
type ExtractedParcel struct {
	TV      tally.TransferValue
	Tally   tally.Tally
	Votes   VotesWithSameTransferValue
	Portion transcript.Portion
}

// ExtractAllByTransferValue removes everything, merging parcels with
// numerically equal transfer values, sorted highest value first. Clears
// the pile.
func (p *Pile) ExtractAllByTransferValue() []ExtractedParcel {
	merged := map[string]*parcelMerger{}
	for _, e := range p.sortedEntries() {
		m, ok := merged[e.key.tv]
		if !ok {
			m = newParcelMerger(p.kind)
			merged[e.key.tv] = m
		}
		m.add(e.tv, e.prov, e.votes)
	}
	p.clear()

	res := make([]ExtractedParcel, 0, len(merged))
	for _, m := range merged {
		res = append(res, m.extract())
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].TV.Cmp(res[j].TV) > 0 })
	return res
}

// ExtractAllByKey removes everything as one parcel per provenance key,
// sorted by split key ascending unless a custom ordering is supplied.
// Clears the pile.
func (p *Pile) ExtractAllByKey(less func(a, b Key) bool) []ExtractedParcel {
	entries := p.sortedEntries()
	sort.SliceStable(entries, func(i, j int) bool {
		if less != nil {
			return less(Key{Split: entries[i].key.split, TV: entries[i].tv}, Key{Split: entries[j].key.split, TV: entries[j].tv})
		}
		return entries[i].key.split < entries[j].key.split
	})
	p.clear()

	res := make([]ExtractedParcel, 0, len(entries))
	for _, e := range entries {
		tv := e.tv
		res = append(res, ExtractedParcel{
			TV:    e.tv,
			Tally: e.prov.Tally,
			Votes: e.votes,
			Portion: transcript.Portion{
				TransferValue:        &tv,
				WhenTVCreated:        e.prov.WhenTVCreated(),
				PapersCameFromCounts: e.prov.CountsComesFrom(),
			},
		})
	}
	return res
}

// ExtractAllIgnoringTransferValue removes everything as a single
// parcel, ignoring everything but pieces of paper. Clears the pile.
func (p *Pile) ExtractAllIgnoringTransferValue() ExtractedParcel {
	m := newParcelMerger(p.kind)
	for _, e := range p.sortedEntries() {
		m.add(e.tv, e.prov, e.votes)
	}
	p.clear()
	return m.extract()
}

// ExtractByProvenance removes the parcel with the given key, if present.
func (p *Pile) ExtractByProvenance(k Key) (*Provenance, VotesWithSameTransferValue, bool) {
	key := mapKey{split: k.Split, tv: k.TV.Key()}
	e, ok := p.byProvenance[key]
	if !ok {
		return nil, VotesWithSameTransferValue{}, false
	}
	delete(p.byProvenance, key)
	if p.lastParcel != nil && p.lastParcel.key == key {
		p.lastParcel = nil
	}
	return e.prov, e.votes, true
}

func (p *Pile) clear() {
	p.byProvenance = map[mapKey]*entry{}
	p.lastParcel = nil
}

// parcelMerger merges several parcels into one, tracking unique
// provenance where it exists.
type parcelMerger struct {
	tally          tally.Tally
	sum            VotesWithSameTransferValue
	cameFrom       map[base.CountIndex]struct{}
	tv             tally.TransferValue
	tvSet          bool
	tvUnique       bool
	tvCreated      *base.CountIndex
	tvCreatedIsOne bool
}

func newParcelMerger(kind tally.Kind) *parcelMerger {
	return &parcelMerger{
		tally:    tally.Zero(kind),
		cameFrom: map[base.CountIndex]struct{}{},
		tvUnique: true,
	}
}

func (m *parcelMerger) add(tv tally.TransferValue, prov *Provenance, votes VotesWithSameTransferValue) {
	m.tally = m.tally.Add(prov.Tally)
	for _, c := range prov.CountsComesFrom() {
		m.cameFrom[c] = struct{}{}
	}

	if !m.tvSet {
		m.tv = tv
		m.tvSet = true
		m.tvCreated = prov.WhenTVCreated()
		m.tvCreatedIsOne = true
	} else {
		if !m.tv.Equal(tv) {
			m.tvUnique = false
		}
		if !sameCountIndex(m.tvCreated, prov.WhenTVCreated()) {
			m.tvCreatedIsOne = false
		}
	}

	for _, v := range votes.Votes {
		m.sum.AddVote(v)
	}
}

func (m *parcelMerger) extract() ExtractedParcel {
	counts := make([]base.CountIndex, 0, len(m.cameFrom))
	for c := range m.cameFrom {
		counts = append(counts, c)
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i] < counts[j] })

	portion := transcript.Portion{PapersCameFromCounts: counts}
	if m.tvSet && m.tvUnique {
		tv := m.tv
		portion.TransferValue = &tv
	}
	if m.tvCreatedIsOne {
		portion.WhenTVCreated = copyCountIndex(m.tvCreated)
	}

	return ExtractedParcel{
		TV:      m.tv,
		Tally:   m.tally,
		Votes:   m.sum,
		Portion: portion,
	}
}
