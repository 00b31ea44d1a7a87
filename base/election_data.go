package base

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/AndrewConway/ConcreteSTV/util"
	"github.com/AndrewConway/ConcreteSTV/util/isvalid"
)

var (
	InvalidElectionDataError = util.NewError("invalid election data")
)

// VoteTypeSpecification annotates a range of indices of the ATL or BTL
// votes with a class, e.g. in booth on polling day, postal, iVote.
type VoteTypeSpecification struct {
	// what votes in the given range represent, matching the electoral
	// commission's designation.
	VoteType            string `json:"vote_type"`
	FirstIndexInclusive int    `json:"first_index_inclusive"`
	LastIndexExclusive  int    `json:"last_index_exclusive"`
}

// ElectionData is the formal votes for an election, the contents of a
// .stv file.
type ElectionData struct {
	Metadata ElectionMetadata        `json:"metadata"`
	ATL      []ATL                   `json:"atl"`
	ATLTypes []VoteTypeSpecification `json:"atl_types,omitempty"`
	BTL      []BTL                   `json:"btl"`
	BTLTypes []VoteTypeSpecification `json:"btl_types,omitempty"`
	// number of informal votes.
	Informal int `json:"informal"`
}

// NumATL is the number of formal above the line votes.
func (d *ElectionData) NumATL() int {
	n := 0
	for i := range d.ATL {
		n += d.ATL[i].N
	}
	return n
}

// NumBTL is the number of formal below the line votes.
func (d *ElectionData) NumBTL() int {
	n := 0
	for i := range d.BTL {
		n += d.BTL[i].N
	}
	return n
}

// NumVotes is the number of formal votes.
func (d *ElectionData) NumVotes() int { return d.NumATL() + d.NumBTL() }

// AllVoteTypes is the sorted set of vote type names present.
func (d *ElectionData) AllVoteTypes() []string {
	seen := map[string]struct{}{}
	for _, t := range d.ATLTypes {
		seen[t.VoteType] = struct{}{}
	}
	for _, t := range d.BTLTypes {
		seen[t.VoteType] = struct{}{}
	}
	res := make([]string, 0, len(seen))
	for t := range seen {
		res = append(res, t)
	}
	sort.Strings(res)
	return res
}

// NumVotesOfType counts the formal ATL and BTL votes of the named type.
func (d *ElectionData) NumVotesOfType(voteType string) (atl, btl int) {
	for _, t := range d.ATLTypes {
		if t.VoteType == voteType {
			for _, v := range d.ATL[t.FirstIndexInclusive:t.LastIndexExclusive] {
				atl += v.N
			}
		}
	}
	for _, t := range d.BTLTypes {
		if t.VoteType == voteType {
			for _, v := range d.BTL[t.FirstIndexInclusive:t.LastIndexExclusive] {
				btl += v.N
			}
		}
	}
	return atl, btl
}

func (d *ElectionData) IsValid(b []byte) error {
	if err := d.Metadata.IsValid(b); err != nil {
		return err
	}

	nc := len(d.Metadata.Candidates)
	np := len(d.Metadata.Parties)

	for i := range d.ATL {
		if len(d.ATL[i].Parties) < 1 {
			return isvalid.InvalidError.Wrap(InvalidElectionDataError.Errorf("atl vote %d: empty preference list", i))
		}
		for _, p := range d.ATL[i].Parties {
			if int(p) < 0 || int(p) >= np {
				return isvalid.InvalidError.Wrap(InvalidElectionDataError.Errorf("atl vote %d: party %d out of range", i, p))
			}
		}
		if d.ATL[i].N < 1 {
			return isvalid.InvalidError.Wrap(InvalidElectionDataError.Errorf("atl vote %d: multiplicity %d", i, d.ATL[i].N))
		}
	}

	for i := range d.BTL {
		if len(d.BTL[i].Candidates) < 1 {
			return isvalid.InvalidError.Wrap(InvalidElectionDataError.Errorf("btl vote %d: empty preference list", i))
		}
		for _, c := range d.BTL[i].Candidates {
			if int(c) < 0 || int(c) >= nc {
				return isvalid.InvalidError.Wrap(InvalidElectionDataError.Errorf("btl vote %d: candidate %d out of range", i, c))
			}
		}
		if d.BTL[i].N < 1 {
			return isvalid.InvalidError.Wrap(InvalidElectionDataError.Errorf("btl vote %d: multiplicity %d", i, d.BTL[i].N))
		}
	}

	return isvalid.CheckFunc([]func() error{
		func() error { return checkTypeRanges(d.ATLTypes, len(d.ATL)) },
		func() error { return checkTypeRanges(d.BTLTypes, len(d.BTL)) },
	})
}

func checkTypeRanges(types []VoteTypeSpecification, n int) error {
	for _, t := range types {
		if t.FirstIndexInclusive < 0 || t.LastIndexExclusive > n || t.FirstIndexInclusive > t.LastIndexExclusive {
			return InvalidElectionDataError.Errorf("vote type %q: range [%d,%d) out of bounds", t.VoteType, t.FirstIndexInclusive, t.LastIndexExclusive)
		}
	}
	return nil
}

// LoadElectionData reads a .stv file.
func LoadElectionData(path string) (*ElectionData, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, InvalidElectionDataError.Wrap(err)
	}

	var data ElectionData
	if err := util.JSONUnmarshal(b, &data); err != nil {
		return nil, InvalidElectionDataError.Wrap(err)
	}

	if err := isvalid.Check(nil, false, &data); err != nil {
		return nil, err
	}

	return &data, nil
}

// Save writes the election data as a .stv file.
func (d *ElectionData) Save(path string) error {
	b, err := util.JSONMarshal(d)
	if err != nil {
		return err
	}

	return os.WriteFile(path, b, 0o644) // nolint:gosec
}
