package base

import (
	"strings"

	"github.com/AndrewConway/ConcreteSTV/util"
	"github.com/AndrewConway/ConcreteSTV/util/isvalid"
)

var (
	InvalidMetadataError = util.NewError("invalid election metadata")
)

// ElectionName identifies which election a data file describes.
type ElectionName struct {
	// the year the election was held.
	Year string `json:"year"`
	// the authority running the election, e.g. AEC.
	Authority string `json:"authority"`
	// the overall name of the election, e.g. Federal.
	Name string `json:"name"`
	// the region in this contest, e.g. Vic.
	Electorate string `json:"electorate"`
	// modifications made to this data, e.g. simulated changes. Usually empty.
	Modifications []string `json:"modifications,omitempty"`
	Comment       string   `json:"comment,omitempty"`
}

func (en ElectionName) HumanReadable() string {
	s := en.Year + " " + en.Name + " election for " + en.Electorate
	if len(en.Modifications) > 0 {
		s += "." + strings.Join(en.Modifications, " & ")
	}
	return s
}

// Identifier returns Name_Year_Electorate, usable as a filename component.
func (en ElectionName) Identifier() string {
	return en.Name + "_" + en.Year + "_" + en.Electorate + strings.Join(en.Modifications, ",")
}

// Candidate is a candidate in the contest.
type Candidate struct {
	Name string `json:"name"`
	// the party the candidate belongs to, if any.
	Party *PartyIndex `json:"party,omitempty"`
	// position on the party ticket. 1 means first place.
	Position *int `json:"position,omitempty"`
	// electoral commission internal identifier.
	ECID string `json:"ec_id,omitempty"`
}

// Party is a party or pseudo-party (such as "ungrouped") in the contest.
type Party struct {
	// the name of the column on the ballot paper, typically a letter.
	ColumnID string `json:"column_id"`
	Name     string `json:"name"`
	Abbreviation string `json:"abbreviation,omitempty"`
	// true if one is allowed to vote above the line for this party.
	ATLAllowed bool `json:"atl_allowed"`
	// the candidates in this party, in preference order.
	Candidates []CandidateIndex `json:"candidates"`
	// the group voting tickets for this party, if any.
	Tickets [][]CandidateIndex `json:"tickets,omitempty"`
}

func (p Party) BestName() string {
	if p.Name == "" {
		return p.ColumnID
	}
	return p.Name
}

// DataSource documents where the data files came from.
type DataSource struct {
	URL      string   `json:"url"`
	Files    []string `json:"files"`
	Comments string   `json:"comments,omitempty"`
}

// TieResolutionExplicitDecision is a decision made by the electoral
// commission to break a tie that count-back could not. All disfavoured
// candidates rank below all favoured candidates; within each list the
// order is increasing favour.
type TieResolutionExplicitDecision struct {
	Favoured    []CandidateIndex `json:"favoured"`
	Disfavoured []CandidateIndex `json:"disfavoured"`
	// the count name this decision arose in, if known.
	CameUpIn string `json:"came_up_in,omitempty"`
}

// Ordering is the combined decision in increasing favour.
func (d TieResolutionExplicitDecision) Ordering() []CandidateIndex {
	res := make([]CandidateIndex, 0, len(d.Disfavoured)+len(d.Favoured))
	res = append(res, d.Disfavoured...)
	res = append(res, d.Favoured...)
	return res
}

// ElectionMetadata is information about the contest, such as candidates.
type ElectionMetadata struct {
	Name       ElectionName `json:"name"`
	Candidates []Candidate  `json:"candidates"`
	Parties    []Party      `json:"parties,omitempty"`
	// where the data came from, such as a URL.
	Source []DataSource `json:"source,omitempty"`
	// the official results, if available.
	Results []CandidateIndex `json:"results,omitempty"`
	// the number of positions to be filled.
	Vacancies *NumberOfCandidates `json:"vacancies,omitempty"`
	// the number of eligible voters.
	Enrolment *NumberOfCandidates `json:"enrolment,omitempty"`
	// candidates excluded before counting starts, e.g. ruled ineligible.
	Excluded []CandidateIndex `json:"excluded,omitempty"`
	// decisions made by the electoral commission to replay.
	TieResolutions []TieResolutionExplicitDecision `json:"tie_resolutions,omitempty"`
}

func (m *ElectionMetadata) Candidate(index CandidateIndex) *Candidate {
	return &m.Candidates[index]
}

func (m *ElectionMetadata) Party(index PartyIndex) *Party {
	return &m.Parties[index]
}

func (m *ElectionMetadata) NumCandidates() int { return len(m.Candidates) }

// CandidateNameLookup maps candidate name to index.
func (m *ElectionMetadata) CandidateNameLookup() map[string]CandidateIndex {
	res := make(map[string]CandidateIndex, len(m.Candidates))
	for i := range m.Candidates {
		res[m.Candidates[i].Name] = CandidateIndex(i)
	}
	return res
}

// PartyIDLookup maps party column id to index.
func (m *ElectionMetadata) PartyIDLookup() map[string]PartyIndex {
	res := make(map[string]PartyIndex, len(m.Parties))
	for i := range m.Parties {
		res[m.Parties[i].ColumnID] = PartyIndex(i)
	}
	return res
}

func (m *ElectionMetadata) CandidateListToString(list []CandidateIndex) string {
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = m.Candidate(c).Name
	}
	return strings.Join(names, ", ")
}

func (m *ElectionMetadata) IsValid([]byte) error {
	if len(m.Candidates) < 1 {
		return isvalid.InvalidError.Wrap(InvalidMetadataError.Errorf("no candidates"))
	}

	seen := map[string]struct{}{}
	for i := range m.Candidates {
		c := &m.Candidates[i]
		if _, found := seen[c.Name]; found {
			return isvalid.InvalidError.Wrap(InvalidMetadataError.Errorf("duplicate candidate %q", c.Name))
		}
		seen[c.Name] = struct{}{}

		if c.Party != nil && (int(*c.Party) < 0 || int(*c.Party) >= len(m.Parties)) {
			return isvalid.InvalidError.Wrap(InvalidMetadataError.Errorf("candidate %q: party %d out of range", c.Name, *c.Party))
		}
	}

	for i := range m.Parties {
		p := &m.Parties[i]
		for _, c := range p.Candidates {
			if int(c) < 0 || int(c) >= len(m.Candidates) {
				return isvalid.InvalidError.Wrap(InvalidMetadataError.Errorf("party %q: candidate %d out of range", p.BestName(), c))
			}
		}
		for _, ticket := range p.Tickets {
			for _, c := range ticket {
				if int(c) < 0 || int(c) >= len(m.Candidates) {
					return isvalid.InvalidError.Wrap(InvalidMetadataError.Errorf("party %q: ticket candidate %d out of range", p.BestName(), c))
				}
			}
		}
	}

	if m.Vacancies != nil && *m.Vacancies < 1 {
		return isvalid.InvalidError.Wrap(InvalidMetadataError.Errorf("vacancies %d", *m.Vacancies))
	}

	for _, c := range m.Excluded {
		if int(c) < 0 || int(c) >= len(m.Candidates) {
			return isvalid.InvalidError.Wrap(InvalidMetadataError.Errorf("excluded candidate %d out of range", c))
		}
	}

	for _, d := range m.TieResolutions {
		order := d.Ordering()
		seenC := map[CandidateIndex]struct{}{}
		for _, c := range order {
			if int(c) < 0 || int(c) >= len(m.Candidates) {
				return isvalid.InvalidError.Wrap(InvalidMetadataError.Errorf("tie resolution candidate %d out of range", c))
			}
			if _, found := seenC[c]; found {
				return isvalid.InvalidError.Wrap(InvalidMetadataError.Errorf("tie resolution repeats candidate %d", c))
			}
			seenC[c] = struct{}{}
		}
	}

	return nil
}
