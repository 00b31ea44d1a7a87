package base

// Raw votes: something written on a ballot paper. It may or may not be
// formal.

// RawBallotMarking is a marking on a particular square in a ballot.
type RawBallotMarking struct {
	// the number written, when a number was written.
	Number int
	// a marking legislatively considered the same as a 1, such as a
	// tick or cross in some jurisdictions.
	OneEquivalent bool
	Blank         bool
}

func ParseMarking(marking string) RawBallotMarking {
	switch marking {
	case "":
		return RawBallotMarking{Blank: true}
	case "X", "*", "/":
		return RawBallotMarking{OneEquivalent: true}
	}

	var n int
	for _, r := range marking {
		if r < '0' || r > '9' {
			return RawBallotMarking{} // other marking
		}
		n = n*10 + int(r-'0')
	}

	return RawBallotMarking{Number: n}
}

// BTL is a below the line vote.
type BTL struct {
	// candidates, in preference order.
	Candidates []CandidateIndex `json:"candidates"`
	// number of people who voted in this way.
	N int `json:"n"`
}

// ATL is an above the line vote, possibly for multiple parties.
type ATL struct {
	// parties, in preference order.
	Parties []PartyIndex `json:"parties"`
	// number of people who voted in this way.
	N int `json:"n"`
}

// RawBallotMarkings is the collection of numbers written by the voter,
// above the line squares first.
type RawBallotMarkings struct {
	ATL        []RawBallotMarking
	BTL        []RawBallotMarking
	ATLParties []PartyIndex
}

// NewRawBallotMarkings interprets an array of markings, ATLs first then
// BTLs.
func NewRawBallotMarkings(atlParties []PartyIndex, markings []RawBallotMarking) *RawBallotMarkings {
	cutoff := len(atlParties)
	if len(markings) < cutoff {
		cutoff = len(markings)
	}
	return &RawBallotMarkings{
		ATL:        markings[:cutoff],
		BTL:        markings[cutoff:],
		ATLParties: atlParties,
	}
}

// lookForContinuousStreams interprets a list of markings as preferences:
//   - repeated numbers are ignored from that point, e.g. 1 2 2 keeps only the 1.
//   - numbers after a gap are ignored, e.g. 1 3 4 keeps only the 1.
//   - a cross is treated as a 1 iff considerCrossAsOne.
//
// The result is the positions of the longest list of preferences
// starting at 1.
func lookForContinuousStreams(markings []RawBallotMarking, considerCrossAsOne bool) []int {
	timesSeen := make([]int, len(markings))
	prefs := make([]int, len(markings))
	for i, m := range markings {
		switch {
		case m.Number > 0 && m.Number <= len(markings):
			prefs[m.Number-1] = i
			timesSeen[m.Number-1]++
		case m.OneEquivalent && considerCrossAsOne:
			prefs[0] = i
			timesSeen[0]++
		}
	}

	numGood := 0
	for numGood < len(timesSeen) && timesSeen[numGood] == 1 {
		numGood++
	}
	return prefs[:numGood]
}

// InterpretVoteAsBTL interprets the below the line squares as a formal
// BTL vote, requiring at least minBTLPrefsNeeded unique preferences.
func (r *RawBallotMarkings) InterpretVoteAsBTL(minBTLPrefsNeeded int) *BTL {
	prefs := lookForContinuousStreams(r.BTL, true)
	if len(prefs) < minBTLPrefsNeeded {
		return nil
	}
	candidates := make([]CandidateIndex, len(prefs))
	for i, p := range prefs {
		candidates[i] = CandidateIndex(p)
	}
	return &BTL{Candidates: candidates, N: 1}
}

// InterpretVoteAsATL interprets the above the line squares as a formal
// ATL vote, requiring at least minATLPrefsNeeded unique preferences.
func (r *RawBallotMarkings) InterpretVoteAsATL(minATLPrefsNeeded int) *ATL {
	prefs := lookForContinuousStreams(r.ATL, true)
	if len(prefs) < minATLPrefsNeeded {
		return nil
	}
	parties := make([]PartyIndex, len(prefs))
	for i, p := range prefs {
		parties[i] = r.ATLParties[p]
	}
	return &ATL{Parties: parties, N: 1}
}

// InterpretVote applies AEC style formality rules: a sufficient BTL
// vote takes precedence over an ATL vote. Both nil means informal.
func (r *RawBallotMarkings) InterpretVote(minATLPrefsNeeded, minBTLPrefsNeeded int) (*ATL, *BTL) {
	if btl := r.InterpretVoteAsBTL(minBTLPrefsNeeded); btl != nil {
		return nil, btl
	}
	if atl := r.InterpretVoteAsATL(minATLPrefsNeeded); atl != nil {
		return atl, nil
	}
	return nil, nil
}
