package base

import "fmt"

// CandidateIndex refers to a candidate by position on the ballot paper,
// 0 being first.
type CandidateIndex int

func (ci CandidateIndex) String() string {
	return fmt.Sprintf("%d", int(ci))
}

// PartyIndex refers to a party by column position on the ballot paper,
// 0 being first.
type PartyIndex int

func (pi PartyIndex) String() string {
	return fmt.Sprintf("%d", int(pi))
}

// NumberOfCandidates represents a count of candidates, such as the
// number of seats or the number of remaining seats.
type NumberOfCandidates int

func (n NumberOfCandidates) String() string {
	return fmt.Sprintf("%d", int(n))
}

// BallotPaperCount is a number of physical pieces of paper. This is
// distinct from votes, which may be fractional in the presence of
// transfer values.
type BallotPaperCount int

func (b BallotPaperCount) String() string {
	return fmt.Sprintf("%d", int(b))
}

// CountIndex is the 0-based index of a count in a transcript. This is
// different from the human readable count name, which may have
// sub-counts as well.
type CountIndex int

func (c CountIndex) String() string {
	return fmt.Sprintf("%d", int(c))
}
