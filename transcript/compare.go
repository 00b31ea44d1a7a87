package transcript

import (
	"fmt"

	"github.com/AndrewConway/ConcreteSTV/base"
)

// DifferenceBetweenTranscripts classifies how two transcripts of the
// same election under different rules differ.
type DifferenceBetweenTranscripts int

const (
	Same DifferenceBetweenTranscripts = iota
	// the same candidates won but in a different order.
	CandidatesOrderedDifferentWay
	DifferentCandidatesElected
)

func (d DifferenceBetweenTranscripts) String() string {
	switch d {
	case Same:
		return "Same"
	case CandidatesOrderedDifferentWay:
		return "CandidatesOrderedDifferentWay"
	case DifferentCandidatesElected:
		return "DifferentCandidatesElected"
	default:
		return fmt.Sprintf("<unknown difference %d>", int(d))
	}
}

// CompareElected compares the elected candidate lists of two transcripts.
func CompareElected(a, b *Transcript) DifferenceBetweenTranscripts {
	if equalCandidateLists(a.Elected, b.Elected) {
		return Same
	}
	if sameCandidateSet(a.Elected, b.Elected) {
		return CandidatesOrderedDifferentWay
	}
	return DifferentCandidatesElected
}

func equalCandidateLists(a, b []base.CandidateIndex) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameCandidateSet(a, b []base.CandidateIndex) bool {
	if len(a) != len(b) {
		return false
	}
	seen := map[base.CandidateIndex]int{}
	for _, c := range a {
		seen[c]++
	}
	for _, c := range b {
		seen[c]--
		if seen[c] < 0 {
			return false
		}
	}
	return true
}
