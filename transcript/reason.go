package transcript

import (
	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/util"
)

// ReasonForCount is the action a count is part of: the first preference
// count, the distribution of one candidate's excess, or the elimination
// of one or more candidates.
type ReasonForCount struct {
	ExcessDistribution *base.CandidateIndex
	// usually just one candidate, but federal rules allow a bulk exclusion.
	Elimination []base.CandidateIndex
}

func FirstPreferenceCount() ReasonForCount {
	return ReasonForCount{}
}

func ExcessDistribution(c base.CandidateIndex) ReasonForCount {
	return ReasonForCount{ExcessDistribution: &c}
}

func Elimination(cs []base.CandidateIndex) ReasonForCount {
	return ReasonForCount{Elimination: cs}
}

func (r ReasonForCount) IsFirstPreferenceCount() bool {
	return r.ExcessDistribution == nil && r.Elimination == nil
}

func (r ReasonForCount) IsElimination() bool { return r.Elimination != nil }

func (r ReasonForCount) IsSurplus() bool { return r.ExcessDistribution != nil }

type reasonPackerJSON struct {
	ExcessDistribution *base.CandidateIndex  `json:"ExcessDistribution,omitempty"`
	Elimination        []base.CandidateIndex `json:"Elimination,omitempty"`
}

func (r ReasonForCount) MarshalJSON() ([]byte, error) {
	if r.IsFirstPreferenceCount() {
		return []byte(`"FirstPreferenceCount"`), nil
	}
	return util.JSONMarshal(reasonPackerJSON{
		ExcessDistribution: r.ExcessDistribution,
		Elimination:        r.Elimination,
	})
}

func (r *ReasonForCount) UnmarshalJSON(b []byte) error {
	if string(b) == `"FirstPreferenceCount"` {
		*r = ReasonForCount{}
		return nil
	}

	var packed reasonPackerJSON
	if err := util.JSONUnmarshal(b, &packed); err != nil {
		return InvalidTranscriptError.Wrap(err)
	}
	if packed.ExcessDistribution == nil && packed.Elimination == nil {
		return InvalidTranscriptError.Errorf("unknown count reason: %s", string(b))
	}
	r.ExcessDistribution = packed.ExcessDistribution
	r.Elimination = packed.Elimination
	return nil
}
