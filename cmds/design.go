package cmds

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/util"
)

var InvalidDesignError = util.NewError("invalid design file")

// Design is per-election overrides loaded from a YAML file: the
// vacancies, pre-excluded candidates and tie decisions to apply on top
// of the ballot file's metadata.
type Design struct {
	Vacancies      int                   `yaml:"vacancies,omitempty"`
	Excluded       []int                 `yaml:"excluded,omitempty"`
	TieResolutions []DesignTieResolution `yaml:"tie_resolutions,omitempty"`
}

type DesignTieResolution struct {
	Favoured    []int  `yaml:"favoured"`
	Disfavoured []int  `yaml:"disfavoured"`
	CameUpIn    string `yaml:"came_up_in,omitempty"`
}

func LoadDesign(path string) (*Design, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, InvalidDesignError.Wrap(err)
	}

	var d Design
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, InvalidDesignError.Wrap(err)
	}

	return &d, nil
}

// ExcludedCandidates converts the design's excluded list.
func (d *Design) ExcludedCandidates() []base.CandidateIndex {
	res := make([]base.CandidateIndex, len(d.Excluded))
	for i, c := range d.Excluded {
		res[i] = base.CandidateIndex(c)
	}
	return res
}

// Resolutions converts the design's tie resolutions.
func (d *Design) Resolutions() []base.TieResolutionExplicitDecision {
	res := make([]base.TieResolutionExplicitDecision, len(d.TieResolutions))
	for i, t := range d.TieResolutions {
		res[i] = base.TieResolutionExplicitDecision{
			Favoured:    candidateIndices(t.Favoured),
			Disfavoured: candidateIndices(t.Disfavoured),
			CameUpIn:    t.CameUpIn,
		}
	}
	return res
}

func candidateIndices(ints []int) []base.CandidateIndex {
	res := make([]base.CandidateIndex, len(ints))
	for i, c := range ints {
		res[i] = base.CandidateIndex(c)
	}
	return res
}
