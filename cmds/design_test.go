package cmds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/AndrewConway/ConcreteSTV/base"
)

type testDesign struct {
	suite.Suite
}

func (t *testDesign) TestLoadDesign() {
	path := filepath.Join(t.T().TempDir(), "design.yml")
	t.Require().NoError(os.WriteFile(path, []byte(`
vacancies: 5
excluded: [1, 2]
tie_resolutions:
  - favoured: [3]
    disfavoured: [4]
    came_up_in: "7"
`), 0o644))

	design, err := LoadDesign(path)
	t.NoError(err)
	t.Equal(5, design.Vacancies)
	t.Equal([]base.CandidateIndex{1, 2}, design.ExcludedCandidates())

	resolutions := design.Resolutions()
	t.Len(resolutions, 1)
	t.Equal([]base.CandidateIndex{3}, resolutions[0].Favoured)
	t.Equal([]base.CandidateIndex{4}, resolutions[0].Disfavoured)
	t.Equal("7", resolutions[0].CameUpIn)
}

func (t *testDesign) TestLoadDesignRejectsBadYAML() {
	path := filepath.Join(t.T().TempDir(), "design.yml")
	t.Require().NoError(os.WriteFile(path, []byte("vacancies: [not a number"), 0o644))

	_, err := LoadDesign(path)
	t.Error(err)
}

func (t *testDesign) TestMissingFile() {
	_, err := LoadDesign(filepath.Join(t.T().TempDir(), "absent.yml"))
	t.Error(err)
}

func TestDesign(t *testing.T) {
	suite.Run(t, new(testDesign))
}
