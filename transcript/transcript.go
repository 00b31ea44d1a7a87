package transcript

import (
	"os"
	"path/filepath"

	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/tally"
	"github.com/AndrewConway/ConcreteSTV/util"
)

var (
	InvalidTranscriptError = util.NewError("invalid transcript")
	FrozenTranscriptError  = util.NewError("transcript is frozen")
)

// TransferValueMethod records how a transfer value's denominator was
// chosen when it was created.
type TransferValueMethod string

const (
	// SurplusOverBallots divides by all ballots considered. Federal.
	SurplusOverBallots TransferValueMethod = "SurplusOverBallots"
	// SurplusOverContinuingBallots divides by the non-exhausted ballots. NSW.
	SurplusOverContinuingBallots TransferValueMethod = "SurplusOverContinuingBallots"
	// SurplusOverContinuingBallotsLimitedToPriorTransferValue also caps
	// the result at the incoming transfer value. ACT.
	SurplusOverContinuingBallotsLimitedToPriorTransferValue TransferValueMethod = "SurplusOverContinuingBallotsLimitedToPriorTransferValue"
)

// DenomIsJustContinuing reports whether the denominator counts only
// ballots with a next available preference.
func (m TransferValueMethod) DenomIsJustContinuing() bool {
	return m != SurplusOverBallots
}

// LimitToIncomingTransferValue reports whether the new transfer value
// is capped at the value the ballots arrived with.
func (m TransferValueMethod) LimitToIncomingTransferValue() bool {
	return m == SurplusOverContinuingBallotsLimitedToPriorTransferValue
}

// ElectionReason is why a candidate was declared elected.
type ElectionReason string

const (
	ReachedQuota              ElectionReason = "ReachedQuota"
	HighestOfLastTwoStanding  ElectionReason = "HighestOfLastTwoStanding"
	AllRemainingMustBeElected ElectionReason = "AllRemainingMustBeElected"
	OverwhelmingTally         ElectionReason = "OverwhelmingTally"
)

type CandidateElected struct {
	Who base.CandidateIndex `json:"who"`
	Why ElectionReason      `json:"why"`
}

// Portion says which slice of the count's reason is being done this
// count: the transfer value moved, when that transfer value was
// created, and which counts the papers came from.
type Portion struct {
	TransferValue        *tally.TransferValue `json:"transfer_value,omitempty"`
	WhenTVCreated        *base.CountIndex     `json:"when_tv_created,omitempty"`
	PapersCameFromCounts []base.CountIndex    `json:"papers_came_from_counts"`
}

// TransferValueCreation records how a transfer value was computed.
type TransferValueCreation struct {
	Surplus tally.Tally `json:"surplus"`
	Votes   tally.Tally `json:"votes"`
	// the aggregate value of exhausted votes, for NSW style transfers.
	ExcludedExhaustedTally *tally.Tally `json:"excluded_exhausted_tally,omitempty"`
	OriginalTransferValue  *tally.TransferValue `json:"original_transfer_value,omitempty"`
	// the general scaling factor, for NSW style transfers.
	MultipliedTransferValue *tally.TransferValue `json:"multiplied_transfer_value,omitempty"`
	// the number of ballots considered for redistribution. May be all
	// papers or a last parcel.
	BallotsConsidered base.BallotPaperCount `json:"ballots_considered"`
	// the number of the considered ballots that are continuing.
	ContinuingBallots base.BallotPaperCount `json:"continuing_ballots"`
	TransferValue     tally.TransferValue   `json:"transfer_value"`
	Source            TransferValueMethod   `json:"source"`
}

// DecisionMadeByEC records that the electoral commission needed to make
// a decision the tallies could not, and the ordering chosen, groups in
// increasing favour.
type DecisionMadeByEC struct {
	IncreasingFavour [][]base.CandidateIndex `json:"increasing_favour"`
}

// PerCandidateTally is a vote value per candidate plus the places votes
// go when they cannot go to a candidate. The sum over all columns is
// conserved from count to count.
type PerCandidateTally struct {
	Candidate []tally.Tally     `json:"candidate"`
	Exhausted tally.Tally       `json:"exhausted"`
	Rounding  tally.SignedTally `json:"rounding"`
	SetAside  *tally.Tally      `json:"set_aside,omitempty"`
}

// PerCandidatePapers is the paper analogue of PerCandidateTally. Papers
// are never lost to rounding; the column exists for format symmetry.
type PerCandidatePapers struct {
	Candidate []base.BallotPaperCount `json:"candidate"`
	Exhausted base.BallotPaperCount   `json:"exhausted"`
	Rounding  SignedPapers            `json:"rounding"`
	SetAside  *base.BallotPaperCount  `json:"set_aside,omitempty"`
}

// SignedPapers serializes a paper count as a signed string the same way
// rounding tallies are.
type SignedPapers struct {
	Negative bool
	Value    base.BallotPaperCount
}

func (s SignedPapers) String() string {
	if s.Negative {
		return "-" + s.Value.String()
	}
	return s.Value.String()
}

func (s SignedPapers) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *SignedPapers) UnmarshalJSON(b []byte) error {
	str := string(b)
	if len(str) > 1 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	neg := len(str) > 0 && str[0] == '-'
	if neg {
		str = str[1:]
	}
	n := 0
	for _, r := range str {
		if r < '0' || r > '9' {
			return InvalidTranscriptError.Errorf("not a paper count: %q", str)
		}
		n = n*10 + int(r-'0')
	}
	s.Negative = neg && n != 0
	s.Value = base.BallotPaperCount(n)
	return nil
}

// EndCountStatus is the status of the count at the end of a count.
type EndCountStatus struct {
	Tallies PerCandidateTally  `json:"tallies"`
	Papers  PerCandidatePapers `json:"papers"`
	// the number of the above papers that are above the line votes.
	ATLPapers *PerCandidatePapers `json:"atl_papers,omitempty"`
}

// SingleCount is one row of the transcript.
type SingleCount struct {
	// a special name for the count, if not 1,2,3,...
	CountName string `json:"count_name,omitempty"`
	// the action being done in this count.
	Reason ReasonForCount `json:"reason"`
	// which slice of that action is done in this count.
	Portion Portion `json:"portion"`
	// how the transfer value was made, if one was made.
	CreatedTransferValue *TransferValueCreation `json:"created_transfer_value,omitempty"`
	// status at end of count.
	Status EndCountStatus `json:"status"`
	// papers set aside because the transfer value was limited to the
	// incoming value. ACT only.
	SetAsideForQuota *PerCandidatePapers `json:"set_aside_for_quota,omitempty"`
	// who, if anyone, was elected in this count.
	Elected []CandidateElected `json:"elected"`
	// who stopped being a continuing candidate at the start of this
	// count. Candidates elected in this count appear here in the next.
	NotContinuing []base.CandidateIndex `json:"not_continuing"`
	// true if the action in Reason finished in this count.
	ReasonCompleted bool `json:"reason_completed"`
	// decisions the electoral commission needed to make.
	Decisions []DecisionMadeByEC `json:"decisions"`
}

type QuotaInfo struct {
	Papers    base.BallotPaperCount   `json:"papers"`
	Vacancies base.NumberOfCandidates `json:"vacancies"`
	Quota     tally.Tally             `json:"quota"`
}

// Transcript is the full ordered record of a distribution of
// preferences. It is append-only: once a count is recorded it is never
// revised.
type Transcript struct {
	// the rules used to compute this transcript.
	Rules   string                `json:"rules"`
	Quota   *QuotaInfo            `json:"quota,omitempty"`
	Counts  []*SingleCount        `json:"counts"`
	Elected []base.CandidateIndex `json:"elected"`

	frozen bool
}

func NewTranscript(rules string) *Transcript {
	return &Transcript{Rules: rules}
}

func (tr *Transcript) Count(index base.CountIndex) *SingleCount {
	return tr.Counts[index]
}

func (tr *Transcript) NumCounts() int { return len(tr.Counts) }

// AddCount appends a completed count row. The row must not be modified
// afterwards.
func (tr *Transcript) AddCount(c *SingleCount) error {
	if tr.frozen {
		return FrozenTranscriptError.Call()
	}
	tr.Counts = append(tr.Counts, c)
	return nil
}

// AddElected appends to the election order.
func (tr *Transcript) AddElected(c base.CandidateIndex) error {
	if tr.frozen {
		return FrozenTranscriptError.Call()
	}
	tr.Elected = append(tr.Elected, c)
	return nil
}

// SetQuota records the quota computation. Casual vacancy rules may
// recompute it; the transcript keeps the latest.
func (tr *Transcript) SetQuota(q QuotaInfo) error {
	if tr.frozen {
		return FrozenTranscriptError.Call()
	}
	tr.Quota = &q
	return nil
}

// Freeze prevents any further appends.
func (tr *Transcript) Freeze() { tr.frozen = true }

// TranscriptWithMetadata is the contents of a .transcript file.
type TranscriptWithMetadata struct {
	Metadata   base.ElectionMetadata `json:"metadata"`
	Transcript *Transcript           `json:"transcript"`
}

// LoadTranscript reads a .transcript file.
func LoadTranscript(path string) (*TranscriptWithMetadata, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, InvalidTranscriptError.Wrap(err)
	}

	var t TranscriptWithMetadata
	if err := util.JSONUnmarshal(b, &t); err != nil {
		return nil, InvalidTranscriptError.Wrap(err)
	}

	return &t, nil
}

// Save writes a .transcript file.
func (t *TranscriptWithMetadata) Save(path string) error {
	b, err := util.JSONMarshal(t)
	if err != nil {
		return err
	}

	return os.WriteFile(path, b, 0o644) // nolint:gosec
}
