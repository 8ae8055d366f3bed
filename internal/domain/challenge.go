package domain

// Challenge is a candidate problem statement extracted from a document chunk.
// Created by extraction, mutated by deduplication, never mutated after scoring.
type Challenge struct {
	ID              int64
	DocID           int64
	OrgID           int64
	Title           string
	Statement       string
	SDGGoals        []int
	Geography       string
	TargetGroups    []string
	Sectors         []string
	ScaleNumbers    map[string]float64
	RootCauses      []string
	Constraints     []string
	EvidenceQuotes  []string
	Confidence      float64
	ExtractionModel string
	Fingerprint     string
	MergedFrom      int // group size after a merge, zero otherwise
}

// DiscoveryRunStatus marks whether a discovery run produced a result.
type DiscoveryRunStatus string

const (
	DiscoveryRunCompleted DiscoveryRunStatus = "completed"
	DiscoveryRunFailed    DiscoveryRunStatus = "failed"
)

// DiscoveryRun is one technology-discovery attempt for a challenge, kept as
// the raw structured output plus its confidence. Failed attempts are
// recorded too, with the error message and no output.
type DiscoveryRun struct {
	ID          int64
	ChallengeID int64
	Model       string
	Output      []byte // structured discovery JSON
	Confidence  float64
	Status      DiscoveryRunStatus
	Error       string
}
