package usecase

import (
	"fmt"
	"time"
)

// ItemFailure records one per-item failure during a run. Failures never
// abort the batch; they are collected here for inspection.
type ItemFailure struct {
	Phase string
	Ref   string
	Err   string
}

// Report summarizes one pipeline run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	DocumentsFetched   int
	DocumentsSkipped   int
	DocumentsCompleted int
	DocumentsFailed    int

	ChallengesExtracted int
	DuplicateGroups     int
	ChallengesRemoved   int
	ChallengesScored    int

	Failures []ItemFailure
}

func (r *Report) addFailure(phase, ref string, err error) {
	r.Failures = append(r.Failures, ItemFailure{
		Phase: phase,
		Ref:   ref,
		Err:   err.Error(),
	})
}

// Summary renders a one-line run summary for logging.
func (r *Report) Summary() string {
	return fmt.Sprintf("fetched=%d completed=%d skipped=%d failed=%d extracted=%d removed=%d scored=%d failures=%d",
		r.DocumentsFetched, r.DocumentsCompleted, r.DocumentsSkipped, r.DocumentsFailed,
		r.ChallengesExtracted, r.ChallengesRemoved, r.ChallengesScored, len(r.Failures))
}
