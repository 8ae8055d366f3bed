package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"ChallengeScanner/internal/chunker"
	"ChallengeScanner/internal/config"
	"ChallengeScanner/internal/dedup"
	"ChallengeScanner/internal/domain"
	"ChallengeScanner/internal/scorer"
)

type stateKey struct {
	docID int64
	stage domain.Stage
}

type stateEntry struct {
	status domain.ProcessingStatus
	errMsg string
}

type fakeDocumentRepo struct {
	feeds  []domain.SourceFeed
	docs   []domain.Document
	nextID int64
	states map[stateKey]stateEntry
}

func newFakeDocumentRepo(feeds ...domain.SourceFeed) *fakeDocumentRepo {
	return &fakeDocumentRepo{feeds: feeds, states: map[stateKey]stateEntry{}}
}

func (f *fakeDocumentRepo) ActiveFeeds(_ context.Context) ([]domain.SourceFeed, error) {
	return f.feeds, nil
}

func (f *fakeDocumentRepo) InsertDocument(_ context.Context, doc domain.Document) (int64, error) {
	for _, existing := range f.docs {
		if existing.URL == doc.URL {
			return existing.ID, nil
		}
	}
	f.nextID++
	doc.ID = f.nextID
	f.docs = append(f.docs, doc)
	return doc.ID, nil
}

func (f *fakeDocumentRepo) UnprocessedDocuments(_ context.Context, stage domain.Stage, limit int) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range f.docs {
		if _, done := f.states[stateKey{doc.ID, stage}]; done {
			continue
		}
		out = append(out, doc)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeDocumentRepo) MarkProcessingState(_ context.Context, docID int64, stage domain.Stage, status domain.ProcessingStatus, errMsg string) error {
	f.states[stateKey{docID, stage}] = stateEntry{status: status, errMsg: errMsg}
	return nil
}

type fakeChallengeRepo struct {
	nextID     int64
	order      []int64
	challenges map[int64]domain.Challenge
	scores     map[int64]domain.ChallengeScore
	deleted    []int64
}

func newFakeChallengeRepo() *fakeChallengeRepo {
	return &fakeChallengeRepo{
		challenges: map[int64]domain.Challenge{},
		scores:     map[int64]domain.ChallengeScore{},
	}
}

func (f *fakeChallengeRepo) InsertChallenge(_ context.Context, ch domain.Challenge) (int64, error) {
	f.nextID++
	ch.ID = f.nextID
	f.challenges[ch.ID] = ch
	f.order = append(f.order, ch.ID)
	return ch.ID, nil
}

func (f *fakeChallengeRepo) AllChallenges(_ context.Context) ([]domain.Challenge, error) {
	var out []domain.Challenge
	for _, id := range f.order {
		if ch, ok := f.challenges[id]; ok {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeChallengeRepo) ChallengeByID(_ context.Context, id int64) (domain.Challenge, error) {
	ch, ok := f.challenges[id]
	if !ok {
		return domain.Challenge{}, errors.New("challenge not found")
	}
	return ch, nil
}

func (f *fakeChallengeRepo) ChallengesByFingerprint(_ context.Context, fingerprint string) ([]domain.Challenge, error) {
	var out []domain.Challenge
	for _, id := range f.order {
		if ch, ok := f.challenges[id]; ok && ch.Fingerprint == fingerprint {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeChallengeRepo) DeleteChallenge(_ context.Context, id int64) error {
	delete(f.challenges, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeChallengeRepo) UpsertScore(_ context.Context, score domain.ChallengeScore) error {
	f.scores[score.ChallengeID] = score
	return nil
}

type fakeSource struct {
	docs []domain.Document
	err  error
}

func (f *fakeSource) FetchFeed(_ context.Context, feed domain.SourceFeed) ([]domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Document, len(f.docs))
	copy(out, f.docs)
	for i := range out {
		out[i].FeedID = feed.ID
		out[i].OrgID = feed.OrgID
		out[i].OrgName = feed.OrgName
	}
	return out, nil
}

type fakeExtractor struct {
	challenges []domain.Challenge
	err        error
	calls      int
}

func (f *fakeExtractor) Extract(_ context.Context, chunk, orgName, url string) ([]domain.Challenge, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Challenge, len(f.challenges))
	copy(out, f.challenges)
	return out, nil
}

func newTestPipeline(docs *fakeDocumentRepo, challenges *fakeChallengeRepo, source *fakeSource, extractor *fakeExtractor) *Pipeline {
	return NewPipeline(PipelineDeps{
		Documents:  docs,
		Challenges: challenges,
		Source:     source,
		Extractor:  extractor,
		Chunker:    chunker.New(1000, 0.15),
		Dedup:      dedup.New(),
		Scorer: scorer.New(config.ScoringConfig{
			Weights: config.ScoreWeights{
				ChallengeDensity: 0.35,
				Specificity:      0.25,
				Evidence:         0.20,
				Recency:          0.10,
				SolutionLeakage:  -0.20,
			},
			MinOverallScore:    40,
			MinConfidence:      0.50,
			MaxSolutionLeakage: 70,
			ChallengeKeywords:  config.DefaultChallengeKeywords(),
			SolutionKeywords:   config.DefaultSolutionKeywords(),
		}),
		BatchSize: 10,
	})
}

var longText = strings.Repeat("rural water systems fail without maintenance funding across the region ", 4)

func TestPipelineRunProcessesDocuments(t *testing.T) {
	t.Parallel()

	feed := domain.SourceFeed{ID: 1, OrgID: 2, OrgName: "WaterOrg", Name: "reports", Type: "web", Active: true}
	docs := newFakeDocumentRepo(feed)
	challenges := newFakeChallengeRepo()
	source := &fakeSource{docs: []domain.Document{
		{URL: "https://example.org/report", TextContent: longText},
		{URL: "https://example.org/stub", TextContent: "too short"},
	}}
	extractor := &fakeExtractor{challenges: []domain.Challenge{
		{Statement: "Communities lack reliable access to clean water", Confidence: 0.8},
	}}

	p := newTestPipeline(docs, challenges, source, extractor)
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if report.DocumentsFetched != 2 {
		t.Fatalf("expected 2 documents fetched, got %d", report.DocumentsFetched)
	}
	if report.DocumentsCompleted != 1 || report.DocumentsSkipped != 1 || report.DocumentsFailed != 0 {
		t.Fatalf("unexpected document counts: %s", report.Summary())
	}
	if report.ChallengesExtracted != 1 || report.ChallengesScored != 1 {
		t.Fatalf("unexpected challenge counts: %s", report.Summary())
	}

	long := docs.states[stateKey{1, domain.StageExtraction}]
	if long.status != domain.StatusCompleted || long.errMsg != "" {
		t.Fatalf("long document: expected completed, got %s (%q)", long.status, long.errMsg)
	}
	short := docs.states[stateKey{2, domain.StageExtraction}]
	if short.status != domain.StatusSkipped || short.errMsg != "no chunks" {
		t.Fatalf("short document: expected skipped with reason, got %s (%q)", short.status, short.errMsg)
	}

	stored, _ := challenges.AllChallenges(context.Background())
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored challenge, got %d", len(stored))
	}
	if stored[0].DocID != 1 || stored[0].OrgID != 2 {
		t.Fatalf("challenge not linked to document: doc %d org %d", stored[0].DocID, stored[0].OrgID)
	}
	if len(stored[0].Fingerprint) != 64 {
		t.Fatalf("challenge missing fingerprint: %q", stored[0].Fingerprint)
	}
	if _, ok := challenges.scores[stored[0].ID]; !ok {
		t.Fatalf("challenge %d has no score", stored[0].ID)
	}
}

func TestPipelineRunIsIdempotent(t *testing.T) {
	t.Parallel()

	feed := domain.SourceFeed{ID: 1, OrgID: 2, Name: "reports", Type: "web", Active: true}
	docs := newFakeDocumentRepo(feed)
	challenges := newFakeChallengeRepo()
	source := &fakeSource{docs: []domain.Document{{URL: "https://example.org/report", TextContent: longText}}}
	extractor := &fakeExtractor{challenges: []domain.Challenge{
		{Statement: "Communities lack reliable access to clean water", Confidence: 0.8},
	}}

	p := newTestPipeline(docs, challenges, source, extractor)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	callsAfterFirst := extractor.calls

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if extractor.calls != callsAfterFirst {
		t.Fatalf("completed document was re-extracted: %d calls after first, %d after second",
			callsAfterFirst, extractor.calls)
	}
	stored, _ := challenges.AllChallenges(context.Background())
	if len(stored) != 1 {
		t.Fatalf("expected 1 challenge after re-run, got %d", len(stored))
	}
	if report.ChallengesScored != 1 {
		t.Fatalf("re-run should rescore the corpus, scored %d", report.ChallengesScored)
	}
}

func TestPipelineMarksFailedOnExtractorError(t *testing.T) {
	t.Parallel()

	feed := domain.SourceFeed{ID: 1, Name: "reports", Type: "web", Active: true}
	docs := newFakeDocumentRepo(feed)
	challenges := newFakeChallengeRepo()
	source := &fakeSource{docs: []domain.Document{{URL: "https://example.org/report", TextContent: longText}}}
	extractor := &fakeExtractor{err: errors.New("api unreachable")}

	p := newTestPipeline(docs, challenges, source, extractor)
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if report.DocumentsFailed != 1 {
		t.Fatalf("expected 1 failed document, got %d", report.DocumentsFailed)
	}
	state := docs.states[stateKey{1, domain.StageExtraction}]
	if state.status != domain.StatusFailed || state.errMsg != "api unreachable" {
		t.Fatalf("expected failed state with error message, got %s (%q)", state.status, state.errMsg)
	}
	if len(report.Failures) == 0 || report.Failures[0].Phase != "extract" {
		t.Fatalf("expected an extract failure in the report, got %v", report.Failures)
	}

	// Failed is terminal: a second run must not retry the document.
	callsAfterFirst := extractor.calls
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if extractor.calls != callsAfterFirst {
		t.Fatalf("failed document was retried")
	}
}

func TestPipelineCompletesWithZeroChallenges(t *testing.T) {
	t.Parallel()

	feed := domain.SourceFeed{ID: 1, Name: "reports", Type: "web", Active: true}
	docs := newFakeDocumentRepo(feed)
	challenges := newFakeChallengeRepo()
	source := &fakeSource{docs: []domain.Document{{URL: "https://example.org/report", TextContent: longText}}}
	extractor := &fakeExtractor{}

	p := newTestPipeline(docs, challenges, source, extractor)
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if report.DocumentsCompleted != 1 || report.ChallengesExtracted != 0 {
		t.Fatalf("expected completed document with zero challenges: %s", report.Summary())
	}
	if state := docs.states[stateKey{1, domain.StageExtraction}]; state.status != domain.StatusCompleted {
		t.Fatalf("expected completed state, got %s", state.status)
	}
}

func TestPipelineDeduplicatesStoredChallenges(t *testing.T) {
	t.Parallel()

	docs := newFakeDocumentRepo()
	challenges := newFakeChallengeRepo()
	ctx := context.Background()

	lowID, _ := challenges.InsertChallenge(ctx, domain.Challenge{
		Statement:      "Water scarcity affects 500 million people",
		Confidence:     0.6,
		EvidenceQuotes: []string{"quote A"},
	})
	highID, _ := challenges.InsertChallenge(ctx, domain.Challenge{
		Statement:      "Water scarcity affects 650 million people",
		Confidence:     0.9,
		EvidenceQuotes: []string{"quote B"},
	})
	distinctID, _ := challenges.InsertChallenge(ctx, domain.Challenge{
		Statement:  "Food insecurity is rising across rural regions",
		Confidence: 0.7,
	})

	p := newTestPipeline(docs, challenges, &fakeSource{}, &fakeExtractor{})
	report, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if report.DuplicateGroups != 1 || report.ChallengesRemoved != 1 {
		t.Fatalf("unexpected dedup counts: %s", report.Summary())
	}
	if len(challenges.deleted) != 1 || challenges.deleted[0] != lowID {
		t.Fatalf("expected low-confidence challenge %d deleted, got %v", lowID, challenges.deleted)
	}

	stored, _ := challenges.AllChallenges(ctx)
	if len(stored) != 2 {
		t.Fatalf("expected 2 surviving challenges, got %d", len(stored))
	}

	var survivors []int64
	for _, ch := range stored {
		survivors = append(survivors, ch.ID)
	}
	sort.Slice(survivors, func(a, b int) bool { return survivors[a] < survivors[b] })
	if survivors[0] != highID || survivors[1] != distinctID {
		t.Fatalf("unexpected survivors: %v", survivors)
	}

	if report.ChallengesScored != 2 {
		t.Fatalf("expected both survivors scored, got %d", report.ChallengesScored)
	}
	for _, id := range survivors {
		if _, ok := challenges.scores[id]; !ok {
			t.Fatalf("challenge %d has no score", id)
		}
	}
}
