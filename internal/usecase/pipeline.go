package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"ChallengeScanner/internal/chunker"
	"ChallengeScanner/internal/dedup"
	"ChallengeScanner/internal/domain"
	"ChallengeScanner/internal/ports"
	"ChallengeScanner/internal/scorer"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Documents  ports.DocumentRepository
	Challenges ports.ChallengeRepository
	Seeder     ports.SeedStore
	Source     ports.DocumentSource
	Extractor  ports.Extractor
	Chunker    *chunker.Chunker
	Dedup      *dedup.Deduplicator
	Scorer     *scorer.Scorer
	SeedData   domain.SeedData
	BatchSize  int
	Logger     *slog.Logger
}

// Pipeline implements the document-to-ranked-challenge workflow:
// seed → fetch → extract → dedupe → score. Documents are processed one at
// a time; per-item failures are recorded and the run continues.
type Pipeline struct {
	documents  ports.DocumentRepository
	challenges ports.ChallengeRepository
	seeder     ports.SeedStore
	source     ports.DocumentSource
	extractor  ports.Extractor
	chunker    *chunker.Chunker
	dedup      *dedup.Deduplicator
	scorer     *scorer.Scorer
	seedData   domain.SeedData
	batchSize  int
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	batchSize := deps.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Pipeline{
		documents:  deps.Documents,
		challenges: deps.Challenges,
		seeder:     deps.Seeder,
		source:     deps.Source,
		extractor:  deps.Extractor,
		chunker:    deps.Chunker,
		dedup:      deps.Dedup,
		scorer:     deps.Scorer,
		seedData:   deps.SeedData,
		batchSize:  batchSize,
		logger:     deps.Logger,
	}
}

// Run executes one full pipeline pass and returns its report. Re-runs are
// idempotent: documents with a terminal extraction state are not
// reprocessed, deduplication only acts on current fingerprint collisions,
// and scoring overwrites prior scores.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	p.info("pipeline run started", "run_id", report.RunID)

	p.seed(ctx, report)
	p.discoverAndFetch(ctx, report)

	if err := p.extractChallenges(ctx, report); err != nil {
		return report, fmt.Errorf("extraction phase: %w", err)
	}

	p.deduplicate(ctx, report)
	p.scoreChallenges(ctx, report)

	report.FinishedAt = time.Now().UTC()
	p.info("pipeline run finished", "run_id", report.RunID, "summary", report.Summary())
	return report, nil
}

// seed loads configured organizations and feeds. An error here usually
// means the data already exists; it is recorded and the run continues.
func (p *Pipeline) seed(ctx context.Context, report *Report) {
	if p.seeder == nil || len(p.seedData.Organizations) == 0 {
		return
	}

	if err := p.seeder.Seed(ctx, p.seedData); err != nil {
		p.warn("seeding failed (may already exist)", "error", err)
		report.addFailure("seed", "", err)
	}
}

// discoverAndFetch walks every active feed and stores its documents.
func (p *Pipeline) discoverAndFetch(ctx context.Context, report *Report) {
	if p.source == nil {
		return
	}

	feeds, err := p.documents.ActiveFeeds(ctx)
	if err != nil {
		p.warn("list active feeds failed", "error", err)
		report.addFailure("fetch", "", err)
		return
	}

	p.info("fetching feeds", "feeds", len(feeds))

	for _, feed := range feeds {
		docs, err := p.source.FetchFeed(ctx, feed)
		if err != nil {
			p.warn("feed failed", "feed", feed.Name, "error", err)
			report.addFailure("fetch", feed.Name, err)
			continue
		}

		for _, doc := range docs {
			if _, err := p.documents.InsertDocument(ctx, doc); err != nil {
				p.warn("store document failed", "url", doc.URL, "error", err)
				report.addFailure("fetch", doc.URL, err)
				continue
			}
			report.DocumentsFetched++
		}
	}
}

// extractChallenges runs the per-document extraction state machine over
// the next batch of unprocessed documents.
func (p *Pipeline) extractChallenges(ctx context.Context, report *Report) error {
	docs, err := p.documents.UnprocessedDocuments(ctx, domain.StageExtraction, p.batchSize)
	if err != nil {
		return fmt.Errorf("load unprocessed documents: %w", err)
	}

	p.info("extracting challenges", "documents", len(docs))

	for _, doc := range docs {
		p.extractDocument(ctx, doc, report)
	}

	return nil
}

// extractDocument chunks one document, extracts challenges from each
// chunk, fingerprints them, and inserts them, then records the terminal
// state: skipped when there is nothing to chunk, completed when chunking
// succeeded (even with zero challenges), failed on an extraction error.
func (p *Pipeline) extractDocument(ctx context.Context, doc domain.Document, report *Report) {
	docRef := strconv.FormatInt(doc.ID, 10)

	chunks := p.chunker.ChunkDocument(doc.TextContent, map[string]any{"doc_id": doc.ID})
	if len(chunks) == 0 {
		p.markState(ctx, doc.ID, domain.StatusSkipped, "no chunks", report)
		report.DocumentsSkipped++
		return
	}

	var challenges []domain.Challenge
	for _, chunk := range chunks {
		extracted, err := p.extractor.Extract(ctx, chunk.Text, doc.OrgName, doc.URL)
		if err != nil {
			p.warn("extraction failed", "doc_id", doc.ID, "chunk", chunk.Index, "error", err)
			report.addFailure("extract", docRef, err)
			p.markState(ctx, doc.ID, domain.StatusFailed, err.Error(), report)
			report.DocumentsFailed++
			return
		}
		challenges = append(challenges, extracted...)
	}

	challenges = p.dedup.AddFingerprints(challenges)

	for i := range challenges {
		challenges[i].DocID = doc.ID
		challenges[i].OrgID = doc.OrgID

		if _, err := p.challenges.InsertChallenge(ctx, challenges[i]); err != nil {
			p.warn("insert challenge failed", "doc_id", doc.ID, "error", err)
			report.addFailure("extract", docRef, err)
			continue
		}
		report.ChallengesExtracted++
	}

	p.markState(ctx, doc.ID, domain.StatusCompleted, "", report)
	report.DocumentsCompleted++
	p.info("document extracted", "doc_id", doc.ID, "challenges", len(challenges))
}

// deduplicate is a whole-corpus pass: it groups stored challenges by
// fingerprint, merges each group in memory, and deletes exactly the
// non-primary records the merge removed.
func (p *Pipeline) deduplicate(ctx context.Context, report *Report) {
	all, err := p.challenges.AllChallenges(ctx)
	if err != nil {
		p.warn("load challenges for dedup failed", "error", err)
		report.addFailure("dedupe", "", err)
		return
	}

	groups := p.dedup.FindDuplicateGroups(all)
	report.DuplicateGroups = len(groups)
	if len(groups) == 0 {
		return
	}

	merged, removed := p.dedup.Merge(all, groups)
	p.info("deduplicating", "groups", len(groups), "before", len(all), "after", len(merged))

	for _, idx := range removed {
		id := all[idx].ID
		if err := p.challenges.DeleteChallenge(ctx, id); err != nil {
			p.warn("delete duplicate failed", "challenge_id", id, "error", err)
			report.addFailure("dedupe", strconv.FormatInt(id, 10), err)
			continue
		}
		report.ChallengesRemoved++
	}
}

// scoreChallenges is a whole-corpus pass: every stored challenge is scored
// and its score upserted, overwriting prior scores.
func (p *Pipeline) scoreChallenges(ctx context.Context, report *Report) {
	all, err := p.challenges.AllChallenges(ctx)
	if err != nil {
		p.warn("load challenges for scoring failed", "error", err)
		report.addFailure("score", "", err)
		return
	}

	p.info("scoring challenges", "count", len(all))

	for _, ch := range all {
		score := p.scorer.Score(ch)
		if err := p.challenges.UpsertScore(ctx, score); err != nil {
			p.warn("upsert score failed", "challenge_id", ch.ID, "error", err)
			report.addFailure("score", strconv.FormatInt(ch.ID, 10), err)
			continue
		}
		report.ChallengesScored++
	}
}

func (p *Pipeline) markState(ctx context.Context, docID int64, status domain.ProcessingStatus, errMsg string, report *Report) {
	if err := p.documents.MarkProcessingState(ctx, docID, domain.StageExtraction, status, errMsg); err != nil {
		p.warn("mark processing state failed", "doc_id", docID, "status", status, "error", err)
		report.addFailure("state", strconv.FormatInt(docID, 10), err)
	}
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
