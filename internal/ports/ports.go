package ports

import (
	"context"
	"encoding/json"
	"time"

	"ChallengeScanner/internal/domain"
)

// DocumentSource fetches fresh documents for a configured source feed.
type DocumentSource interface {
	FetchFeed(ctx context.Context, feed domain.SourceFeed) ([]domain.Document, error)
}

// DocumentRepository persists raw documents and per-stage processing state.
type DocumentRepository interface {
	ActiveFeeds(ctx context.Context) ([]domain.SourceFeed, error)
	InsertDocument(ctx context.Context, doc domain.Document) (int64, error)
	UnprocessedDocuments(ctx context.Context, stage domain.Stage, limit int) ([]domain.Document, error)
	MarkProcessingState(ctx context.Context, docID int64, stage domain.Stage, status domain.ProcessingStatus, errMsg string) error
}

// ChallengeRepository persists extracted challenges and their scores.
type ChallengeRepository interface {
	InsertChallenge(ctx context.Context, ch domain.Challenge) (int64, error)
	AllChallenges(ctx context.Context) ([]domain.Challenge, error)
	ChallengeByID(ctx context.Context, id int64) (domain.Challenge, error)
	ChallengesByFingerprint(ctx context.Context, fingerprint string) ([]domain.Challenge, error)
	DeleteChallenge(ctx context.Context, id int64) error
	UpsertScore(ctx context.Context, score domain.ChallengeScore) error
}

// DiscoveryStore persists technology-discovery runs.
type DiscoveryStore interface {
	InsertDiscoveryRun(ctx context.Context, run domain.DiscoveryRun) (int64, error)
}

// SeedStore loads organizations and source feeds into storage.
type SeedStore interface {
	Seed(ctx context.Context, data domain.SeedData) error
}

// Extractor pushes a text chunk to an LLM and returns candidate challenges.
// Malformed model output is zero challenges, not an error.
type Extractor interface {
	Extract(ctx context.Context, chunk, orgName, url string) ([]domain.Challenge, error)
}

// ChatCompleter runs a prompt against an LLM, optionally constrained to a
// strict JSON schema, and returns the raw response text.
type ChatCompleter interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest carries one LLM call. Schema, when set, requests
// structured output named SchemaName.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
	SchemaName   string
	Schema       json.RawMessage
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
