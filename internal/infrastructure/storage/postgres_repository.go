package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ChallengeScanner/internal/domain"
	"ChallengeScanner/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists documents, challenges, scores, and
// processing state into Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.DocumentRepository = (*PostgresRepository)(nil)
var _ ports.ChallengeRepository = (*PostgresRepository)(nil)
var _ ports.SeedStore = (*PostgresRepository)(nil)
var _ ports.DiscoveryStore = (*PostgresRepository)(nil)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ActiveFeeds returns all active source feeds with their organization.
func (r *PostgresRepository) ActiveFeeds(ctx context.Context) ([]domain.SourceFeed, error) {
	rows, err := psql.Select("sf.feed_id", "sf.org_id", "o.org_name", "sf.feed_name", "sf.feed_type", "sf.base_url").
		From("source_feed sf").
		Join("org o ON sf.org_id = o.org_id").
		Where(sq.Eq{"sf.active": true}).
		RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query active feeds: %w", err)
	}
	defer rows.Close()

	var feeds []domain.SourceFeed
	for rows.Next() {
		feed := domain.SourceFeed{Active: true}
		if err := rows.Scan(&feed.ID, &feed.OrgID, &feed.OrgName, &feed.Name, &feed.Type, &feed.BaseURL); err != nil {
			return nil, fmt.Errorf("scan feed: %w", err)
		}
		feeds = append(feeds, feed)
	}

	return feeds, rows.Err()
}

// InsertDocument stores a raw document and returns its id.
func (r *PostgresRepository) InsertDocument(ctx context.Context, doc domain.Document) (int64, error) {
	var id int64
	err := psql.Insert("raw_document").
		Columns("feed_id", "url", "canonical_url", "http_status", "content_type",
			"lang", "title", "hash_sha256", "text_content", "fetched_at").
		Values(doc.FeedID, doc.URL, doc.CanonicalURL, doc.HTTPStatus, doc.ContentType,
			doc.Language, doc.Title, doc.HashSHA256, doc.TextContent, doc.FetchedAt).
		Suffix("RETURNING doc_id").
		RunWith(r.db).QueryRowContext(ctx).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

// UnprocessedDocuments returns documents with no processing state for the
// given stage. Documents with any terminal state for the stage, including
// failed, are excluded.
func (r *PostgresRepository) UnprocessedDocuments(ctx context.Context, stage domain.Stage, limit int) ([]domain.Document, error) {
	rows, err := psql.Select("rd.doc_id", "rd.feed_id", "rd.url", "rd.text_content", "sf.org_id", "o.org_name").
		From("raw_document rd").
		Join("source_feed sf ON rd.feed_id = sf.feed_id").
		Join("org o ON sf.org_id = o.org_id").
		LeftJoin("processing_state ps ON rd.doc_id = ps.doc_id AND ps.stage = ?", string(stage)).
		Where("ps.state_id IS NULL").
		Where("rd.text_content IS NOT NULL").
		Limit(uint64(limit)).
		RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.FeedID, &doc.URL, &doc.TextContent, &doc.OrgID, &doc.OrgName); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// MarkProcessingState upserts the (document, stage) status record.
func (r *PostgresRepository) MarkProcessingState(ctx context.Context, docID int64, stage domain.Stage, status domain.ProcessingStatus, errMsg string) error {
	var errValue any
	if errMsg != "" {
		errValue = errMsg
	}

	_, err := psql.Insert("processing_state").
		Columns("doc_id", "stage", "status", "error_message").
		Values(docID, string(stage), string(status), errValue).
		Suffix(`ON CONFLICT (doc_id, stage) DO UPDATE SET
			status = EXCLUDED.status,
			error_message = EXCLUDED.error_message,
			processed_at = NOW()`).
		RunWith(r.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("mark processing state: %w", err)
	}
	return nil
}

// InsertChallenge stores an extracted challenge and returns its id.
func (r *PostgresRepository) InsertChallenge(ctx context.Context, ch domain.Challenge) (int64, error) {
	scaleNumbers, err := json.Marshal(ch.ScaleNumbers)
	if err != nil {
		return 0, fmt.Errorf("marshal scale numbers: %w", err)
	}

	var id int64
	err = psql.Insert("challenge").
		Columns("doc_id", "org_id", "challenge_title", "challenge_statement", "sdg_goals",
			"geography", "target_groups", "sectors", "scale_numbers", "root_causes",
			"constraints", "evidence_quotes", "confidence", "extraction_model",
			"statement_fingerprint").
		Values(ch.DocID, ch.OrgID, ch.Title, ch.Statement, pq.Array(toInt64(ch.SDGGoals)),
			ch.Geography, pq.Array(ch.TargetGroups), pq.Array(ch.Sectors), scaleNumbers,
			pq.Array(ch.RootCauses), pq.Array(ch.Constraints), pq.Array(ch.EvidenceQuotes),
			ch.Confidence, ch.ExtractionModel, ch.Fingerprint).
		Suffix("RETURNING challenge_id").
		RunWith(r.db).QueryRowContext(ctx).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert challenge: %w", err)
	}
	return id, nil
}

// AllChallenges returns every stored challenge, newest first.
func (r *PostgresRepository) AllChallenges(ctx context.Context) ([]domain.Challenge, error) {
	rows, err := r.selectChallenges().
		OrderBy("extracted_at DESC").
		RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query challenges: %w", err)
	}
	defer rows.Close()

	return scanChallenges(rows)
}

// ChallengeByID returns one challenge.
func (r *PostgresRepository) ChallengeByID(ctx context.Context, id int64) (domain.Challenge, error) {
	rows, err := r.selectChallenges().
		Where(sq.Eq{"challenge_id": id}).
		RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("query challenge %d: %w", id, err)
	}
	defer rows.Close()

	challenges, err := scanChallenges(rows)
	if err != nil {
		return domain.Challenge{}, err
	}
	if len(challenges) == 0 {
		return domain.Challenge{}, fmt.Errorf("challenge %d not found", id)
	}
	return challenges[0], nil
}

// ChallengesByFingerprint returns all challenges sharing a fingerprint,
// highest confidence first.
func (r *PostgresRepository) ChallengesByFingerprint(ctx context.Context, fingerprint string) ([]domain.Challenge, error) {
	rows, err := r.selectChallenges().
		Where(sq.Eq{"statement_fingerprint": fingerprint}).
		OrderBy("confidence DESC", "extracted_at DESC").
		RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query challenges by fingerprint: %w", err)
	}
	defer rows.Close()

	return scanChallenges(rows)
}

// DeleteChallenge removes a challenge record.
func (r *PostgresRepository) DeleteChallenge(ctx context.Context, id int64) error {
	_, err := psql.Delete("challenge").
		Where(sq.Eq{"challenge_id": id}).
		RunWith(r.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("delete challenge %d: %w", id, err)
	}
	return nil
}

// UpsertScore writes the score for a challenge, overwriting a prior score.
func (r *PostgresRepository) UpsertScore(ctx context.Context, score domain.ChallengeScore) error {
	_, err := psql.Insert("challenge_score").
		Columns("challenge_id", "challenge_density", "solution_leakage", "specificity",
			"evidence_strength", "recency_score", "overall_score", "scoring_notes").
		Values(score.ChallengeID, score.ChallengeDensity, score.SolutionLeakage, score.Specificity,
			score.EvidenceStrength, score.RecencyScore, score.OverallScore, score.Notes).
		Suffix(`ON CONFLICT (challenge_id) DO UPDATE SET
			challenge_density = EXCLUDED.challenge_density,
			solution_leakage = EXCLUDED.solution_leakage,
			specificity = EXCLUDED.specificity,
			evidence_strength = EXCLUDED.evidence_strength,
			recency_score = EXCLUDED.recency_score,
			overall_score = EXCLUDED.overall_score,
			scoring_notes = EXCLUDED.scoring_notes`).
		RunWith(r.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

// InsertDiscoveryRun stores one technology-discovery attempt, completed or
// failed.
func (r *PostgresRepository) InsertDiscoveryRun(ctx context.Context, run domain.DiscoveryRun) (int64, error) {
	var errValue any
	if run.Error != "" {
		errValue = run.Error
	}

	var id int64
	err := psql.Insert("discovery_run").
		Columns("challenge_id", "model", "output", "confidence", "status", "error_message").
		Values(run.ChallengeID, run.Model, run.Output, run.Confidence, string(run.Status), errValue).
		Suffix("RETURNING run_id").
		RunWith(r.db).QueryRowContext(ctx).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert discovery run: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) selectChallenges() sq.SelectBuilder {
	return psql.Select("challenge_id", "doc_id", "org_id", "challenge_title",
		"challenge_statement", "sdg_goals", "geography", "target_groups", "sectors",
		"scale_numbers", "root_causes", "constraints", "evidence_quotes", "confidence",
		"extraction_model", "statement_fingerprint").
		From("challenge")
}

func scanChallenges(rows *sql.Rows) ([]domain.Challenge, error) {
	var challenges []domain.Challenge
	for rows.Next() {
		var (
			ch           domain.Challenge
			title        sql.NullString
			geography    sql.NullString
			model        sql.NullString
			fingerprint  sql.NullString
			goals        pq.Int64Array
			scaleNumbers []byte
		)

		err := rows.Scan(&ch.ID, &ch.DocID, &ch.OrgID, &title, &ch.Statement, &goals,
			&geography, pq.Array(&ch.TargetGroups), pq.Array(&ch.Sectors), &scaleNumbers,
			pq.Array(&ch.RootCauses), pq.Array(&ch.Constraints), pq.Array(&ch.EvidenceQuotes),
			&ch.Confidence, &model, &fingerprint)
		if err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}

		ch.Title = title.String
		ch.Geography = geography.String
		ch.ExtractionModel = model.String
		ch.Fingerprint = fingerprint.String
		ch.SDGGoals = toInt(goals)
		if len(scaleNumbers) > 0 {
			if err := json.Unmarshal(scaleNumbers, &ch.ScaleNumbers); err != nil {
				return nil, fmt.Errorf("unmarshal scale numbers: %w", err)
			}
		}

		challenges = append(challenges, ch)
	}

	return challenges, rows.Err()
}

func toInt64(values []int) []int64 {
	result := make([]int64, len(values))
	for i, v := range values {
		result[i] = int64(v)
	}
	return result
}

func toInt(values []int64) []int {
	if len(values) == 0 {
		return nil
	}
	result := make([]int, len(values))
	for i, v := range values {
		result[i] = int(v)
	}
	return result
}
