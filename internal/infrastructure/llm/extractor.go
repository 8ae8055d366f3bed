package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"ChallengeScanner/internal/domain"
	"ChallengeScanner/internal/ports"
)

const (
	minChunkLength    = 50   // chars; shorter chunks are not worth a call
	maxChunkLength    = 3000 // chars sent to the API per chunk
	defaultConfidence = 0.70
)

const extractorSystemPrompt = "You are an expert in identifying SDG-related challenges and problems. Return only valid JSON."

const extractorPrompt = `ROLE: SDG Challenge Extractor (problem-first, no solutions).

INPUT:
- source_org: %s
- source_url: %s
- text_chunk: %s

TASK:
Extract ONLY challenges (problem statements) from the chunk.
A challenge is a statement describing: unmet needs, barriers, gaps, risks, constraints, vulnerable groups, capacity limitations, governance/infrastructure/finance/data constraints.

OUTPUT JSON (array of objects):
[{
  "challenge_title": "...",
  "challenge_statement": "...",
  "sdg_goals": [],
  "geography": "...",
  "target_groups": [".."],
  "sectors": [".."],
  "scale_numbers": {"...": 0},
  "root_causes": [".."],
  "constraints": [".."],
  "evidence_quotes": ["..", ".."],
  "confidence": 0.00
}]

RULES:
- Do NOT describe interventions, technologies, programs, or "what they will do".
- If the chunk is solution-heavy, infer the underlying problem briefly and lower confidence.
- Prefer challenges that are specific and testable over generic statements.
- Return [] if no challenges are present.

Return ONLY valid JSON, no other text.`

var jsonArrayExpr = regexp.MustCompile(`(?s)\[.*\]`)

// challengePayload mirrors the JSON shape the extraction prompt requests.
type challengePayload struct {
	Title          string             `json:"challenge_title"`
	Statement      string             `json:"challenge_statement"`
	SDGGoals       []int              `json:"sdg_goals"`
	Geography      string             `json:"geography"`
	TargetGroups   []string           `json:"target_groups"`
	Sectors        []string           `json:"sectors"`
	ScaleNumbers   map[string]float64 `json:"scale_numbers"`
	RootCauses     []string           `json:"root_causes"`
	Constraints    []string           `json:"constraints"`
	EvidenceQuotes []string           `json:"evidence_quotes"`
	Confidence     *float64           `json:"confidence"`
}

// Extractor turns text chunks into candidate challenges via the LLM.
type Extractor struct {
	client *Client
	model  string
	logger *slog.Logger
}

var _ ports.Extractor = (*Extractor)(nil)

// NewExtractor wires the chat client.
func NewExtractor(client *Client, logger *slog.Logger) *Extractor {
	return &Extractor{client: client, model: client.model, logger: logger}
}

// Extract asks the model for challenges in one chunk. Output that cannot
// be parsed as a challenge array is treated as zero challenges, not an
// error; transport failures are returned as errors.
func (e *Extractor) Extract(ctx context.Context, chunk, orgName, url string) ([]domain.Challenge, error) {
	if len(strings.TrimSpace(chunk)) < minChunkLength {
		return nil, nil
	}
	chunk = truncateToRune(chunk, maxChunkLength)

	prompt := fmt.Sprintf(extractorPrompt, orgName, url, chunk)
	response, err := e.client.Complete(ctx, ports.CompletionRequest{
		Model:        e.model,
		SystemPrompt: extractorSystemPrompt,
		Prompt:       prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("extract chunk: %w", err)
	}

	payloads, ok := parseChallenges(response)
	if !ok {
		e.warn("could not parse extraction response", "response", truncateForLog(response))
		return nil, nil
	}

	var challenges []domain.Challenge
	for _, p := range payloads {
		if strings.TrimSpace(p.Statement) == "" {
			continue
		}

		confidence := defaultConfidence
		if p.Confidence != nil {
			confidence = *p.Confidence
		}

		challenges = append(challenges, domain.Challenge{
			Title:           p.Title,
			Statement:       p.Statement,
			SDGGoals:        p.SDGGoals,
			Geography:       p.Geography,
			TargetGroups:    p.TargetGroups,
			Sectors:         p.Sectors,
			ScaleNumbers:    p.ScaleNumbers,
			RootCauses:      p.RootCauses,
			Constraints:     p.Constraints,
			EvidenceQuotes:  p.EvidenceQuotes,
			Confidence:      confidence,
			ExtractionModel: e.model,
		})
	}

	return challenges, nil
}

// parseChallenges decodes the response as a JSON array, falling back to
// the first bracketed span when the model wrapped the array in prose.
func parseChallenges(response string) ([]challengePayload, bool) {
	text := strings.TrimSpace(response)

	var payloads []challengePayload
	if err := json.Unmarshal([]byte(text), &payloads); err == nil {
		return payloads, true
	}

	// A single object instead of an array still counts.
	var single challengePayload
	if err := json.Unmarshal([]byte(text), &single); err == nil && single.Statement != "" {
		return []challengePayload{single}, true
	}

	if match := jsonArrayExpr.FindString(text); match != "" {
		if err := json.Unmarshal([]byte(match), &payloads); err == nil {
			return payloads, true
		}
	}

	return nil, false
}

func truncateForLog(s string) string {
	return truncateToRune(s, 200)
}

// truncateToRune caps s at max bytes without splitting a multi-byte rune.
func truncateToRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func (e *Extractor) warn(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
