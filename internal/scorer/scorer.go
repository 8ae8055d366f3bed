package scorer

import (
	"fmt"
	"strings"

	"ChallengeScanner/internal/config"
	"ChallengeScanner/internal/domain"
)

const recencyScore = 70 // placeholder until documents carry source dates

// ScoredChallenge pairs a challenge with its computed score.
type ScoredChallenge struct {
	Challenge domain.Challenge
	Score     domain.ChallengeScore
}

// Scorer computes five sub-scores per challenge and combines them into one
// quality score. Scoring never discards records; Filter is separate.
type Scorer struct {
	challengeKeywords []string
	solutionKeywords  []string
	weights           config.ScoreWeights
	minOverallScore   int
	minConfidence     float64
	maxLeakage        int
}

// New builds a scorer from the immutable scoring configuration.
func New(cfg config.ScoringConfig) *Scorer {
	return &Scorer{
		challengeKeywords: cfg.ChallengeKeywords,
		solutionKeywords:  cfg.SolutionKeywords,
		weights:           cfg.Weights,
		minOverallScore:   cfg.MinOverallScore,
		minConfidence:     cfg.MinConfidence,
		maxLeakage:        cfg.MaxSolutionLeakage,
	}
}

// Score computes all sub-scores and the weighted composite for one
// challenge. Every value is floored to an integer in [0, 100].
func (s *Scorer) Score(ch domain.Challenge) domain.ChallengeScore {
	density := keywordDensity(ch.Statement, s.challengeKeywords)
	leakage := keywordDensity(ch.Statement, s.solutionKeywords)
	specificity := scoreSpecificity(ch)
	evidence := scoreEvidence(ch)
	recency := float64(recencyScore)

	overall := s.weights.ChallengeDensity*density +
		s.weights.Specificity*specificity +
		s.weights.Evidence*evidence +
		s.weights.Recency*recency +
		s.weights.SolutionLeakage*leakage

	if overall < 0 {
		overall = 0
	}
	if overall > 100 {
		overall = 100
	}

	return domain.ChallengeScore{
		ChallengeID:      ch.ID,
		ChallengeDensity: int(density),
		SolutionLeakage:  int(leakage),
		Specificity:      int(specificity),
		EvidenceStrength: int(evidence),
		RecencyScore:     int(recency),
		OverallScore:     int(overall),
		Notes: fmt.Sprintf("Density: %.0f, Solution leakage: %.0f, Specificity: %.0f",
			density, leakage, specificity),
	}
}

// ScoreBatch scores every challenge in order.
func (s *Scorer) ScoreBatch(challenges []domain.Challenge) []ScoredChallenge {
	scored := make([]ScoredChallenge, 0, len(challenges))
	for _, ch := range challenges {
		scored = append(scored, ScoredChallenge{Challenge: ch, Score: s.Score(ch)})
	}
	return scored
}

// Filter keeps challenges meeting all three thresholds: overall score at or
// above the minimum (inclusive), confidence at or above the minimum, and
// solution leakage at or below the maximum.
func (s *Scorer) Filter(scored []ScoredChallenge) []ScoredChallenge {
	var kept []ScoredChallenge
	for _, sc := range scored {
		if sc.Score.OverallScore >= s.minOverallScore &&
			sc.Challenge.Confidence >= s.minConfidence &&
			sc.Score.SolutionLeakage <= s.maxLeakage {
			kept = append(kept, sc)
		}
	}
	return kept
}

// keywordDensity counts distinct keywords appearing as substrings of the
// lowercased statement, normalized by word count and scaled so a 10%
// density saturates the score.
func keywordDensity(statement string, keywords []string) float64 {
	if statement == "" {
		return 0
	}

	wordCount := len(strings.Fields(statement))
	if wordCount == 0 {
		return 0
	}

	lower := strings.ToLower(statement)
	matches := 0
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			matches++
		}
	}

	density := float64(matches) / float64(wordCount) * 100
	score := density * 10
	if score > 100 {
		score = 100
	}
	return score
}

func scoreSpecificity(ch domain.Challenge) float64 {
	score := 0.0
	if len(ch.ScaleNumbers) > 0 {
		score += 30
	}
	if ch.Geography != "" {
		score += 30
	}
	if len(ch.TargetGroups) > 0 {
		score += 20
	}
	if len(ch.Sectors) > 0 {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	return score
}

func scoreEvidence(ch domain.Challenge) float64 {
	score := 0.0
	if len(ch.EvidenceQuotes) > 0 {
		score += 40
	}
	if len(ch.RootCauses) > 0 {
		score += 30
	}
	if len(ch.Constraints) > 0 {
		score += 30
	}
	if score > 100 {
		score = 100
	}
	return score
}
