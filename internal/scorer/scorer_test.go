package scorer

import (
	"testing"

	"ChallengeScanner/internal/config"
	"ChallengeScanner/internal/domain"
)

func testScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
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
	}
}

func TestScoreBounds(t *testing.T) {
	t.Parallel()

	s := New(testScoringConfig())
	challenges := []domain.Challenge{
		{},
		{Statement: "barriers and constraints create a gap"},
		{
			Statement:      "we will implement and develop a solution technology platform tool",
			Geography:      "Netherlands",
			TargetGroups:   []string{"farmers"},
			Sectors:        []string{"agriculture"},
			ScaleNumbers:   map[string]float64{"people_affected": 1000},
			EvidenceQuotes: []string{"q"},
			RootCauses:     []string{"c"},
			Constraints:    []string{"b"},
		},
	}

	for i, ch := range challenges {
		score := s.Score(ch)
		for name, v := range map[string]int{
			"density":     score.ChallengeDensity,
			"leakage":     score.SolutionLeakage,
			"specificity": score.Specificity,
			"evidence":    score.EvidenceStrength,
			"recency":     score.RecencyScore,
			"overall":     score.OverallScore,
		} {
			if v < 0 || v > 100 {
				t.Fatalf("challenge %d: %s score %d out of [0,100]", i, name, v)
			}
		}
	}
}

func TestScoreEmptyStatement(t *testing.T) {
	t.Parallel()

	s := New(testScoringConfig())
	score := s.Score(domain.Challenge{})

	if score.ChallengeDensity != 0 || score.SolutionLeakage != 0 {
		t.Fatalf("empty statement should score zero density and leakage, got %d and %d",
			score.ChallengeDensity, score.SolutionLeakage)
	}
}

func TestScoreDensitySaturation(t *testing.T) {
	t.Parallel()

	s := New(testScoringConfig())
	// Five distinct keywords over six words is well past the 10% density
	// that saturates the sub-score.
	score := s.Score(domain.Challenge{Statement: "barriers and constraints create a gap"})

	if score.ChallengeDensity != 100 {
		t.Fatalf("expected saturated density 100, got %d", score.ChallengeDensity)
	}
}

func TestScoreCompositeScenario(t *testing.T) {
	t.Parallel()

	s := New(testScoringConfig())
	ch := domain.Challenge{
		Statement:      "Over 500 million people lack access to clean water due to inadequate infrastructure",
		Geography:      "Sub-Saharan Africa",
		TargetGroups:   []string{"rural communities"},
		Sectors:        []string{"water"},
		EvidenceQuotes: []string{"500 million people lack access"},
		RootCauses:     []string{"underinvestment in rural networks"},
		Constraints:    []string{"no maintenance budget"},
		Confidence:     0.85,
	}

	score := s.Score(ch)
	if score.Specificity != 70 {
		t.Fatalf("expected specificity 70 (geography, target groups, sectors), got %d", score.Specificity)
	}
	if score.EvidenceStrength != 100 {
		t.Fatalf("expected evidence 100, got %d", score.EvidenceStrength)
	}
	if score.OverallScore != 44 {
		t.Fatalf("expected overall 44, got %d", score.OverallScore)
	}
	if score.Notes == "" {
		t.Fatalf("expected notes to be populated")
	}
}

func TestFilterThresholds(t *testing.T) {
	t.Parallel()

	s := New(testScoringConfig())
	scored := []ScoredChallenge{
		{Challenge: domain.Challenge{ID: 1, Confidence: 0.80}, Score: domain.ChallengeScore{OverallScore: 39}},
		{Challenge: domain.Challenge{ID: 2, Confidence: 0.80}, Score: domain.ChallengeScore{OverallScore: 40}},
		{Challenge: domain.Challenge{ID: 3, Confidence: 0.49}, Score: domain.ChallengeScore{OverallScore: 90}},
		{Challenge: domain.Challenge{ID: 4, Confidence: 0.80}, Score: domain.ChallengeScore{OverallScore: 90, SolutionLeakage: 71}},
		{Challenge: domain.Challenge{ID: 5, Confidence: 0.50}, Score: domain.ChallengeScore{OverallScore: 90, SolutionLeakage: 70}},
	}

	kept := s.Filter(scored)
	if len(kept) != 2 {
		t.Fatalf("expected 2 kept, got %d", len(kept))
	}
	if kept[0].Challenge.ID != 2 || kept[1].Challenge.ID != 5 {
		t.Fatalf("unexpected survivors: %d and %d", kept[0].Challenge.ID, kept[1].Challenge.ID)
	}
}

func TestScoreBatchPreservesOrder(t *testing.T) {
	t.Parallel()

	s := New(testScoringConfig())
	challenges := []domain.Challenge{{ID: 5}, {ID: 6}, {ID: 7}}

	scored := s.ScoreBatch(challenges)
	if len(scored) != 3 {
		t.Fatalf("expected 3 scored challenges, got %d", len(scored))
	}
	for i, sc := range scored {
		if sc.Challenge.ID != challenges[i].ID {
			t.Fatalf("order changed at %d: got id %d", i, sc.Challenge.ID)
		}
		if sc.Score.ChallengeID != challenges[i].ID {
			t.Fatalf("score not linked to challenge %d", challenges[i].ID)
		}
	}
}
