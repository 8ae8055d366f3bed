package domain

// ChallengeScore holds the five sub-scores and the combined quality score
// for one challenge. All values are integers in [0, 100]. Recomputation
// overwrites the prior score for the same challenge.
type ChallengeScore struct {
	ChallengeID      int64
	ChallengeDensity int
	SolutionLeakage  int
	Specificity      int
	EvidenceStrength int
	RecencyScore     int
	OverallScore     int
	Notes            string
}
