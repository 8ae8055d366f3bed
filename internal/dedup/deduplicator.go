package dedup

import (
	"sort"

	"ChallengeScanner/internal/domain"
)

const maxEvidenceQuotes = 2

// Deduplicator groups challenges sharing a statement fingerprint and
// merges each group into its highest-confidence member.
type Deduplicator struct {
	fp *Fingerprinter
}

// New builds a deduplicator with its own fingerprinter.
func New() *Deduplicator {
	return &Deduplicator{fp: NewFingerprinter()}
}

// Fingerprinter exposes the underlying fingerprinter.
func (d *Deduplicator) Fingerprinter() *Fingerprinter {
	return d.fp
}

// AddFingerprints stamps the statement fingerprint onto every challenge
// with a non-empty statement and returns the same slice.
func (d *Deduplicator) AddFingerprints(challenges []domain.Challenge) []domain.Challenge {
	for i := range challenges {
		if challenges[i].Statement != "" {
			challenges[i].Fingerprint = d.fp.Fingerprint(challenges[i].Statement)
		}
	}
	return challenges
}

// FindDuplicateGroups buckets challenges by fingerprint and returns the
// index groups of size >= 2, in first-seen order. Challenges with an empty
// statement are never flagged as duplicates.
func (d *Deduplicator) FindDuplicateGroups(challenges []domain.Challenge) [][]int {
	buckets := map[string][]int{}
	var order []string

	for i, ch := range challenges {
		if ch.Statement == "" {
			continue
		}

		fp := d.fp.Fingerprint(ch.Statement)
		if _, seen := buckets[fp]; !seen {
			order = append(order, fp)
		}
		buckets[fp] = append(buckets[fp], i)
	}

	var groups [][]int
	for _, fp := range order {
		if indices := buckets[fp]; len(indices) > 1 {
			groups = append(groups, indices)
		}
	}
	return groups
}

// Merge collapses each duplicate group into its highest-confidence member
// (stable by original order on ties). The primary keeps the first-seen
// union of evidence quotes (truncated to two), root causes, and
// constraints across the group, and records the group size in MergedFrom.
// It returns the reduced list and the indices removed from the input,
// ascending; the persistence layer must delete exactly those records.
func (d *Deduplicator) Merge(challenges []domain.Challenge, groups [][]int) ([]domain.Challenge, []int) {
	merged := make([]domain.Challenge, len(challenges))
	copy(merged, challenges)

	removedSet := map[int]struct{}{}

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}

		byConfidence := make([]int, len(group))
		copy(byConfidence, group)
		sort.SliceStable(byConfidence, func(a, b int) bool {
			return challenges[byConfidence[a]].Confidence > challenges[byConfidence[b]].Confidence
		})

		primaryIdx := byConfidence[0]
		primary := merged[primaryIdx]

		quoteLists := [][]string{primary.EvidenceQuotes}
		causeLists := [][]string{primary.RootCauses}
		constraintLists := [][]string{primary.Constraints}

		for _, idx := range byConfidence[1:] {
			other := challenges[idx]
			quoteLists = append(quoteLists, other.EvidenceQuotes)
			causeLists = append(causeLists, other.RootCauses)
			constraintLists = append(constraintLists, other.Constraints)
			removedSet[idx] = struct{}{}
		}

		quotes := union(quoteLists...)
		causes := union(causeLists...)
		constraints := union(constraintLists...)

		if len(quotes) > maxEvidenceQuotes {
			quotes = quotes[:maxEvidenceQuotes]
		}

		primary.EvidenceQuotes = quotes
		primary.RootCauses = causes
		primary.Constraints = constraints
		primary.MergedFrom = len(group)
		merged[primaryIdx] = primary
	}

	var result []domain.Challenge
	var removed []int
	for i, ch := range merged {
		if _, gone := removedSet[i]; gone {
			removed = append(removed, i)
			continue
		}
		result = append(result, ch)
	}

	return result, removed
}

// union deduplicates across the given lists, preserving first-seen order.
func union(lists ...[]string) []string {
	seen := map[string]struct{}{}
	var result []string
	for _, list := range lists {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}
	return result
}
