package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	nonWordExpr = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	digitExpr   = regexp.MustCompile(`\d+`)
)

// Fingerprinter normalizes a challenge statement into a canonical form and
// hashes it to a duplicate-detection key. Pure and deterministic.
type Fingerprinter struct {
	stopwords map[string]struct{}
}

// NewFingerprinter builds a fingerprinter over the EN+NL stopword union.
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{stopwords: stopwordUnion()}
}

// Fingerprint returns the SHA-256 hex digest of the normalized statement.
// Normalization: lowercase, strip punctuation, collapse whitespace, drop
// stopwords, then collapse digit runs so "500 million" and "650 million"
// fingerprint identically.
func (f *Fingerprinter) Fingerprint(statement string) string {
	text := strings.ToLower(statement)
	text = nonWordExpr.ReplaceAllString(text, " ")

	var kept []string
	for _, word := range strings.Fields(text) {
		if _, ok := f.stopwords[word]; !ok {
			kept = append(kept, word)
		}
	}

	text = strings.Join(kept, " ")
	text = digitExpr.ReplaceAllString(text, "<num>")

	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
