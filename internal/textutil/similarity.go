package textutil

import (
	"math"
	"strings"
)

// CosineSimilarity computes the cosine similarity between two fingerprints.
// Returns 0 if either fingerprint is nil or has zero norm.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// Similarity scores two strings on a 0-100 scale. Identical non-empty strings
// score 100, an empty string scores 0 against anything, and the function is
// symmetric. Used by the library index for duplicate-title detection.
func Similarity(a, b string) int {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0
	}
	// Equality must hold even for strings that tokenize to nothing, like
	// punctuation-only titles.
	if a == b {
		return 100
	}
	normA := normalizeForComparison(a)
	normB := normalizeForComparison(b)
	if normA == "" || normB == "" {
		return 0
	}
	if normA == normB {
		return 100
	}
	cosine := CosineSimilarity(NewFingerprint(a), NewFingerprint(b))
	return int(math.Round(cosine * 100))
}

func normalizeForComparison(text string) string {
	return strings.Join(Tokenize(text), " ")
}
