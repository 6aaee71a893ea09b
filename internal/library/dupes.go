package library

import (
	"sort"

	"mixdown/internal/textutil"
)

// DefaultSimilarityThreshold is the title similarity (0-100) above which two
// differently-sized files are still flagged as likely duplicates.
const DefaultSimilarityThreshold = 85

// DuplicatePair flags two files that look like the same recording.
type DuplicatePair struct {
	A          Entry
	B          Entry
	SameSize   bool
	Similarity int
}

// FindDuplicates compares every indexed pair and reports the ones that share
// an exact byte size or whose titles score at or above threshold. Pairs are
// ordered by descending similarity.
func (idx *Index) FindDuplicates(threshold int) []DuplicatePair {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	entries := idx.Entries()

	var pairs []DuplicatePair
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			sameSize := entries[i].Size > 0 && entries[i].Size == entries[j].Size
			similarity := textutil.Similarity(entries[i].Title, entries[j].Title)
			if !sameSize && similarity < threshold {
				continue
			}
			pairs = append(pairs, DuplicatePair{
				A:          entries[i],
				B:          entries[j],
				SameSize:   sameSize,
				Similarity: similarity,
			})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Similarity > pairs[j].Similarity })
	return pairs
}
