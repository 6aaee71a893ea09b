// Package textutil provides text processing utilities for fingerprinting,
// similarity scoring, and filename sanitization.
//
// The primary use cases are:
//   - Creating token-based fingerprints from track titles for comparison
//   - Scoring title similarity on a 0-100 scale for duplicate detection
//   - Sanitizing filenames for safe filesystem use
//
// Fingerprints use term frequency vectors normalized for efficient comparison.
// Tokenization lowercases text and splits on non-alphanumeric characters,
// keeping single-character tokens so short titles still compare.
package textutil
