// Package textutil provides text processing utilities for filename
// sanitization and tag-value comparison.
//
// The primary use cases are:
//   - Sanitizing artist and album names for safe use as path segments
//   - Creating token-based fingerprints from tag values for comparison
//   - Grouping near-duplicate artist spellings via cosine similarity
//
// Fingerprints use term frequency vectors normalized for efficient comparison.
// The tokenization process lowercases text, splits on non-alphanumeric
// characters, and filters single-character tokens.
package textutil
