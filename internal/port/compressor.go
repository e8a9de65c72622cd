package port

import "ragstore/internal/domain"

// Pool is the set of stored compressed sequences visible to compression and
// decompression, keyed by fingerprint.
type Pool map[string]domain.Sequence

// Compressor rewrites an incoming sequence against the pool, replacing
// chunks already stored elsewhere with reference chunks, and resolves those
// references back on the way out.
type Compressor interface {
	// Tag identifies the strategy in persisted dataset files.
	Tag() string

	// Compress returns the stored form of seq. Implementations short-circuit
	// when the pool already holds the sequence's fingerprint.
	Compress(pool Pool, seq domain.Sequence) domain.Sequence

	// Decompress substitutes every reference chunk for its target.
	Decompress(pool Pool, seq domain.Sequence) (domain.Sequence, error)
}
