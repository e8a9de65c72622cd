package compress

import (
	"sort"

	"ragstore/internal/domain"
	"ragstore/internal/port"
)

// BySource replaces repeated raw chunks with named references, for keyed
// sequences where chunks carry their own source keys. Kept alongside ByIndex
// because archival files written under this strategy still occur.
type BySource struct{}

func NewBySource() *BySource { return &BySource{} }

func (*BySource) Tag() string { return TagBySource }

// Compress rewrites seq against the pool, short-circuiting on a fingerprint
// hit. Each raw chunk is matched against stored raw chunks that carry a
// source key; the first equal chunk wins and a named reference to it is
// emitted in place of the original.
func (*BySource) Compress(pool port.Pool, seq domain.Sequence) domain.Sequence {
	if stored, ok := pool[domain.Fingerprint(seq)]; ok {
		return stored
	}

	keys := make([]string, 0, len(pool))
	for k := range pool {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(domain.Sequence, 0, len(seq))
	for _, ch := range seq {
		if ch.Kind == domain.KindRaw {
			if ref, ok := findNamedMatch(pool, keys, ch); ok {
				out = append(out, ref)
				continue
			}
		}
		out = append(out, ch)
	}
	return out
}

func (*BySource) Decompress(pool port.Pool, seq domain.Sequence) (domain.Sequence, error) {
	return resolve(pool, seq)
}

func findNamedMatch(pool port.Pool, keys []string, ch domain.Chunk) (domain.Chunk, bool) {
	for _, k := range keys {
		for _, stored := range pool[k] {
			if stored.Kind != domain.KindRaw || stored.Source == "" {
				continue
			}
			if stored.Equal(ch) {
				ref := domain.RefBySource(k, stored.Source)
				ref.Source = ch.Source
				return ref, true
			}
		}
	}
	return domain.Chunk{}, false
}
