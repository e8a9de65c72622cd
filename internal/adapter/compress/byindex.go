package compress

import (
	"sort"

	"ragstore/internal/domain"
	"ragstore/internal/port"
)

// ByIndex replaces repeated raw chunks with positional references into
// earlier-stored collections. This is the default strategy.
type ByIndex struct{}

func NewByIndex() *ByIndex { return &ByIndex{} }

func (*ByIndex) Tag() string { return TagByIndex }

// Compress rewrites seq against the pool. When the pool already holds the
// incoming fingerprint the stored sequence is returned unchanged. Otherwise
// every raw chunk whose projection already occurs in a stored collection is
// replaced by a reference to its first occurrence; externals and references
// pass through untouched.
func (*ByIndex) Compress(pool port.Pool, seq domain.Sequence) domain.Sequence {
	if stored, ok := pool[domain.Fingerprint(seq)]; ok {
		return stored
	}

	lookup := buildPositionLookup(pool)
	out := make(domain.Sequence, 0, len(seq))
	for _, ch := range seq {
		if ch.Kind == domain.KindRaw {
			if at, ok := lookup[ch.Projection()]; ok {
				ref := domain.RefByIndex(at.collection, at.position)
				ref.Source = ch.Source
				out = append(out, ref)
				continue
			}
		}
		out = append(out, ch)
	}
	return out
}

func (*ByIndex) Decompress(pool port.Pool, seq domain.Sequence) (domain.Sequence, error) {
	return resolve(pool, seq)
}

type poolPosition struct {
	collection string
	position   int
}

// buildPositionLookup walks every stored sequence once and maps each raw
// chunk's projection to its first occurrence. Collections are visited in
// sorted key order so the mapping is deterministic; later duplicates are
// ignored, biasing references toward earlier entries. Only raw chunks are
// eligible targets, so a stored reference never points at another reference
// or at an external.
func buildPositionLookup(pool port.Pool) map[string]poolPosition {
	keys := make([]string, 0, len(pool))
	for k := range pool {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lookup := make(map[string]poolPosition)
	for _, k := range keys {
		for pos, ch := range pool[k] {
			if ch.Kind != domain.KindRaw {
				continue
			}
			proj := ch.Projection()
			if _, seen := lookup[proj]; !seen {
				lookup[proj] = poolPosition{collection: k, position: pos}
			}
		}
	}
	return lookup
}
