package compress

import (
	"fmt"

	"ragstore/internal/domain"
	"ragstore/internal/port"
)

// resolve substitutes every reference chunk in seq for the chunk it points
// to. Positional references resolve in one hop: stored data never chains
// them, so whatever sits at the target position is returned as-is. Named
// references recurse, to stay usable when collections are imported across
// stores, with a visited set guarding against corrupted cycles.
func resolve(pool port.Pool, seq domain.Sequence) (domain.Sequence, error) {
	out := make(domain.Sequence, 0, len(seq))
	for i, ch := range seq {
		switch ch.Kind {
		case domain.KindRefIndex:
			target, err := lookupByIndex(pool, ch.RefCollection, ch.RefPosition)
			if err != nil {
				return nil, fmt.Errorf("chunk %d: %w", i, err)
			}
			out = append(out, withSource(target, ch.Source))
		case domain.KindRefSource:
			target, err := chaseBySource(pool, ch)
			if err != nil {
				return nil, fmt.Errorf("chunk %d: %w", i, err)
			}
			out = append(out, withSource(target, ch.Source))
		default:
			out = append(out, ch)
		}
	}
	return out, nil
}

// chaseBySource follows a named reference through any chain of further named
// references. A revisited (collection, source) pair means the stored data is
// corrupt; the visited set bounds traversal by the pool size.
func chaseBySource(pool port.Pool, ref domain.Chunk) (domain.Chunk, error) {
	visited := make(map[string]bool)
	cur := ref
	for {
		key := cur.RefCollection + "\x00" + cur.RefSource
		if visited[key] {
			return domain.Chunk{}, fmt.Errorf("reference %s/%s: %w",
				cur.RefCollection, cur.RefSource, domain.ErrCorruptReference)
		}
		visited[key] = true

		target, err := lookupBySource(pool, cur.RefCollection, cur.RefSource)
		if err != nil {
			return domain.Chunk{}, err
		}
		switch target.Kind {
		case domain.KindRefSource:
			cur = target
		case domain.KindRefIndex:
			return lookupByIndex(pool, target.RefCollection, target.RefPosition)
		default:
			return target, nil
		}
	}
}

func lookupByIndex(pool port.Pool, collection string, position int) (domain.Chunk, error) {
	seq, ok := pool[collection]
	if !ok {
		return domain.Chunk{}, fmt.Errorf("collection %q: %w", collection, domain.ErrUnknownCollection)
	}
	if position < 0 || position >= len(seq) {
		return domain.Chunk{}, fmt.Errorf("collection %q position %d of %d: %w",
			collection, position, len(seq), domain.ErrIndexOutOfRange)
	}
	return seq[position], nil
}

func lookupBySource(pool port.Pool, collection, source string) (domain.Chunk, error) {
	seq, ok := pool[collection]
	if !ok {
		return domain.Chunk{}, fmt.Errorf("collection %q: %w", collection, domain.ErrUnknownCollection)
	}
	for _, ch := range seq {
		if ch.Source == source {
			return ch, nil
		}
	}
	return domain.Chunk{}, fmt.Errorf("collection %q source %q: %w", collection, source, domain.ErrUnknownSource)
}

// withSource keeps the referencing chunk's own name on the resolved value so
// keyed sequences round-trip with their keys intact.
func withSource(ch domain.Chunk, source string) domain.Chunk {
	if source != "" {
		ch.Source = source
	}
	return ch
}
