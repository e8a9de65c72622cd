package usecase

import (
	"fmt"
	"time"

	"ragstore/internal/adapter/cache"
	"ragstore/internal/adapter/compress"
	"ragstore/internal/domain"
	"ragstore/internal/port"
)

// DatasetStore maps content fingerprints to compressed chunk sequences and
// owns the dataset file. It is not safe for concurrent use on its own; the
// RAGStore façade serialises access.
type DatasetStore struct {
	chunks    port.Pool
	comp      port.Compressor
	persister port.Persister
	path      string
	cache     *cache.SequenceCache
}

// NewDatasetStore creates an empty store writing to path.
func NewDatasetStore(path string, comp port.Compressor, persister port.Persister) *DatasetStore {
	return &DatasetStore{
		chunks:    port.Pool{},
		comp:      comp,
		persister: persister,
		path:      path,
		cache:     cache.NewSequenceCache(128, 10*time.Minute),
	}
}

// LoadDatasetStore reads the store persisted at path. When nothing is
// persisted yet an empty store using fallback compression is returned. A
// compression tag found in the file wins over the fallback, so archival
// files written under another strategy keep decompressing correctly.
func LoadDatasetStore(path string, fallback port.Compressor, persister port.Persister) (*DatasetStore, error) {
	snap, ok, err := persister.LoadDataset(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset store: %w", err)
	}
	s := NewDatasetStore(path, fallback, persister)
	if !ok {
		return s, nil
	}
	s.chunks = snap.Chunks
	if snap.Compression != "" {
		s.comp = compress.ForTag(snap.Compression)
	}
	return s, nil
}

// Append installs seq under its fingerprint, compressed against everything
// already stored, and commits the dataset file. Appending an equivalent
// sequence twice leaves a single entry.
func (s *DatasetStore) Append(seq domain.Sequence) (string, error) {
	fp := domain.Fingerprint(seq)
	s.chunks[fp] = s.comp.Compress(s.chunks, seq)
	s.cache.Invalidate()
	if err := s.save(); err != nil {
		return "", err
	}
	return fp, nil
}

// Get returns the fully resolved sequence stored under id.
func (s *DatasetStore) Get(id string) (domain.Sequence, error) {
	if seq, ok := s.cache.Get(id); ok {
		return seq, nil
	}
	stored, ok := s.chunks[id]
	if !ok {
		return nil, fmt.Errorf("index %s: %w", id, domain.ErrKeyNotFound)
	}
	seq, err := s.comp.Decompress(s.chunks, stored)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress index %s: %w", id, err)
	}
	s.cache.Put(id, seq)
	return seq, nil
}

// Has reports whether id is stored.
func (s *DatasetStore) Has(id string) bool {
	_, ok := s.chunks[id]
	return ok
}

// Len returns the number of stored sequences.
func (s *DatasetStore) Len() int { return len(s.chunks) }

// Fingerprints lists the stored keys in unspecified order.
func (s *DatasetStore) Fingerprints() []string {
	out := make([]string, 0, len(s.chunks))
	for fp := range s.chunks {
		out = append(out, fp)
	}
	return out
}

func (s *DatasetStore) save() error {
	return s.persister.SaveDataset(s.path, port.DatasetSnapshot{
		Chunks:      s.chunks,
		Compression: s.comp.Tag(),
	})
}
