package usecase

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"ragstore/internal/adapter/compress"
	"ragstore/internal/adapter/persist"
	"ragstore/internal/domain"
	"ragstore/internal/port"
)

// RAGStore ties one DatasetStore and one TestcaseStore under a single lock.
// Construction is cheap: when both store files already exist their loads run
// on background goroutines, and the first operation blocks until they land.
type RAGStore struct {
	mu sync.Mutex

	name      string
	cacheDir  string
	persister port.Persister
	comp      port.Compressor

	datasetPath  string
	testcasePath string

	dataset   *DatasetStore
	testcases *TestcaseStore

	pendingDataset  chan datasetLoad
	pendingTestcase chan testcaseLoad
}

type datasetLoad struct {
	store *DatasetStore
	err   error
}

type testcaseLoad struct {
	store *TestcaseStore
	err   error
}

// Option adjusts a RAGStore at construction.
type Option func(*RAGStore)

// WithPersister selects the persistence backend (default: atomic JSON files).
func WithPersister(p port.Persister) Option {
	return func(s *RAGStore) { s.persister = p }
}

// WithCompressor selects the compression strategy for new datasets
// (default: positional references).
func WithCompressor(c port.Compressor) Option {
	return func(s *RAGStore) { s.comp = c }
}

// New creates a store named name in cacheDir. It never blocks on I/O.
func New(name, cacheDir string, opts ...Option) *RAGStore {
	s := &RAGStore{}
	s.init(name, cacheDir, opts...)
	return s
}

func (s *RAGStore) init(name, cacheDir string, opts ...Option) {
	s.name = name
	s.cacheDir = cacheDir
	s.persister = persist.NewFileStore()
	s.comp = compress.NewByIndex()
	for _, opt := range opts {
		opt(s)
	}
	s.datasetPath = filepath.Join(cacheDir, name+"_dataset"+s.persister.Ext())
	s.testcasePath = filepath.Join(cacheDir, name+"_testcase"+s.persister.Ext())

	if fileExists(s.datasetPath) && fileExists(s.testcasePath) {
		s.pendingDataset = make(chan datasetLoad, 1)
		s.pendingTestcase = make(chan testcaseLoad, 1)
		go func(path string, comp port.Compressor, p port.Persister, ch chan datasetLoad) {
			st, err := LoadDatasetStore(path, comp, p)
			ch <- datasetLoad{store: st, err: err}
		}(s.datasetPath, s.comp, s.persister, s.pendingDataset)
		go func(path string, p port.Persister, ch chan testcaseLoad) {
			st, err := LoadTestcaseStore(path, p)
			ch <- testcaseLoad{store: st, err: err}
		}(s.testcasePath, s.persister, s.pendingTestcase)
	} else {
		s.dataset = NewDatasetStore(s.datasetPath, s.comp, s.persister)
		s.testcases = NewTestcaseStore(s.testcasePath, s.persister)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ensureLoadedLocked consumes the background load handles exactly once and
// installs the results. A failed load surfaces here, at the first operation
// after construction. Callers hold s.mu.
func (s *RAGStore) ensureLoadedLocked() error {
	if s.pendingDataset != nil {
		res := <-s.pendingDataset
		s.pendingDataset = nil
		if res.err != nil {
			return fmt.Errorf("background dataset load failed: %w", res.err)
		}
		s.dataset = res.store
	}
	if s.pendingTestcase != nil {
		res := <-s.pendingTestcase
		s.pendingTestcase = nil
		if res.err != nil {
			return fmt.Errorf("background testcase load failed: %w", res.err)
		}
		s.testcases = res.store
	}
	return nil
}

// Append stores seq under its fingerprint and records tc against it. A
// missing timestamp and id are injected. When an existing case under the
// same fingerprint already carries an equal question, the case append is
// skipped and only the fingerprint is returned.
func (s *RAGStore) Append(seq domain.Sequence, tc domain.TestCase) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return "", err
	}

	fp, err := s.dataset.Append(seq)
	if err != nil {
		return "", err
	}

	if tc.Timestamp.IsZero() {
		tc.Timestamp = time.Now()
	}
	if tc.ID == "" {
		tc.ID = uuid.NewString()
	}

	for _, existing := range s.testcases.Get(fp) {
		if existing.Question == tc.Question {
			log.Info().
				Str("index", fp).
				Str("question", tc.Question).
				Msg("question already recorded, skipping")
			return fp, nil
		}
	}

	if err := s.testcases.Append(fp, tc); err != nil {
		return fp, err
	}
	return fp, nil
}

// GetIndex returns the fully resolved sequence stored under id.
func (s *RAGStore) GetIndex(id string) (domain.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	return s.dataset.Get(id)
}

// GetQuestions returns the cases recorded against id, oldest first. Missing
// ids yield an empty list.
func (s *RAGStore) GetQuestions(id string) ([]domain.TestCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	return s.testcases.Get(id), nil
}

// AllQuestions returns a copy of the full fingerprint-to-cases mapping.
func (s *RAGStore) AllQuestions() (map[string][]domain.TestCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	all := s.testcases.All()
	out := make(map[string][]domain.TestCase, len(all))
	for id, cases := range all {
		out[id] = append([]domain.TestCase(nil), cases...)
	}
	return out, nil
}

// RecordAnswer sets the returned answer on the most recent case under id.
// It is a no-op when no case has been recorded yet.
func (s *RAGStore) RecordAnswer(id, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}
	cases := s.testcases.Get(id)
	if len(cases) == 0 {
		return nil
	}
	last := cases[len(cases)-1]
	last.ReturnedAnswer = answer
	return s.testcases.UpdateLast(id, last)
}

// Size reports the number of stored indices.
func (s *RAGStore) Size() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return 0, err
	}
	return s.dataset.Len(), nil
}

// EnsureSaved blocks until any in-flight load and write have completed.
// Saves happen synchronously inside the critical section, so taking and
// releasing the lock is sufficient.
func (s *RAGStore) EnsureSaved() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoadedLocked()
}

// Name returns the store's base name.
func (s *RAGStore) Name() string { return s.name }

// CacheDir returns the store's cache directory.
func (s *RAGStore) CacheDir() string { return s.cacheDir }

type storeRef struct {
	Name     string `json:"name"`
	CacheDir string `json:"cache_dir"`
}

// MarshalJSON writes only the store's coordinates. The sub-stores own their
// files and are never re-serialised through the handle.
func (s *RAGStore) MarshalJSON() ([]byte, error) {
	return json.Marshal(storeRef{Name: s.name, CacheDir: s.cacheDir})
}

// UnmarshalJSON reconstructs a store from its coordinates with default
// backend and compression.
func (s *RAGStore) UnmarshalJSON(data []byte) error {
	var ref storeRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return err
	}
	s.init(ref.Name, ref.CacheDir)
	return nil
}
