package usecase

import (
	"fmt"

	"ragstore/internal/domain"
	"ragstore/internal/port"
)

// TestcaseStore maps fingerprints to the ordered list of cases recorded
// against each index and owns the testcase file. Like DatasetStore it relies
// on the façade for serialisation.
type TestcaseStore struct {
	cases     map[string][]domain.TestCase
	persister port.Persister
	path      string
}

// NewTestcaseStore creates an empty store writing to path.
func NewTestcaseStore(path string, persister port.Persister) *TestcaseStore {
	return &TestcaseStore{
		cases:     map[string][]domain.TestCase{},
		persister: persister,
		path:      path,
	}
}

// LoadTestcaseStore reads the store persisted at path, or returns an empty
// one when nothing is persisted yet.
func LoadTestcaseStore(path string, persister port.Persister) (*TestcaseStore, error) {
	snap, ok, err := persister.LoadTestcases(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load testcase store: %w", err)
	}
	s := NewTestcaseStore(path, persister)
	if ok {
		s.cases = snap.Cases
	}
	return s, nil
}

// Append adds tc to the list under id and commits the testcase file. No
// deduplication happens here; the façade decides what gets appended.
func (s *TestcaseStore) Append(id string, tc domain.TestCase) error {
	s.cases[id] = append(s.cases[id], tc)
	return s.save()
}

// Get returns the case list under id. Missing ids yield an empty list.
func (s *TestcaseStore) Get(id string) []domain.TestCase {
	return s.cases[id]
}

// UpdateLast replaces the newest case under id and commits. It is a no-op
// when the list is empty or the id is absent.
func (s *TestcaseStore) UpdateLast(id string, tc domain.TestCase) error {
	list := s.cases[id]
	if len(list) == 0 {
		return nil
	}
	list[len(list)-1] = tc
	return s.save()
}

// All exposes the full mapping for flattening into log entries. Callers must
// not mutate it.
func (s *TestcaseStore) All() map[string][]domain.TestCase {
	return s.cases
}

func (s *TestcaseStore) save() error {
	return s.persister.SaveTestcases(s.path, port.TestcaseSnapshot{Cases: s.cases})
}
