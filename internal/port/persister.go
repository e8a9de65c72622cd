package port

import "ragstore/internal/domain"

// DatasetSnapshot is the persisted form of a dataset store.
type DatasetSnapshot struct {
	Chunks      Pool
	Compression string
}

// TestcaseSnapshot is the persisted form of a testcase store.
type TestcaseSnapshot struct {
	Cases map[string][]domain.TestCase
}

// Persister saves and loads store snapshots. Save must be atomic: readers
// observe either the prior committed state or the new one, never a partial
// write.
type Persister interface {
	SaveDataset(path string, snap DatasetSnapshot) error

	// LoadDataset reports ok=false without error when nothing has been
	// persisted at path yet.
	LoadDataset(path string) (snap DatasetSnapshot, ok bool, err error)

	SaveTestcases(path string, snap TestcaseSnapshot) error

	LoadTestcases(path string) (snap TestcaseSnapshot, ok bool, err error)

	// Ext is the file name extension of this backend, with the dot.
	Ext() string
}
