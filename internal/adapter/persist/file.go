package persist

import (
	"encoding/json"
	"fmt"
	"os"

	"ragstore/internal/domain"
	"ragstore/internal/port"
)

// FileStore persists each store snapshot as a single JSON file using a
// write-temp-then-rename protocol: readers always observe either the prior
// committed file or the newly committed one.
type FileStore struct{}

func NewFileStore() *FileStore { return &FileStore{} }

func (*FileStore) Ext() string { return ".json" }

type datasetFileOut struct {
	Chunks      port.Pool `json:"chunks"`
	Compression string    `json:"compression"`
}

// datasetFileIn also accepts the legacy "indexes" key for the chunk mapping.
type datasetFileIn struct {
	Chunks      port.Pool `json:"chunks"`
	Indexes     port.Pool `json:"indexes"`
	Compression string    `json:"compression"`
}

type testcaseFileOut struct {
	IndexToCases map[string][]domain.TestCase `json:"index_to_cases"`
}

// testcaseFileIn also accepts the legacy "questions" key for the case mapping.
type testcaseFileIn struct {
	IndexToCases map[string][]domain.TestCase `json:"index_to_cases"`
	Questions    map[string][]domain.TestCase `json:"questions"`
}

func (*FileStore) SaveDataset(path string, snap port.DatasetSnapshot) error {
	out := datasetFileOut{Chunks: snap.Chunks, Compression: snap.Compression}
	if out.Chunks == nil {
		out.Chunks = port.Pool{}
	}
	return writeAtomic(path, out)
}

func (*FileStore) LoadDataset(path string) (port.DatasetSnapshot, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return port.DatasetSnapshot{}, false, nil
	}
	if err != nil {
		return port.DatasetSnapshot{}, false, fmt.Errorf("failed to read dataset file: %w", err)
	}
	var in datasetFileIn
	if err := json.Unmarshal(data, &in); err != nil {
		return port.DatasetSnapshot{}, false, fmt.Errorf("failed to decode dataset file %s: %w", path, err)
	}
	chunks := in.Chunks
	if chunks == nil {
		chunks = in.Indexes
	}
	if chunks == nil {
		chunks = port.Pool{}
	}
	return port.DatasetSnapshot{Chunks: chunks, Compression: in.Compression}, true, nil
}

func (*FileStore) SaveTestcases(path string, snap port.TestcaseSnapshot) error {
	out := testcaseFileOut{IndexToCases: snap.Cases}
	if out.IndexToCases == nil {
		out.IndexToCases = map[string][]domain.TestCase{}
	}
	return writeAtomic(path, out)
}

func (*FileStore) LoadTestcases(path string) (port.TestcaseSnapshot, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return port.TestcaseSnapshot{}, false, nil
	}
	if err != nil {
		return port.TestcaseSnapshot{}, false, fmt.Errorf("failed to read testcase file: %w", err)
	}
	var in testcaseFileIn
	if err := json.Unmarshal(data, &in); err != nil {
		return port.TestcaseSnapshot{}, false, fmt.Errorf("failed to decode testcase file %s: %w", path, err)
	}
	cases := in.IndexToCases
	if cases == nil {
		cases = in.Questions
	}
	if cases == nil {
		cases = map[string][]domain.TestCase{}
	}
	return port.TestcaseSnapshot{Cases: cases}, true, nil
}

// writeAtomic serialises v to path+".tmp" and renames it over path. The temp
// file is removed on any failure before the rename.
func writeAtomic(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialise %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit %s: %w", path, err)
	}
	return nil
}
