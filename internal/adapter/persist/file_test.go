package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ragstore/internal/domain"
	"ragstore/internal/port"
)

func TestFileStore_DatasetRoundTrip(t *testing.T) {
	fs := NewFileStore()
	path := filepath.Join(t.TempDir(), "test_dataset.json")

	snap := port.DatasetSnapshot{
		Chunks: port.Pool{
			"aaa": {domain.Raw("alpha"), domain.RefByIndex("bbb", 1)},
			"bbb": {domain.NamedRaw("k1", "beta")},
		},
		Compression: "ref_by_index",
	}
	if err := fs.SaveDataset(path, snap); err != nil {
		t.Fatal(err)
	}

	got, ok, err := fs.LoadDataset(path)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected the file to exist")
	}
	if got.Compression != "ref_by_index" {
		t.Errorf("compression tag lost: %q", got.Compression)
	}
	if len(got.Chunks) != 2 {
		t.Fatalf("expected 2 sequences, got %d", len(got.Chunks))
	}
	if got.Chunks["aaa"][1].Kind != domain.KindRefIndex || got.Chunks["aaa"][1].RefPosition != 1 {
		t.Errorf("reference chunk mangled: %+v", got.Chunks["aaa"][1])
	}
	if got.Chunks["bbb"][0].Source != "k1" {
		t.Errorf("source key lost: %+v", got.Chunks["bbb"][0])
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	fs := NewFileStore()

	_, ok, err := fs.LoadDataset(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing file is not an error: %v", err)
	}
	if ok {
		t.Error("missing file should report ok=false")
	}
}

func TestFileStore_LegacyDatasetKey(t *testing.T) {
	fs := NewFileStore()
	path := filepath.Join(t.TempDir(), "legacy_dataset.json")

	legacy := `{"indexes": {"aaa": [{"kind":"raw","text":"alpha"}]}, "compression": "none"}`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	got, ok, err := fs.LoadDataset(path)
	if err != nil || !ok {
		t.Fatalf("legacy load failed: ok=%v err=%v", ok, err)
	}
	if got.Chunks["aaa"][0].Text != "alpha" {
		t.Errorf("legacy chunks not read: %+v", got.Chunks)
	}

	// Re-saving emits the current key.
	if err := fs.SaveDataset(path, got); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["chunks"]; !ok {
		t.Error("re-save must use the current key")
	}
	if _, ok := m["indexes"]; ok {
		t.Error("re-save must not emit the legacy key")
	}
}

func TestFileStore_LegacyTestcaseKey(t *testing.T) {
	fs := NewFileStore()
	path := filepath.Join(t.TempDir(), "legacy_testcase.json")

	legacy := `{"questions": {"aaa": [{"question":"q1","timestamp":1700000000}]}}`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	got, ok, err := fs.LoadTestcases(path)
	if err != nil || !ok {
		t.Fatalf("legacy load failed: ok=%v err=%v", ok, err)
	}
	if len(got.Cases["aaa"]) != 1 || got.Cases["aaa"][0].Question != "q1" {
		t.Errorf("legacy cases not read: %+v", got.Cases)
	}

	if err := fs.SaveTestcases(path, got); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["index_to_cases"]; !ok {
		t.Error("re-save must use the current key")
	}
}

type brokenExternal struct{}

func (brokenExternal) Key() string     { return "broken" }
func (brokenExternal) TypeTag() string { return "broken" }
func (brokenExternal) Payload() (json.RawMessage, error) {
	return nil, errors.New("injected serialisation failure")
}

func TestFileStore_FailedSaveLeavesPriorFileIntact(t *testing.T) {
	fs := NewFileStore()
	dir := t.TempDir()
	path := filepath.Join(dir, "test_dataset.json")

	good := port.DatasetSnapshot{
		Chunks:      port.Pool{"aaa": {domain.Raw("alpha")}},
		Compression: "none",
	}
	if err := fs.SaveDataset(path, good); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	bad := port.DatasetSnapshot{
		Chunks:      port.Pool{"bbb": {domain.NewExternal(brokenExternal{})}},
		Compression: "none",
	}
	if err := fs.SaveDataset(path, bad); err == nil {
		t.Fatal("expected the injected failure to surface")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("failed save must leave the committed file untouched")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("failed save must not leave a temp file behind")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the committed file in the directory, found %d entries", len(entries))
	}
}
