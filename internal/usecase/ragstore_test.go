package usecase

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ragstore/internal/domain"
)

func rawSeq(texts ...string) domain.Sequence {
	seq := make(domain.Sequence, 0, len(texts))
	for _, t := range texts {
		seq = append(seq, domain.Raw(t))
	}
	return seq
}

func TestRAGStore_AppendAndGet(t *testing.T) {
	store := New("test", t.TempDir())

	id1, err := store.Append(rawSeq("A", "B"), domain.TestCase{Question: "q1"})
	if err != nil {
		t.Fatal(err)
	}

	seq, err := store.GetIndex(id1)
	if err != nil {
		t.Fatal(err)
	}
	if len(seq) != 2 || seq[0].Text != "A" || seq[1].Text != "B" {
		t.Errorf("round trip lost chunks: %+v", seq)
	}

	cases, err := store.GetQuestions(id1)
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 1 || cases[0].Question != "q1" {
		t.Fatalf("expected one recorded question, got %+v", cases)
	}
	if cases[0].Timestamp.IsZero() {
		t.Error("append must inject a timestamp")
	}
	if cases[0].ID == "" {
		t.Error("append must inject a case id")
	}

	// Same chunks with a new question: same id, second case appended.
	id2, err := store.Append(rawSeq("A", "B"), domain.TestCase{Question: "q2"})
	if err != nil {
		t.Fatal(err)
	}
	if id2 != id1 {
		t.Errorf("equal content must be idempotent: %s vs %s", id1, id2)
	}
	cases, _ = store.GetQuestions(id1)
	if len(cases) != 2 {
		t.Errorf("expected two questions, got %d", len(cases))
	}
}

func TestRAGStore_DuplicateQuestionSuppressed(t *testing.T) {
	store := New("test", t.TempDir())

	id, err := store.Append(rawSeq("A"), domain.TestCase{Question: "Q"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Append(rawSeq("A"), domain.TestCase{Question: "Q"}); err != nil {
		t.Fatal(err)
	}

	cases, _ := store.GetQuestions(id)
	if len(cases) != 1 {
		t.Errorf("duplicate question must not grow the list, got %d entries", len(cases))
	}
}

func TestRAGStore_EmptySequence(t *testing.T) {
	store := New("test", t.TempDir())

	id, err := store.Append(nil, domain.TestCase{Question: "empty"})
	if err != nil {
		t.Fatal(err)
	}
	if id != "0" {
		t.Errorf("empty sequence fingerprint must be %q, got %q", "0", id)
	}

	seq, err := store.GetIndex("0")
	if err != nil {
		t.Fatal(err)
	}
	if len(seq) != 0 {
		t.Errorf("expected empty sequence, got %+v", seq)
	}
	cases, _ := store.GetQuestions("0")
	if len(cases) != 1 {
		t.Errorf("expected the case recorded under %q, got %+v", "0", cases)
	}
}

func TestRAGStore_GetIndexMissing(t *testing.T) {
	store := New("test", t.TempDir())

	if _, err := store.GetIndex("ffffffffffffffff"); err == nil {
		t.Error("expected an error for an absent fingerprint")
	}
	cases, err := store.GetQuestions("ffffffffffffffff")
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 0 {
		t.Errorf("absent id must yield an empty list, got %+v", cases)
	}
}

func TestRAGStore_ReloadFromDisk(t *testing.T) {
	dir := t.TempDir()

	store := New("test", dir)
	id, err := store.Append(rawSeq("A", "B"), domain.TestCase{Question: "q1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Append(rawSeq("A", "B", "C"), domain.TestCase{Question: "q2"}); err != nil {
		t.Fatal(err)
	}
	if err := store.EnsureSaved(); err != nil {
		t.Fatal(err)
	}

	// A fresh handle starts its loads in the background and installs them on
	// first use.
	reopened := New("test", dir)
	seq, err := reopened.GetIndex(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(seq) != 2 || seq[0].Text != "A" {
		t.Errorf("reloaded index wrong: %+v", seq)
	}
	size, err := reopened.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size != 2 {
		t.Errorf("expected 2 indices after reload, got %d", size)
	}
	cases, err := reopened.GetQuestions(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 1 || cases[0].Question != "q1" {
		t.Errorf("reloaded questions wrong: %+v", cases)
	}
}

func TestRAGStore_CrossIndexDedupOnDisk(t *testing.T) {
	dir := t.TempDir()
	store := New("test", dir)

	if _, err := store.Append(rawSeq("alpha", "beta"), domain.TestCase{Question: "q1"}); err != nil {
		t.Fatal(err)
	}
	id2, err := store.Append(rawSeq("alpha", "beta", "gamma"), domain.TestCase{Question: "q2"})
	if err != nil {
		t.Fatal(err)
	}

	// The second stored form shares chunks with the first, so its file
	// representation holds references, yet it still resolves fully.
	seq, err := store.GetIndex(id2)
	if err != nil {
		t.Fatal(err)
	}
	if seq[0].Text != "alpha" || seq[2].Text != "gamma" {
		t.Errorf("dedup broke resolution: %+v", seq)
	}

	data, err := os.ReadFile(filepath.Join(dir, "test_dataset.json"))
	if err != nil {
		t.Fatal(err)
	}
	var file struct {
		Chunks map[string][]struct {
			Kind string `json:"kind"`
		} `json:"chunks"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatal(err)
	}
	stored := file.Chunks[id2]
	if stored[0].Kind != "ref_index" || stored[1].Kind != "ref_index" {
		t.Errorf("shared chunks should persist as references, got %+v", stored)
	}
	if stored[2].Kind != "raw" {
		t.Errorf("unique chunk should persist raw, got %+v", stored[2])
	}
}

func TestRAGStore_ConcurrentAppends(t *testing.T) {
	dir := t.TempDir()
	store := New("test", dir)

	const n = 8
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := store.Append(rawSeq(fmt.Sprintf("unique-%d", i)), domain.TestCase{Question: fmt.Sprintf("q%d", i)})
			if err != nil {
				t.Error(err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range ids {
		if id == "" {
			t.Fatal("an append failed")
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d distinct fingerprints, got %d", n, len(seen))
	}

	reopened := New("test", dir)
	size, err := reopened.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size != n {
		t.Errorf("expected %d entries after reload, got %d", n, size)
	}
}

func TestRAGStore_RecordAnswer(t *testing.T) {
	store := New("test", t.TempDir())

	// No-op on an index without cases.
	if err := store.RecordAnswer("ffffffffffffffff", "nothing"); err != nil {
		t.Fatal(err)
	}

	id, err := store.Append(rawSeq("A"), domain.TestCase{Question: "q1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.RecordAnswer(id, "the answer"); err != nil {
		t.Fatal(err)
	}

	cases, _ := store.GetQuestions(id)
	if cases[0].ReturnedAnswer != "the answer" {
		t.Errorf("answer not recorded: %+v", cases[0])
	}
}

func TestRAGStore_LegacyFilesLoad(t *testing.T) {
	dir := t.TempDir()

	dataset := `{"indexes": {"aaa": [{"kind":"raw","text":"alpha"}]}, "compression": "none"}`
	testcase := `{"questions": {"aaa": [{"question":"q1","timestamp":1700000000}]}}`
	if err := os.WriteFile(filepath.Join(dir, "test_dataset.json"), []byte(dataset), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "test_testcase.json"), []byte(testcase), 0644); err != nil {
		t.Fatal(err)
	}

	store := New("test", dir)
	seq, err := store.GetIndex("aaa")
	if err != nil {
		t.Fatal(err)
	}
	if seq[0].Text != "alpha" {
		t.Errorf("legacy dataset not loaded: %+v", seq)
	}
	cases, err := store.GetQuestions("aaa")
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 1 || cases[0].Question != "q1" {
		t.Errorf("legacy testcases not loaded: %+v", cases)
	}
}

func TestRAGStore_LoadFailureSurfaces(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "test_dataset.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "test_testcase.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	store := New("test", dir)
	if _, err := store.Append(rawSeq("A"), domain.TestCase{Question: "q"}); err == nil {
		t.Error("a failed background load must surface at the first operation")
	}
}

func TestRAGStore_SerialisedFormCarriesOnlyCoordinates(t *testing.T) {
	dir := t.TempDir()
	store := New("test", dir)
	if _, err := store.Append(rawSeq("A"), domain.TestCase{Question: "q"}); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(store)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if len(m) != 2 || m["name"] != "test" || m["cache_dir"] != dir {
		t.Errorf("serialised form must carry only the coordinates: %v", m)
	}

	var restored RAGStore
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatal(err)
	}
	seq, err := restored.GetIndex(domain.Fingerprint(rawSeq("A")))
	if err != nil {
		t.Fatal(err)
	}
	if seq[0].Text != "A" {
		t.Errorf("restored handle cannot read the store: %+v", seq)
	}
}

func TestRAGStore_EnsureSavedWaitsForLoad(t *testing.T) {
	dir := t.TempDir()
	store := New("test", dir)
	if _, err := store.Append(rawSeq("A"), domain.TestCase{Question: "q", Timestamp: time.Now()}); err != nil {
		t.Fatal(err)
	}

	reopened := New("test", dir)
	if err := reopened.EnsureSaved(); err != nil {
		t.Fatal(err)
	}
	size, err := reopened.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size != 1 {
		t.Errorf("expected the loaded store, got size %d", size)
	}
}
