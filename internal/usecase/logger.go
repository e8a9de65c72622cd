package usecase

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"

	"ragstore/internal/domain"
)

// IndexLogger is a thin timestamped-event front-end over a RAGStore.
// Construction only records the path; the store materialises on first use.
type IndexLogger struct {
	mu    sync.Mutex
	path  string
	store *RAGStore
}

// NewIndexLogger creates a logger writing to the store at path, where path
// is the cache directory joined with the store's base name.
func NewIndexLogger(path string) *IndexLogger {
	return &IndexLogger{path: path}
}

// NewIndexLoggerOver wraps an already constructed store, for callers that
// configured their own backend.
func NewIndexLoggerOver(store *RAGStore) *IndexLogger {
	return &IndexLogger{
		path:  filepath.Join(store.CacheDir(), store.Name()),
		store: store,
	}
}

func (l *IndexLogger) ragStore() *RAGStore {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store == nil {
		l.store = New(filepath.Base(l.path), filepath.Dir(l.path))
	}
	return l.store
}

// Log records a question (and optionally the answer that was returned for
// it) against the index formed by chunks. An empty chunk list is silently
// ignored: chunk-less questions have no index to attach to.
func (l *IndexLogger) Log(chunks domain.Sequence, question, answer string) error {
	if len(chunks) == 0 {
		log.Debug().Str("question", question).Msg("no chunks supplied, not logging")
		return nil
	}
	tc := domain.TestCase{
		Question:       question,
		Timestamp:      time.Now(),
		ReturnedAnswer: answer,
	}
	_, err := l.ragStore().Append(chunks, tc)
	return err
}

// LogQuery narrows a Logs listing. Zero Start means the beginning of time,
// zero End means now. A non-empty Contains keeps entries whose question
// contains it; a non-nil Match keeps entries it accepts. With neither set,
// everything in range passes.
type LogQuery struct {
	Start    time.Time
	End      time.Time
	Contains string
	Match    func(question string) bool
}

func (q LogQuery) accepts(e domain.LogEntry) bool {
	end := q.End
	if end.IsZero() {
		end = time.Now()
	}
	if e.Timestamp.Before(q.Start) || e.Timestamp.After(end) {
		return false
	}
	if q.Contains == "" && q.Match == nil {
		return true
	}
	if q.Contains != "" && strings.Contains(e.Question, q.Contains) {
		return true
	}
	return q.Match != nil && q.Match(e.Question)
}

// Logs flattens every recorded case into entries tagged with their owning
// index, sorted by timestamp, filtered by q.
func (l *IndexLogger) Logs(q LogQuery) ([]domain.LogEntry, error) {
	all, err := l.ragStore().AllQuestions()
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LogEntry, 0, len(all))
	for id, cases := range all {
		for _, tc := range cases {
			e := domain.LogEntry{IndexID: id, TestCase: tc}
			if q.accepts(e) {
				entries = append(entries, e)
			}
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

// Answer records answer on the most recent case of the given index.
func (l *IndexLogger) Answer(indexID, answer string) error {
	return l.ragStore().RecordAnswer(indexID, answer)
}

// GetIndex returns the resolved sequence stored under id.
func (l *IndexLogger) GetIndex(id string) (domain.Sequence, error) {
	return l.ragStore().GetIndex(id)
}

// GetQuestions returns the cases recorded against id.
func (l *IndexLogger) GetQuestions(id string) ([]domain.TestCase, error) {
	return l.ragStore().GetQuestions(id)
}

// EnsureSaved waits for in-flight loads and writes on the underlying store.
func (l *IndexLogger) EnsureSaved() error {
	return l.ragStore().EnsureSaved()
}

// Path returns the logger's store path.
func (l *IndexLogger) Path() string { return l.path }

type loggerRef struct {
	Path string `json:"path"`
}

// MarshalJSON writes only the path; the store owns its own files.
func (l *IndexLogger) MarshalJSON() ([]byte, error) {
	return json.Marshal(loggerRef{Path: l.path})
}

// UnmarshalJSON reconstructs a lazy logger from its path.
func (l *IndexLogger) UnmarshalJSON(data []byte) error {
	var ref loggerRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return err
	}
	l.path = ref.Path
	l.store = nil
	return nil
}
