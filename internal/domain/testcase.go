package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// TestCase is one record attached to an index: a bag of named fields with
// question and timestamp required on persisted records. Unrecognised fields
// survive a load/save round trip verbatim in Extra.
type TestCase struct {
	ID             string
	Question       string
	Timestamp      time.Time
	Answer         string
	ReturnedAnswer string
	TrueAnswers    []string
	WrongAnswers   []string
	Extra          map[string]any
}

// LogEntry is a test case merged with the index it was recorded against.
type LogEntry struct {
	IndexID string `json:"index_id"`
	TestCase
}

// MarshalJSON merges the owning index id into the flattened case object.
// Without this the embedded case's marshaller would be promoted and the id
// dropped.
func (e LogEntry) MarshalJSON() ([]byte, error) {
	data, err := e.TestCase.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m["index_id"] = e.IndexID
	return json.Marshal(m)
}

// MarshalJSON flattens the record into a single object: Extra merged
// alongside the recognised fields, which win on a name clash. Empty optional
// fields are omitted.
func (tc TestCase) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(tc.Extra)+7)
	for k, v := range tc.Extra {
		m[k] = v
	}
	m["question"] = tc.Question
	if !tc.Timestamp.IsZero() {
		m["timestamp"] = tc.Timestamp.Format(time.RFC3339Nano)
	}
	if tc.ID != "" {
		m["id"] = tc.ID
	}
	if tc.Answer != "" {
		m["answer"] = tc.Answer
	}
	if tc.ReturnedAnswer != "" {
		m["returned_answer"] = tc.ReturnedAnswer
	}
	if len(tc.TrueAnswers) > 0 {
		m["true_answers"] = tc.TrueAnswers
	}
	if len(tc.WrongAnswers) > 0 {
		m["wrong_answers"] = tc.WrongAnswers
	}
	return json.Marshal(m)
}

// UnmarshalJSON pulls the recognised fields out of the object and keeps the
// remainder in Extra.
func (tc *TestCase) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*tc = TestCase{}
	if raw, ok := m["question"]; ok {
		if err := json.Unmarshal(raw, &tc.Question); err != nil {
			return fmt.Errorf("invalid question field: %w", err)
		}
		delete(m, "question")
	}
	if raw, ok := m["timestamp"]; ok {
		ts, err := parseTimestamp(raw)
		if err != nil {
			return err
		}
		tc.Timestamp = ts
		delete(m, "timestamp")
	}
	if raw, ok := m["id"]; ok {
		if err := json.Unmarshal(raw, &tc.ID); err == nil {
			delete(m, "id")
		}
	}
	if raw, ok := m["answer"]; ok {
		if err := json.Unmarshal(raw, &tc.Answer); err == nil {
			delete(m, "answer")
		}
	}
	if raw, ok := m["returned_answer"]; ok {
		if err := json.Unmarshal(raw, &tc.ReturnedAnswer); err == nil {
			delete(m, "returned_answer")
		}
	}
	if raw, ok := m["true_answers"]; ok {
		if err := json.Unmarshal(raw, &tc.TrueAnswers); err == nil {
			delete(m, "true_answers")
		}
	}
	if raw, ok := m["wrong_answers"]; ok {
		if err := json.Unmarshal(raw, &tc.WrongAnswers); err == nil {
			delete(m, "wrong_answers")
		}
	}
	if len(m) > 0 {
		tc.Extra = make(map[string]any, len(m))
		for k, raw := range m {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("invalid extra field %q: %w", k, err)
			}
			tc.Extra[k] = v
		}
	}
	return nil
}

// parseTimestamp accepts the current RFC 3339 form and the legacy numeric
// epoch-seconds form.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		return ts, nil
	}
	var epoch float64
	if err := json.Unmarshal(raw, &epoch); err == nil {
		sec, frac := math.Modf(epoch)
		return time.Unix(int64(sec), int64(frac*float64(time.Second))), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp field: %s", raw)
}
