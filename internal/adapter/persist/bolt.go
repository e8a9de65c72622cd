package persist

import (
	"encoding/json"
	"fmt"
	"os"

	"go.etcd.io/bbolt"

	"ragstore/internal/domain"
	"ragstore/internal/port"
)

var (
	bucketChunks = []byte("chunks")
	bucketCases  = []byte("cases")
	bucketMeta   = []byte("meta")
	keyCompress  = []byte("compression")
)

// BoltStore persists snapshots into bbolt databases, one per store file.
// Commit atomicity comes from bolt's transactional writes instead of the
// temp-then-rename protocol of the file backend.
type BoltStore struct{}

func NewBoltStore() *BoltStore { return &BoltStore{} }

func (*BoltStore) Ext() string { return ".db" }

func (*BoltStore) SaveDataset(path string, snap port.DatasetSnapshot) error {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to open dataset db: %w", err)
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		if err := resetBucket(tx, bucketChunks); err != nil {
			return err
		}
		b := tx.Bucket(bucketChunks)
		for fp, seq := range snap.Chunks {
			data, err := json.Marshal(seq)
			if err != nil {
				return fmt.Errorf("failed to serialise sequence %s: %w", fp, err)
			}
			if err := b.Put([]byte(fp), data); err != nil {
				return err
			}
		}
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		return meta.Put(keyCompress, []byte(snap.Compression))
	})
}

func (*BoltStore) LoadDataset(path string) (port.DatasetSnapshot, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return port.DatasetSnapshot{}, false, nil
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return port.DatasetSnapshot{}, false, fmt.Errorf("failed to open dataset db: %w", err)
	}
	defer db.Close()

	snap := port.DatasetSnapshot{Chunks: port.Pool{}}
	err = db.View(func(tx *bbolt.Tx) error {
		if meta := tx.Bucket(bucketMeta); meta != nil {
			snap.Compression = string(meta.Get(keyCompress))
		}
		b := tx.Bucket(bucketChunks)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var seq domain.Sequence
			if err := json.Unmarshal(v, &seq); err != nil {
				return fmt.Errorf("failed to decode sequence %s: %w", k, err)
			}
			snap.Chunks[string(k)] = seq
			return nil
		})
	})
	if err != nil {
		return port.DatasetSnapshot{}, false, err
	}
	return snap, true, nil
}

func (*BoltStore) SaveTestcases(path string, snap port.TestcaseSnapshot) error {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to open testcase db: %w", err)
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		if err := resetBucket(tx, bucketCases); err != nil {
			return err
		}
		b := tx.Bucket(bucketCases)
		for fp, cases := range snap.Cases {
			data, err := json.Marshal(cases)
			if err != nil {
				return fmt.Errorf("failed to serialise cases for %s: %w", fp, err)
			}
			if err := b.Put([]byte(fp), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (*BoltStore) LoadTestcases(path string) (port.TestcaseSnapshot, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return port.TestcaseSnapshot{}, false, nil
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return port.TestcaseSnapshot{}, false, fmt.Errorf("failed to open testcase db: %w", err)
	}
	defer db.Close()

	snap := port.TestcaseSnapshot{Cases: map[string][]domain.TestCase{}}
	err = db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCases)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var cases []domain.TestCase
			if err := json.Unmarshal(v, &cases); err != nil {
				return fmt.Errorf("failed to decode cases %s: %w", k, err)
			}
			snap.Cases[string(k)] = cases
			return nil
		})
	})
	if err != nil {
		return port.TestcaseSnapshot{}, false, err
	}
	return snap, true, nil
}

// resetBucket drops and recreates a bucket so a save replaces the prior
// snapshot wholesale, matching the file backend's semantics.
func resetBucket(tx *bbolt.Tx, name []byte) error {
	if tx.Bucket(name) != nil {
		if err := tx.DeleteBucket(name); err != nil {
			return err
		}
	}
	_, err := tx.CreateBucket(name)
	return err
}
