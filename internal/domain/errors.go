package domain

import "errors"

var (
	// ErrKeyNotFound means the requested fingerprint is absent from the store.
	ErrKeyNotFound = errors.New("key not found")

	// ErrUnknownCollection means a reference points at a collection the pool
	// does not hold.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrUnknownSource means a by-source reference names a chunk missing
	// from its target collection.
	ErrUnknownSource = errors.New("unknown source")

	// ErrIndexOutOfRange means a positional reference falls outside its
	// target collection.
	ErrIndexOutOfRange = errors.New("reference index out of range")

	// ErrCorruptReference means a reference chain revisited a target, which
	// only happens on corrupted or mis-imported data.
	ErrCorruptReference = errors.New("corrupt reference chain")
)
