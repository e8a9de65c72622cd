package domain

import (
	"fmt"
	"hash/fnv"
)

// EmptyFingerprint identifies the empty sequence.
const EmptyFingerprint = "0"

// Fingerprint derives the content address of a sequence: a 64-bit FNV-1a
// hash of each element's canonical projection, XOR-combined and rendered as
// 16 lower-case hex digits. XOR makes the result independent of element
// order; duplicate elements cancel in pairs, which is acceptable for the
// dedup use case (equal fingerprints collapse onto one store key).
func Fingerprint(seq Sequence) string {
	if len(seq) == 0 {
		return EmptyFingerprint
	}
	var acc uint64
	for _, c := range seq {
		h := fnv.New64a()
		h.Write([]byte(c.Projection()))
		acc ^= h.Sum64()
	}
	return fmt.Sprintf("%016x", acc)
}
