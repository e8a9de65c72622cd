package compress

import (
	"ragstore/internal/domain"
	"ragstore/internal/port"
)

// TagNone, TagBySource and TagByIndex are the strategy names persisted in
// dataset files.
const (
	TagNone     = "none"
	TagBySource = "ref_by_source"
	TagByIndex  = "ref_by_index"
)

// None stores sequences verbatim.
type None struct{}

func NewNone() *None { return &None{} }

func (*None) Tag() string { return TagNone }

func (*None) Compress(_ port.Pool, seq domain.Sequence) domain.Sequence {
	return seq
}

func (*None) Decompress(_ port.Pool, seq domain.Sequence) (domain.Sequence, error) {
	return seq, nil
}

// ForTag returns the compressor persisted under tag. Unknown tags fall back
// to the identity strategy so archival files never fail to open.
func ForTag(tag string) port.Compressor {
	switch tag {
	case TagBySource:
		return NewBySource()
	case TagByIndex:
		return NewByIndex()
	default:
		return NewNone()
	}
}
