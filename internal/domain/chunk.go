package domain

import (
	"encoding/json"
	"fmt"
)

// ChunkKind tags the variant carried by a Chunk.
type ChunkKind string

const (
	KindRaw       ChunkKind = "raw"
	KindExternal  ChunkKind = "external"
	KindRefSource ChunkKind = "ref_source"
	KindRefIndex  ChunkKind = "ref_index"
)

// ExternalChunk is a caller-defined chunk value the store treats as opaque.
// It participates in equality and fingerprinting through Key, and in
// persistence through the codec registered for its type tag. It is never
// replaced by a reference and never used as a reference target.
type ExternalChunk interface {
	// Key returns a stable string identity for equality and fingerprinting.
	Key() string
	// TypeTag names the codec used to restore the value from disk.
	TypeTag() string
	// Payload returns the serialisable body of the value.
	Payload() (json.RawMessage, error)
}

// ExternalDecoder restores an ExternalChunk from its persisted payload.
type ExternalDecoder func(payload json.RawMessage) (ExternalChunk, error)

var externalCodecs = map[string]ExternalDecoder{}

// RegisterExternal installs the decoder for an external chunk type tag.
// Registration happens at package init time before any store is loaded.
func RegisterExternal(tag string, dec ExternalDecoder) {
	externalCodecs[tag] = dec
}

// Chunk is a closed tagged union: exactly the fields of its Kind are set.
type Chunk struct {
	Kind ChunkKind

	// Source is this chunk's own name within its sequence, when the
	// sequence is keyed. Valid alongside any kind.
	Source string

	// Raw payload.
	Text string

	// External payload.
	External ExternalChunk

	// Reference target coordinates.
	RefCollection string
	RefSource     string
	RefPosition   int
}

// Sequence is an ordered chunk collection identified by one fingerprint.
type Sequence []Chunk

// Raw builds an inline text chunk.
func Raw(text string) Chunk {
	return Chunk{Kind: KindRaw, Text: text}
}

// NamedRaw builds an inline text chunk carrying its own source key.
func NamedRaw(source, text string) Chunk {
	return Chunk{Kind: KindRaw, Source: source, Text: text}
}

// NewExternal builds an opaque caller-defined chunk.
func NewExternal(v ExternalChunk) Chunk {
	return Chunk{Kind: KindExternal, External: v}
}

// RefBySource builds a pointer to a named chunk in another collection.
func RefBySource(collection, source string) Chunk {
	return Chunk{Kind: KindRefSource, RefCollection: collection, RefSource: source}
}

// RefByIndex builds a pointer to a positional chunk in another collection.
func RefByIndex(collection string, position int) Chunk {
	return Chunk{Kind: KindRefIndex, RefCollection: collection, RefPosition: position}
}

// IsRef reports whether the chunk is a reference variant.
func (c Chunk) IsRef() bool {
	return c.Kind == KindRefSource || c.Kind == KindRefIndex
}

// Projection returns the canonical string identity used for fingerprinting
// and deduplication equality: the chunk's own source key when present, the
// raw text, the external identity, or the reference coordinates.
func (c Chunk) Projection() string {
	if c.Source != "" {
		return c.Source
	}
	switch c.Kind {
	case KindRaw:
		return c.Text
	case KindExternal:
		if c.External != nil {
			return c.External.Key()
		}
		return ""
	case KindRefSource:
		return "ref:" + c.RefCollection + ":" + c.RefSource
	case KindRefIndex:
		return fmt.Sprintf("ref:%s:#%d", c.RefCollection, c.RefPosition)
	}
	return ""
}

// Equal reports chunk equality as used by compression: raw text against raw
// text, externals by their string identity. References never compare equal
// to anything (they are compression output, not input).
func (c Chunk) Equal(other Chunk) bool {
	if c.Kind != other.Kind {
		return false
	}
	switch c.Kind {
	case KindRaw:
		return c.Text == other.Text
	case KindExternal:
		if c.External == nil || other.External == nil {
			return false
		}
		return c.External.Key() == other.External.Key()
	}
	return false
}

type chunkJSON struct {
	Kind          ChunkKind       `json:"kind"`
	Source        string          `json:"source,omitempty"`
	Text          string          `json:"text,omitempty"`
	ExternalType  string          `json:"external_type,omitempty"`
	ExternalKey   string          `json:"external_key,omitempty"`
	ExternalBody  json.RawMessage `json:"external_body,omitempty"`
	RefCollection string          `json:"collection,omitempty"`
	RefSource     string          `json:"ref_source,omitempty"`
	RefPosition   *int            `json:"position,omitempty"`
}

// MarshalJSON writes the tagged form with only the fields of the variant.
func (c Chunk) MarshalJSON() ([]byte, error) {
	out := chunkJSON{Kind: c.Kind, Source: c.Source}
	switch c.Kind {
	case KindRaw:
		out.Text = c.Text
	case KindExternal:
		if c.External == nil {
			return nil, fmt.Errorf("external chunk has no value")
		}
		body, err := c.External.Payload()
		if err != nil {
			return nil, fmt.Errorf("failed to serialise external chunk: %w", err)
		}
		out.ExternalType = c.External.TypeTag()
		out.ExternalKey = c.External.Key()
		out.ExternalBody = body
	case KindRefSource:
		out.RefCollection = c.RefCollection
		out.RefSource = c.RefSource
	case KindRefIndex:
		out.RefCollection = c.RefCollection
		pos := c.RefPosition
		out.RefPosition = &pos
	default:
		return nil, fmt.Errorf("unknown chunk kind: %q", c.Kind)
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a chunk, resolving external values through the
// codec registry.
func (c *Chunk) UnmarshalJSON(data []byte) error {
	var in chunkJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = Chunk{Kind: in.Kind, Source: in.Source}
	switch in.Kind {
	case KindRaw:
		c.Text = in.Text
	case KindExternal:
		dec, ok := externalCodecs[in.ExternalType]
		if !ok {
			return fmt.Errorf("no codec registered for external chunk type %q", in.ExternalType)
		}
		v, err := dec(in.ExternalBody)
		if err != nil {
			return fmt.Errorf("failed to restore external chunk: %w", err)
		}
		c.External = v
	case KindRefSource:
		c.RefCollection = in.RefCollection
		c.RefSource = in.RefSource
	case KindRefIndex:
		c.RefCollection = in.RefCollection
		if in.RefPosition != nil {
			c.RefPosition = *in.RefPosition
		}
	default:
		return fmt.Errorf("unknown chunk kind: %q", in.Kind)
	}
	return nil
}
