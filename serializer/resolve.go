package serializer

import (
	"fmt"

	"github.com/perfgo/ocptv/model"
)

// Kind classifies a record for serialization.
type Kind uint8

const (
	// KindLeaf records emit their own field map only
	KindLeaf Kind = iota + 1
	// KindWrapper records hold exactly one payload artifact that is emitted
	// under the payload's tag
	KindWrapper
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindWrapper:
		return "wrapper"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Resolution is the result of resolving a tagged artifact.
type Resolution struct {
	Kind Kind
	// Tag is the schema key the artifact is emitted under
	Tag string
	// Payload is the wrapped artifact, nil for leaves
	Payload model.Artifact
}

// payloader is implemented by every wrapper, including model.Root which
// has no tag of its own.
type payloader interface {
	Payload() model.Artifact
}

// Classify reports whether v is a leaf or a wrapper record. ok is false when
// v is not a record at all.
func Classify(v any) (kind Kind, ok bool) {
	if _, isRecord := v.(model.Record); !isRecord {
		return 0, false
	}
	if _, isWrapper := v.(payloader); isWrapper {
		return KindWrapper, true
	}
	return KindLeaf, true
}

// Resolve returns the tag of a and, for wrappers, its payload. A wrapper
// without a payload or an artifact without a tag is an error.
func Resolve(a model.Artifact) (Resolution, error) {
	if IsNil(a) {
		return Resolution{}, ErrMissingPayload
	}
	tag := a.SpecObject()
	if tag == "" {
		return Resolution{}, fmt.Errorf("%w: %T", ErrMissingTag, a)
	}

	kind, _ := Classify(a)
	res := Resolution{Kind: kind, Tag: tag}
	if kind == KindWrapper {
		res.Payload = a.(payloader).Payload()
		if IsNil(res.Payload) {
			return Resolution{}, fmt.Errorf("%s: %w", tag, ErrMissingPayload)
		}
	}
	return res, nil
}
