package model

import "github.com/perfgo/ocptv/formatter"

// Field describes one schema field of a record: the key it is emitted under,
// its value and how that value is formatted.
type Field struct {
	// Key is the external schema key (e.g. "commandLine")
	Key string
	// Value is the Go value of the field
	Value any
	// Format converts Value to its schema representation; nil means the
	// value's natural JSON representation is used.
	Format formatter.Func
	// Optional fields are omitted from the output when Value is a nil pointer.
	Optional bool
}

// Record is implemented by every schema object. SpecFields returns the
// field table in declaration order.
type Record interface {
	SpecFields() []Field
}

// Artifact is a Record that is emitted under its own schema tag.
type Artifact interface {
	Record
	SpecObject() string
}

// Variant is an Artifact that wraps exactly one payload artifact. Its own
// fields (if any) are emitted as siblings of the payload's tag.
type Variant interface {
	Artifact
	Payload() Artifact
}

func optional(key string, v *string) Field {
	return Field{Key: key, Value: v, Optional: true}
}
