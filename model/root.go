package model

import "github.com/perfgo/ocptv/formatter"

// RootArtifact is one of SchemaVersion, RunArtifact or StepArtifact.
type RootArtifact interface {
	Artifact
	isRootArtifact()
}

// Root is the top-level envelope of every emitted artifact. Its fields and
// the tag of Impl end up as siblings in one JSON object.
type Root struct {
	Impl RootArtifact
	// SequenceNumber is supplied by the producer; the model does not check
	// that it increases.
	SequenceNumber int64
	// Timestamp in seconds since the Unix epoch
	Timestamp float64
}

func (r Root) SpecFields() []Field {
	return []Field{
		{Key: "sequenceNumber", Value: r.SequenceNumber},
		{Key: "timestamp", Value: r.Timestamp, Format: formatter.Timestamp},
	}
}

func (r Root) Payload() Artifact {
	return r.Impl
}
