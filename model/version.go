package model

// Supported version of the OCP test-and-validation output schema.
const (
	SchemaVersionMajor = 2
	SchemaVersionMinor = 0
)

// SchemaVersion marks the schema version of an artifact stream. It is
// normally the first artifact emitted.
type SchemaVersion struct {
	Major int
	Minor int
}

// NewSchemaVersion returns the marker for the supported schema version.
func NewSchemaVersion() SchemaVersion {
	return SchemaVersion{Major: SchemaVersionMajor, Minor: SchemaVersionMinor}
}

func (SchemaVersion) SpecObject() string { return "schemaVersion" }

func (v SchemaVersion) SpecFields() []Field {
	return []Field{
		{Key: "major", Value: v.Major},
		{Key: "minor", Value: v.Minor},
	}
}

func (SchemaVersion) isRootArtifact() {}
