package model

import "github.com/perfgo/ocptv/formatter"

// Log is a free-form message emitted by a run or a step.
type Log struct {
	Severity LogSeverity
	Message  string
}

func (Log) SpecObject() string { return "log" }

func (l Log) SpecFields() []Field {
	return []Field{
		{Key: "severity", Value: l.Severity, Format: formatter.Enum},
		{Key: "message", Value: l.Message},
	}
}

func (Log) isRunArtifactImpl()  {}
func (Log) isStepArtifactImpl() {}

// Error reports a failure of the test software itself (as opposed to a
// failing diagnosis of the device under test).
type Error struct {
	Symptom string
	// Message is optional and omitted when nil
	Message         *string
	SoftwareInfoIDs []string
}

func (Error) SpecObject() string { return "error" }

func (e Error) SpecFields() []Field {
	return []Field{
		{Key: "symptom", Value: e.Symptom},
		optional("message", e.Message),
		{Key: "softwareInfoIds", Value: e.SoftwareInfoIDs},
	}
}

func (Error) isRunArtifactImpl()  {}
func (Error) isStepArtifactImpl() {}

// Diagnosis is the verdict a step reaches about the device under test.
//
// The schema also defines hardwareInfoId and subcomponent; they are not
// modeled yet.
type Diagnosis struct {
	Verdict string
	Type    DiagnosisType
	// Message is optional and omitted when nil
	Message *string
}

func (Diagnosis) SpecObject() string { return "diagnosis" }

func (d Diagnosis) SpecFields() []Field {
	return []Field{
		{Key: "verdict", Value: d.Verdict},
		{Key: "type", Value: d.Type, Format: formatter.Enum},
		optional("message", d.Message),
	}
}

func (Diagnosis) isStepArtifactImpl() {}

// DutInfo describes the device under test. The schema fields are not
// modeled yet, so it serializes as an empty object.
type DutInfo struct{}

func (DutInfo) SpecFields() []Field { return nil }

// String returns a pointer to s, for the optional message fields.
func String(s string) *string {
	return &s
}
