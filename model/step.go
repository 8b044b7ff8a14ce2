package model

import "github.com/perfgo/ocptv/formatter"

// StepStart opens a test step.
type StepStart struct {
	Name string
}

func (StepStart) SpecObject() string { return "testStepStart" }

func (s StepStart) SpecFields() []Field {
	return []Field{
		{Key: "name", Value: s.Name},
	}
}

func (StepStart) isStepArtifactImpl() {}

// StepEnd closes a test step.
type StepEnd struct {
	Status TestStatus
}

func (StepEnd) SpecObject() string { return "testStepEnd" }

func (e StepEnd) SpecFields() []Field {
	return []Field{
		{Key: "status", Value: e.Status, Format: formatter.Enum},
	}
}

func (StepEnd) isStepArtifactImpl() {}

// StepArtifactImpl is one of StepStart, StepEnd, Diagnosis, Log or Error.
type StepArtifactImpl interface {
	Artifact
	isStepArtifactImpl()
}

// StepArtifact is an artifact scoped to a single test step.
type StepArtifact struct {
	// ID of the owning step, emitted as testStepId
	ID   string
	Impl StepArtifactImpl
}

func (StepArtifact) SpecObject() string { return "testStepArtifact" }

func (a StepArtifact) SpecFields() []Field {
	return []Field{
		{Key: "testStepId", Value: a.ID},
	}
}

func (a StepArtifact) Payload() Artifact {
	return a.Impl
}

func (StepArtifact) isRootArtifact() {}
