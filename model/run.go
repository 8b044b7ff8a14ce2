package model

import "github.com/perfgo/ocptv/formatter"

// RunStart opens a test run.
type RunStart struct {
	Name    string
	Version string
	// CommandLine defaults to "" and is always emitted
	CommandLine string
	Parameters  map[string]any
	DutInfo     []DutInfo
}

func (RunStart) SpecObject() string { return "testRunStart" }

func (s RunStart) SpecFields() []Field {
	return []Field{
		{Key: "name", Value: s.Name},
		{Key: "version", Value: s.Version},
		{Key: "commandLine", Value: s.CommandLine},
		{Key: "parameters", Value: s.Parameters},
		{Key: "dutInfo", Value: s.DutInfo},
	}
}

func (RunStart) isRunArtifactImpl() {}

// RunEnd closes a test run.
type RunEnd struct {
	Status TestStatus
	Result TestResult
}

func (RunEnd) SpecObject() string { return "testRunEnd" }

func (e RunEnd) SpecFields() []Field {
	return []Field{
		{Key: "status", Value: e.Status, Format: formatter.Enum},
		{Key: "result", Value: e.Result, Format: formatter.Enum},
	}
}

func (RunEnd) isRunArtifactImpl() {}

// RunArtifactImpl is one of RunStart, RunEnd, Log or Error.
type RunArtifactImpl interface {
	Artifact
	isRunArtifactImpl()
}

// RunArtifact is an artifact scoped to the whole test run.
type RunArtifact struct {
	Impl RunArtifactImpl
}

func (RunArtifact) SpecObject() string { return "testRunArtifact" }

func (RunArtifact) SpecFields() []Field { return nil }

func (a RunArtifact) Payload() Artifact {
	return a.Impl
}

func (RunArtifact) isRootArtifact() {}
