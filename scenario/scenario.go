package scenario

// This file contains the declarative description of a test run and the
// loader for it. A scenario is replayed through an emitter to produce the
// corresponding artifact stream.

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/perfgo/ocptv/model"
	"gopkg.in/yaml.v3"
)

// Format of a scenario file
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Scenario describes a complete test run.
type Scenario struct {
	Name        string         `json:"name" yaml:"name"`
	Version     string         `json:"version" yaml:"version"`
	CommandLine string         `json:"commandLine,omitempty" yaml:"commandLine,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	// Logs are emitted at run scope right after the run starts
	Logs   []LogSpec  `json:"logs,omitempty" yaml:"logs,omitempty"`
	Steps  []StepSpec `json:"steps" yaml:"steps"`
	Status string     `json:"status" yaml:"status"`
	Result string     `json:"result" yaml:"result"`
}

// StepSpec describes one test step and the events it emits in order.
type StepSpec struct {
	Name   string      `json:"name" yaml:"name"`
	Status string      `json:"status,omitempty" yaml:"status,omitempty"`
	Events []EventSpec `json:"events,omitempty" yaml:"events,omitempty"`
}

// EventSpec holds exactly one of its fields.
type EventSpec struct {
	Log       *LogSpec       `json:"log,omitempty" yaml:"log,omitempty"`
	Error     *ErrorSpec     `json:"error,omitempty" yaml:"error,omitempty"`
	Diagnosis *DiagnosisSpec `json:"diagnosis,omitempty" yaml:"diagnosis,omitempty"`
}

type LogSpec struct {
	Severity string `json:"severity" yaml:"severity"`
	Message  string `json:"message" yaml:"message"`
}

type ErrorSpec struct {
	Symptom         string   `json:"symptom" yaml:"symptom"`
	Message         *string  `json:"message,omitempty" yaml:"message,omitempty"`
	SoftwareInfoIDs []string `json:"softwareInfoIds,omitempty" yaml:"softwareInfoIds,omitempty"`
}

type DiagnosisSpec struct {
	Verdict string  `json:"verdict" yaml:"verdict"`
	Type    string  `json:"type" yaml:"type"`
	Message *string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Load reads a scenario file. Files ending in .json are parsed as JSON,
// everything else as YAML.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}
	return Parse(raw, format)
}

// Parse decodes and validates a scenario.
func Parse(raw []byte, format Format) (*Scenario, error) {
	var s Scenario
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("invalid scenario json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("invalid scenario yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown scenario format %q", format)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks required fields and that every enum token is known.
func (s *Scenario) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if _, _, err := s.outcome(); err != nil {
		errs = append(errs, err)
	}
	for i, l := range s.Logs {
		if _, err := l.model(); err != nil {
			errs = append(errs, fmt.Errorf("logs[%d]: %w", i, err))
		}
	}
	for i, step := range s.Steps {
		if strings.TrimSpace(step.Name) == "" {
			errs = append(errs, fmt.Errorf("steps[%d].name is required", i))
		}
		if _, err := step.status(); err != nil {
			errs = append(errs, fmt.Errorf("steps[%d]: %w", i, err))
		}
		for j, ev := range step.Events {
			if _, err := ev.model(); err != nil {
				errs = append(errs, fmt.Errorf("steps[%d].events[%d]: %w", i, j, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid scenario: %w", errors.Join(errs...))
	}
	return nil
}

func (s *Scenario) outcome() (model.TestStatus, model.TestResult, error) {
	status, err := model.ParseTestStatus(s.Status)
	if err != nil {
		return 0, 0, err
	}
	result, err := model.ParseTestResult(s.Result)
	if err != nil {
		return 0, 0, err
	}
	return status, result, nil
}

// status defaults to COMPLETE when omitted.
func (s StepSpec) status() (model.TestStatus, error) {
	if s.Status == "" {
		return model.TestStatusComplete, nil
	}
	return model.ParseTestStatus(s.Status)
}

func (l LogSpec) model() (model.Log, error) {
	severity, err := model.ParseLogSeverity(l.Severity)
	if err != nil {
		return model.Log{}, err
	}
	return model.Log{Severity: severity, Message: l.Message}, nil
}

func (e ErrorSpec) model() (model.Error, error) {
	if e.Symptom == "" {
		return model.Error{}, errors.New("error symptom is required")
	}
	ids := e.SoftwareInfoIDs
	if ids == nil {
		ids = []string{}
	}
	return model.Error{Symptom: e.Symptom, Message: e.Message, SoftwareInfoIDs: ids}, nil
}

func (d DiagnosisSpec) model() (model.Diagnosis, error) {
	typ, err := model.ParseDiagnosisType(d.Type)
	if err != nil {
		return model.Diagnosis{}, err
	}
	if d.Verdict == "" {
		return model.Diagnosis{}, errors.New("diagnosis verdict is required")
	}
	return model.Diagnosis{Verdict: d.Verdict, Type: typ, Message: d.Message}, nil
}

func (e EventSpec) model() (model.StepArtifactImpl, error) {
	set := 0
	var impl model.StepArtifactImpl
	var err error
	if e.Log != nil {
		set++
		impl, err = e.Log.model()
	}
	if e.Error != nil {
		set++
		impl, err = e.Error.model()
	}
	if e.Diagnosis != nil {
		set++
		impl, err = e.Diagnosis.model()
	}
	if set != 1 {
		return nil, fmt.Errorf("event must set exactly one of log, error, diagnosis (got %d)", set)
	}
	if err != nil {
		return nil, err
	}
	return impl, nil
}
