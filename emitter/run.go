package emitter

// This file contains the test run and test step lifecycle on top of the
// Emitter.

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"sync"

	"github.com/perfgo/ocptv/model"
)

var (
	ErrRunNotStarted     = errors.New("test run not started")
	ErrRunAlreadyStarted = errors.New("test run already started")
	ErrRunEnded          = errors.New("test run already ended")
	ErrStepsOpen         = errors.New("test run has open steps")
	ErrStepEnded         = errors.New("test step already ended")
)

type runState uint8

const (
	runCreated runState = iota
	runStarted
	runEnded
)

// Run is a test run. Its methods are safe for concurrent use.
type Run struct {
	emitter *Emitter
	start   model.RunStart

	mu    sync.Mutex
	state runState
	// marked is set once the schema version marker is out, so a retried
	// Start does not repeat it
	marked    bool
	nextStep  int
	openSteps int
}

// RunOption configures the testRunStart artifact of a Run.
type RunOption func(*model.RunStart)

func WithCommandLine(commandLine string) RunOption {
	return func(s *model.RunStart) {
		s.CommandLine = commandLine
	}
}

// WithArgs sets the command line from an argument vector, shell quoted.
func WithArgs(args []string) RunOption {
	return func(s *model.RunStart) {
		s.CommandLine = CommandLine(args)
	}
}

// WithParameters sets the run parameters. The top-level map is copied;
// nested maps and slices must not be modified until the run has started.
func WithParameters(parameters map[string]any) RunOption {
	return func(s *model.RunStart) {
		s.Parameters = maps.Clone(parameters)
	}
}

func WithDutInfo(dutInfo ...model.DutInfo) RunOption {
	return func(s *model.RunStart) {
		s.DutInfo = append(s.DutInfo, dutInfo...)
	}
}

// NewRun prepares a test run. Nothing is emitted until Start.
func (e *Emitter) NewRun(name, version string, opts ...RunOption) *Run {
	start := model.RunStart{Name: name, Version: version}
	for _, opt := range opts {
		opt(&start)
	}
	return &Run{emitter: e, start: start}
}

// Start emits the schema version marker followed by testRunStart.
func (r *Run) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != runCreated {
		return ErrRunAlreadyStarted
	}

	if !r.marked {
		if err := r.emitter.Emit(model.NewSchemaVersion()); err != nil {
			return err
		}
		r.marked = true
	}
	if err := r.emit(r.start); err != nil {
		return err
	}
	r.state = runStarted
	r.emitter.logger.Debug().Str("run", r.start.Name).Msg("Test run started")
	return nil
}

// End emits testRunEnd. All steps must have ended.
func (r *Run) End(status model.TestStatus, result model.TestResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkStarted(); err != nil {
		return err
	}
	if r.openSteps > 0 {
		return fmt.Errorf("%w: %d", ErrStepsOpen, r.openSteps)
	}

	if err := r.emit(model.RunEnd{Status: status, Result: result}); err != nil {
		return err
	}
	r.state = runEnded
	r.emitter.logger.Debug().
		Str("run", r.start.Name).
		Stringer("status", status).
		Stringer("result", result).
		Msg("Test run ended")
	return nil
}

// Log emits a run-scoped log artifact.
func (r *Run) Log(severity model.LogSeverity, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkStarted(); err != nil {
		return err
	}
	return r.emit(model.Log{Severity: severity, Message: message})
}

// Error emits a run-scoped error artifact.
func (r *Run) Error(e model.Error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkStarted(); err != nil {
		return err
	}
	return r.emit(e)
}

// StartStep emits testStepStart for a new step. Step ids are assigned in
// order: "0", "1", ...
func (r *Run) StartStep(name string) (*Step, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkStarted(); err != nil {
		return nil, err
	}

	s := &Step{run: r, id: strconv.Itoa(r.nextStep), name: name}
	if err := s.emit(model.StepStart{Name: name}); err != nil {
		return nil, err
	}
	r.nextStep++
	r.openSteps++
	return s, nil
}

// Name returns the run name.
func (r *Run) Name() string {
	return r.start.Name
}

func (r *Run) checkStarted() error {
	switch r.state {
	case runCreated:
		return ErrRunNotStarted
	case runEnded:
		return ErrRunEnded
	}
	return nil
}

func (r *Run) emit(impl model.RunArtifactImpl) error {
	return r.emitter.Emit(model.RunArtifact{Impl: impl})
}

func (r *Run) stepEnded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openSteps--
}

// Step is a test step within a run. Its methods are safe for concurrent use.
type Step struct {
	run  *Run
	id   string
	name string

	mu    sync.Mutex
	ended bool
}

// ID returns the step id emitted as testStepId.
func (s *Step) ID() string {
	return s.id
}

func (s *Step) Name() string {
	return s.name
}

// Log emits a step-scoped log artifact.
func (s *Step) Log(severity model.LogSeverity, message string) error {
	return s.emitOpen(model.Log{Severity: severity, Message: message})
}

// Error emits a step-scoped error artifact.
func (s *Step) Error(e model.Error) error {
	return s.emitOpen(e)
}

// Diagnosis emits a diagnosis artifact.
func (s *Step) Diagnosis(d model.Diagnosis) error {
	return s.emitOpen(d)
}

// End emits testStepEnd.
func (s *Step) End(status model.TestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrStepEnded
	}
	if err := s.emit(model.StepEnd{Status: status}); err != nil {
		return err
	}
	s.ended = true
	s.run.stepEnded()
	return nil
}

func (s *Step) emitOpen(impl model.StepArtifactImpl) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrStepEnded
	}
	return s.emit(impl)
}

func (s *Step) emit(impl model.StepArtifactImpl) error {
	return s.run.emitter.Emit(model.StepArtifact{ID: s.id, Impl: impl})
}
