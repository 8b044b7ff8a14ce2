package pprofdiag

// This file contains a diagnostic test run over a pprof profile file. Each
// check is one test step ending in a diagnosis.

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/pprof/profile"
	"github.com/perfgo/ocptv/emitter"
	"github.com/perfgo/ocptv/model"
	"github.com/rs/zerolog"
)

const (
	RunName    = "pprof-check"
	RunVersion = "1.0"
)

// Check emits a complete test run describing the profile at path and
// returns its result. The error is only set if the run itself could not be
// emitted; a broken profile yields TestResultFail.
func Check(ctx context.Context, logger zerolog.Logger, em *emitter.Emitter, path string, opts ...emitter.RunOption) (model.TestResult, error) {
	opts = append([]emitter.RunOption{emitter.WithParameters(map[string]any{"profile": path})}, opts...)
	run := em.NewRun(RunName, RunVersion, opts...)
	if err := run.Start(); err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}

	c := &checker{run: run, logger: logger, result: model.TestResultPass}
	checks := []struct {
		name string
		fn   func(*emitter.Step) (model.TestStatus, error)
	}{
		{"parse-profile", func(s *emitter.Step) (model.TestStatus, error) { return c.parse(s, path) }},
		{"validate-profile", c.validate},
		{"samples-present", c.samples},
	}

	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Str("step", check.name).Msg("Profile check cancelled")
			c.abort()
			return model.TestResultNotApplicable, err
		}
		if err := c.step(check.name, check.fn); err != nil {
			c.abort()
			return 0, err
		}
		if c.prof == nil {
			break
		}
	}

	if err := run.End(model.TestStatusComplete, c.result); err != nil {
		return 0, fmt.Errorf("failed to end run: %w", err)
	}
	logger.Info().Str("profile", path).Stringer("result", c.result).Msg("Profile checked")
	return c.result, nil
}

type checker struct {
	run    *emitter.Run
	logger zerolog.Logger
	prof   *profile.Profile
	result model.TestResult
}

func (c *checker) step(name string, fn func(*emitter.Step) (model.TestStatus, error)) error {
	step, err := c.run.StartStep(name)
	if err != nil {
		return err
	}
	status, err := fn(step)
	if err != nil {
		if endErr := step.End(model.TestStatusError); endErr != nil {
			c.logger.Warn().Err(endErr).Str("step", name).Msg("Failed to end failed step")
		}
		return fmt.Errorf("step %s: %w", name, err)
	}
	return step.End(status)
}

// abort closes the run with status ERROR after a cancellation or a failed
// step.
func (c *checker) abort() {
	if err := c.run.End(model.TestStatusError, model.TestResultNotApplicable); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to end aborted run")
	}
}

func (c *checker) diagnose(step *emitter.Step, verdict string, pass bool, message string) error {
	d := model.Diagnosis{Verdict: verdict, Type: model.DiagnosisPass}
	if !pass {
		d.Type = model.DiagnosisFail
		c.result = model.TestResultFail
	}
	if message != "" {
		d.Message = model.String(message)
	}
	c.logger.Debug().Str("verdict", verdict).Stringer("type", d.Type).Msg("Diagnosis")
	return step.Diagnosis(d)
}

func (c *checker) parse(step *emitter.Step, path string) (model.TestStatus, error) {
	f, err := os.Open(path)
	if err != nil {
		if err := step.Error(model.Error{Symptom: "profile-unreadable", Message: model.String(err.Error())}); err != nil {
			return 0, err
		}
		return model.TestStatusError, c.diagnose(step, "profile-parse-fail", false, "")
	}
	defer f.Close()

	prof, err := profile.Parse(f)
	if err != nil {
		return model.TestStatusComplete, c.diagnose(step, "profile-parse-fail", false, err.Error())
	}
	c.prof = prof
	return model.TestStatusComplete, c.diagnose(step, "profile-parse-ok", true, "")
}

func (c *checker) validate(step *emitter.Step) (model.TestStatus, error) {
	types := make([]string, 0, len(c.prof.SampleType))
	for _, st := range c.prof.SampleType {
		types = append(types, st.Type+"/"+st.Unit)
	}
	if err := step.Log(model.LogSeverityInfo, "sample types: "+strings.Join(types, ", ")); err != nil {
		return 0, err
	}

	if err := c.prof.CheckValid(); err != nil {
		return model.TestStatusComplete, c.diagnose(step, "profile-invalid", false, err.Error())
	}
	return model.TestStatusComplete, c.diagnose(step, "profile-valid", true, "")
}

func (c *checker) samples(step *emitter.Step) (model.TestStatus, error) {
	n := len(c.prof.Sample)
	if err := step.Log(model.LogSeverityInfo, fmt.Sprintf("%d samples, %d functions", n, len(c.prof.Function))); err != nil {
		return 0, err
	}
	if n == 0 {
		return model.TestStatusComplete, c.diagnose(step, "profile-empty", false, "")
	}
	return model.TestStatusComplete, c.diagnose(step, "profile-has-samples", true, "")
}
