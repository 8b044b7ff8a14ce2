package scenario

import (
	"context"
	"fmt"

	"github.com/perfgo/ocptv/emitter"
	"github.com/perfgo/ocptv/model"
	"github.com/rs/zerolog"
)

// Play emits the scenario as a test run. If ctx is cancelled between steps
// the run is closed with status ERROR so the stream stays well formed, and
// the context error is returned.
func (s *Scenario) Play(ctx context.Context, logger zerolog.Logger, em *emitter.Emitter) error {
	status, result, err := s.outcome()
	if err != nil {
		return err
	}

	run := em.NewRun(s.Name, s.Version,
		emitter.WithCommandLine(s.CommandLine),
		emitter.WithParameters(s.Parameters),
	)
	if err := run.Start(); err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}

	for _, l := range s.Logs {
		log, err := l.model()
		if err != nil {
			return err
		}
		if err := run.Log(log.Severity, log.Message); err != nil {
			return err
		}
	}

	for i, spec := range s.Steps {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Int("step", i).Msg("Scenario cancelled")
			if endErr := run.End(model.TestStatusError, model.TestResultNotApplicable); endErr != nil {
				logger.Warn().Err(endErr).Msg("Failed to end cancelled run")
			}
			return err
		}

		logger.Debug().Str("step", spec.Name).Msg("Playing step")
		if err := playStep(run, spec); err != nil {
			return fmt.Errorf("step %q: %w", spec.Name, err)
		}
	}

	if err := run.End(status, result); err != nil {
		return fmt.Errorf("failed to end run: %w", err)
	}
	logger.Info().
		Str("run", s.Name).
		Int("steps", len(s.Steps)).
		Stringer("result", result).
		Msg("Scenario played")
	return nil
}

func playStep(run *emitter.Run, spec StepSpec) error {
	status, err := spec.status()
	if err != nil {
		return err
	}

	step, err := run.StartStep(spec.Name)
	if err != nil {
		return err
	}
	for _, ev := range spec.Events {
		impl, err := ev.model()
		if err != nil {
			return err
		}
		switch a := impl.(type) {
		case model.Log:
			err = step.Log(a.Severity, a.Message)
		case model.Error:
			err = step.Error(a)
		case model.Diagnosis:
			err = step.Diagnosis(a)
		default:
			err = fmt.Errorf("unexpected event %T", impl)
		}
		if err != nil {
			return err
		}
	}
	return step.End(status)
}
