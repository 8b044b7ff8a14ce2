package cli

// This file contains the commands that emit artifacts.

import (
	"fmt"

	"github.com/perfgo/ocptv/emitter"
	"github.com/perfgo/ocptv/model"
	"github.com/perfgo/ocptv/pprofdiag"
	"github.com/perfgo/ocptv/scenario"
	"github.com/urfave/cli/v2"
)

func (a *App) run(ctx *cli.Context) error {
	path, err := argument(ctx, "SCENARIO")
	if err != nil {
		return err
	}

	s, err := scenario.Load(path)
	if err != nil {
		return err
	}
	if s.CommandLine == "" {
		s.CommandLine = emitter.CommandLine(a.args)
	}
	a.logger.Info().Str("scenario", path).Str("run", s.Name).Msg("Playing scenario")

	return a.withEmitter(ctx, func(em *emitter.Emitter) error {
		return s.Play(ctx.Context, a.logger, em)
	})
}

func (a *App) checkProfile(ctx *cli.Context) error {
	path, err := argument(ctx, "PROFILE")
	if err != nil {
		return err
	}

	var result model.TestResult
	err = a.withEmitter(ctx, func(em *emitter.Emitter) error {
		var err error
		result, err = pprofdiag.Check(ctx.Context, a.logger, em, path, emitter.WithArgs(a.args))
		return err
	})
	if err != nil {
		return err
	}
	if result != model.TestResultPass {
		return fmt.Errorf("%s: %w (result %s)", path, ErrCheckFailed, result)
	}
	return nil
}

func (a *App) schemaVersion(ctx *cli.Context) error {
	return a.withEmitter(ctx, func(em *emitter.Emitter) error {
		return em.Emit(model.NewSchemaVersion())
	})
}
