package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/perfgo/ocptv/emitter"
	"github.com/perfgo/ocptv/output"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const AppName = "ocptv"

// ErrCheckFailed is returned when a diagnostic run finished with result FAIL.
var ErrCheckFailed = errors.New("check failed")

type App struct {
	logger zerolog.Logger
	stdout io.Writer
	args   []string
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339Nano,
	}).With().Timestamp().Logger()

	return newApp(logger, os.Stdout)
}

func newApp(logger zerolog.Logger, stdout io.Writer) *App {
	app := &App{
		logger: logger,
		stdout: stdout,
		cli: &cli.App{
			Name:      AppName,
			Usage:     "Emit and inspect OCP test and validation artifact streams",
			Writer:    stdout,
			ErrWriter: os.Stderr,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "verbose",
					Usage:   "Enable verbose (debug) logging",
					EnvVars: []string{"OCPTV_VERBOSE"},
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}

	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Play a scenario file as a test run",
		ArgsUsage: "SCENARIO",
		Action:    app.run,
		Flags:     []cli.Flag{outputFlag()},
		Description: `Play a YAML or JSON scenario and emit the resulting artifacts.

Files ending in .json are read as JSON, everything else as YAML.

Example:
  ocptv run --output run.jsonl mem-check.yaml`,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "check-profile",
		Usage:     "Run diagnostics against a pprof profile",
		ArgsUsage: "PROFILE",
		Action:    app.checkProfile,
		Flags:     []cli.Flag{outputFlag()},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "summary",
		Usage:     "Summarize an emitted artifact stream",
		ArgsUsage: "STREAM",
		Action:    app.summary,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "schema-version",
		Usage:  "Emit the schema version artifact",
		Action: app.schemaVersion,
		Flags:  []cli.Flag{outputFlag()},
	})
	return app
}

func (a *App) Run(args []string) error {
	a.args = args
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write artifacts to `FILE` instead of stdout",
		EnvVars: []string{"OCPTV_OUTPUT"},
	}
}

// openOutput returns the writer selected by --output.
func (a *App) openOutput(ctx *cli.Context) (output.Writer, error) {
	path := ctx.String("output")
	if path == "" || path == "-" {
		return output.NewJSONL(a.logger, a.stdout), nil
	}
	a.logger.Debug().Str("path", path).Msg("Writing artifacts to file")
	return output.NewFile(a.logger, path)
}

// withEmitter opens the output, hands an emitter to fn and closes the output
// again.
func (a *App) withEmitter(ctx *cli.Context, fn func(*emitter.Emitter) error) (err error) {
	w, err := a.openOutput(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(emitter.New(a.logger, w))
}

func argument(ctx *cli.Context, name string) (string, error) {
	if ctx.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one %s argument, got %d", name, ctx.NArg())
	}
	return ctx.Args().First(), nil
}
