package emitter

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/perfgo/ocptv/formatter"
	"github.com/perfgo/ocptv/model"
	"github.com/perfgo/ocptv/output"
	"github.com/perfgo/ocptv/serializer"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Unix(1700000000, 250000000)
}

func newTestEmitter(opts ...Option) (*Emitter, *output.Buffer) {
	buf := &output.Buffer{}
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return New(zerolog.Nop(), buf, opts...), buf
}

func decode(t *testing.T, artifacts [][]byte) []map[string]any {
	t.Helper()
	out := make([]map[string]any, 0, len(artifacts))
	for _, a := range artifacts {
		var m map[string]any
		require.NoError(t, json.Unmarshal(a, &m))
		out = append(out, m)
	}
	return out
}

func TestEmit(t *testing.T) {
	e, buf := newTestEmitter(WithStartSequence(5))

	require.NoError(t, e.Emit(model.NewSchemaVersion()))
	require.Equal(t, int64(6), e.Next())

	got := buf.Artifacts()
	require.Len(t, got, 1)
	require.Equal(t, `{"sequenceNumber":5,"timestamp":"2023-11-14T22:13:20.250000Z","schemaVersion":{"major":2,"minor":0}}`, string(got[0]))
}

func TestEmitFailureKeepsSequence(t *testing.T) {
	e, buf := newTestEmitter()

	err := e.Emit(model.RunArtifact{})
	require.ErrorIs(t, err, serializer.ErrMissingPayload)
	require.ErrorIs(t, e.Emit(nil), serializer.ErrMissingPayload)
	require.Equal(t, int64(0), e.Next())
	require.Empty(t, buf.Artifacts())

	require.NoError(t, e.Emit(model.NewSchemaVersion()))
	require.Equal(t, int64(1), e.Next())
}

func TestEmitNilPointer(t *testing.T) {
	e, buf := newTestEmitter()

	require.ErrorIs(t, e.Emit((*model.RunArtifact)(nil)), serializer.ErrMissingPayload)
	require.ErrorIs(t, e.Emit((*model.SchemaVersion)(nil)), serializer.ErrMissingPayload)
	require.ErrorIs(t, e.Emit(model.RunArtifact{Impl: (*model.Log)(nil)}), serializer.ErrMissingPayload)
	require.ErrorIs(t, e.Emit(model.StepArtifact{ID: "0", Impl: (*model.StepEnd)(nil)}), serializer.ErrMissingPayload)
	require.Equal(t, int64(0), e.Next())
	require.Empty(t, buf.Artifacts())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) error { return errors.New("disk full") }
func (failingWriter) Close() error { return nil }

func TestEmitWriteFailure(t *testing.T) {
	e := New(zerolog.Nop(), failingWriter{})
	err := e.Emit(model.NewSchemaVersion())
	require.ErrorContains(t, err, "disk full")
	require.Equal(t, int64(0), e.Next())
}

func TestEmitBadTimestamp(t *testing.T) {
	e, _ := newTestEmitter(WithClock(func() time.Time { return time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC) }))
	require.ErrorIs(t, e.Emit(model.NewSchemaVersion()), formatter.ErrInvalidTimestamp)
}

func TestEmitConcurrentSequence(t *testing.T) {
	e, buf := newTestEmitter()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.Emit(model.RunArtifact{Impl: model.Log{Severity: model.LogSeverityDebug, Message: "tick"}}))
		}()
	}
	wg.Wait()

	artifacts := decode(t, buf.Artifacts())
	require.Len(t, artifacts, 100)
	for i, m := range artifacts {
		require.EqualValues(t, i, m["sequenceNumber"])
	}
}

func TestRunLifecycle(t *testing.T) {
	e, buf := newTestEmitter()
	run := e.NewRun("mem", "1.2",
		WithArgs([]string{"mem-check", "--size", "4 GiB"}),
		WithParameters(map[string]any{"size": "4 GiB"}),
		WithDutInfo(model.DutInfo{}),
	)
	require.Equal(t, "mem", run.Name())

	require.ErrorIs(t, run.Log(model.LogSeverityInfo, "early"), ErrRunNotStarted)
	_, err := run.StartStep("early")
	require.ErrorIs(t, err, ErrRunNotStarted)

	require.NoError(t, run.Start())
	require.ErrorIs(t, run.Start(), ErrRunAlreadyStarted)
	require.NoError(t, run.Log(model.LogSeverityInfo, "starting"))

	step, err := run.StartStep("probe")
	require.NoError(t, err)
	require.Equal(t, "0", step.ID())
	require.Equal(t, "probe", step.Name())
	require.NoError(t, step.Log(model.LogSeverityDebug, "probing"))
	require.NoError(t, step.Diagnosis(model.Diagnosis{Verdict: "ok", Type: model.DiagnosisPass}))
	require.NoError(t, step.Error(model.Error{Symptom: "flaky", SoftwareInfoIDs: []string{}}))

	require.ErrorIs(t, run.End(model.TestStatusComplete, model.TestResultPass), ErrStepsOpen)
	require.NoError(t, step.End(model.TestStatusComplete))
	require.ErrorIs(t, step.End(model.TestStatusComplete), ErrStepEnded)
	require.ErrorIs(t, step.Log(model.LogSeverityInfo, "late"), ErrStepEnded)

	second, err := run.StartStep("second")
	require.NoError(t, err)
	require.Equal(t, "1", second.ID())
	require.NoError(t, second.End(model.TestStatusSkip))

	require.NoError(t, run.Error(model.Error{Symptom: "warn", Message: model.String("m")}))
	require.NoError(t, run.End(model.TestStatusComplete, model.TestResultPass))
	require.ErrorIs(t, run.End(model.TestStatusComplete, model.TestResultPass), ErrRunEnded)
	require.ErrorIs(t, run.Log(model.LogSeverityInfo, "late"), ErrRunEnded)

	artifacts := decode(t, buf.Artifacts())
	require.Len(t, artifacts, 12)

	for i, a := range artifacts {
		require.EqualValues(t, i, a["sequenceNumber"])
		require.Equal(t, "2023-11-14T22:13:20.250000Z", a["timestamp"])
	}

	require.Contains(t, artifacts[0], "schemaVersion")
	runStart := artifacts[1]["testRunArtifact"].(map[string]any)["testRunStart"].(map[string]any)
	require.Equal(t, "mem", runStart["name"])
	require.Equal(t, "mem-check --size '4 GiB'", runStart["commandLine"])
	require.Equal(t, map[string]any{"size": "4 GiB"}, runStart["parameters"])
	require.Equal(t, []any{map[string]any{}}, runStart["dutInfo"])

	stepStart := artifacts[3]["testStepArtifact"].(map[string]any)
	require.Equal(t, "0", stepStart["testStepId"])
	require.Equal(t, map[string]any{"name": "probe"}, stepStart["testStepStart"])

	last := artifacts[11]["testRunArtifact"].(map[string]any)["testRunEnd"].(map[string]any)
	require.Equal(t, "COMPLETE", last["status"])
	require.Equal(t, "PASS", last["result"])
}

// flakyWriter fails the writes whose 1-based index is listed in fail.
type flakyWriter struct {
	output.Buffer
	fail   map[int]bool
	writes int
}

func (w *flakyWriter) Write(artifact []byte) error {
	w.writes++
	if w.fail[w.writes] {
		return errors.New("write failed")
	}
	return w.Buffer.Write(artifact)
}

func TestRunStartRetry(t *testing.T) {
	w := &flakyWriter{fail: map[int]bool{2: true}}
	e := New(zerolog.Nop(), w, WithClock(fixedClock))
	run := e.NewRun("mem", "1.2")

	require.ErrorContains(t, run.Start(), "write failed")
	require.ErrorIs(t, run.Log(model.LogSeverityInfo, "early"), ErrRunNotStarted)
	require.NoError(t, run.Start())

	artifacts := decode(t, w.Artifacts())
	require.Len(t, artifacts, 2)
	require.Contains(t, artifacts[0], "schemaVersion")
	require.Contains(t, artifacts[1], "testRunArtifact")
	require.EqualValues(t, 1, artifacts[1]["sequenceNumber"])
}

func TestWithParametersCopies(t *testing.T) {
	e, buf := newTestEmitter()
	params := map[string]any{"size": "4 GiB"}
	run := e.NewRun("mem", "1.2", WithParameters(params))
	params["size"] = "8 GiB"
	params["extra"] = true

	require.NoError(t, run.Start())
	artifacts := decode(t, buf.Artifacts())
	runStart := artifacts[1]["testRunArtifact"].(map[string]any)["testRunStart"].(map[string]any)
	require.Equal(t, map[string]any{"size": "4 GiB"}, runStart["parameters"])
}

func TestCommandLine(t *testing.T) {
	require.Equal(t, `diag --name 'a b' '--x=""' ''`, CommandLine([]string{"diag", "--name", "a b", `--x=""`, ""}))
	require.Equal(t, "run-diag", CommandLine([]string{"run-diag"}))
	require.Equal(t, "", CommandLine(nil))
}
