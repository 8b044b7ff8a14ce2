package emitter_test

import (
	"fmt"
	"time"

	"github.com/perfgo/ocptv/emitter"
	"github.com/perfgo/ocptv/model"
	"github.com/perfgo/ocptv/output"
	"github.com/rs/zerolog"
)

func ExampleRun() {
	clock := func() time.Time { return time.Unix(0, 0) }
	em := emitter.New(zerolog.Nop(), output.Stdout(zerolog.Nop()), emitter.WithClock(clock))

	run := em.NewRun("hello", "1.0")
	if err := run.Start(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	step, err := run.StartStep("greet")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	_ = step.Log(model.LogSeverityInfo, "hello")
	_ = step.End(model.TestStatusComplete)
	_ = run.End(model.TestStatusComplete, model.TestResultPass)

	// Output:
	// {"sequenceNumber":0,"timestamp":"1970-01-01T00:00:00.000000Z","schemaVersion":{"major":2,"minor":0}}
	// {"sequenceNumber":1,"timestamp":"1970-01-01T00:00:00.000000Z","testRunArtifact":{"testRunStart":{"name":"hello","version":"1.0","commandLine":"","parameters":{},"dutInfo":[]}}}
	// {"sequenceNumber":2,"timestamp":"1970-01-01T00:00:00.000000Z","testStepArtifact":{"testStepId":"0","testStepStart":{"name":"greet"}}}
	// {"sequenceNumber":3,"timestamp":"1970-01-01T00:00:00.000000Z","testStepArtifact":{"testStepId":"0","log":{"severity":"INFO","message":"hello"}}}
	// {"sequenceNumber":4,"timestamp":"1970-01-01T00:00:00.000000Z","testStepArtifact":{"testStepId":"0","testStepEnd":{"status":"COMPLETE"}}}
	// {"sequenceNumber":5,"timestamp":"1970-01-01T00:00:00.000000Z","testRunArtifact":{"testRunEnd":{"status":"COMPLETE","result":"PASS"}}}
}
