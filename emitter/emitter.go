package emitter

import (
	"fmt"
	"sync"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/perfgo/ocptv/formatter"
	"github.com/perfgo/ocptv/model"
	"github.com/perfgo/ocptv/output"
	"github.com/perfgo/ocptv/serializer"
	"github.com/rs/zerolog"
)

// Emitter wraps artifacts into root envelopes and writes them out. It owns
// the sequence counter of a stream: numbers start at 0 (or the configured
// start) and increase by one for every artifact written, in stream order.
type Emitter struct {
	logger zerolog.Logger
	writer output.Writer
	clock  func() time.Time

	mu   sync.Mutex
	next int64
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithClock overrides the time source used for artifact timestamps.
func WithClock(clock func() time.Time) Option {
	return func(e *Emitter) {
		e.clock = clock
	}
}

// WithStartSequence sets the sequence number of the first artifact.
func WithStartSequence(n int64) Option {
	return func(e *Emitter) {
		e.next = n
	}
}

func New(logger zerolog.Logger, w output.Writer, opts ...Option) *Emitter {
	e := &Emitter{
		logger: logger,
		writer: w,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit writes one artifact. A serialization or write failure does not
// consume a sequence number.
func (e *Emitter) Emit(impl model.RootArtifact) error {
	if serializer.IsNil(impl) {
		return fmt.Errorf("failed to serialize artifact: %w", serializer.ErrMissingPayload)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	root := model.Root{
		Impl:           impl,
		SequenceNumber: e.next,
		Timestamp:      formatter.Seconds(e.clock()),
	}
	data, err := serializer.Marshal(root)
	if err != nil {
		return fmt.Errorf("failed to serialize %s artifact: %w", impl.SpecObject(), err)
	}
	if err := e.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write %s artifact: %w", impl.SpecObject(), err)
	}

	e.logger.Debug().
		Int64("seq", root.SequenceNumber).
		Str("artifact", impl.SpecObject()).
		Msg("Emitted artifact")
	e.next++
	return nil
}

// Next returns the sequence number the next artifact will carry.
func (e *Emitter) Next() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.next
}

// CommandLine joins args into a single shell-quoted command line, suitable
// for RunStart.CommandLine.
func CommandLine(args []string) string {
	return shellescape.QuoteCommand(args)
}
