package output

// This file contains writers that emit serialized artifacts as a
// line-delimited JSON stream.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var ErrClosed = errors.New("writer is closed")

// Writer receives serialized artifacts, one complete JSON object per call.
type Writer interface {
	Write(artifact []byte) error
	Close() error
}

// JSONL writes one artifact per line to an io.Writer. It is safe for
// concurrent use; lines are never interleaved.
type JSONL struct {
	logger zerolog.Logger

	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	lines  int
	closed bool
}

// NewJSONL creates a writer on top of w. Closing it does not close w.
func NewJSONL(logger zerolog.Logger, w io.Writer) *JSONL {
	return &JSONL{logger: logger, w: w}
}

// NewFile creates (or truncates) the file at path and writes to it.
func NewFile(logger zerolog.Logger, path string) (*JSONL, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	j := NewJSONL(logger.With().Str("file", path).Logger(), f)
	j.closer = f
	return j, nil
}

// Stdout writes to os.Stdout.
func Stdout(logger zerolog.Logger) *JSONL {
	return NewJSONL(logger, os.Stdout)
}

func (j *JSONL) Write(artifact []byte) error {
	if bytes.ContainsAny(artifact, "\n\r") {
		return errors.New("artifact spans multiple lines")
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}

	line := make([]byte, 0, len(artifact)+1)
	line = append(line, artifact...)
	line = append(line, '\n')
	if _, err := j.w.Write(line); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	j.lines++
	j.logger.Debug().Int("line", j.lines).Int("bytes", len(artifact)).Msg("Wrote artifact")
	return nil
}

// Lines returns the number of artifacts written so far.
func (j *JSONL) Lines() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lines
}

func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	if j.closer != nil {
		if err := j.closer.Close(); err != nil {
			return fmt.Errorf("failed to close output: %w", err)
		}
	}
	return nil
}

// Buffer keeps artifacts in memory, mostly for tests and for embedding the
// stream in another document.
type Buffer struct {
	mu        sync.Mutex
	artifacts [][]byte
}

func (b *Buffer) Write(artifact []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.artifacts = append(b.artifacts, bytes.Clone(artifact))
	return nil
}

func (b *Buffer) Close() error { return nil }

// Artifacts returns a copy of everything written so far.
func (b *Buffer) Artifacts() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.artifacts))
	copy(out, b.artifacts)
	return out
}
