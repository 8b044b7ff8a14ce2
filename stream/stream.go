package stream

// This file contains utilities for reading an emitted artifact stream back
// and summarizing the test run it describes.

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/perfgo/ocptv/formatter"
	"github.com/rs/zerolog"
)

// Top-level artifact kinds.
const (
	KindSchemaVersion = "schemaVersion"
	KindRunArtifact   = "testRunArtifact"
	KindStepArtifact  = "testStepArtifact"
)

var kinds = []string{KindSchemaVersion, KindRunArtifact, KindStepArtifact}

// maxLine bounds a single artifact line.
const maxLine = 16 * 1024 * 1024

// Entry is one parsed line of a stream.
type Entry struct {
	// Line number in the stream, starting at 1
	Line           int
	SequenceNumber int64
	// Timestamp in seconds since the Unix epoch
	Timestamp float64
	// Kind is the top-level tag
	Kind string
	// Body is the value stored under Kind
	Body json.RawMessage
}

// Load reads a stream from a file.
func Load(logger zerolog.Logger, path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	defer f.Close()
	return Read(logger.With().Str("path", path).Logger(), f)
}

// Read parses every line of r. Lines that are not valid artifacts are
// logged and skipped.
func Read(logger zerolog.Logger, r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		entry, err := parseEntry(raw)
		if err != nil {
			logger.Warn().Err(err).Int("line", line).Msg("Failed to parse artifact")
			continue
		}
		entry.Line = line
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}
	return entries, nil
}

func parseEntry(raw []byte) (Entry, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Entry{}, err
	}

	var e Entry
	seq, ok := obj["sequenceNumber"]
	if !ok {
		return Entry{}, errors.New("missing sequenceNumber")
	}
	if err := json.Unmarshal(seq, &e.SequenceNumber); err != nil {
		return Entry{}, fmt.Errorf("sequenceNumber: %w", err)
	}

	var ts string
	if err := json.Unmarshal(obj["timestamp"], &ts); err != nil {
		return Entry{}, fmt.Errorf("timestamp: %w", err)
	}
	seconds, err := formatter.ParseTimestamp(ts)
	if err != nil {
		return Entry{}, err
	}
	e.Timestamp = seconds

	for _, k := range kinds {
		body, ok := obj[k]
		if !ok {
			continue
		}
		if e.Kind != "" {
			return Entry{}, fmt.Errorf("both %s and %s present", e.Kind, k)
		}
		e.Kind = k
		e.Body = body
	}
	if e.Kind == "" {
		return Entry{}, errors.New("no artifact tag present")
	}
	if len(obj) != 3 {
		return Entry{}, fmt.Errorf("unexpected top-level keys (%d)", len(obj))
	}
	return e, nil
}

// Summary condenses a stream into the facts a reader cares about.
type Summary struct {
	SchemaVersion string
	Run           RunSummary
	Steps         []StepSummary
	// Artifacts is the number of entries in the stream
	Artifacts int
	// Logs and Errors count run-scoped artifacts only
	Logs   int
	Errors int
	// SequenceOrdered is true if sequence numbers strictly increase
	SequenceOrdered bool
}

type RunSummary struct {
	Name    string
	Version string
	Status  string
	Result  string
}

type StepSummary struct {
	ID     string
	Name   string
	Status string
	Logs   int
	Errors int
	// Diagnoses counts diagnoses by type (PASS, FAIL, UNKNOWN)
	Diagnoses map[string]int
}

// Summarize folds entries into a Summary. Artifacts with unexpected shapes
// are ignored.
func Summarize(entries []Entry) Summary {
	s := Summary{Artifacts: len(entries), SequenceOrdered: true}
	steps := map[string]*StepSummary{}

	for i, e := range entries {
		if i > 0 && e.SequenceNumber <= entries[i-1].SequenceNumber {
			s.SequenceOrdered = false
		}

		switch e.Kind {
		case KindSchemaVersion:
			var v struct{ Major, Minor int }
			if json.Unmarshal(e.Body, &v) == nil {
				s.SchemaVersion = fmt.Sprintf("%d.%d", v.Major, v.Minor)
			}
		case KindRunArtifact:
			summarizeRun(&s, e.Body)
		case KindStepArtifact:
			summarizeStep(steps, e.Body)
		}
	}

	for _, st := range steps {
		s.Steps = append(s.Steps, *st)
	}
	sort.Slice(s.Steps, func(i, j int) bool {
		return stepOrder(s.Steps[i].ID, s.Steps[j].ID)
	})
	return s
}

func summarizeRun(s *Summary, body json.RawMessage) {
	var a struct {
		Start *struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"testRunStart"`
		End *struct {
			Status string `json:"status"`
			Result string `json:"result"`
		} `json:"testRunEnd"`
		Log   json.RawMessage `json:"log"`
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &a) != nil {
		return
	}
	switch {
	case a.Start != nil:
		s.Run.Name = a.Start.Name
		s.Run.Version = a.Start.Version
	case a.End != nil:
		s.Run.Status = a.End.Status
		s.Run.Result = a.End.Result
	case a.Log != nil:
		s.Logs++
	case a.Error != nil:
		s.Errors++
	}
}

func summarizeStep(steps map[string]*StepSummary, body json.RawMessage) {
	var a struct {
		ID    string `json:"testStepId"`
		Start *struct {
			Name string `json:"name"`
		} `json:"testStepStart"`
		End *struct {
			Status string `json:"status"`
		} `json:"testStepEnd"`
		Diagnosis *struct {
			Type string `json:"type"`
		} `json:"diagnosis"`
		Log   json.RawMessage `json:"log"`
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &a) != nil {
		return
	}

	st, ok := steps[a.ID]
	if !ok {
		st = &StepSummary{ID: a.ID, Diagnoses: map[string]int{}}
		steps[a.ID] = st
	}
	switch {
	case a.Start != nil:
		st.Name = a.Start.Name
	case a.End != nil:
		st.Status = a.End.Status
	case a.Diagnosis != nil:
		st.Diagnoses[a.Diagnosis.Type]++
	case a.Log != nil:
		st.Logs++
	case a.Error != nil:
		st.Errors++
	}
}

// stepOrder sorts numeric ids numerically and everything else lexically.
func stepOrder(a, b string) bool {
	if len(a) != len(b) && isDigits(a) && isDigits(b) {
		return len(a) < len(b)
	}
	return a < b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
