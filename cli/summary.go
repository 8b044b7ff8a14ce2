package cli

// This file contains the summary command for inspecting an emitted stream.

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/perfgo/ocptv/stream"
	"github.com/urfave/cli/v2"
)

func (a *App) summary(ctx *cli.Context) error {
	path, err := argument(ctx, "STREAM")
	if err != nil {
		return err
	}

	entries, err := stream.Load(a.logger, path)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.stdout, "No artifacts found")
		return nil
	}

	printSummary(a.stdout, stream.Summarize(entries))
	return nil
}

func printSummary(w io.Writer, s stream.Summary) {
	fmt.Fprintf(w, "=== Run: %s %s ===\n", orDash(s.Run.Name), s.Run.Version)
	fmt.Fprintf(w, "Schema: %s\n", orDash(s.SchemaVersion))
	fmt.Fprintf(w, "Status: %s\n", orDash(s.Run.Status))
	fmt.Fprintf(w, "Result: %s\n", orDash(s.Run.Result))
	fmt.Fprintf(w, "Artifacts: %d (logs=%d, errors=%d)\n", s.Artifacts, s.Logs, s.Errors)
	if !s.SequenceOrdered {
		fmt.Fprintln(w, "Warning: sequence numbers are not strictly increasing")
	}

	if len(s.Steps) == 0 {
		return
	}
	fmt.Fprintf(w, "\nSteps (%d):\n", len(s.Steps))
	for _, st := range s.Steps {
		// Indicate failing diagnoses
		mark := "✓"
		if st.Diagnoses["FAIL"] > 0 || st.Errors > 0 || (st.Status != "" && st.Status != "COMPLETE") {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s  [%s] %s  status=%s", mark, st.ID, orDash(st.Name), orDash(st.Status))
		if d := diagnoses(st.Diagnoses); d != "" {
			fmt.Fprintf(w, "  diagnoses=%s", d)
		}
		if st.Errors > 0 {
			fmt.Fprintf(w, "  errors=%d", st.Errors)
		}
		if st.Logs > 0 {
			fmt.Fprintf(w, "  logs=%d", st.Logs)
		}
		fmt.Fprintln(w)
	}
}

func diagnoses(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, counts[k]))
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
