package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"ag-tools/internal/events"
	"ag-tools/internal/hint"
)

// StdoutRenderer streams events to a plain text writer.
type StdoutRenderer struct {
	w       io.Writer
	mu      sync.Mutex
	verbose bool
	quiet   bool
}

// NewStdoutRenderer creates a renderer for plain text output.
func NewStdoutRenderer(w io.Writer, verbose bool, quiet bool) *StdoutRenderer {
	return &StdoutRenderer{w: w, verbose: verbose, quiet: quiet}
}

func (r *StdoutRenderer) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.quiet {
		return
	}
	switch event.Type {
	case events.ToolCallStarted:
		if payload, ok := event.Payload.(events.ToolCallStartedPayload); ok {
			if !r.verbose {
				return
			}
			fmt.Fprintf(r.w, "tool: %s start (%s)\n", payload.ToolName, payload.CallID)
			fmt.Fprintf(r.w, "input: %v\n", payload.Input)
		}
	case events.ToolCallFinished, events.ToolCallFailed:
		if payload, ok := event.Payload.(events.ToolCallFinishedPayload); ok {
			status := payload.Status
			if status == "success" {
				status = "ok"
			} else if status == "error" {
				status = "err"
			}
			trunc := ""
			if payload.Truncated {
				trunc = ", truncated"
			}
			fmt.Fprintf(r.w, "tool: %s %s (%dms, %d lines, %d bytes%s)\n", payload.ToolName, status, payload.DurationMs, payload.LineCount, payload.ByteCount, trunc)
			if payload.Preview != "" {
				for _, line := range strings.Split(payload.Preview, "\n") {
					fmt.Fprintf(r.w, "  %s\n", line)
				}
			}
		}
	case events.CommandHint:
		if payload, ok := event.Payload.(events.CommandHintPayload); ok {
			tool := payload.ParsedTool
			if tool == "" {
				tool = "-"
			}
			fmt.Fprintf(r.w, "hint: %s | %s\n", tool, hint.Join(payload.ParsedArgv))
		}
	}
}

func (r *StdoutRenderer) Close() error {
	return nil
}
