package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ag-tools/internal/config"
	"ag-tools/internal/events"
	"ag-tools/internal/render"
	"ag-tools/internal/tools"
	"ag-tools/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ToolCallRecord records a single tool call.
type ToolCallRecord struct {
	ID         string         `json:"id"`
	ToolName   string         `json:"tool_name"`
	Input      any            `json:"input"`
	Output     any            `json:"output"`
	Status     string         `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	DurationMs int64          `json:"duration_ms"`
	Events     []events.Event `json:"events,omitempty"`
}

// Runner executes tool calls against a registry.
type Runner struct {
	tools     *tools.Registry
	renderer  render.Renderer
	logger    *zap.Logger
	cfg       config.Config
	workspace string
}

// NewRunner constructs a Runner. renderer may be nil.
func NewRunner(toolsReg *tools.Registry, renderer render.Renderer, logger *zap.Logger, cfg config.Config, workspace string) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{tools: toolsReg, renderer: renderer, logger: logger, cfg: cfg, workspace: workspace}
}

// BuildRegistry assembles the tools enabled by cfg.
func BuildRegistry(cfg config.Config) *tools.Registry {
	return tools.NewRegistry(
		tools.NewImageReadTool(cfg.ToolLimits.ImageMaxMB, cfg.VisionEnabled),
		tools.NewTerminalTool(cfg.ShellAllowlist, tools.WithCommandHints(cfg.EnableCommandHints)),
	)
}

// Call runs the named tool with input. Tool failures are reported both in the
// record and as the returned error.
func (r *Runner) Call(ctx context.Context, name string, input json.RawMessage) (ToolCallRecord, error) {
	callID := uuid.NewString()
	start := time.Now()
	inputSanitized := sanitizeInput(input)
	record := ToolCallRecord{ID: callID, ToolName: name, Input: inputSanitized, Status: "error", StartedAt: start}

	emit := func(event events.Event) {
		record.Events = append(record.Events, event)
		if r.renderer != nil {
			r.renderer.Emit(event)
		}
	}

	tool, ok := r.tools.Get(name)
	if !ok {
		err := fmt.Errorf("unknown tool: %s", name)
		record.Output = map[string]any{"error": err.Error()}
		emit(events.Event{Type: events.ToolCallFailed, Timestamp: time.Now(), Payload: events.ToolCallFinishedPayload{CallID: callID, ToolName: name, Status: "error", Preview: err.Error(), LineCount: 1, ByteCount: len(err.Error())}})
		r.logger.Warn("unknown tool", zap.String("tool", name))
		return record, err
	}

	emit(events.Event{Type: events.ToolCallStarted, Timestamp: start, Payload: events.ToolCallStartedPayload{CallID: callID, ToolName: name, Input: inputSanitized, StartedAt: start}})

	// Fractional seconds are truncated; a zero Timeout gets the 1s floor.
	meta := tools.Meta{Workspace: r.workspace, UnsafeShell: r.cfg.UnsafeShell, ToolTimeoutSeconds: int(r.cfg.Timeout / time.Second)}
	if meta.ToolTimeoutSeconds <= 0 {
		meta.ToolTimeoutSeconds = 1
	}
	if name == "terminal" {
		meta.MaxBytes = r.cfg.ToolLimits.ShellMaxBytes
	}

	res, err := tool.Execute(ctx, input, meta)
	duration := time.Since(start).Milliseconds()
	record.DurationMs = duration
	if err != nil {
		record.Output = map[string]any{"error": err.Error(), "duration_ms": duration}
		r.logger.Error("tool call failed", zap.String("tool", name), zap.String("call_id", callID), zap.Error(err))
		emit(events.Event{Type: events.ToolCallFailed, Timestamp: time.Now(), Payload: events.ToolCallFinishedPayload{CallID: callID, ToolName: name, Status: "error", Preview: err.Error(), DurationMs: duration, LineCount: 1, ByteCount: len(err.Error())}})
		return record, err
	}
	res.DurationMs = duration
	record.Output = res.Payload
	record.Status = "success"

	if obs, ok := res.Payload.(tools.TerminalObservation); ok && obs.ParsedArgv != nil {
		parsed := ""
		if obs.ParsedTool != nil {
			parsed = *obs.ParsedTool
		}
		r.logger.Debug("command hint", zap.String("call_id", callID), zap.String("parsed_tool", parsed), zap.Strings("parsed_argv", obs.ParsedArgv))
		emit(events.Event{Type: events.CommandHint, Timestamp: time.Now(), Payload: events.CommandHintPayload{CallID: callID, ParsedTool: parsed, ParsedArgv: obs.ParsedArgv}})
	}

	emit(events.Event{Type: events.ToolCallFinished, Timestamp: time.Now(), Payload: events.ToolCallFinishedPayload{
		CallID:     callID,
		ToolName:   name,
		Status:     "success",
		Output:     res.Payload,
		Preview:    res.Preview,
		LineCount:  res.LineCount,
		ByteCount:  res.ByteCount,
		Truncated:  res.Truncated,
		DurationMs: duration,
	}})
	return record, nil
}

func sanitizeInput(args json.RawMessage) any {
	if len(args) == 0 {
		return map[string]any{}
	}
	var data any
	if err := json.Unmarshal(args, &data); err != nil {
		return map[string]any{"raw": util.RedactSecrets(string(args))}
	}
	if bytes, err := json.Marshal(data); err == nil {
		return util.RedactSecrets(string(bytes))
	}
	return data
}
