package tools

import (
	"context"
	"encoding/json"
)

// Meta provides execution context to tools.
type Meta struct {
	Workspace          string
	UnsafeShell        bool
	// ToolTimeoutSeconds has whole-second granularity; config.Load rejects
	// sub-second timeouts.
	ToolTimeoutSeconds int
	MaxBytes           int
}

// Result is a structured tool execution result.
type Result struct {
	ToolName   string
	Payload    any
	Preview    string
	LineCount  int
	ByteCount  int
	Truncated  bool
	DurationMs int64
}

// Tool describes a callable tool.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error)
}

// Annotations are behavioural hints surfaced to clients alongside a tool.
type Annotations struct {
	Title       string `json:"title"`
	ReadOnly    bool   `json:"read_only"`
	Destructive bool   `json:"destructive"`
	Idempotent  bool   `json:"idempotent"`
	OpenWorld   bool   `json:"open_world"`
}

// Annotated is implemented by tools that publish Annotations.
type Annotated interface {
	Annotations() Annotations
}
