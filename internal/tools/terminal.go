package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"ag-tools/internal/hint"
	"ag-tools/internal/util"
	"ag-tools/internal/workspace"
)

// TerminalTool runs a single command without a shell.
type TerminalTool struct {
	allowlist    [][]string
	commandHints bool
}

// TerminalOption configures a TerminalTool.
type TerminalOption func(*TerminalTool)

// WithCommandHints enables command hint detection on every call.
func WithCommandHints(enabled bool) TerminalOption {
	return func(t *TerminalTool) { t.commandHints = enabled }
}

// NewTerminalTool constructs a terminal tool restricted to allowlisted
// command prefixes.
func NewTerminalTool(allowlist []string, opts ...TerminalOption) *TerminalTool {
	t := &TerminalTool{allowlist: normalizeAllowlist(allowlist)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TerminalTool) Name() string { return "terminal" }

func (t *TerminalTool) Description() string {
	return "Run a local command from the configured allowlist with timeouts. Leading NAME=VALUE words set environment variables."
}

func (t *TerminalTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{"type": "string"},
			"cwd":     map[string]any{"type": "string"},
		},
		"required":             []string{"command"},
		"additionalProperties": false,
	}
}

func (t *TerminalTool) Annotations() Annotations {
	return Annotations{Title: "terminal", Destructive: true, OpenWorld: true}
}

type terminalInput struct {
	Command string `json:"command"`
	Cwd     string `json:"cwd"`
}

// TerminalObservation is the terminal payload. ParsedTool and ParsedArgv are
// only set when command hints are enabled.
type TerminalObservation struct {
	Stdout     string   `json:"stdout"`
	Stderr     string   `json:"stderr"`
	ExitCode   int      `json:"exit_code"`
	DurationMs int64    `json:"duration_ms"`
	Truncated  bool     `json:"truncated"`
	ParsedTool *string  `json:"parsed_tool,omitempty"`
	ParsedArgv []string `json:"parsed_argv,omitempty"`
}

var (
	interactive = map[string]struct{}{
		"vim": {}, "vi": {}, "nano": {}, "less": {}, "more": {}, "man": {}, "top": {}, "htop": {}, "ssh": {}, "sftp": {},
	}
	networkTools = map[string]struct{}{
		"curl": {}, "wget": {}, "ssh": {}, "scp": {}, "nc": {}, "netcat": {},
	}
	destructivePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\brm\b`),
		regexp.MustCompile(`(?i)\bmkfs\b`),
		regexp.MustCompile(`(?i)\bdd\b`),
		regexp.MustCompile(`(?i)\bshutdown\b`),
		regexp.MustCompile(`(?i)\breboot\b`),
		regexp.MustCompile(`(?i)\bkill\s+-9\b`),
		regexp.MustCompile(`(?i):\(\)\{`),
		regexp.MustCompile(`(?i)chmod\s+-R\s+777\s+/`),
		regexp.MustCompile(`(?i)(>|>>)[\s]*(/etc|/bin|/usr|/var|/lib|/sbin|/System|/Library)`),
	}
)

func (t *TerminalTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args terminalInput
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(args.Command) == "" {
		return Result{}, errors.New("command is required")
	}

	words, err := hint.Split(args.Command)
	if err != nil {
		return Result{}, err
	}
	var env []string
	cmdParts := words
	for len(cmdParts) > 0 && hint.IsAssignment(cmdParts[0]) {
		env = append(env, cmdParts[0])
		cmdParts = cmdParts[1:]
	}
	if len(cmdParts) == 0 {
		return Result{}, errors.New("command is required")
	}
	cmdName := cmdParts[0]
	cmdKey := strings.ToLower(cmdName)

	if _, ok := interactive[cmdKey]; ok {
		return Result{}, fmt.Errorf("interactive commands are not allowed: %s", cmdName)
	}

	if !meta.UnsafeShell {
		if len(t.allowlist) == 0 {
			return Result{}, errors.New("shell allowlist is empty")
		}
		if !t.allowed(cmdParts) {
			return Result{}, fmt.Errorf("command not allowlisted: %s", cmdName)
		}
		if _, ok := networkTools[cmdKey]; ok {
			return Result{}, fmt.Errorf("network commands are blocked by default: %s", cmdName)
		}
		for _, re := range destructivePatterns {
			if re.MatchString(args.Command) {
				return Result{}, errors.New("blocked potentially destructive command")
			}
		}
	}

	cwd := meta.Workspace
	if strings.TrimSpace(args.Cwd) != "" {
		if meta.Workspace == "" {
			return Result{}, errors.New("cwd requires a workspace root")
		}
		resolved, err := workspace.Resolve(meta.Workspace, args.Cwd)
		if err != nil {
			return Result{}, fmt.Errorf("cwd must stay within workspace root: %w", err)
		}
		cwd = resolved
	}

	if meta.ToolTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(meta.ToolTimeoutSeconds)*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, cmdName, cmdParts[1:]...)
	cmd.Dir = cwd
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	start := time.Now()
	err = cmd.Run()
	duration := time.Since(start).Milliseconds()

	exitCode := 0
	if err != nil {
		if exitErr := (&exec.ExitError{}); errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return Result{}, err
		}
	}

	outStr := util.RedactSecrets(stdout.String())
	errStr := util.RedactSecrets(stderr.String())
	truncated := false
	if meta.MaxBytes > 0 {
		if trimmed, did := util.TruncateBytes(outStr, meta.MaxBytes); did {
			outStr = trimmed
			truncated = true
		}
		if trimmed, did := util.TruncateBytes(errStr, meta.MaxBytes); did {
			errStr = trimmed
			truncated = true
		}
	}

	output := TerminalObservation{
		Stdout:     outStr,
		Stderr:     errStr,
		ExitCode:   exitCode,
		DurationMs: duration,
		Truncated:  truncated,
	}
	if t.commandHints {
		tool, argv := hint.Detect(args.Command)
		if tool != "" {
			output.ParsedTool = &tool
		}
		output.ParsedArgv = argv
	}

	preview := util.Preview(strings.TrimSpace(outStr+"\n"+errStr), 12, 2000)
	byteCount := len(outStr) + len(errStr)
	return Result{ToolName: t.Name(), Payload: output, Preview: preview, LineCount: util.LineCount(preview), ByteCount: byteCount, Truncated: truncated, DurationMs: duration}, nil
}

func normalizeAllowlist(list []string) [][]string {
	out := make([][]string, 0, len(list))
	for _, item := range list {
		tokens, err := hint.Split(strings.TrimSpace(item))
		if err != nil || len(tokens) == 0 {
			continue
		}
		for i := range tokens {
			tokens[i] = strings.ToLower(tokens[i])
		}
		out = append(out, tokens)
	}
	return out
}

func (t *TerminalTool) allowed(cmdParts []string) bool {
	if len(t.allowlist) == 0 || len(cmdParts) == 0 {
		return false
	}
	for _, entry := range t.allowlist {
		if len(cmdParts) < len(entry) {
			continue
		}
		match := true
		for i := range entry {
			if strings.ToLower(cmdParts[i]) != entry[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
