package tools

import (
	"context"
	"encoding/json"
	"os/exec"
	"reflect"
	"strings"
	"testing"
)

func runTerminal(t *testing.T, tool *TerminalTool, command string, meta Meta) (Result, error) {
	t.Helper()
	input, _ := json.Marshal(map[string]any{"command": command})
	return tool.Execute(context.Background(), input, meta)
}

func requireEcho(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
}

func TestTerminalToolBlocksDestructive(t *testing.T) {
	tool := NewTerminalTool([]string{"rm"})
	_, err := runTerminal(t, tool, "rm -rf /", Meta{Workspace: ".", ToolTimeoutSeconds: 1, MaxBytes: 1024})
	if err == nil {
		t.Fatalf("expected destructive command to be blocked")
	}
}

func TestTerminalToolBlocksNetwork(t *testing.T) {
	tool := NewTerminalTool([]string{"curl"})
	_, err := runTerminal(t, tool, "curl https://example.com", Meta{Workspace: ".", ToolTimeoutSeconds: 1, MaxBytes: 1024})
	if err == nil {
		t.Fatalf("expected network command to be blocked")
	}
}

func TestTerminalToolBlocksUnknown(t *testing.T) {
	tool := NewTerminalTool([]string{"echo"})
	_, err := runTerminal(t, tool, "notacmd --help", Meta{Workspace: ".", ToolTimeoutSeconds: 1, MaxBytes: 1024})
	if err == nil {
		t.Fatalf("expected unknown command to be blocked")
	}
}

func TestTerminalToolBlocksInteractiveEvenWhenUnsafe(t *testing.T) {
	tool := NewTerminalTool(nil)
	_, err := runTerminal(t, tool, "vim notes.txt", Meta{Workspace: ".", UnsafeShell: true, ToolTimeoutSeconds: 1})
	if err == nil || !strings.Contains(err.Error(), "interactive") {
		t.Fatalf("expected interactive command to be blocked, got %v", err)
	}
}

func TestTerminalToolRejectsBadQuoting(t *testing.T) {
	tool := NewTerminalTool([]string{"echo"})
	if _, err := runTerminal(t, tool, `echo "unterminated`, Meta{Workspace: ".", ToolTimeoutSeconds: 1}); err == nil {
		t.Fatalf("expected quoting error")
	}
}

func TestTerminalToolRejectsCwdEscape(t *testing.T) {
	tool := NewTerminalTool([]string{"echo"})
	input, _ := json.Marshal(map[string]any{"command": "echo hi", "cwd": "../.."})
	_, err := tool.Execute(context.Background(), input, Meta{Workspace: t.TempDir(), ToolTimeoutSeconds: 1})
	if err == nil {
		t.Fatalf("expected cwd escape to be rejected")
	}
}

func TestTerminalWithHintsDetectsEcho(t *testing.T) {
	requireEcho(t)
	tool := NewTerminalTool([]string{"echo"}, WithCommandHints(true))
	res, err := runTerminal(t, tool, "echo hello", Meta{Workspace: t.TempDir(), ToolTimeoutSeconds: 5, MaxBytes: 1024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obs, ok := res.Payload.(TerminalObservation)
	if !ok {
		t.Fatalf("unexpected payload type %T", res.Payload)
	}
	if obs.ParsedTool != nil {
		t.Fatalf("expected no parsed tool for echo, got %q", *obs.ParsedTool)
	}
	if !reflect.DeepEqual(obs.ParsedArgv, []string{"echo", "hello"}) {
		t.Fatalf("unexpected parsed argv: %#v", obs.ParsedArgv)
	}
	if strings.TrimSpace(obs.Stdout) != "hello" {
		t.Fatalf("unexpected stdout %q", obs.Stdout)
	}
}

func TestTerminalWithoutHintsHasNoParsedFields(t *testing.T) {
	requireEcho(t)
	tool := NewTerminalTool([]string{"echo"})
	res, err := runTerminal(t, tool, "echo hello", Meta{Workspace: t.TempDir(), ToolTimeoutSeconds: 5, MaxBytes: 1024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obs := res.Payload.(TerminalObservation)
	if obs.ParsedTool != nil || obs.ParsedArgv != nil {
		t.Fatalf("expected parsed fields unset, got %v %#v", obs.ParsedTool, obs.ParsedArgv)
	}
	data, _ := json.Marshal(obs)
	if strings.Contains(string(data), "parsed_") {
		t.Fatalf("expected parsed fields omitted from json: %s", data)
	}
}

func TestTerminalHintForRipgrepInvocation(t *testing.T) {
	requireEcho(t)
	// echo stands in for rg so the test does not depend on ripgrep being installed.
	tool := NewTerminalTool([]string{"echo"}, WithCommandHints(true))
	res, err := runTerminal(t, tool, "RIPGREP_CONFIG_PATH=cfg echo rg", Meta{Workspace: t.TempDir(), ToolTimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obs := res.Payload.(TerminalObservation)
	if obs.ParsedTool != nil {
		t.Fatalf("expected echo to carry no hint")
	}
	if len(obs.ParsedArgv) != 3 || obs.ParsedArgv[0] != "RIPGREP_CONFIG_PATH=cfg" {
		t.Fatalf("expected full argv including assignment, got %#v", obs.ParsedArgv)
	}
}

func TestTerminalEnvAssignments(t *testing.T) {
	if _, err := exec.LookPath("printenv"); err != nil {
		t.Skip("printenv not available")
	}
	tool := NewTerminalTool([]string{"printenv"})
	res, err := runTerminal(t, tool, "AGT_TEST_VALUE='a b' printenv AGT_TEST_VALUE", Meta{Workspace: t.TempDir(), ToolTimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obs := res.Payload.(TerminalObservation)
	if strings.TrimSpace(obs.Stdout) != "a b" {
		t.Fatalf("expected assignment to reach the process env, got %q", obs.Stdout)
	}
}
