package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"ag-tools/internal/config"
	"ag-tools/internal/hint"
	"ag-tools/internal/render"
	"ag-tools/internal/runner"
	"ag-tools/internal/tools"
	"ag-tools/internal/workspace"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "agt",
		Short:         "agt - agent tools: command hints, image reading, terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("workspace", "", "Workspace root; paths must stay inside it (default: enclosing git root)")
	flags.String("timeout", config.DefaultTimeout.String(), "Per-tool timeout (e.g. 10s)")
	flags.Bool("unsafe-shell", false, "Allow commands outside the allowlist")
	flags.StringSlice("shell-allow", nil, "Allow terminal command prefix (repeatable)")
	flags.Bool("command-hints", false, "Attach parsed_tool/parsed_argv to terminal observations")
	flags.Int("image-max-mb", config.DefaultImageMaxMB, "Maximum image size in MB")
	flags.Bool("no-vision", false, "Mark the consuming model as lacking vision")
	flags.Bool("json", false, "Output JSON only")
	flags.Bool("verbose", false, "Enable verbose logging")

	cmd.AddCommand(newHintCmd(), newRunCmd(), newToolsCmd())
	return cmd
}

type hintOutput struct {
	ParsedTool *string  `json:"parsed_tool"`
	ParsedArgv []string `json:"parsed_argv"`
}

func newHintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hint <command>",
		Short: "Detect the known CLI tool a command line invokes",
		Long:  "Detect the known CLI tool a command line invokes.\n\nPass the whole command line as a single quoted argument, e.g. agt hint 'rg \"a b\" src'.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			tool, argv := hint.Detect(args[0])
			out := hintOutput{ParsedArgv: argv}
			if tool != "" {
				out.ParsedTool = &tool
			}
			w := cmd.OutOrStdout()
			if cfg.JSON {
				return writeJSON(w, out)
			}
			if argv == nil {
				fmt.Fprintln(w, "unparseable command")
				return nil
			}
			if tool == "" {
				tool = "-"
			}
			fmt.Fprintf(w, "parsed_tool: %s\nparsed_argv: %s\n", tool, hint.Join(argv))
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <tool> [json-input]",
		Short: "Run a registered tool; input is read from stdin when omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			var input []byte
			if len(args) == 2 {
				input = []byte(args[1])
			} else {
				input, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			if !json.Valid(input) {
				return errors.New("tool input must be a JSON object")
			}

			logger := buildLogger(cfg.Verbose)
			defer func() { _ = logger.Sync() }()

			root, err := workspaceRoot(cfg.Workspace)
			if err != nil {
				return err
			}
			logger.Debug("workspace root", zap.String("root", root))

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			w := cmd.OutOrStdout()
			registry := runner.BuildRegistry(cfg)
			if cfg.JSON {
				record, runErr := runner.NewRunner(registry, nil, logger, cfg, root).Call(ctx, args[0], input)
				record.Events = nil
				if err := writeJSON(w, record); err != nil {
					return err
				}
				return runErr
			}

			renderer := render.NewStdoutRenderer(w, cfg.Verbose, false)
			defer func() { _ = renderer.Close() }()
			_, err = runner.NewRunner(registry, renderer, logger, cfg, root).Call(ctx, args[0], input)
			return err
		},
	}
}

type toolInfo struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Annotations *tools.Annotations `json:"annotations,omitempty"`
	Schema      map[string]any     `json:"schema"`
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List registered tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			registry := runner.BuildRegistry(cfg)
			var infos []toolInfo
			for _, name := range registry.Names() {
				tool, _ := registry.Get(name)
				info := toolInfo{Name: name, Description: tool.Description(), Schema: tool.Schema()}
				if ann, ok := registry.Annotations(name); ok {
					info.Annotations = &ann
				}
				infos = append(infos, info)
			}
			w := cmd.OutOrStdout()
			if cfg.JSON {
				return writeJSON(w, infos)
			}
			for _, info := range infos {
				summary, _, _ := strings.Cut(info.Description, "\n")
				fmt.Fprintf(w, "%s\t%s\n", info.Name, summary)
			}
			return nil
		},
	}
}

// workspaceRoot honours an explicit workspace as the containment boundary and
// only falls back to the enclosing git root when none is configured.
func workspaceRoot(configured string) (string, error) {
	if configured == "" {
		return workspace.FindRoot(".")
	}
	return filepath.Abs(configured)
}

func writeJSON(w io.Writer, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(payload))
	return err
}

func buildLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
