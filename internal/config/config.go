package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultShellBytes   = 20 * 1024
	DefaultImageMaxMB   = 10
	DefaultOutputFormat = "text"
)

// ToolLimits controls max output and input sizes for tools.
type ToolLimits struct {
	ShellMaxBytes int `mapstructure:"shell_max_bytes"`
	ImageMaxMB    int `mapstructure:"image_max_mb"`
}

// Config holds runtime configuration values.
type Config struct {
	Workspace          string
	Timeout            time.Duration
	UnsafeShell        bool
	ShellAllowlist     []string
	EnableCommandHints bool
	VisionEnabled      bool
	JSON               bool
	Verbose            bool
	ToolLimits         ToolLimits
}

type rawConfig struct {
	Workspace          string     `mapstructure:"workspace"`
	Timeout            string     `mapstructure:"timeout"`
	UnsafeShell        bool       `mapstructure:"unsafe_shell"`
	ShellAllow         []string   `mapstructure:"shell_allow"`
	EnableCommandHints bool       `mapstructure:"enable_command_hints"`
	VisionEnabled      bool       `mapstructure:"vision_enabled"`
	NoVision           bool       `mapstructure:"no_vision"`
	JSON               bool       `mapstructure:"json"`
	OutputFormat       string     `mapstructure:"output_format"`
	Verbose            bool       `mapstructure:"verbose"`
	ToolLimits         ToolLimits `mapstructure:"tool_limits"`
}

// Load resolves configuration from defaults, config files, env, and flags.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AGT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("workspace", "")
	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("unsafe_shell", false)
	v.SetDefault("shell_allow", []string{})
	v.SetDefault("enable_command_hints", false)
	v.SetDefault("vision_enabled", true)
	v.SetDefault("no_vision", false)
	v.SetDefault("json", false)
	v.SetDefault("output_format", DefaultOutputFormat)
	v.SetDefault("verbose", false)
	v.SetDefault("tool_limits.shell_max_bytes", DefaultShellBytes)
	v.SetDefault("tool_limits.image_max_mb", DefaultImageMaxMB)

	if cmd != nil {
		flags := cmd.Flags()
		bind := func(key, flag string) {
			if f := flags.Lookup(flag); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
		bind("workspace", "workspace")
		bind("timeout", "timeout")
		bind("unsafe_shell", "unsafe-shell")
		bind("shell_allow", "shell-allow")
		bind("enable_command_hints", "command-hints")
		bind("no_vision", "no-vision")
		bind("json", "json")
		bind("verbose", "verbose")
		bind("tool_limits.image_max_mb", "image-max-mb")
	}

	if seconds := os.Getenv("AGT_TIMEOUT_SECONDS"); seconds != "" {
		v.Set("timeout", seconds+"s")
	}

	if err := loadConfigFile(v); err != nil {
		return Config{}, err
	}

	var raw rawConfig
	decoder, _ := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           &raw,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, err
	}

	timeout := DefaultTimeout
	if raw.Timeout != "" {
		parsed, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid timeout duration: %w", err)
		}
		timeout = parsed
	}

	jsonOutput := raw.JSON
	if cmd != nil && cmd.Flags().Changed("json") {
		jsonOutput = v.GetBool("json")
	} else if strings.EqualFold(raw.OutputFormat, "json") {
		jsonOutput = true
	}

	cfg := Config{
		Workspace:          raw.Workspace,
		Timeout:            timeout,
		UnsafeShell:        raw.UnsafeShell,
		ShellAllowlist:     compact(raw.ShellAllow),
		EnableCommandHints: raw.EnableCommandHints,
		VisionEnabled:      raw.VisionEnabled && !raw.NoVision,
		JSON:               jsonOutput,
		Verbose:            raw.Verbose,
		ToolLimits:         raw.ToolLimits,
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Timeout < time.Second {
		return Config{}, fmt.Errorf("invalid timeout %s: tool timeouts have one-second granularity", cfg.Timeout)
	}
	if cfg.ToolLimits.ShellMaxBytes <= 0 {
		cfg.ToolLimits.ShellMaxBytes = DefaultShellBytes
	}
	if cfg.ToolLimits.ImageMaxMB <= 0 {
		cfg.ToolLimits.ImageMaxMB = DefaultImageMaxMB
	}

	return cfg, nil
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func loadConfigFile(v *viper.Viper) error {
	if path := os.Getenv("AGT_CONFIG"); path != "" {
		v.SetConfigFile(path)
		return v.ReadInConfig()
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(configDir, "ag-tools")
	candidates := []string{
		filepath.Join(base, "config.yaml"),
		filepath.Join(base, "config.yml"),
		filepath.Join(base, "config.json"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
			return nil
		}
	}
	return nil
}
