package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	intconfig "github.com/rulesets-dev/rulesets/internal/config"
	"github.com/rulesets-dev/rulesets/internal/state"
)

type (
	configKey struct{}
	loggerKey struct{}
)

// flagKeys maps flag names to config keys. Flags not listed here do not
// take part in configuration.
var flagKeys = map[string]string{
	"rules-dir":    "paths.rules",
	"partials-dir": "paths.partials",
	"output-dir":   "output",
	"state":        "state",
	"destination":  "destinations",
	"log-level":    "log_level",
	"log-format":   "log_format",
	"format":       "format",
	"concurrency":  "concurrency",
}

// pathFlags are resolved against the working directory, not the project root.
var pathFlags = map[string]bool{
	"rules-dir":    true,
	"partials-dir": true,
	"output-dir":   true,
	"state":        true,
}

// Load loads configuration from defaults, the project config file,
// RULESETS_ environment variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	root, err := inferProjectRoot(cfgFile, flags)
	if err != nil {
		return nil, err
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"output":     intconfig.DefaultOutputDir,
		"state":      intconfig.DefaultStateFile,
		"log_level":  DefaultLogLevel,
		"log_format": DefaultLogFormat,
		"format":     DefaultFormat,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Project config file
	if cfgFile == "" {
		cfgFile = intconfig.FindConfigFile(root)
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment: RULESETS_LOG_LEVEL -> log_level, RULESETS_PATHS__RULES -> paths.rules
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			if pathFlags[f.Name] {
				return key, absFlagPath(f.Value.String())
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	intconfig.DropInvalidPaths(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := k.Unmarshal("", &cfg.Project); err != nil {
		return nil, fmt.Errorf("unable to decode project config: %w", err)
	}
	intconfig.ApplyDefaults(&cfg.Project)

	cfg.ProjectRoot = root
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			cfgFile = abs
		}
		cfg.ConfigFile = cfgFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// envKey converts an environment variable into a config key and value.
// Destinations are given as a comma-separated list.
func envKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if key == "destinations" {
		var names []string
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		return key, names
	}
	return key, value
}

func absFlagPath(v string) string {
	if v == "" || v == state.MemoryPath {
		return v
	}
	if abs, err := filepath.Abs(v); err == nil {
		return abs
	}
	return filepath.Clean(v)
}

// inferProjectRoot determines the project root.
// Priority:
//  1. Explicit --project-dir flag
//  2. The project owning an explicit --config file
//  3. The nearest ancestor of the working directory containing .ruleset/
//  4. The working directory
func inferProjectRoot(cfgFile string, flags *pflag.FlagSet) (string, error) {
	if flags != nil && flags.Changed("project-dir") {
		dir, _ := flags.GetString("project-dir")
		return filepath.Abs(dir)
	}

	if cfgFile != "" {
		abs, err := filepath.Abs(cfgFile)
		if err != nil {
			return "", fmt.Errorf("failed to resolve config file: %w", err)
		}
		dir := filepath.Dir(abs)
		if filepath.Base(dir) == intconfig.RulesetDir {
			return filepath.Dir(dir), nil
		}
		return dir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	if root := intconfig.FindProjectRoot(cwd); root != "" {
		return root, nil
	}
	return cwd, nil
}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the config from ctx, or the defaults if none was stored.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return Default()
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from ctx.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
