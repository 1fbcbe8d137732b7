package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/rulesets-dev/rulesets/pkg/core"
)

// ConfigFileName is the name of the project config file inside .ruleset/.
const ConfigFileName = "config.yaml"

// ConfigFileNameAlt is the alternate name of the project config file.
const ConfigFileNameAlt = "config.yml"

// LoadFromDir loads a ProjectConfig from the project root dir.
// It looks for .ruleset/config.yaml or .ruleset/config.yml.
// Returns nil, nil if no config file is found (not an error condition).
func LoadFromDir(dir string) (*core.ProjectConfig, error) {
	configPath := FindConfigFile(dir)
	if configPath == "" {
		return nil, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads a ProjectConfig from an explicit file.
func LoadFile(path string) (*core.ProjectConfig, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	DropInvalidPaths(k)

	var cfg core.ProjectConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config %s: %w", path, err)
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// FindConfigFile returns the config file for the project rooted at dir.
// Returns empty string if not found.
func FindConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, RulesetDir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// FindProjectRoot walks up from startDir to find a directory containing .ruleset/.
// Returns empty string if not found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, RulesetDir)); err == nil && info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}

// DropInvalidPaths removes path overrides that are not strings so that a
// malformed entry falls back to its default instead of failing the load.
func DropInvalidPaths(k *koanf.Koanf) {
	if !k.Exists("paths") {
		return
	}
	if _, ok := k.Get("paths").(map[string]any); !ok {
		k.Delete("paths")
		return
	}
	for _, key := range []string{"paths.rules", "paths.partials", "paths.templates"} {
		if !k.Exists(key) {
			continue
		}
		if _, ok := k.Get(key).(string); !ok {
			k.Delete(key)
		}
	}
}
