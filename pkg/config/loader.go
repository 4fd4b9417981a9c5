package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader reads specfactory.yaml plus per-category YAML files, expands
// environment placeholders, merges over built-in defaults, and validates
// the result. Mirrors the teacher's configLoader.load/loadYAML pipeline.
type Loader struct {
	configDir string
}

func NewLoader(configDir string) *Loader {
	return &Loader{configDir: configDir}
}

// Load performs load -> merge -> validate and logs a summary, matching the
// teacher's Initialize(ctx, configDir) contract.
func Load(ctx context.Context, configDir string) (*SpecFactoryConfig, error) {
	l := NewLoader(configDir)
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "configuration loaded",
		"config_dir", configDir,
		"categories", len(cfg.Categories),
		"max_rounds", cfg.Round.MaxRounds,
		"fetch_concurrency", cfg.Fetch.Concurrency,
	)
	return cfg, nil
}

func (l *Loader) load() (*SpecFactoryConfig, error) {
	builtin := BuiltinDefaults()

	user, err := l.loadYAML("specfactory.yaml")
	if err != nil {
		if os.IsNotExist(err) {
			user = &SpecFactoryConfig{}
		} else {
			return nil, err
		}
	}

	if err := mergeOverride(builtin, user); err != nil {
		return nil, NewLoadError("specfactory.yaml", err)
	}

	categoryDir := filepath.Join(l.configDir, "categories")
	userCategories, err := l.loadCategories(categoryDir)
	if err != nil {
		return nil, err
	}
	builtin.Categories = mergeCategories(builtin.Categories, userCategories)

	return builtin, nil
}

func (l *Loader) loadYAML(name string) (*SpecFactoryConfig, error) {
	path := filepath.Join(l.configDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	expanded := ExpandEnv(data)

	var cfg SpecFactoryConfig
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, NewLoadError(path, err)
	}
	return &cfg, nil
}

func (l *Loader) loadCategories(dir string) (map[string]CategoryConfig, error) {
	result := make(map[string]CategoryConfig)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, NewLoadError(dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, NewLoadError(path, err)
		}
		var cat CategoryConfig
		if err := yaml.Unmarshal(ExpandEnv(data), &cat); err != nil {
			return nil, NewLoadError(path, err)
		}
		if cat.Name == "" {
			cat.Name = stripExt(entry.Name())
		}
		result[cat.Name] = cat
	}
	return result, nil
}

func stripExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
