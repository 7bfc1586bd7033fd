// Package config loads, validates and writes v2df project files.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/v2df/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Extensions lists the supported config formats in lookup order.
var Extensions = []string{".json", ".yaml", ".yml", ".toml"}

// Find returns the config file for path. A directory is searched for
// v2df_config with any supported extension.
func Find(path string) (string, error) {
	if path == "" {
		path = "."
	}
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return "", err
	}
	if !st.IsDir() {
		return path, nil
	}
	for _, ext := range Extensions {
		candidate := filepath.Join(path, domain.DefaultConfigName+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no %s.{json,yaml,yml,toml} in %s", domain.ErrConfigNotFound, domain.DefaultConfigName, path)
}

// Load finds, decodes, defaults and validates the config at path.
// Relative paths inside the file are resolved against the file's directory.
func Load(path string) (domain.Config, string, error) {
	file, err := Find(path)
	if err != nil {
		return domain.Config{}, "", err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return domain.Config{}, "", fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data, filepath.Ext(file))
	if err != nil {
		return domain.Config{}, "", fmt.Errorf("%s: %w", file, err)
	}
	return cfg, filepath.Dir(file), nil
}

// Parse decodes a config document of the given extension, applies defaults and validates it.
func Parse(data []byte, ext string) (domain.Config, error) {
	raw, err := decodeRaw(data, ext)
	if err != nil {
		return domain.Config{}, err
	}

	cfg := domain.DefaultConfig()
	cfg.Projects = nil
	projects, _ := raw["projects"].([]any)
	delete(raw, "projects")
	if err := decode(raw, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	for i, p := range projects {
		spec := domain.DefaultProject()
		if err := decode(p, &spec); err != nil {
			return domain.Config{}, fmt.Errorf("%w: projects[%d]: %v", domain.ErrInvalidConfig, i, err)
		}
		cfg.Projects = append(cfg.Projects, spec)
	}

	if err := Validate(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

func decodeRaw(data []byte, ext string) (map[string]any, error) {
	raw := map[string]any{}
	var err error
	switch strings.ToLower(ext) {
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", domain.ErrInvalidConfig, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", domain.ErrInvalidConfig, ext, err)
	}
	return raw, nil
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// Marshal encodes cfg in the format of ext.
func Marshal(cfg domain.Config, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case ".yaml", ".yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), enc.Close()
	case ".toml":
		return toml.Marshal(cfg)
	}
	return nil, fmt.Errorf("unsupported config format %q", ext)
}

// ErrExists is returned by WriteDefault when a config is already present.
var ErrExists = errors.New("config already exists")

// WriteDefault writes the default config into dir using the format of ext.
func WriteDefault(dir, ext string) (string, error) {
	if ext == "" {
		ext = ".json"
	}
	if existing, err := Find(dir); err == nil {
		return existing, fmt.Errorf("%w: %s", ErrExists, existing)
	}
	data, err := Marshal(domain.DefaultConfig(), ext)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, domain.DefaultConfigName+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
