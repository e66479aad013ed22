package confloader

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "FINTRACK_"

// Loader merges configuration layers into one koanf instance.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string

	defaults  map[string]any
	filePath  string
	fileMust  bool
	overrides map[string]any
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile sets a YAML file that must exist.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath, l.fileMust = path, true }
}

// WithOptionalConfigFile sets a YAML file that is skipped when absent.
func WithOptionalConfigFile(path string) Option {
	return func(l *Loader) { l.filePath, l.fileMust = path, false }
}

// WithDefaults sets the lowest layer. Keys may be nested maps or dotted paths.
func WithDefaults(defaults map[string]any) Option {
	return func(l *Loader) { l.defaults = defaults }
}

// WithOverrides sets the highest layer, normally parsed command-line flags.
func WithOverrides(overrides map[string]any) Option {
	return func(l *Loader) { l.overrides = overrides }
}

// NewLoader creates a loader. Without options it reads only the environment.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load applies defaults, file, environment and overrides, each layer
// replacing the keys it sets, then unmarshals into target using koanf tags.
func (l *Loader) Load(target any) error {
	layers := []struct {
		name string
		load func() error
	}{
		{"defaults", func() error { return l.LoadMap(l.defaults) }},
		{"config file", l.loadConfigFile},
		{"env", l.LoadEnv},
		{"overrides", func() error { return l.LoadMap(l.overrides) }},
	}
	for _, layer := range layers {
		if err := layer.load(); err != nil {
			return fmt.Errorf("%s: %w", layer.name, err)
		}
	}
	return l.Unmarshal(target)
}

func (l *Loader) loadConfigFile() error {
	if l.filePath == "" {
		return nil
	}
	err := l.LoadFile(l.filePath)
	if err != nil && !l.fileMust && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// LoadFile merges a YAML file.
func (l *Loader) LoadFile(path string) error {
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// LoadEnv merges prefixed environment variables. A variable matching a
// key already loaded keeps that key's underscores, so
// FINTRACK_STORAGE_SYNC_WRITES sets storage.sync_writes. Other variables
// map every underscore to a dot.
func (l *Loader) LoadEnv() error {
	known := make(map[string]string)
	for _, key := range l.k.Keys() {
		known[strings.ReplaceAll(key, ".", "_")] = key
	}

	toKey := func(name string) string {
		name = strings.ToLower(strings.TrimPrefix(name, l.envPrefix))
		if key, ok := known[name]; ok {
			return key
		}
		return strings.ReplaceAll(name, "_", ".")
	}
	return l.k.Load(env.Provider(l.envPrefix, ".", toKey), nil)
}

// LoadMap merges an in-memory map. A nil map is a no-op.
func (l *Loader) LoadMap(data map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	return l.k.Load(mapProvider(data), nil)
}

// Unmarshal decodes everything loaded so far into target.
func (l *Loader) Unmarshal(target any) error {
	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

// String returns the merged value of key as a string.
func (l *Loader) String(key string) string {
	return l.k.String(key)
}

// Keys returns all loaded keys.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}
