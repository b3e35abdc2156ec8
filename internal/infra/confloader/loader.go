// Package confloader loads layered configuration with koanf.
//
// Sources are applied lowest first: values already in the target struct,
// the YAML file, environment variables, then explicit overrides such as
// command line flags.
package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DefaultEnvPrefix = "REFSTATE_"

	// DefaultEnvSeparator separates sections in variable names so that keys
	// may keep single underscores: REFSTATE_REFERENCE__MAX_DOCUMENTS.
	DefaultEnvSeparator = "__"
)

// Loader merges configuration sources into a koanf instance.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	envSep    string
	filePath  string
	overrides overrides
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithEnvSeparator sets the section separator used in variable names.
func WithEnvSeparator(sep string) Option {
	return func(l *Loader) { l.envSep = sep }
}

// WithConfigFile sets the YAML file to read. Empty means no file.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// WithOverrides sets dotted-key values applied after the environment.
// Repeated calls add to the set.
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		if l.overrides == nil {
			l.overrides = make(overrides, len(values))
		}
		for k, v := range values {
			l.overrides[k] = v
		}
	}
}

// NewLoader returns a Loader with the default environment naming.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
		envSep:    DefaultEnvSeparator,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every configured source and unmarshals the merged result
// into target. Keys absent from all sources keep target's values.
func (l *Loader) Load(target any) error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"config file", func() error { return l.LoadFile(l.filePath) }},
		{"env", l.LoadEnv},
		{"overrides", func() error { return l.LoadMap(l.overrides) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("load %s: %w", s.name, err)
		}
	}

	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// Reload drops everything merged so far and runs Load again, typically
// after the config file changed on disk.
func (l *Loader) Reload(target any) error {
	l.k = koanf.New(".")
	return l.Load(target)
}

// FilePath returns the configured YAML file path.
func (l *Loader) FilePath() string {
	return l.filePath
}

// LoadFile merges a YAML file. An empty path is a no-op.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadEnv merges variables named PREFIX + SECTION + separator + KEY.
// REFSTATE_SERVER__HTTP__BASE_PATH sets server.http.base_path.
func (l *Loader) LoadEnv() error {
	sep := strings.ToLower(l.envSep)
	transform := func(name string) string {
		name = strings.ToLower(strings.TrimPrefix(name, l.envPrefix))
		return strings.ReplaceAll(name, sep, ".")
	}
	return l.k.Load(env.Provider(l.envPrefix, ".", transform), nil)
}

// LoadMap merges dotted-key values over what is loaded.
func (l *Loader) LoadMap(values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	return l.k.Load(overrides(values), nil)
}

// Unmarshal decodes the merged configuration using koanf struct tags.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}

// Value returns the merged value at a dotted key, or nil.
func (l *Loader) Value(key string) any {
	return l.k.Get(key)
}

// All returns the merged configuration as a flat dotted-key map.
func (l *Loader) All() map[string]any {
	return l.k.All()
}
