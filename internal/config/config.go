// Package config loads dpe.toml: defaults, then the TOML file, then
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

// FileName is the configuration file looked up in a datapack root.
const FileName = "dpe.toml"

// Environment overrides.
const (
	EnvLogLevel   = "DPE_LOG_LEVEL"
	EnvSchemaDirs = "DPE_SCHEMA_DIRS"
)

type Config struct {
	Log     LogConfig     `toml:"log"`
	JSON    JSONConfig    `toml:"json"`
	Schemas SchemasConfig `toml:"schemas"`
	Grammar GrammarConfig `toml:"grammar"`
	Lint    LintConfig    `toml:"lint"`
	Format  FormatConfig  `toml:"format"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type JSONConfig struct {
	AllowMultilineStrings bool `toml:"allow_multiline_strings"`
}

type SchemasConfig struct {
	// Dirs hold schema documents and libraries, relative to the config file.
	Dirs []string        `toml:"dirs"`
	Map  []SchemaMapping `toml:"map"`
}

// SchemaMapping assigns a schema to the files matching Pattern. Patterns are
// slash-separated globs relative to the datapack root; `**` crosses
// directories.
type SchemaMapping struct {
	Pattern  string `toml:"pattern"`
	Schema   string `toml:"schema"`
	Language string `toml:"language"`

	g glob.Glob
}

type GrammarConfig struct {
	// Commands is a brigadier commands.json report. Empty selects the
	// bundled grammar.
	Commands string `toml:"commands"`
}

type LintConfig struct {
	Disable []string `toml:"disable"`
}

// FormatConfig drives the JSON formatter. Zero values select the formatter
// defaults.
type FormatConfig struct {
	LineWidth int    `toml:"line_width"`
	Indent    string `toml:"indent"`
	Expand    bool   `toml:"expand"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Log:     LogConfig{Level: "warn"},
		Schemas: SchemasConfig{Dirs: []string{"schemas"}},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins). A missing
// file is not an error. Relative paths in the file are resolved against its
// directory.
func Load(file string) (Config, error) {
	cfg := Default()
	if file == "" {
		file = FileName
	}

	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", file, err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return Config{}, fmt.Errorf("parse %s: unknown key %s", file, undec[0])
		}
		cfg.resolve(filepath.Dir(file))
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read %s: %w", file, err)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvSchemaDirs); v != "" {
		cfg.Schemas.Dirs = filepath.SplitList(v)
	}

	if err := cfg.compile(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) resolve(dir string) {
	for i, d := range c.Schemas.Dirs {
		if !filepath.IsAbs(d) {
			c.Schemas.Dirs[i] = filepath.Join(dir, d)
		}
	}
	if c.Grammar.Commands != "" && !filepath.IsAbs(c.Grammar.Commands) {
		c.Grammar.Commands = filepath.Join(dir, c.Grammar.Commands)
	}
}

func (c *Config) compile() error {
	for i := range c.Schemas.Map {
		m := &c.Schemas.Map[i]
		g, err := glob.Compile(m.Pattern, '/')
		if err != nil {
			return fmt.Errorf("schema mapping %q: %w", m.Pattern, err)
		}
		m.g = g
	}
	return nil
}

// LogLevel parses Log.Level. Unknown levels select warn.
func (c Config) LogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelWarn
	}
	return l
}

// Mapping returns the first schema mapping matching the slash-separated,
// datapack-relative file path.
func (c Config) Mapping(rel string) (SchemaMapping, bool) {
	rel = strings.TrimPrefix(path.Clean(filepath.ToSlash(rel)), "./")
	for _, m := range c.Schemas.Map {
		if m.g != nil && m.g.Match(rel) {
			return m, true
		}
	}
	return SchemaMapping{}, false
}

// RuleEnabled reports whether the lint rule id is not disabled.
func (c Config) RuleEnabled(id string) bool {
	return !slices.Contains(c.Lint.Disable, id)
}
