// Package config loads the pgbind.toml configuration and resolves the
// database URL from the environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/pgbind/pgbind/pkg/codegen"
)

const envDatabaseURL = "DATABASE_URL"

// ErrDBURLNotFound is returned when no DATABASE_URL is available after .env
// loading.
var ErrDBURLNotFound = errors.New(
	"database URL not found, please set the " + envDatabaseURL + " environment variable")

// DBURL loads .env when present and reads DATABASE_URL.
func DBURL() (string, error) {
	_ = godotenv.Load()
	url := os.Getenv(envDatabaseURL)
	if url == "" {
		return "", ErrDBURLNotFound
	}
	return url, nil
}

// Source is the query directory list; the TOML value may be a single string
// or a list of strings.
type Source []string

func (s *Source) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		*s = Source{v}
		return nil
	case []any:
		paths := make(Source, 0, len(v))
		for _, item := range v {
			path, ok := item.(string)
			if !ok {
				return fmt.Errorf("path entries must be strings, found %T", item)
			}
			paths = append(paths, path)
		}
		*s = paths
		return nil
	}
	return fmt.Errorf("path must be a string or a list of strings, found %T", value)
}

// ModeKind names the configured code generator.
type ModeKind string

const (
	ModeJSON       ModeKind = "json"
	ModeSQLAlchemy ModeKind = "sqlalchemy"
)

// SQLAlchemyMode carries the generator options of the sqlalchemy mode table.
type SQLAlchemyMode struct {
	Async        bool
	ArgumentMode codegen.ArgumentMode
	TypeGen      codegen.TypeGen
}

// Mode is either the bare string "json" or a [mode.sqlalchemy] table.
type Mode struct {
	Kind       ModeKind
	SQLAlchemy SQLAlchemyMode
}

func (m *Mode) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		if ModeKind(v) != ModeJSON {
			return fmt.Errorf("unknown mode %q", v)
		}
		*m = Mode{Kind: ModeJSON}
		return nil
	case map[string]any:
		raw, ok := v[string(ModeSQLAlchemy)]
		if !ok || len(v) != 1 {
			return fmt.Errorf("mode table must contain exactly a %q entry", ModeSQLAlchemy)
		}
		table, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("mode.%s must be a table", ModeSQLAlchemy)
		}
		options, err := sqlalchemyOptions(table)
		if err != nil {
			return err
		}
		*m = Mode{Kind: ModeSQLAlchemy, SQLAlchemy: options}
		return nil
	}
	return fmt.Errorf("mode must be a string or a table, found %T", value)
}

func sqlalchemyOptions(table map[string]any) (SQLAlchemyMode, error) {
	options := SQLAlchemyMode{
		ArgumentMode: codegen.ArgumentPositional,
		TypeGen:      codegen.TypeGenPython,
	}
	for key, raw := range table {
		switch key {
		case "async":
			async, ok := raw.(bool)
			if !ok {
				return options, fmt.Errorf("async must be a boolean")
			}
			options.Async = async
		case "argument-mode":
			mode, _ := raw.(string)
			switch codegen.ArgumentMode(mode) {
			case codegen.ArgumentPositional, codegen.ArgumentKeyword:
				options.ArgumentMode = codegen.ArgumentMode(mode)
			default:
				return options, fmt.Errorf("unknown argument-mode %q", raw)
			}
		case "type-gen":
			gen, _ := raw.(string)
			switch codegen.TypeGen(gen) {
			case codegen.TypeGenPython, codegen.TypeGenPydantic:
				options.TypeGen = codegen.TypeGen(gen)
			default:
				return options, fmt.Errorf("unknown type-gen %q", raw)
			}
		default:
			return options, fmt.Errorf("unknown sqlalchemy option %q", key)
		}
	}
	return options, nil
}

// Features gates the experimental inference passes.
type Features struct {
	InferNullability       bool `toml:"infer-nullability"`
	PreciseOutputDatatypes bool `toml:"precise-output-datatypes"`
}

func (f Features) Nullability() bool      { return f.InferNullability }
func (f Features) TextLength() bool       { return f.PreciseOutputDatatypes }
func (f Features) DecimalPrecision() bool { return f.PreciseOutputDatatypes }

// Config is the decoded pgbind.toml.
type Config struct {
	Path                 Source   `toml:"path"`
	Target               string   `toml:"target"`
	Mode                 Mode     `toml:"mode"`
	ExperimentalFeatures Features `toml:"experimental-features"`
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if len(cfg.Path) == 0 {
		return nil, fmt.Errorf("config %s: path must be set", path)
	}
	if cfg.Target == "" {
		return nil, fmt.Errorf("config %s: target must be set", path)
	}
	if cfg.Mode.Kind == "" {
		return nil, fmt.Errorf("config %s: mode must be set", path)
	}
	return &cfg, nil
}

// Generator builds the code generator the config selects.
func (c *Config) Generator() codegen.CodeGen {
	if c.Mode.Kind == ModeSQLAlchemy {
		opts := c.Mode.SQLAlchemy
		return codegen.NewSQLAlchemy(opts.Async, opts.ArgumentMode, opts.TypeGen)
	}
	return codegen.NewJSON()
}
