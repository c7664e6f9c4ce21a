package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

const (
	// DirName is the directory under the home directory holding ope's files
	DirName = ".ope"
	// ConfigFileName is the default config file name inside DirName
	ConfigFileName = "config.yaml"
	// CredentialsFileName is the default credentials file name inside DirName
	CredentialsFileName = "credentials"
	// DefaultMinPasswordLength is used by the check command when not configured
	DefaultMinPasswordLength = 8

	// EnvConfig overrides the config file location
	EnvConfig = "OPE_CONFIG"
	// EnvCredentialsFile overrides the credentials file location
	EnvCredentialsFile = "OPE_CREDENTIALS_FILE"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "ope-config.schema.json"

// ColorMode controls terminal styling
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ValidateColor checks if the given string is a valid ColorMode
func ValidateColor(mode string) (ColorMode, error) {
	switch ColorMode(mode) {
	case "", ColorAuto:
		return ColorAuto, nil
	case ColorAlways:
		return ColorAlways, nil
	case ColorNever:
		return ColorNever, nil
	default:
		return "", fmt.Errorf("invalid color mode %q: must be 'auto', 'always', or 'never'", mode)
	}
}

// Config holds ope settings
type Config struct {
	CredentialsFile   string    `yaml:"credentials_file"`
	MinPasswordLength int       `yaml:"min_password_length"`
	Color             ColorMode `yaml:"color"`
	PolicyFile        string    `yaml:"policy_file,omitempty"`

	// Source is the config file the settings were read from, empty for defaults
	Source string `yaml:"-"`
}

// Default returns the built-in configuration
func Default() (*Config, error) {
	dir, err := HomeDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		CredentialsFile:   filepath.Join(dir, CredentialsFileName),
		MinPasswordLength: DefaultMinPasswordLength,
		Color:             ColorAuto,
	}, nil
}

// HomeDir returns ~/.ope
func HomeDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName), nil
}

// Resolve loads the configuration using the following precedence:
//  1. explicit path (the --config flag)
//  2. OPE_CONFIG environment variable
//  3. ~/.ope/config.yaml, if it exists
//
// OPE_CREDENTIALS_FILE then overrides the credentials file location.
func Resolve(explicit string) (*Config, error) {
	path := explicit
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	var cfg *Config
	var err error
	if path != "" {
		cfg, err = Load(path)
	} else {
		cfg, err = loadDefault()
	}
	if err != nil {
		return nil, err
	}

	if f := os.Getenv(EnvCredentialsFile); f != "" {
		cfg.CredentialsFile = f
	}
	return cfg, nil
}

func loadDefault() (*Config, error) {
	dir, err := HomeDir()
	if err != nil {
		return nil, err
	}
	cfg, err := Load(filepath.Join(dir, ConfigFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return Default()
	}
	return cfg, err
}

// Load reads and validates the YAML config file at path.
// Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg.Source = path

	// relative paths in the config file are relative to the file itself
	base := filepath.Dir(path)
	cfg.CredentialsFile = resolvePath(base, cfg.CredentialsFile)
	if cfg.PolicyFile != "" {
		cfg.PolicyFile = resolvePath(base, cfg.PolicyFile)
	}
	return cfg, nil
}

// Parse decodes and validates YAML configuration from r
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if err := validate(data); err != nil {
		return nil, err
	}

	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Color, err = ValidateColor(string(cfg.Color)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks the YAML document against the embedded JSON schema
func validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	// round-trip through JSON so the validator sees JSON types
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config is not representable as JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	sch, err := compileSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to load config schema: %w", err)
	}
	return c.Compile(schemaURL)
}

func resolvePath(base, path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// PrintConfiguration writes the effective settings to w
func (c *Config) PrintConfiguration(w io.Writer) {
	source := c.Source
	if source == "" {
		source = "(defaults)"
	}
	fmt.Fprintf(w, "Config: %s\n", source)
	fmt.Fprintf(w, "  Credentials file: %s\n", c.CredentialsFile)
	fmt.Fprintf(w, "  Minimum password length: %d\n", c.MinPasswordLength)
	fmt.Fprintf(w, "  Color: %s\n", c.Color)
	if c.PolicyFile != "" {
		fmt.Fprintf(w, "  Policy file: %s\n", c.PolicyFile)
	}
}
