package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
)

const (
	// DefaultPath is the project config file looked up in the working directory
	DefaultPath = ".cfworker.json"

	DefaultMainScript        = "worker.js"
	DefaultCompatibilityDate = "2024-01-01"

	AccountIDEnv = "CLOUDFLARE_ACCOUNT_ID"
	APITokenEnv  = "CLOUDFLARE_API_TOKEN"
)

// Env looks up an environment variable, returning "" when unset
type Env func(key string) string

// Credentials holds the API authentication info. It is read from the
// environment and never written to the config file.
type Credentials struct {
	AccountID string
	APIToken  string
}

// Config is a project config file bound to its path, environment and
// working directory
type Config struct {
	Settings

	path    string
	env     Env
	workDir string
}

// Option configures a Config
type Option func(*Config)

// WithEnv replaces the process environment lookup
func WithEnv(env Env) Option {
	return func(c *Config) {
		c.env = env
	}
}

// WithWorkDir sets the directory the main script is resolved against
func WithWorkDir(dir string) Option {
	return func(c *Config) {
		c.workDir = dir
	}
}

// New creates an empty config for path without touching the file system
func New(path string, opts ...Option) *Config {
	if path == "" {
		path = DefaultPath
	}

	c := &Config{
		path: path,
		env:  os.Getenv,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		c.workDir = wd
	}

	return c
}

// Load reads the config file at path
func Load(path string, opts ...Option) (*Config, error) {
	c := New(path, opts...)
	if err := c.Load(); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateDefault writes a config with default settings for workerName and
// returns it
func CreateDefault(workerName, path string, opts ...Option) (*Config, error) {
	c := New(path, opts...)
	c.Settings = Defaults(workerName)

	if err := c.Save(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the config file, replacing the in-memory settings
func (c *Config) Load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &NotFoundError{Path: c.path}
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return &ParseError{Path: c.path, Err: err}
	}
	s.applyDefaults()

	c.Settings = s
	return nil
}

// Save writes the in-memory settings back to the config file
func (c *Config) Save() error {
	return Write(c.path, c.Settings)
}

// Write serializes settings to path, overwriting any existing file
func Write(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.path
}

// WorkDir returns the directory the main script is resolved against
func (c *Config) WorkDir() string {
	return c.workDir
}

// Get returns the value stored under key, or def when it is absent
func (c *Config) Get(key string, def any) any {
	doc, err := c.Settings.document()
	if err != nil {
		return def
	}

	raw, ok := doc[key]
	if !ok {
		return def
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return def
	}
	return value
}

// Set stores value under key. Known keys are decoded into their typed field,
// so the value must have a compatible JSON shape.
func (c *Config) Set(key string, value any) error {
	doc, err := c.Settings.document()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	doc[key] = raw

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	var next Settings
	if err := json.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	c.Settings = next
	return nil
}

// Credentials reads the credentials from the environment
func (c *Config) Credentials() Credentials {
	return Credentials{
		AccountID: c.AccountID(),
		APIToken:  c.APIToken(),
	}
}

// AccountID returns the Cloudflare account ID from the environment
func (c *Config) AccountID() string {
	return strings.TrimSpace(c.env(AccountIDEnv))
}

// APIToken returns the Cloudflare API token from the environment
func (c *Config) APIToken() string {
	return strings.TrimSpace(c.env(APITokenEnv))
}

// ScriptPath resolves the main script against the working directory
func (c *Config) ScriptPath() string {
	main := c.Main()
	if filepath.IsAbs(main) {
		return main
	}
	return filepath.Join(c.workDir, main)
}

// Validate checks that a deployment is possible. Every check runs so all
// unmet preconditions are reported together.
func (c *Config) Validate() (bool, []string) {
	var errs []string

	if c.AccountID() == "" {
		errs = append(errs, fmt.Sprintf("%s not set in environment", AccountIDEnv))
	}

	if c.APIToken() == "" {
		errs = append(errs, fmt.Sprintf("%s not set in environment", APITokenEnv))
	}

	if c.WorkerName == "" {
		errs = append(errs, "worker_name not set in config")
	}

	if _, err := os.Stat(c.ScriptPath()); err != nil {
		errs = append(errs, fmt.Sprintf("Main script not found: %s", c.Main()))
	}

	return len(errs) == 0, errs
}
