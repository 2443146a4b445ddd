package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudflare/cfworker/internal/api"
	"github.com/cloudflare/cfworker/internal/config"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

const tokensURL = "https://dash.cloudflare.com/profile/api-tokens"

// Manager walks the user through storing Cloudflare credentials in the
// project .env file
type Manager struct {
	dir    string
	in     *bufio.Reader
	out    io.Writer
	fd     int
	setenv func(key, value string) error
}

// Option configures a Manager
type Option func(*Manager)

// WithInput reads answers from r. Secrets are then read as plain lines.
func WithInput(r io.Reader) Option {
	return func(m *Manager) {
		m.in = bufio.NewReader(r)
		m.fd = -1
	}
}

// WithOutput writes prompts to w
func WithOutput(w io.Writer) Option {
	return func(m *Manager) {
		m.out = w
	}
}

// WithSetenv replaces os.Setenv for exporting saved credentials
func WithSetenv(fn func(key, value string) error) Option {
	return func(m *Manager) {
		m.setenv = fn
	}
}

// NewManager creates a manager writing to dir/.env
func NewManager(dir string, opts ...Option) *Manager {
	m := &Manager{
		dir:    dir,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		fd:     int(os.Stdin.Fd()),
		setenv: os.Setenv,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnvPath returns the .env file the manager writes
func (m *Manager) EnvPath() string {
	return filepath.Join(m.dir, config.DotEnvFile)
}

// Setup prompts for credentials and saves them
func (m *Manager) Setup() (config.Credentials, error) {
	creds, err := m.Prompt()
	if err != nil {
		return config.Credentials{}, err
	}
	if err := m.Save(creds); err != nil {
		return config.Credentials{}, err
	}
	return creds, nil
}

// Prompt asks for the account ID and the API token. The token is not echoed
// when reading from a terminal.
func (m *Manager) Prompt() (config.Credentials, error) {
	fmt.Fprintln(m.out, "\n🔑 Cloudflare Credentials Setup")
	fmt.Fprintln(m.out, "\nYou'll need:")
	fmt.Fprintln(m.out, "  1. Account ID - found in your Cloudflare dashboard")
	fmt.Fprintf(m.out, "  2. API Token - create one at %s\n", tokensURL)
	fmt.Fprintln(m.out, "     Required permissions: Workers Scripts: Edit")

	fmt.Fprint(m.out, "\nEnter your Cloudflare Account ID: ")
	accountID, err := m.readLine()
	if err != nil {
		return config.Credentials{}, fmt.Errorf("failed to read account ID: %w", err)
	}
	if accountID == "" {
		return config.Credentials{}, errors.New("account ID cannot be empty")
	}

	fmt.Fprint(m.out, "Enter your Cloudflare API Token: ")
	token, err := m.readSecret()
	if err != nil {
		return config.Credentials{}, fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return config.Credentials{}, errors.New("token cannot be empty")
	}

	return config.Credentials{AccountID: accountID, APIToken: token}, nil
}

// Save writes creds to the .env file, keeping any other entries, and exports
// them to the process environment
func (m *Manager) Save(creds config.Credentials) error {
	values := map[string]string{}

	existing, err := godotenv.Read(m.EnvPath())
	switch {
	case err == nil:
		values = existing
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to read %s: %w", m.EnvPath(), err)
	}

	for k, v := range config.CredentialsEnv(creds) {
		values[k] = v
	}

	if err := config.WriteDotEnv(m.EnvPath(), values); err != nil {
		return err
	}

	for k, v := range config.CredentialsEnv(creds) {
		if err := m.setenv(k, v); err != nil {
			return fmt.Errorf("failed to export %s: %w", k, err)
		}
	}

	return nil
}

// Verify checks the credentials against the API
func Verify(ctx context.Context, creds config.Credentials, opts ...api.Option) (bool, error) {
	client, err := api.NewClient(creds.APIToken, creds.AccountID, opts...)
	if err != nil {
		return false, err
	}
	return client.VerifyToken(ctx)
}

func (m *Manager) readLine() (string, error) {
	line, err := m.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (m *Manager) readSecret() (string, error) {
	if m.fd < 0 || !term.IsTerminal(m.fd) {
		return m.readLine()
	}

	secret, err := term.ReadPassword(m.fd)
	fmt.Fprintln(m.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(secret)), nil
}
