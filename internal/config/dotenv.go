package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DotEnvFile is the env file read from the working directory at startup
const DotEnvFile = ".env"

// LoadDotEnv loads dir/.env into the process environment if it exists.
// Variables that are already set are left untouched.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, DotEnvFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// WriteDotEnv writes values as KEY="value" lines, readable only by the owner
func WriteDotEnv(path string, values map[string]string) error {
	content, err := godotenv.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode env file: %w", err)
	}

	if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadDotEnv returns the variables of an env file as an Env lookup
func ReadDotEnv(path string) (Env, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return MapEnv(values), nil
}

// MapEnv returns an Env backed by a fixed map
func MapEnv(values map[string]string) Env {
	return func(key string) string {
		return values[key]
	}
}

// CredentialsEnv returns the env file entries for creds
func CredentialsEnv(creds Credentials) map[string]string {
	return map[string]string{
		AccountIDEnv: creds.AccountID,
		APITokenEnv:  creds.APIToken,
	}
}
