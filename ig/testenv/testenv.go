// Package testenv loads the broker identity used by integration-style
// tests from a JSON file on disk, the same environment-variable-driven
// configuration convention the teacher's rest_test.go uses for
// APCA_API_KEY_ID/APCA_API_SECRET_KEY, adapted here to IG's file-based demo
// account format.
package testenv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvVar is the environment variable naming the test account file. It
// matches IG's own Java/Python client libraries' convention so a single
// file can be shared across language bindings in a developer's home
// directory.
const EnvVar = "io.dehesa.ig.tests.account"

// Account is the demo-account identity and credentials loaded from the
// file named by EnvVar.
type Account struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	APIKey     string `json:"apiKey"`
	AccountID  string `json:"accountId"`
	BaseURL    string `json:"baseUrl"`
}

// Load reads and parses the account file named by the EnvVar environment
// variable, expanding a leading "~" to the current user's home directory.
// It returns an error if the variable is unset, the file cannot be read, or
// its contents are not valid JSON.
func Load() (*Account, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("testenv: %s is not set", EnvVar)
	}

	expanded, err := expandHome(path)
	if err != nil {
		return nil, fmt.Errorf("testenv: %w", err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("testenv: reading %s: %w", expanded, err)
	}

	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, fmt.Errorf("testenv: parsing %s: %w", expanded, err)
	}
	return &acct, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
