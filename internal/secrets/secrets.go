// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves API credentials from the environment and from a
// directory of plain-text files. Each file in the directory represents one
// secret: the filename is the key name and the file contents (trimmed) are
// the value.
//
// Supported key files: google-api-key, google-cx, bing-api-key, openai-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Env var names for the required credentials, and their .secrets/ file
// equivalents.
const (
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvGoogleCX     = "GOOGLE_CX"
	EnvBingAPIKey   = "BING_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// fileNames maps each env var to its .secrets/ directory file name.
var fileNames = map[string]string{
	EnvGoogleAPIKey: "google-api-key",
	EnvGoogleCX:     "google-cx",
	EnvBingAPIKey:   "bing-api-key",
	EnvOpenAIAPIKey: "openai-api-key",
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Credentials holds the resolved provider credentials.
type Credentials struct {
	GoogleAPIKey string
	GoogleCX     string
	BingAPIKey   string
	OpenAIAPIKey string
}

// Resolve builds Credentials by checking the process environment first and
// falling back to the loaded .secrets/ map. Missing values stay empty;
// callers decide which credentials they require.
func Resolve(loaded map[string]string) Credentials {
	return Credentials{
		GoogleAPIKey: lookup(EnvGoogleAPIKey, loaded),
		GoogleCX:     lookup(EnvGoogleCX, loaded),
		BingAPIKey:   lookup(EnvBingAPIKey, loaded),
		OpenAIAPIKey: lookup(EnvOpenAIAPIKey, loaded),
	}
}

// Require returns an error naming every credential in envNames that is
// empty. The serve command uses this to fail fast at startup.
func (c Credentials) Require(envNames ...string) error {
	var missing []string
	for _, name := range envNames {
		if c.byEnv(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing required credentials: %s", strings.Join(missing, ", "))
}

func (c Credentials) byEnv(name string) string {
	switch name {
	case EnvGoogleAPIKey:
		return c.GoogleAPIKey
	case EnvGoogleCX:
		return c.GoogleCX
	case EnvBingAPIKey:
		return c.BingAPIKey
	case EnvOpenAIAPIKey:
		return c.OpenAIAPIKey
	}
	return ""
}

func lookup(envName string, loaded map[string]string) string {
	if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
		return v
	}
	return loaded[fileNames[envName]]
}
