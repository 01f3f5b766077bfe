// Package credentials implements the credential store (spec.md §6): a JSON
// file mapping provider id to API key, consulting environment variables as
// a fallback, plus short-lived local tokens for the approval message-passing
// channel when exposed over a socket (spec.md §9).
//
// Grounded on original_source/apps/cli/src/commands/auth.rs's
// CredentialStore contract (store/remove/list/get/is_configured, the
// `~/.radium/auth/credentials.json` path, file-then-environment precedence
// for status reporting) and internal/auth/profiles.go's disk persistence
// pattern (JSON, 0600, os.IsNotExist-as-empty-store).
package credentials

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

const credentialsFilename = "credentials.json"

var ErrNotConfigured = errors.New("credentials: provider not configured")

// Source reports where a returned API key came from.
type Source string

const (
	SourceFile        Source = "file"
	SourceEnvironment Source = "environment"
)

// envVarNames lists the environment variables consulted for each known
// provider, in lookup order (spec.md §6: "The store also consults
// environment variables per provider as a fallback").
var envVarNames = map[string][]string{
	"anthropic": {"ANTHROPIC_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"google":    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	"bedrock":   {"AWS_BEARER_TOKEN_BEDROCK"},
	"venice":    {"VENICE_API_KEY"},
}

// EnvVarNames returns the environment variable names consulted for
// provider, for status reporting to a user.
func EnvVarNames(provider string) []string {
	return envVarNames[provider]
}

// Store persists provider API keys to a JSON file and falls back to
// environment variables.
type Store struct {
	path string

	mu   sync.RWMutex
	keys map[string]string
}

// New opens (or creates) the credential store under dir (conventionally
// "~/.radium/auth").
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("credentials: directory is required")
	}
	s := &Store{path: filepath.Join(dir, credentialsFilename), keys: make(map[string]string)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var keys map[string]string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	s.keys = keys
	return nil
}

func (s *Store) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.keys, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// StoreKey records provider's API key to disk.
func (s *Store) StoreKey(provider, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		s.keys = make(map[string]string)
	}
	s.keys[provider] = key
	return s.persist()
}

// Remove deletes provider's stored key, if any.
func (s *Store) Remove(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, provider)
	return s.persist()
}

// Get returns provider's API key, preferring the file over the environment,
// and where it came from.
func (s *Store) Get(provider string) (string, Source, error) {
	s.mu.RLock()
	key, ok := s.keys[provider]
	s.mu.RUnlock()
	if ok && key != "" {
		return key, SourceFile, nil
	}

	for _, name := range envVarNames[provider] {
		if v := os.Getenv(name); v != "" {
			return v, SourceEnvironment, nil
		}
	}
	return "", "", ErrNotConfigured
}

// IsConfigured reports whether provider has a key in the file or the
// environment.
func (s *Store) IsConfigured(provider string) bool {
	_, _, err := s.Get(provider)
	return err == nil
}

// List returns the providers with a key stored in the file (not counting
// environment-only configuration).
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.keys))
	for provider := range s.keys {
		out = append(out, provider)
	}
	return out
}
