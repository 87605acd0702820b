// Package credential persists the account hash issued by the server.
package credential

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Credential is the durable identity of a registered user.
type Credential struct {
	Nickname    string `json:"nickname"`
	AccountHash string `json:"account_hash"`
}

// Valid reports whether the credential carries a token.
func (c Credential) Valid() bool {
	return c.AccountHash != ""
}

// Store reads and writes a single credential file.
type Store struct {
	path string
	log  *zap.Logger
}

// NewStore creates a Store backed by the file at path.
func NewStore(path string, log *zap.Logger) *Store {
	return &Store{path: path, log: log}
}

// Path returns the credential file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored credential. A missing file, unreadable content or
// an empty account hash all mean there is no credential.
func (s *Store) Load() (Credential, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debug("Credential file not found", zap.String("path", s.path))
		} else {
			s.log.Warn("Failed to read credentials", zap.String("path", s.path), zap.Error(err))
		}
		return Credential{}, false
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		s.log.Warn("Failed to decode credentials", zap.String("path", s.path), zap.Error(err))
		return Credential{}, false
	}
	if !cred.Valid() {
		s.log.Warn("Credential file has no account_hash", zap.String("path", s.path))
		return Credential{}, false
	}
	return cred, true
}

// Save writes cred, creating parent directories as needed. Failures are
// logged and otherwise ignored: the caller keeps using the in-memory value.
func (s *Store) Save(cred Credential) {
	if err := s.write(cred); err != nil {
		s.log.Warn("Failed to save credentials", zap.String("path", s.path), zap.Error(err))
		return
	}
	s.log.Info("Credentials saved", zap.String("path", s.path))
}

func (s *Store) write(cred Credential) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cred); err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	return os.WriteFile(s.path, buf.Bytes(), 0o600)
}
