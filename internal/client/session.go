package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/postboard/apiserver/types"
)

const (
	entryToken = "token"
	entryUser  = "user"
)

// Session is the persisted login: a token and the user it belongs to.
type Session struct {
	Token string
	User  *types.User
}

// Complete reports whether both entries are present.
func (s Session) Complete() bool {
	return s.Token != "" && s.User != nil
}

// SessionStore persists the session between runs.
type SessionStore interface {
	Load() (Session, error)
	Save(Session) error
	// Clear removes both entries.
	Clear() error
}

// FileSessionStore keeps the session as a JSON object with "token" and
// "user" entries in a single file.
type FileSessionStore struct {
	path string
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

func (s *FileSessionStore) Load() (Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, err
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return Session{}, fmt.Errorf("parse session file: %w", err)
	}

	var session Session
	if raw, ok := entries[entryToken]; ok {
		if err := json.Unmarshal(raw, &session.Token); err != nil {
			return Session{}, fmt.Errorf("parse token entry: %w", err)
		}
	}
	if raw, ok := entries[entryUser]; ok && string(raw) != "null" {
		var user types.User
		if err := json.Unmarshal(raw, &user); err != nil {
			return Session{}, fmt.Errorf("parse user entry: %w", err)
		}
		session.User = &user
	}
	return session, nil
}

func (s *FileSessionStore) Save(session Session) error {
	data, err := json.MarshalIndent(map[string]any{
		entryToken: session.Token,
		entryUser:  session.User,
	}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileSessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemorySessionStore keeps the session in process memory.
type MemorySessionStore struct {
	mu      sync.Mutex
	session Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, nil
}

func (s *MemorySessionStore) Save(session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	return nil
}

func (s *MemorySessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
	return nil
}
