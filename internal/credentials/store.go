package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrNoSession means no credentials are stored. Callers treat it as
// "signed out", not as a failure.
var ErrNoSession = errors.New("no session credentials")

type Credentials struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user"`
}

// Store is the persisted credential source. Load is called at every
// authenticate attempt so that tokens refreshed by an external process
// take effect without a full reconnect cycle.
type Store interface {
	Load(ctx context.Context) (*Credentials, error)
	Save(ctx context.Context, creds *Credentials) error
	Clear(ctx context.Context) error
}

// FileStore keeps credentials in a JSON file, the desktop-client
// analog of browser local storage.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if creds.AccessToken == "" || creds.UserID == "" {
		return nil, ErrNoSession
	}
	return &creds, nil
}

func (s *FileStore) Save(_ context.Context, creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}

// MemStore holds credentials in memory, for tests and for embedding
// applications that manage tokens themselves.
type MemStore struct {
	mu    sync.Mutex
	creds *Credentials
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Load(_ context.Context) (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil, ErrNoSession
	}
	cp := *s.creds
	return &cp, nil
}

func (s *MemStore) Save(_ context.Context, creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *creds
	s.creds = &cp
	return nil
}

func (s *MemStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	return nil
}
