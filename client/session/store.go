package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

const (
	keyringService = "meetflow"
	keyringUser    = "session"
)

// ErrKeyringUnavailable indicates the system keyring cannot be used.
var ErrKeyringUnavailable = errors.New("system keyring unavailable")

// KeyringStore keeps the session in the OS keyring.
type KeyringStore struct {
	service string
	user    string
}

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: keyringService, user: keyringUser}
}

func (k *KeyringStore) Load() (*Session, error) {
	raw, err := keyring.Get(k.service, k.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode stored session: %w", err)
	}
	return &s, nil
}

func (k *KeyringStore) Save(s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := keyring.Set(k.service, k.user, string(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

func (k *KeyringStore) Clear() error {
	if err := keyring.Delete(k.service, k.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// FileStore keeps the session in a 0600 YAML file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFilePath is ~/.meetflow/session.yaml.
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".meetflow", "session.yaml"), nil
}

func (f *FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return &s, nil
}

func (f *FileStore) Save(s *Session) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// fallbackStore prefers the keyring and drops to the file when the keyring
// is unavailable.
type fallbackStore struct {
	primary  *KeyringStore
	fallback *FileStore
}

// NewDefaultStore returns a keyring-backed store that falls back to the
// file at path.
func NewDefaultStore(path string) Store {
	return &fallbackStore{primary: NewKeyringStore(), fallback: NewFileStore(path)}
}

func (s *fallbackStore) Load() (*Session, error) {
	sess, err := s.primary.Load()
	if errors.Is(err, ErrKeyringUnavailable) || errors.Is(err, ErrNoSession) {
		return s.fallback.Load()
	}
	return sess, err
}

func (s *fallbackStore) Save(sess *Session) error {
	if err := s.primary.Save(sess); err != nil {
		if !errors.Is(err, ErrKeyringUnavailable) {
			return err
		}
		return s.fallback.Save(sess)
	}
	return nil
}

func (s *fallbackStore) Clear() error {
	err := s.primary.Clear()
	if ferr := s.fallback.Clear(); ferr != nil {
		return ferr
	}
	if errors.Is(err, ErrKeyringUnavailable) {
		return nil
	}
	return err
}
