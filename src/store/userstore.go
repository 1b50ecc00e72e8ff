package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	// ErrUserExists is returned when creating a username that is already taken.
	ErrUserExists = errors.New("username already exists")
	// ErrUserNotFound is returned when updating a user that does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// UserRecord is a directory entry. Passwords are stored as given; this
// service performs no hashing or authentication.
type UserRecord struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserStore persists the user directory as a single JSON array document,
// same whole-document contract as LogStore.
type UserStore struct {
	path   string
	mu     sync.Mutex
	logger *logrus.Logger
}

// NewUserStore creates a store backed by users.json under dataDir.
func NewUserStore(dataDir string, logger *logrus.Logger) (*UserStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	return &UserStore{
		path:   filepath.Join(dataDir, "users.json"),
		logger: logger,
	}, nil
}

// List returns all user records.
func (s *UserStore) List() ([]UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

// Create adds a user. The username is the unique key.
func (s *UserStore) Create(username, password, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readAll()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Username == username {
			return ErrUserExists
		}
	}
	users = append(users, UserRecord{Username: username, Password: password, Role: role})
	return s.writeAll(users)
}

// Update replaces password and role for an existing user.
func (s *UserStore) Update(username, password, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readAll()
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].Username == username {
			users[i].Password = password
			users[i].Role = role
			return s.writeAll(users)
		}
	}
	return ErrUserNotFound
}

// Delete removes a user. Deleting an absent user is a no-op.
func (s *UserStore) Delete(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readAll()
	if err != nil {
		return err
	}
	kept := users[:0]
	for _, u := range users {
		if u.Username != username {
			kept = append(kept, u)
		}
	}
	return s.writeAll(kept)
}

func (s *UserStore) readAll() ([]UserRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []UserRecord{}, nil
		}
		return nil, fmt.Errorf("read user document: %w", err)
	}

	var users []UserRecord
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode user document: %w", err)
	}
	return users, nil
}

func (s *UserStore) writeAll(users []UserRecord) error {
	if users == nil {
		users = []UserRecord{}
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode user document: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write user document: %w", err)
	}
	return nil
}
