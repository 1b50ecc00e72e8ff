package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrEmptyTimestampSet is returned when a timestamp-based delete carries no
// timestamps; an empty set is invalid input, not a no-op.
var ErrEmptyTimestampSet = errors.New("timestamp set is empty")

// LogEntry is one activity record. The timestamp is assigned on append and
// acts as the entry's identity for timestamp-based deletes. Collisions at
// timestamp granularity are possible and unhandled.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	File      string `json:"file"`
	Folder    string `json:"folder"`
}

// LogStore persists activity entries as a single JSON array document. Every
// mutation reads the whole document, applies the change and rewrites it;
// the mutex serializes writers so no mutation is lost.
type LogStore struct {
	path   string
	mu     sync.Mutex
	logger *logrus.Logger
}

// NewLogStore creates a store backed by logs.json under dataDir.
func NewLogStore(dataDir string, logger *logrus.Logger) (*LogStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	return &LogStore{
		path:   filepath.Join(dataDir, "logs.json"),
		logger: logger,
	}, nil
}

// Append records an activity with a creation-assigned timestamp and returns
// the stored entry.
func (s *LogStore) Append(username, action, file, folder string) (LogEntry, error) {
	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Username:  username,
		Action:    action,
		File:      file,
		Folder:    folder,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return LogEntry{}, err
	}
	entries = append(entries, entry)
	if err := s.writeAll(entries); err != nil {
		return LogEntry{}, err
	}
	return entry, nil
}

// List returns all entries, most recently appended first.
func (s *LogStore) List() ([]LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return nil, err
	}

	out := make([]LogEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

// DeleteWhere removes every entry that exactly matches one of the given
// entries on all fields.
func (s *LogStore) DeleteWhere(matches []LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if !containsEntry(matches, e) {
			kept = append(kept, e)
		}
	}
	return s.writeAll(kept)
}

// DeleteByTimestamps removes exactly the entries whose timestamp is in the
// given set. An empty set is rejected as invalid input.
func (s *LogStore) DeleteByTimestamps(timestamps []string) error {
	if len(timestamps) == 0 {
		return ErrEmptyTimestampSet
	}

	set := make(map[string]struct{}, len(timestamps))
	for _, ts := range timestamps {
		set[ts] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if _, ok := set[e.Timestamp]; !ok {
			kept = append(kept, e)
		}
	}
	return s.writeAll(kept)
}

// Clear wipes the whole document, leaving a valid empty collection.
func (s *LogStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAll([]LogEntry{})
}

func containsEntry(set []LogEntry, e LogEntry) bool {
	for _, m := range set {
		if m == e {
			return true
		}
	}
	return false
}

func (s *LogStore) readAll() ([]LogEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, fmt.Errorf("read log document: %w", err)
	}

	var entries []LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode log document: %w", err)
	}
	return entries, nil
}

func (s *LogStore) writeAll(entries []LogEntry) error {
	if entries == nil {
		entries = []LogEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode log document: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write log document: %w", err)
	}
	return nil
}
