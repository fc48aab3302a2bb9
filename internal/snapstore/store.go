// Package snapstore persists zone playback snapshots between CLI
// invocations.
package snapstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"raumfeld-cli/internal/raumfeld"
)

// Entry is one persisted snapshot together with the room grouping it was
// captured for.
type Entry struct {
	Rooms    []string          `json:"rooms"`
	SavedAt  time.Time         `json:"savedAt"`
	Snapshot raumfeld.Snapshot `json:"snapshot"`
}

type Store interface {
	List() ([]Entry, error)
	Get(rooms []string) (Entry, bool, error)
	Put(entry Entry) error
	Delete(rooms []string) error
}

type FileStore struct {
	path string
}

func NewFileStore() (*FileStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &FileStore{path: filepath.Join(dir, "raumfeld-cli", "snapshots.json")}, nil
}

func keyOf(rooms []string) string {
	sorted := make([]string, len(rooms))
	copy(sorted, rooms)
	sort.Strings(sorted)
	b, _ := json.Marshal(sorted)
	return string(b)
}

func (s *FileStore) List() ([]Entry, error) {
	data, err := s.readAll()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(data))
	for _, e := range data {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return keyOf(entries[i].Rooms) < keyOf(entries[j].Rooms) })
	return entries, nil
}

func (s *FileStore) Get(rooms []string) (Entry, bool, error) {
	data, err := s.readAll()
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := data[keyOf(rooms)]
	return e, ok, nil
}

func (s *FileStore) Put(entry Entry) error {
	if len(entry.Rooms) == 0 {
		return errors.New("snapshot rooms are required")
	}
	if entry.SavedAt.IsZero() {
		entry.SavedAt = time.Now().UTC()
	}
	data, err := s.readAll()
	if err != nil {
		return err
	}
	data[keyOf(entry.Rooms)] = entry
	return s.writeAll(data)
}

func (s *FileStore) Delete(rooms []string) error {
	data, err := s.readAll()
	if err != nil {
		return err
	}
	key := keyOf(rooms)
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return s.writeAll(data)
}

type fileFormat struct {
	Snapshots map[string]Entry `json:"snapshots"`
}

func (s *FileStore) readAll() (map[string]Entry, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Entry{}, nil
		}
		return nil, err
	}
	var ff fileFormat
	if err := json.Unmarshal(b, &ff); err != nil {
		return nil, fmt.Errorf("parse snapshot store: %w", err)
	}
	if ff.Snapshots == nil {
		ff.Snapshots = map[string]Entry{}
	}
	return ff.Snapshots, nil
}

func (s *FileStore) writeAll(data map[string]Entry) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	ff := fileFormat{Snapshots: data}
	b, err := json.MarshalIndent(ff, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
