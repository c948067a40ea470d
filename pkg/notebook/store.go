package notebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const storeFile = "notebooks.json"

// ErrNotFound is returned when a notebook id has no entry.
var ErrNotFound = errors.New("notebook not found")

// Store persists notebooks as a single JSON file under a data directory.
type Store struct {
	path string

	mu sync.Mutex
}

// NewStore opens (and if needed creates) the store under dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{path: filepath.Join(dir, storeFile)}, nil
}

// List returns all notebooks.
func (s *Store) List() ([]Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the notebook with the given id.
func (s *Store) Get(id string) (*Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notebooks, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range notebooks {
		if notebooks[i].ID == id {
			return &notebooks[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Save inserts or replaces the notebook and bumps its updated timestamp.
func (s *Store) Save(n *Notebook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notebooks, err := s.load()
	if err != nil {
		return err
	}
	n.UpdatedAt = time.Now().UnixMilli()

	replaced := false
	for i := range notebooks {
		if notebooks[i].ID == n.ID {
			notebooks[i] = *n
			replaced = true
			break
		}
	}
	if !replaced {
		notebooks = append(notebooks, *n)
	}
	return s.write(notebooks)
}

// Create makes and persists a new empty notebook.
func (s *Store) Create(title string) (*Notebook, error) {
	now := time.Now().UnixMilli()
	n := &Notebook{
		ID:          NewID(),
		Title:       title,
		Description: "New research project",
		Sources:     []Source{},
		Artifacts:   []Artifact{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Save(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Delete removes the notebook with the given id. Deleting an unknown id is
// a no-op.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notebooks, err := s.load()
	if err != nil {
		return err
	}
	kept := notebooks[:0]
	for _, n := range notebooks {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	return s.write(kept)
}

func (s *Store) load() ([]Notebook, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	var notebooks []Notebook
	if err := json.Unmarshal(data, &notebooks); err != nil {
		return nil, fmt.Errorf("decode store: %w", err)
	}
	return notebooks, nil
}

func (s *Store) write(notebooks []Notebook) error {
	data, err := json.MarshalIndent(notebooks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
