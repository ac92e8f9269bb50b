package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"expensetracker/internal/core"
)

const fileFormatVersion = 1

type fileEnvelope struct {
	Version  int      `json:"version"`
	Expenses []Record `json:"expenses"`
}

// FileStore keeps the ledger in a single JSON document.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the file. Records whose amount does not parse are skipped and
// logged; the rest of the ledger still loads.
func (s *FileStore) Load(ctx context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return []core.Expense{}, nil
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse data file: %w", err)
	}
	if env.Version != fileFormatVersion {
		return nil, fmt.Errorf("parse data file: unsupported version %d", env.Version)
	}

	out := make([]core.Expense, 0, len(env.Expenses))
	for i, r := range env.Expenses {
		e, err := FromRecord(r)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable record", "position", i, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Save replaces the file atomically: it writes a sibling temp file and
// renames it over the target.
func (s *FileStore) Save(_ context.Context, expenses []core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	env := fileEnvelope{Version: fileFormatVersion, Expenses: make([]Record, 0, len(expenses))}
	for _, e := range expenses {
		env.Expenses = append(env.Expenses, ToRecord(e))
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}
