package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ballot-chain/ballot_chain/internal/identity"
)

// FileRegistry stores all records in a single JSON document keyed by
// normalized email. Writes are serialized through a mutex and performed as
// write-temp-then-rename so a crash mid-write never leaves a truncated file
// behind.
type FileRegistry struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewFileRegistry builds a registry backed by the JSON document at path.
func NewFileRegistry(path string, logger *slog.Logger) *FileRegistry {
	return &FileRegistry{path: path, logger: logger}
}

// Get returns the record for email, or ErrNotFound.
func (r *FileRegistry) Get(_ context.Context, email string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.load()
	record, ok := records[identity.Normalize(email)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}

// Put persists a new record. Existing records are never overwritten.
func (r *FileRegistry) Put(_ context.Context, record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := identity.Normalize(record.Email)
	record.Email = email

	records := r.load()
	if _, exists := records[email]; exists {
		return ErrImmutable
	}
	records[email] = record

	return r.store(records)
}

// load reads the backing document. A missing or corrupt file is treated as
// an empty registry rather than a fatal error; corruption is logged so the
// operator can investigate without the relay going down.
func (r *FileRegistry) load() map[string]Record {
	records := make(map[string]Record)

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("registry unreadable, treating as empty", "path", r.path, "error", err)
		}
		return records
	}

	if err := json.Unmarshal(data, &records); err != nil {
		r.logger.Warn("registry corrupt, treating as empty", "path", r.path, "error", err)
		return make(map[string]Record)
	}
	return records
}

func (r *FileRegistry) store(records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create registry temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close registry temp file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}
