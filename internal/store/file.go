package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/api/schemas"
)

// evidenceIDPattern restricts file names to vault-generated IDs.
var evidenceIDPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)

// FileStore writes one "<id>.json" file per record into a directory.
type FileStore struct {
	dir string
	log *zap.Logger
}

// NewFile creates the evidence directory if needed.
func NewFile(dir string, logger *zap.Logger) (*FileStore, error) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand evidence dir %q: %w", dir, err)
	}
	if err := os.MkdirAll(expanded, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create evidence dir %q: %w", expanded, err)
	}
	return &FileStore{dir: expanded, log: logger.Named("store")}, nil
}

// Dir returns the directory records are written to.
func (f *FileStore) Dir() string { return f.dir }

func (f *FileStore) path(id string) (string, bool) {
	if !evidenceIDPattern.MatchString(id) {
		return "", false
	}
	return filepath.Join(f.dir, id+".json"), true
}

// Put writes the record with O_EXCL so an existing file is never replaced.
func (f *FileStore) Put(ctx context.Context, rec schemas.EvidenceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, ok := f.path(rec.ID)
	if !ok {
		return fmt.Errorf("invalid evidence id %q", rec.ID)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode evidence record %s: %w", rec.ID, err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if errors.Is(err, fs.ErrExist) {
		f.log.Warn("Evidence ID collision; keeping the first record.", zap.String("evidence_id", rec.ID))
		return fmt.Errorf("evidence %s: %w", rec.ID, schemas.ErrEvidenceExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create evidence file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write evidence file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to sync evidence file: %w", err)
	}
	return file.Close()
}

// Get reads a record back by ID.
func (f *FileStore) Get(ctx context.Context, id string) (schemas.EvidenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return schemas.EvidenceRecord{}, err
	}
	path, ok := f.path(id)
	if !ok {
		return schemas.EvidenceRecord{}, fmt.Errorf("evidence %s: %w", id, schemas.ErrNotFound)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return schemas.EvidenceRecord{}, fmt.Errorf("evidence %s: %w", id, schemas.ErrNotFound)
	}
	if err != nil {
		return schemas.EvidenceRecord{}, fmt.Errorf("failed to read evidence file: %w", err)
	}

	var rec schemas.EvidenceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return schemas.EvidenceRecord{}, fmt.Errorf("failed to decode evidence file %s: %w", path, err)
	}
	return rec, nil
}
