// Package store provides the durable backends behind the evidence vault.
// Every backend is append-only: Put never overwrites and reports
// schemas.ErrEvidenceExists for an ID that is already present.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	sqlInsertEvidence = `
        INSERT INTO evidence_records (id, captured_at, content, metadata, integrity_hash, chain_hash)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO NOTHING;
    `
	sqlSelectEvidence = `
        SELECT id, captured_at, content, metadata, integrity_hash, chain_hash
        FROM evidence_records
        WHERE id = $1;
    `
)

// PostgresStore persists evidence records in the evidence_records table.
type PostgresStore struct {
	pool DBPool
	log  *zap.Logger
}

// NewPostgres creates a new store instance and verifies the connection.
func NewPostgres(ctx context.Context, pool DBPool, logger *zap.Logger) (*PostgresStore, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// Put inserts the record. A conflicting ID leaves the existing row untouched.
func (s *PostgresStore) Put(ctx context.Context, rec schemas.EvidenceRecord) error {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode evidence metadata: %w", err)
	}

	tag, err := s.pool.Exec(ctx, sqlInsertEvidence,
		rec.ID, rec.Timestamp, rec.Content, metadata, rec.IntegrityHash, rec.ChainHash)
	if err != nil {
		return fmt.Errorf("failed to insert evidence record %s: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		s.log.Warn("Evidence ID collision; keeping the first record.", zap.String("evidence_id", rec.ID))
		return fmt.Errorf("evidence %s: %w", rec.ID, schemas.ErrEvidenceExists)
	}
	return nil
}

// Get loads a record by exact ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (schemas.EvidenceRecord, error) {
	var (
		rec      schemas.EvidenceRecord
		metadata []byte
	)
	err := s.pool.QueryRow(ctx, sqlSelectEvidence, id).Scan(
		&rec.ID, &rec.Timestamp, &rec.Content, &metadata, &rec.IntegrityHash, &rec.ChainHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return schemas.EvidenceRecord{}, fmt.Errorf("evidence %s: %w", id, schemas.ErrNotFound)
	}
	if err != nil {
		return schemas.EvidenceRecord{}, fmt.Errorf("failed to query evidence record %s: %w", id, err)
	}
	if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
		return schemas.EvidenceRecord{}, fmt.Errorf("failed to decode metadata of evidence record %s: %w", id, err)
	}
	return rec, nil
}
