// Package evidence captures processed content as tamper-evident records.
package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/config"
)

// idLength is the number of hex characters kept from the ID digest (64 bits).
const idLength = 16

// Vault is append-only: records are written once and never updated.
type Vault struct {
	store        schemas.EvidenceStore
	salt         string
	writeTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

// Option configures a Vault.
type Option func(*Vault)

// WithClock replaces the capture clock.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) { v.now = now }
}

// NewVault wraps store. The salt and write timeout come from cfg.
func NewVault(store schemas.EvidenceStore, cfg config.EvidenceConfig, logger *zap.Logger, opts ...Option) *Vault {
	v := &Vault{
		store:        store,
		salt:         cfg.Salt,
		writeTimeout: cfg.WriteTimeout,
		now:          time.Now,
		logger:       logger.Named("vault"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Capture hashes content, persists the full record and returns its handle.
// The single durable write is bounded by the configured write timeout.
func (v *Vault) Capture(ctx context.Context, content string, metadata schemas.EvidenceMetadata) (schemas.EvidenceHandle, error) {
	captured := v.now().UTC()
	timestamp := captured.Format(time.RFC3339Nano)

	rec := schemas.EvidenceRecord{
		ID:            RecordID(content, timestamp),
		Timestamp:     timestamp,
		Content:       content,
		Metadata:      metadata,
		IntegrityHash: IntegrityHash(content),
		ChainHash:     ChainHash(content, timestamp, v.salt),
	}

	writeCtx := ctx
	if v.writeTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, v.writeTimeout)
		defer cancel()
	}
	if err := v.store.Put(writeCtx, rec); err != nil {
		return schemas.EvidenceHandle{}, fmt.Errorf("failed to persist evidence: %w", err)
	}

	v.logger.Info("Evidence captured.",
		zap.String("evidence_id", rec.ID),
		zap.String("integrity_hash", rec.IntegrityHash),
		zap.String("platform", metadata.Platform))

	return schemas.EvidenceHandle{
		ID:            rec.ID,
		IntegrityHash: rec.IntegrityHash,
		ChainHash:     rec.ChainHash,
		CaptureTime:   captured,
	}, nil
}

// Get returns the stored record, or an error wrapping schemas.ErrNotFound.
func (v *Vault) Get(ctx context.Context, id string) (schemas.EvidenceRecord, error) {
	return v.store.Get(ctx, id)
}

// Verify recomputes both hashes of rec and reports the first mismatch.
func (v *Vault) Verify(rec schemas.EvidenceRecord) error {
	if got := IntegrityHash(rec.Content); got != rec.IntegrityHash {
		return fmt.Errorf("evidence %s: integrity hash mismatch", rec.ID)
	}
	if got := ChainHash(rec.Content, rec.Timestamp, v.salt); got != rec.ChainHash {
		return fmt.Errorf("evidence %s: chain hash mismatch", rec.ID)
	}
	if got := RecordID(rec.Content, rec.Timestamp); got != rec.ID {
		return fmt.Errorf("evidence %s: id does not match content and timestamp", rec.ID)
	}
	return nil
}

// -- Hashing --

func sum(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// RecordID is the first 16 hex characters of sha256(content || timestamp).
func RecordID(content, timestamp string) string {
	return sum(content, timestamp)[:idLength]
}

// IntegrityHash is sha256(content); it does not depend on capture time.
func IntegrityHash(content string) string {
	return sum(content)
}

// ChainHash is sha256(content || timestamp || salt).
func ChainHash(content, timestamp, salt string) string {
	return sum(content, timestamp, salt)
}
