// File: internal/orchestrator/orchestrator.go
// Description: Runs the crisis pipeline for one content item: classify, archive,
// capture evidence, dispatch alerts and register the active alert.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/classifier"
	"github.com/xkilldash9x/guardian/internal/observability"
)

// EvidenceCapturer persists content and returns its tamper-evident handle.
type EvidenceCapturer interface {
	Capture(ctx context.Context, content string, metadata schemas.EvidenceMetadata) (schemas.EvidenceHandle, error)
}

// Dispatcher fans an alert out to notification channels. It never fails; the
// first result is the local channel and the second, when present, the primary
// push channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, snapshot schemas.ThreatSnapshot) []schemas.ChannelResult
}

const defaultArchiveTimeout = 30 * time.Second

// Orchestrator owns the active-alert registry and drives each invocation
// through the pipeline. It is safe for concurrent use.
type Orchestrator struct {
	vault          EvidenceCapturer
	dispatcher     Dispatcher
	registry       schemas.AlertRegistry
	archiver       schemas.Archiver
	archiveTimeout time.Duration
	metrics        *observability.Metrics
	now            func() time.Time
	logger         *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithArchiver enables best-effort archival of source URLs.
func WithArchiver(a schemas.Archiver, timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.archiver = a
		if timeout > 0 {
			o.archiveTimeout = timeout
		}
	}
}

// WithMetrics records pipeline outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock replaces the clock used for alert creation times.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator. The archiver is optional; everything else is
// required.
func New(logger *zap.Logger, vault EvidenceCapturer, dispatcher Dispatcher, registry schemas.AlertRegistry, opts ...Option) (*Orchestrator, error) {
	if logger == nil || vault == nil || dispatcher == nil || registry == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	o := &Orchestrator{
		vault:          vault,
		dispatcher:     dispatcher,
		registry:       registry,
		archiveTimeout: defaultArchiveTimeout,
		now:            time.Now,
		logger:         logger.Named("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// ProcessThreat runs the full pipeline and returns either a complete response
// or a single *schemas.ProcessingError. Archival and per-channel dispatch
// failures are isolated and never fail the call.
func (o *Orchestrator) ProcessThreat(ctx context.Context, req schemas.ThreatRequest) (schemas.ThreatResponse, error) {
	start := time.Now()
	logger := o.logger.With(zap.String("trace_id", uuid.NewString()), zap.String("subject", req.SubjectHandle))

	// 1. Normalize
	signals := Signals(req)
	platform := InferPlatform(req.Platform, req.SourceURL)

	// 2. Classify
	classification, err := classify(signals, req.Content)
	if err != nil {
		return o.fail(logger, "classify", err)
	}
	logger.Debug("Content classified.",
		zap.String("level", string(classification.Level)),
		zap.Float64("score", classification.Score))

	// 3. Archive (isolated)
	archived := o.archive(ctx, req.SourceURL, logger)

	// 4. Capture
	handle, err := o.vault.Capture(ctx, req.Content, schemas.EvidenceMetadata{
		SubjectHandle:  req.SubjectHandle,
		Platform:       platform,
		OriginalURL:    req.SourceURL,
		ArchivedURL:    archived,
		Signals:        signals.All(),
		Analysis:       req.Analysis,
		Classification: classification,
		Impersonation:  req.Impersonation,
	})
	if err != nil {
		return o.fail(logger, "capture", err)
	}

	// 5. Dispatch (per-channel failures isolated)
	snapshot := schemas.ThreatSnapshot{
		SubjectHandle:  req.SubjectHandle,
		Content:        req.Content,
		Platform:       platform,
		SourceURL:      req.SourceURL,
		Timestamp:      handle.CaptureTime,
		Classification: classification,
		AnalysisReason: req.Analysis.Justification,
		EvidenceID:     handle.ID,
		ChainHash:      handle.ChainHash,
		Impersonation:  req.Impersonation,
	}
	results := o.dispatcher.Dispatch(ctx, snapshot)

	// 6. Register
	alert := schemas.ActiveAlert{
		EvidenceID: handle.ID,
		ThreatData: snapshot,
		Results:    results,
		CreatedAt:  o.now().UTC(),
	}
	if err := o.registry.Register(ctx, alert); err != nil {
		return o.fail(logger, "register", err)
	}

	// 7. Respond
	took := time.Since(start)
	o.metrics.ThreatProcessed(string(classification.Level), took)
	logger.Info("Threat processed.",
		zap.String("evidence_id", handle.ID),
		zap.String("level", string(classification.Level)),
		zap.Float64("score", classification.Score),
		zap.Duration("duration", took))

	return schemas.ThreatResponse{
		AlertID:                    handle.ID,
		ThreatLevel:                classification.Level,
		ThreatScore:                classification.Score,
		EvidenceID:                 handle.ID,
		EvidenceCaptured:           true,
		DispatchedOnPrimaryChannel: primarySent(results),
		ChainHash:                  handle.ChainHash,
	}, nil
}

// GetAlertStatus returns the registered alert or an error wrapping
// schemas.ErrNotFound.
func (o *Orchestrator) GetAlertStatus(ctx context.Context, alertID string) (schemas.ActiveAlert, error) {
	return o.registry.Lookup(ctx, alertID)
}

func (o *Orchestrator) fail(logger *zap.Logger, stage string, err error) (schemas.ThreatResponse, error) {
	logger.Error("Threat processing failed.", zap.String("stage", stage), zap.Error(err))
	return schemas.ThreatResponse{}, &schemas.ProcessingError{Stage: stage, Err: err}
}

// classify shields the pipeline from a panicking classifier.
func classify(signals schemas.SignalSet, content string) (c schemas.ThreatClassification, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	c = classifier.Classify(signals, content)
	if !c.Level.Valid() {
		return c, errors.New("classifier produced an invalid level")
	}
	return c, nil
}

// archive returns the archived location, or nil when archival is disabled,
// not requested, or failed.
func (o *Orchestrator) archive(ctx context.Context, sourceURL string, logger *zap.Logger) *string {
	if sourceURL == "" || o.archiver == nil {
		return nil
	}

	archiveCtx, cancel := context.WithTimeout(ctx, o.archiveTimeout)
	defer cancel()

	location, err := o.archiver.Archive(archiveCtx, sourceURL)
	if err != nil || location == "" {
		o.metrics.ArchiveAttempted("failed")
		logger.Warn("Archival failed; continuing without an archived copy.", zap.String("url", sourceURL), zap.Error(err))
		return nil
	}
	o.metrics.ArchiveAttempted("archived")
	return &location
}

func primarySent(results []schemas.ChannelResult) bool {
	return len(results) > 1 && results[1].Status == schemas.DispatchSent
}
