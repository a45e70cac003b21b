package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/alerting"
	"github.com/xkilldash9x/guardian/internal/config"
	"github.com/xkilldash9x/guardian/internal/evidence"
	"github.com/xkilldash9x/guardian/internal/observability"
	"github.com/xkilldash9x/guardian/internal/registry"
	"github.com/xkilldash9x/guardian/internal/store"
)

// -- Test Fixtures --

type fakeArchiver struct {
	location string
	err      error
	calls    int
}

func (a *fakeArchiver) Archive(context.Context, string) (string, error) {
	a.calls++
	return a.location, a.err
}

type failingCapturer struct{ err error }

func (f failingCapturer) Capture(context.Context, string, schemas.EvidenceMetadata) (schemas.EvidenceHandle, error) {
	return schemas.EvidenceHandle{}, f.err
}

type recordingDispatcher struct {
	mu        sync.Mutex
	snapshots []schemas.ThreatSnapshot
	results   []schemas.ChannelResult
}

func (d *recordingDispatcher) Dispatch(_ context.Context, s schemas.ThreatSnapshot) []schemas.ChannelResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapshots = append(d.snapshots, s)
	return d.results
}

type brokenRegistry struct{ *registry.Memory }

func (brokenRegistry) Register(context.Context, schemas.ActiveAlert) error {
	return errors.New("registry unavailable")
}

type harness struct {
	orch       *Orchestrator
	store      *store.MemoryStore
	registry   *registry.Memory
	dispatcher *recordingDispatcher
	archiver   *fakeArchiver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:    store.NewMemory(),
		registry: registry.NewMemory(),
		dispatcher: &recordingDispatcher{results: []schemas.ChannelResult{
			{Channel: "console", Status: schemas.DispatchSent},
			{Channel: "telegram", Status: schemas.DispatchSent, Detail: "message_id=1"},
		}},
		archiver: &fakeArchiver{location: "https://web.archive.org/web/2025/https://x.com/a/1"},
	}
	vault := evidence.NewVault(h.store, config.EvidenceConfig{Salt: "vip_guardian", WriteTimeout: time.Second}, zaptest.NewLogger(t))
	orch, err := New(zaptest.NewLogger(t), vault, h.dispatcher, h.registry, WithArchiver(h.archiver, time.Second))
	require.NoError(t, err)
	h.orch = orch
	return h
}

func request(content string, contradiction, drift float64) schemas.ThreatRequest {
	return schemas.ThreatRequest{
		Analysis:      schemas.AnalysisResult{ContradictionScore: contradiction, DriftScore: drift, Justification: "Out of character."},
		Content:       content,
		SubjectHandle: "elonmusk",
		Platform:      "twitter",
		SourceURL:     "https://x.com/a/1",
	}
}

// -- Tests --

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(zap.NewNop(), nil, &recordingDispatcher{}, registry.NewMemory())
	assert.ErrorContains(t, err, "nil dependencies")
}

func TestProcessThreat_HappyPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp, err := h.orch.ProcessThreat(ctx, request("Giving away crypto, this is a scam", 9.5, 20))
	require.NoError(t, err)

	assert.Equal(t, schemas.ThreatCritical, resp.ThreatLevel)
	assert.Equal(t, 10.0, resp.ThreatScore)
	assert.Len(t, resp.EvidenceID, 16)
	assert.Equal(t, resp.EvidenceID, resp.AlertID)
	assert.True(t, resp.EvidenceCaptured)
	assert.True(t, resp.DispatchedOnPrimaryChannel)
	assert.Len(t, resp.ChainHash, 64)

	rec, err := h.store.Get(ctx, resp.EvidenceID)
	require.NoError(t, err)
	require.NotNil(t, rec.Metadata.ArchivedURL)
	assert.Equal(t, h.archiver.location, *rec.Metadata.ArchivedURL)
	assert.Equal(t, "https://x.com/a/1", rec.Metadata.OriginalURL)
	assert.Equal(t, schemas.ThreatClassification{Level: schemas.ThreatCritical, Score: 10}, rec.Metadata.Classification)
	assert.Len(t, rec.Metadata.Signals, 3)

	alert, err := h.orch.GetAlertStatus(ctx, resp.EvidenceID)
	require.NoError(t, err)
	assert.Equal(t, resp.EvidenceID, alert.ThreatData.EvidenceID)
	assert.Equal(t, "Out of character.", alert.ThreatData.AnalysisReason)
	assert.Len(t, alert.Results, 2)
}

func TestProcessThreat_ArchivalFailureIsIsolated(t *testing.T) {
	h := newHarness(t)
	h.archiver.err = errors.New("wayback timeout")
	metrics := observability.NewMetrics()
	h.orch.metrics = metrics

	resp, err := h.orch.ProcessThreat(context.Background(), request("hello", 1, 0))
	require.NoError(t, err)

	rec, err := h.store.Get(context.Background(), resp.EvidenceID)
	require.NoError(t, err)
	assert.Nil(t, rec.Metadata.ArchivedURL)
	assert.Equal(t, 1, h.registry.Len())
}

func TestProcessThreat_NoSourceURLSkipsArchival(t *testing.T) {
	h := newHarness(t)
	req := request("hello", 1, 0)
	req.SourceURL = ""

	_, err := h.orch.ProcessThreat(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, h.archiver.calls)
}

func TestProcessThreat_PrimaryChannelNotSent(t *testing.T) {
	h := newHarness(t)
	h.dispatcher.results = []schemas.ChannelResult{
		{Channel: "console", Status: schemas.DispatchSent},
		{Channel: "telegram", Status: schemas.DispatchFailed, Detail: "timeout"},
	}

	resp, err := h.orch.ProcessThreat(context.Background(), request("hello", 8, 0))
	require.NoError(t, err)
	assert.False(t, resp.DispatchedOnPrimaryChannel)

	alert, err := h.orch.GetAlertStatus(context.Background(), resp.EvidenceID)
	require.NoError(t, err)
	assert.Equal(t, schemas.DispatchFailed, alert.Results[1].Status)
}

func TestProcessThreat_FatalFailures(t *testing.T) {
	t.Run("evidence write failure", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		reg := registry.NewMemory()
		orch, err := New(zap.New(core), failingCapturer{err: errors.New("disk full")}, &recordingDispatcher{}, reg)
		require.NoError(t, err)

		resp, err := orch.ProcessThreat(context.Background(), request("hello", 1, 0))
		require.Error(t, err)

		var pe *schemas.ProcessingError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "capture", pe.Stage)
		assert.Equal(t, schemas.ThreatResponse{}, resp, "no partial response")
		assert.Zero(t, reg.Len(), "no alert registered")
		assert.Equal(t, 1, logs.FilterMessage("Threat processing failed.").Len())
	})

	t.Run("registry failure", func(t *testing.T) {
		vault := evidence.NewVault(store.NewMemory(), config.EvidenceConfig{Salt: "s"}, zap.NewNop())
		orch, err := New(zap.NewNop(), vault, &recordingDispatcher{}, brokenRegistry{registry.NewMemory()})
		require.NoError(t, err)

		_, err = orch.ProcessThreat(context.Background(), request("hello", 1, 0))
		var pe *schemas.ProcessingError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "register", pe.Stage)
	})

	t.Run("evidence collision is first-write-wins", func(t *testing.T) {
		fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		vault := evidence.NewVault(store.NewMemory(), config.EvidenceConfig{Salt: "s"}, zap.NewNop(),
			evidence.WithClock(func() time.Time { return fixed }))
		orch, err := New(zap.NewNop(), vault, &recordingDispatcher{}, registry.NewMemory())
		require.NoError(t, err)

		_, err = orch.ProcessThreat(context.Background(), request("same", 1, 0))
		require.NoError(t, err)
		_, err = orch.ProcessThreat(context.Background(), request("same", 1, 0))
		require.Error(t, err)
		assert.ErrorIs(t, err, schemas.ErrEvidenceExists)
	})
}

func TestGetAlertStatus_UnknownIsNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.GetAlertStatus(context.Background(), "ffffffffffffffff")
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrNotFound)

	var pe *schemas.ProcessingError
	assert.False(t, errors.As(err, &pe))
}

func TestProcessThreat_Concurrent(t *testing.T) {
	h := newHarness(t)
	const n = 32

	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := h.orch.ProcessThreat(context.Background(), request(fmt.Sprintf("post %d", i), 3, 10))
			ids[i], errs[i] = resp.EvidenceID, err
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := range ids {
		require.NoError(t, errs[i])
		assert.False(t, seen[ids[i]], "evidence IDs must be unique")
		seen[ids[i]] = true
	}
	assert.Equal(t, n, h.store.Len())
	assert.Equal(t, n, h.registry.Len())
}

// TestProcessThreat_EndToEnd drives the real dispatcher, console and Telegram
// channels against a stub Bot API.
func TestProcessThreat_EndToEnd(t *testing.T) {
	var telegramCalls int
	var mu sync.Mutex
	bot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		telegramCalls++
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7}}`))
	}))
	defer bot.Close()

	logger := zaptest.NewLogger(t)
	var console bytes.Buffer
	tg, err := alerting.NewTelegram(config.TelegramConfig{
		Enabled: true, APIURL: bot.URL, BotToken: "t", ChatID: "c", MinLevel: "medium", Timeout: time.Second,
	}, logger)
	require.NoError(t, err)
	dispatcher := alerting.NewDispatcher(alerting.NewConsole(&console, false, logger), []alerting.Channel{tg}, logger)

	evStore := store.NewMemory()
	reg := registry.NewMemory()
	vault := evidence.NewVault(evStore, config.EvidenceConfig{Salt: "vip_guardian"}, logger)
	orch, err := New(logger, vault, dispatcher, reg)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("keyword boost lifts an impersonating account to high", func(t *testing.T) {
		req := request("There is a bomb threat at the launch site", 2, 10)
		req.Impersonation = &schemas.ImpersonationReport{RiskScore: 4.5, ThreatLevel: schemas.ThreatMedium}

		resp, err := orch.ProcessThreat(ctx, req)
		require.NoError(t, err)

		assert.True(t, resp.ThreatLevel.AtLeast(schemas.ThreatHigh))
		assert.InDelta(t, 7.5, resp.ThreatScore, 1e-9, "base 4.5 plus the 3.0 critical boost")
		assert.True(t, resp.DispatchedOnPrimaryChannel)

		rec, err := vault.Get(ctx, resp.EvidenceID)
		require.NoError(t, err)
		require.NoError(t, vault.Verify(rec))

		alert, err := orch.GetAlertStatus(ctx, resp.EvidenceID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, alert.EvidenceID)
		assert.Equal(t, 1, evStore.Len())
		assert.Equal(t, 1, reg.Len())
		assert.Contains(t, console.String(), "HIGH THREAT ALERT")
	})

	t.Run("contradiction 2 and drift 10 alone stay medium", func(t *testing.T) {
		resp, err := orch.ProcessThreat(ctx, request("bomb threat", 2, 10))
		require.NoError(t, err)
		assert.Equal(t, schemas.ThreatMedium, resp.ThreatLevel)
		assert.Equal(t, 5.0, resp.ThreatScore)
	})

	t.Run("low items stay local", func(t *testing.T) {
		mu.Lock()
		before := telegramCalls
		mu.Unlock()

		resp, err := orch.ProcessThreat(ctx, request("Lovely launch today", 1, 5))
		require.NoError(t, err)
		assert.Equal(t, schemas.ThreatLow, resp.ThreatLevel)
		assert.False(t, resp.DispatchedOnPrimaryChannel)

		alert, err := orch.GetAlertStatus(ctx, resp.EvidenceID)
		require.NoError(t, err)
		assert.Equal(t, schemas.DispatchSent, alert.Results[0].Status)
		assert.Equal(t, schemas.DispatchSkipped, alert.Results[1].Status)

		mu.Lock()
		assert.Equal(t, before, telegramCalls)
		mu.Unlock()
	})
}
