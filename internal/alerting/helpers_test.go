package alerting

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/xkilldash9x/guardian/api/schemas"
)

func snapshot(level schemas.ThreatLevel, score float64) schemas.ThreatSnapshot {
	return schemas.ThreatSnapshot{
		SubjectHandle:  "elonmusk",
		Content:        "Giving away 5000 BTC, send 1 to double it",
		Platform:       "twitter",
		SourceURL:      "https://twitter.com/elonmu5k/status/1",
		Timestamp:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Classification: schemas.ThreatClassification{Level: level, Score: score},
		AnalysisReason: "Contradicts prior statements on crypto giveaways",
		EvidenceID:     "0123456789abcdef",
		ChainHash:      strings.Repeat("ab", 32),
	}
}

// fakeChannel records invocations and returns canned results.
type fakeChannel struct {
	name       string
	configured bool
	min        schemas.ThreatLevel
	receipt    string
	err        error
	panicWith  any
	block      bool

	mu    sync.Mutex
	calls int
}

func (f *fakeChannel) Name() string                  { return f.name }
func (f *fakeChannel) Configured() bool              { return f.configured }
func (f *fakeChannel) MinLevel() schemas.ThreatLevel { return f.min }

func (f *fakeChannel) Send(ctx context.Context, _ schemas.ThreatSnapshot) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.receipt, f.err
}

func (f *fakeChannel) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var errTransport = errors.New("connection refused")

// fakePublisher captures published messages.
type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func (p *fakePublisher) FlushWithContext(context.Context) error { return nil }
