package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/config"
)

func sampleAlert(id string) schemas.ActiveAlert {
	return schemas.ActiveAlert{
		EvidenceID: id,
		ThreatData: schemas.ThreatSnapshot{
			SubjectHandle:  "elonmusk",
			Content:        "bomb threat",
			Platform:       "reddit",
			Classification: schemas.ThreatClassification{Level: schemas.ThreatHigh, Score: 7.5},
			EvidenceID:     id,
			Timestamp:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Results: []schemas.ChannelResult{
			{Channel: "console", Status: schemas.DispatchSent},
			{Channel: "telegram", Status: schemas.DispatchFailed, Detail: "timeout"},
		},
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 1, 0, time.UTC),
	}
}

// exerciseRegistry runs the shared contract against any backend.
func exerciseRegistry(t *testing.T, reg schemas.AlertRegistry, id string) {
	t.Helper()
	ctx := context.Background()
	alert := sampleAlert(id)

	_, err := reg.Lookup(ctx, id)
	assert.ErrorIs(t, err, schemas.ErrNotFound)

	require.NoError(t, reg.Register(ctx, alert))

	got, err := reg.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, alert, got)

	second := alert
	second.Results = nil
	assert.ErrorIs(t, reg.Register(ctx, second), schemas.ErrAlertExists)

	got, err = reg.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Results, 2, "first registration must win")
}

func TestMemory(t *testing.T) {
	exerciseRegistry(t, NewMemory(), "0123456789abcdef")
}

func TestMemory_ResultsAreCopied(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()
	alert := sampleAlert("abc")
	require.NoError(t, reg.Register(ctx, alert))

	alert.Results[0].Status = schemas.DispatchFailed
	got, err := reg.Lookup(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, schemas.DispatchSent, got.Results[0].Status)
}

func TestMemory_ConcurrentRegistration(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()

	const writers = 32
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Half the writers race on one shared ID.
			id := fmt.Sprintf("unique-%d", i)
			if i%2 == 0 {
				id = "shared"
			}
			err := reg.Register(ctx, sampleAlert(id))
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, schemas.ErrAlertExists))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, writers/2+1, accepted)
	assert.Equal(t, writers/2+1, reg.Len())
}

func TestRedis(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reg, err := NewRedis(ctx, config.RedisConfig{
		Addr:      "localhost:6379",
		DB:        1, // Use DB 1 for testing
		KeyPrefix: "guardian:test:alert:",
		TTL:       time.Minute,
	}, zap.NewNop())
	if err != nil {
		t.Skip("Redis not available, skipping test")
	}
	defer reg.Close()

	exerciseRegistry(t, reg, uuid.NewString())
}
