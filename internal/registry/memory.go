// Package registry holds the active alerts of an orchestrator, keyed by
// evidence ID. Entries are inserted once and never updated.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/xkilldash9x/guardian/api/schemas"
)

// Memory is an in-process registry owned by a single orchestrator.
type Memory struct {
	mu     sync.RWMutex
	alerts map[string]schemas.ActiveAlert
}

func NewMemory() *Memory {
	return &Memory{alerts: make(map[string]schemas.ActiveAlert)}
}

// Register inserts alert. A second registration for the same evidence ID
// fails with schemas.ErrAlertExists and leaves the first entry in place.
func (m *Memory) Register(_ context.Context, alert schemas.ActiveAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.alerts[alert.EvidenceID]; exists {
		return fmt.Errorf("alert %s: %w", alert.EvidenceID, schemas.ErrAlertExists)
	}
	alert.Results = append([]schemas.ChannelResult(nil), alert.Results...)
	m.alerts[alert.EvidenceID] = alert
	return nil
}

func (m *Memory) Lookup(_ context.Context, evidenceID string) (schemas.ActiveAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	alert, ok := m.alerts[evidenceID]
	if !ok {
		return schemas.ActiveAlert{}, fmt.Errorf("alert %s: %w", evidenceID, schemas.ErrNotFound)
	}
	alert.Results = append([]schemas.ChannelResult(nil), alert.Results...)
	return alert, nil
}

// Len reports how many alerts are registered.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.alerts)
}
