// Package alerting renders threat decisions and fans them out to notification
// channels. Channel failures are reported as results and never returned as
// errors.
package alerting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/observability"
)

// Channel is a single notification transport.
type Channel interface {
	Name() string
	// Configured reports whether credentials are present. Unconfigured
	// channels are skipped without any I/O.
	Configured() bool
	// MinLevel is the lowest threat level the channel is invoked for.
	MinLevel() schemas.ThreatLevel
	// Send delivers the alert and returns a short delivery receipt.
	Send(ctx context.Context, snapshot schemas.ThreatSnapshot) (string, error)
}

const defaultChannelTimeout = 15 * time.Second

// PushFloor is the lowest level any push channel is invoked for. Low items
// reach the local channel only.
const PushFloor = schemas.ThreatMedium

// parsePushLevel parses a push channel's configured minimum and raises it to
// PushFloor when it is lower.
func parsePushLevel(channel, raw string, logger *zap.Logger) (schemas.ThreatLevel, error) {
	level, ok := schemas.ParseThreatLevel(raw)
	if !ok {
		return "", fmt.Errorf("invalid %s min_level %q", channel, raw)
	}
	if !level.AtLeast(PushFloor) {
		logger.Warn("Push channel minimum level raised.",
			zap.String("configured", string(level)),
			zap.String("effective", string(PushFloor)))
		level = PushFloor
	}
	return level, nil
}

// Dispatcher invokes the local channel for every alert and each push channel
// whose minimum level the alert reaches.
type Dispatcher struct {
	local   Channel
	push    []Channel
	timeout time.Duration
	metrics *observability.Metrics
	logger  *zap.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithChannelTimeout bounds each channel's Send call.
func WithChannelTimeout(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) {
		if d > 0 {
			dp.timeout = d
		}
	}
}

// WithMetrics records every channel result.
func WithMetrics(m *observability.Metrics) DispatcherOption {
	return func(dp *Dispatcher) { dp.metrics = m }
}

// NewDispatcher builds a dispatcher around the always-on local channel.
func NewDispatcher(local Channel, push []Channel, logger *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		local:   local,
		push:    push,
		timeout: defaultChannelTimeout,
		logger:  logger.Named("dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Channels lists the names of all channels in result order.
func (d *Dispatcher) Channels() []string {
	names := []string{d.local.Name()}
	for _, ch := range d.push {
		names = append(names, ch.Name())
	}
	return names
}

// Dispatch returns one result per channel: the local channel first, then the
// push channels in registration order.
func (d *Dispatcher) Dispatch(ctx context.Context, snapshot schemas.ThreatSnapshot) []schemas.ChannelResult {
	results := make([]schemas.ChannelResult, 1+len(d.push))

	var g errgroup.Group
	g.Go(func() error {
		results[0] = d.invoke(ctx, d.local, snapshot)
		return nil
	})
	for i, ch := range d.push {
		if reason, skip := d.gate(ch, snapshot.Classification.Level); skip {
			results[i+1] = schemas.ChannelResult{Channel: ch.Name(), Status: schemas.DispatchSkipped, Detail: reason}
			continue
		}
		g.Go(func() error {
			results[i+1] = d.invoke(ctx, ch, snapshot)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		d.metrics.AlertDispatched(r.Channel, string(r.Status))
		if r.Status == schemas.DispatchFailed {
			d.logger.Warn("Alert channel failed.",
				zap.String("channel", r.Channel),
				zap.String("evidence_id", snapshot.EvidenceID),
				zap.String("detail", r.Detail))
		}
	}
	return results
}

func (d *Dispatcher) gate(ch Channel, level schemas.ThreatLevel) (string, bool) {
	minimum := ch.MinLevel()
	if !minimum.AtLeast(PushFloor) {
		minimum = PushFloor
	}
	if !level.AtLeast(minimum) {
		return fmt.Sprintf("level %s below channel minimum %s", level, minimum), true
	}
	if !ch.Configured() {
		return "channel not configured", true
	}
	return "", false
}

// invoke runs one Send under the channel timeout. Panics become failures.
func (d *Dispatcher) invoke(ctx context.Context, ch Channel, snapshot schemas.ThreatSnapshot) (result schemas.ChannelResult) {
	result.Channel = ch.Name()
	defer func() {
		if r := recover(); r != nil {
			result.Status = schemas.DispatchFailed
			result.Detail = fmt.Sprintf("panic: %v", r)
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	receipt, err := ch.Send(sendCtx, snapshot)
	if err != nil {
		result.Status = schemas.DispatchFailed
		result.Detail = err.Error()
		return result
	}
	result.Status = schemas.DispatchSent
	result.Detail = receipt
	return result
}
