package schemas

import "fmt"

// -- Signal Schemas --

// SignalName identifies which independent evidence channel produced a signal.
type SignalName string

const (
	SignalContradiction SignalName = "contradiction"
	SignalDrift         SignalName = "drift"
	SignalImpersonation SignalName = "impersonation"
)

// Scale is the native upper bound of a signal's value. Signals on different
// scales are only ever combined after Normalize maps them onto ScaleTen.
type Scale float64

const (
	// ScaleTen is used by contradiction and impersonation-risk scores.
	ScaleTen Scale = 10
	// ScalePercent is used by the style-drift score.
	ScalePercent Scale = 100
)

// Signal is an immutable (name, value, scale) triple.
type Signal struct {
	Name  SignalName `json:"name"`
	Value float64    `json:"value"`
	Scale Scale      `json:"scale"`
}

// NewSignal builds a signal, rejecting scales that cannot be normalised.
func NewSignal(name SignalName, value float64, scale Scale) (Signal, error) {
	if scale <= 0 {
		return Signal{}, fmt.Errorf("signal %q has non-positive scale %v", name, scale)
	}
	return Signal{Name: name, Value: value, Scale: scale}, nil
}

// ContradictionSignal wraps a 0-10 contradiction score.
func ContradictionSignal(v float64) Signal {
	return Signal{Name: SignalContradiction, Value: v, Scale: ScaleTen}
}

// DriftSignal wraps a 0-100 drift percentage.
func DriftSignal(v float64) Signal {
	return Signal{Name: SignalDrift, Value: v, Scale: ScalePercent}
}

// ImpersonationSignal wraps a 0-10 impersonation-risk score.
func ImpersonationSignal(v float64) Signal {
	return Signal{Name: SignalImpersonation, Value: v, Scale: ScaleTen}
}

// Normalize maps the signal onto the 0-10 fusion scale. Values outside the
// native range are clamped first, and a zero-value Signal normalises to 0.
func (s Signal) Normalize() float64 {
	if s.Scale <= 0 {
		return 0
	}
	v := s.Value
	if v < 0 || v != v {
		v = 0
	}
	if v > float64(s.Scale) {
		v = float64(s.Scale)
	}
	return v * float64(ScaleTen) / float64(s.Scale)
}

// SignalSet groups the three fused channels of a single content item.
type SignalSet struct {
	Contradiction Signal `json:"contradiction"`
	Drift         Signal `json:"drift"`
	Impersonation Signal `json:"impersonation"`
}

// All returns the set as a slice in a stable order.
func (s SignalSet) All() []Signal {
	return []Signal{s.Contradiction, s.Drift, s.Impersonation}
}
