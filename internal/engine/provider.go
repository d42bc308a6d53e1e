package engine

import (
	"sync"

	"github.com/google/uuid"

	"travel_guard/internal/store"
)

// Handle identifies one provider subscription.
type Handle string

// SubscriptionRequest describes the update cadence the engine asks the
// positioning provider for.
type SubscriptionRequest struct {
	IntervalMs         int64 `json:"interval_ms"`
	MinIntervalMs      int64 `json:"min_interval_ms"`
	HighAccuracy       bool  `json:"high_accuracy"`
	WaitForAccurateFix bool  `json:"wait_for_accurate_fix"`
}

// DefaultSubscriptionRequest matches the reference cadence: 10 s
// target, 5 s minimum, high accuracy, wait for an accurate first fix.
func DefaultSubscriptionRequest() SubscriptionRequest {
	return SubscriptionRequest{
		IntervalMs:         10000,
		MinIntervalMs:      5000,
		HighAccuracy:       true,
		WaitForAccurateFix: true,
	}
}

// Provider is the external positioning collaborator. Implementations
// push samples to the delivery function at the requested cadence.
// Subscribe and Unsubscribe must both be idempotent.
type Provider interface {
	Subscribe(req SubscriptionRequest, deliver func(store.Sample)) (Handle, error)
	Unsubscribe(handle Handle) error
}

// PermissionAuthority is the external collaborator answering whether
// location access is currently granted. The engine never subscribes
// without a true result.
type PermissionAuthority interface {
	HasLocationPermission() bool
}

// PushProvider adapts a push-based source (the device feed socket) to
// the Provider interface. Whatever transports the samples calls
// Deliver; delivery is forwarded only while a subscription is live.
type PushProvider struct {
	mu      sync.Mutex
	handle  Handle
	req     SubscriptionRequest
	deliver func(store.Sample)
}

// NewPushProvider returns an unsubscribed push provider.
func NewPushProvider() *PushProvider {
	return &PushProvider{}
}

// Subscribe registers the delivery function. A second subscribe
// returns the existing handle without doubling delivery.
func (p *PushProvider) Subscribe(req SubscriptionRequest, deliver func(store.Sample)) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deliver != nil {
		return p.handle, nil
	}
	p.handle = Handle(uuid.NewString())
	p.req = req
	p.deliver = deliver
	return p.handle, nil
}

// Unsubscribe drops the delivery function. Unknown or repeated handles
// are a no-op.
func (p *PushProvider) Unsubscribe(handle Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if handle != p.handle || p.deliver == nil {
		return nil
	}
	p.deliver = nil
	p.handle = ""
	return nil
}

// Deliver pushes one sample toward the engine. Reports false when no
// subscription is live, so transports can tell the device its updates
// are going nowhere.
func (p *PushProvider) Deliver(sample store.Sample) bool {
	p.mu.Lock()
	deliver := p.deliver
	p.mu.Unlock()
	if deliver == nil {
		return false
	}
	deliver(sample)
	return true
}

// Request returns the cadence of the live subscription, zero value
// when unsubscribed. The feed socket reports it to the device.
func (p *PushProvider) Request() SubscriptionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.req
}
