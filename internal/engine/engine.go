package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"travel_guard/internal/anomaly"
	"travel_guard/internal/risk"
	"travel_guard/internal/store"
	"travel_guard/internal/suggest"
)

var (
	// ErrPermissionDenied means the engine may not subscribe to the
	// positioning provider. Surfaced to the caller, never retried here.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrProviderUnavailable wraps a failed subscription attempt at
	// the provider level.
	ErrProviderUnavailable = errors.New("positioning provider unavailable")
)

// SessionState is the monitoring loop's lifecycle state.
type SessionState int

const (
	Unauthorized SessionState = iota // no location permission granted
	Idle                             // authorized, not receiving updates
	Active                           // subscribed to the positioning provider
)

func (s SessionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	default:
		return "unauthorized"
	}
}

// Assessment is the externally observable safety posture: one
// consistent snapshot of score, zone flag, anomaly and guidance.
// Recomputed deterministically from the current sample and evaluation
// time, never cached beyond one evaluation cycle.
type Assessment struct {
	Score          int      `json:"score"`
	InHighRiskZone bool     `json:"in_high_risk_zone"`
	AgeMinutes     int64    `json:"age_minutes"`
	Anomaly        string   `json:"anomaly"`      // condition label, empty when none
	AnomalyKind    string   `json:"anomaly_kind"` // "none", "prolonged_inactivity", "route_deviation"
	Suggestions    []string `json:"suggestions"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	CapturedAtMs   int64    `json:"captured_at_ms"`
	LastSeen       string   `json:"last_seen"`
}

// Options wires the engine's collaborators. Store is required; the
// rest default sensibly.
type Options struct {
	Store       *store.LocationStore
	Detector    *anomaly.Detector
	Zones       []risk.Zone
	ScoreConfig risk.ScoreConfig
	Provider    Provider
	Permissions PermissionAuthority
	Request     SubscriptionRequest
	// NowMs overrides the evaluation clock, for tests.
	NowMs func() int64
	// OnPublish receives each refreshed assessment after a stored
	// sample. Called outside the engine lock.
	OnPublish func(Assessment)
}

// Engine is the monitoring loop: it receives samples from the
// positioning provider, writes them to the location store, and
// re-derives the assessment. One mutex guards the store write plus the
// derived anomaly state so readers always see a consistent snapshot,
// never a torn mix of old sample and new derivation.
type Engine struct {
	mu         sync.Mutex
	state      SessionState
	subscribed bool
	handle     Handle

	store     *store.LocationStore
	detector  *anomaly.Detector
	zones     []risk.Zone
	scoreCfg  risk.ScoreConfig
	provider  Provider
	perms     PermissionAuthority
	req       SubscriptionRequest
	nowMs     func() int64
	onPublish func(Assessment)
}

// New builds an engine in the Unauthorized state.
func New(opts Options) *Engine {
	if opts.Store == nil {
		opts.Store = store.New(nil, "traveler")
	}
	if opts.Detector == nil {
		opts.Detector = anomaly.NewDetector(anomaly.DefaultConfig(), nil)
	}
	if opts.Zones == nil {
		opts.Zones = risk.DefaultZones()
	}
	if opts.ScoreConfig == (risk.ScoreConfig{}) {
		opts.ScoreConfig = risk.DefaultScoreConfig()
	}
	if opts.Request == (SubscriptionRequest{}) {
		opts.Request = DefaultSubscriptionRequest()
	}
	if opts.NowMs == nil {
		opts.NowMs = func() int64 { return time.Now().UnixMilli() }
	}
	return &Engine{
		state:     Unauthorized,
		store:     opts.Store,
		detector:  opts.Detector,
		zones:     opts.Zones,
		scoreCfg:  opts.ScoreConfig,
		provider:  opts.Provider,
		perms:     opts.Permissions,
		req:       opts.Request,
		nowMs:     opts.NowMs,
		onPublish: opts.OnPublish,
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// GrantPermission moves Unauthorized to Idle. External event from the
// permission authority; a no-op in any other state.
func (e *Engine) GrantPermission() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Unauthorized {
		e.state = Idle
		logrus.Info("Location permission granted, engine idle.")
	}
}

// RevokePermission drops to Unauthorized from any state. An active
// subscription is released exactly once; callbacks arriving afterwards
// are ignored.
func (e *Engine) RevokePermission() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releaseLocked()
	if e.state != Unauthorized {
		e.state = Unauthorized
		logrus.Info("Location permission revoked, engine unauthorized.")
	}
}

// Subscribe asks the positioning provider for updates at the
// configured cadence. Idempotent: an already-active engine keeps its
// subscription without creating duplicate delivery. Without permission
// it returns ErrPermissionDenied and creates nothing.
func (e *Engine) Subscribe() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subscribed {
		return nil
	}
	if e.state == Unauthorized {
		return ErrPermissionDenied
	}
	if e.perms != nil && !e.perms.HasLocationPermission() {
		return ErrPermissionDenied
	}
	if e.provider == nil {
		return fmt.Errorf("%w: no provider configured", ErrProviderUnavailable)
	}
	handle, err := e.provider.Subscribe(e.req, e.handleSample)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	e.handle = handle
	e.subscribed = true
	e.state = Active
	logrus.WithFields(logrus.Fields{
		"handle":          string(handle),
		"interval_ms":     e.req.IntervalMs,
		"min_interval_ms": e.req.MinIntervalMs,
		"high_accuracy":   e.req.HighAccuracy,
	}).Info("Subscribed to positioning provider.")
	return nil
}

// Unsubscribe releases the provider subscription and returns to Idle.
// Safe to call repeatedly.
func (e *Engine) Unsubscribe() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releaseLocked()
	if e.state == Active {
		e.state = Idle
	}
}

// Close releases the provider subscription on shutdown. Idempotent;
// used on every exit path.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releaseLocked()
	return nil
}

// releaseLocked unsubscribes exactly once. Callers hold e.mu.
func (e *Engine) releaseLocked() {
	if !e.subscribed {
		return
	}
	if err := e.provider.Unsubscribe(e.handle); err != nil {
		logrus.WithError(err).Warn("Failed to release provider subscription.")
	}
	e.subscribed = false
	e.handle = ""
}

// handleSample is the provider callback: validate, store, re-derive,
// publish. Store write and derivation happen as one unit under the
// engine mutex.
func (e *Engine) handleSample(sample store.Sample) {
	e.mu.Lock()
	if e.state != Active {
		e.mu.Unlock()
		logrus.WithField("state", e.state.String()).
			Debug("Dropping provider callback outside active state.")
		return
	}
	if sample.Absent() || sample.CapturedAtMs == 0 {
		// No usable fix: not an error, simply no state change.
		e.mu.Unlock()
		logrus.Debug("Provider callback without usable fix, ignoring.")
		return
	}
	if err := e.store.Put(sample); err != nil {
		e.mu.Unlock()
		logrus.WithError(err).WithFields(logrus.Fields{
			"latitude":  sample.Latitude,
			"longitude": sample.Longitude,
		}).Warn("Rejected location sample, keeping prior state.")
		return
	}
	e.detector.Record(sample)
	assessment := e.assessLocked()
	e.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"latitude":     sample.Latitude,
		"longitude":    sample.Longitude,
		"score":        assessment.Score,
		"in_risk_zone": assessment.InHighRiskZone,
		"anomaly":      assessment.AnomalyKind,
	}).Info("Location sample accepted, assessment refreshed.")

	if e.onPublish != nil {
		e.onPublish(assessment)
	}
}

// CurrentAssessment re-evaluates against the current sample and clock
// and returns one consistent snapshot.
func (e *Engine) CurrentAssessment() Assessment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.assessLocked()
}

func (e *Engine) assessLocked() Assessment {
	sample, _ := e.store.Get() // zero value stands in for the sentinel
	now := e.nowMs()
	state := e.detector.Evaluate(sample, now)

	lastSeen := "No reading yet"
	if sample.CapturedAtMs > 0 {
		lastSeen = suggest.FormatAge(sample.CapturedAtMs, now)
	}
	return Assessment{
		Score:          e.scoreCfg.Score(sample.Latitude, sample.Longitude),
		InHighRiskZone: risk.InHighRiskZone(sample.Latitude, sample.Longitude, e.zones),
		AgeMinutes:     state.AgeMinutes,
		Anomaly:        state.Label,
		AnomalyKind:    state.Kind.String(),
		Suggestions:    suggest.Lines(state, sample.Latitude, sample.Longitude),
		Latitude:       sample.Latitude,
		Longitude:      sample.Longitude,
		CapturedAtMs:   sample.CapturedAtMs,
		LastSeen:       lastSeen,
	}
}

// Zones returns the configured risk zones.
func (e *Engine) Zones() []risk.Zone {
	return e.zones
}
