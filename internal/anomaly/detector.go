package anomaly

import (
	"travel_guard/internal/store"
)

// Kind classifies an anomaly.
type Kind int

const (
	None Kind = iota
	ProlongedInactivity
	RouteDeviation
)

func (k Kind) String() string {
	switch k {
	case ProlongedInactivity:
		return "prolonged_inactivity"
	case RouteDeviation:
		return "route_deviation"
	default:
		return "none"
	}
}

// State is the outcome of one evaluation cycle. Label carries the
// human-readable condition used by the suggestion generator; it is
// empty when Kind is None.
type State struct {
	Kind       Kind
	Label      string
	AgeMinutes int64
}

// inactivityLabel is the exact condition text shown to the traveler.
const inactivityLabel = "Prolonged inactivity detected"

// RouteComparator is the extension point for route-deviation
// detection. The engine ships none: deviation is a declared capability
// whose comparison data (a planned route) comes from an external
// trip-planning collaborator.
type RouteComparator interface {
	// OffRoute inspects the recent samples, newest last, and reports a
	// deviation label when the traveler has left the planned route.
	OffRoute(recent []store.Sample) (label string, off bool)
}

// Config holds the detection thresholds as data rather than code.
type Config struct {
	InactivityMinutes int64
	HistoryDepth      int
}

// DefaultConfig returns the reference thresholds: inactivity after 30
// minutes, 32 retained samples for a future comparator.
func DefaultConfig() Config {
	return Config{InactivityMinutes: 30, HistoryDepth: 32}
}

// Detector evaluates anomaly rules against the current sample. It
// keeps the last evaluated state as working memory only; no external
// mutator exists. Like the store, it relies on the engine's single
// writer discipline rather than internal locking.
type Detector struct {
	cfg        Config
	comparator RouteComparator
	last       State
	recent     []store.Sample
}

// NewDetector creates a detector. comparator may be nil, in which case
// only inactivity is ever reported.
func NewDetector(cfg Config, comparator RouteComparator) *Detector {
	if cfg.InactivityMinutes <= 0 {
		cfg.InactivityMinutes = DefaultConfig().InactivityMinutes
	}
	if cfg.HistoryDepth <= 0 {
		cfg.HistoryDepth = DefaultConfig().HistoryDepth
	}
	return &Detector{cfg: cfg, comparator: comparator}
}

// Record appends an accepted sample to the bounded recent-sample ring.
// Called once per stored sample, separately from Evaluate so that
// re-evaluating the same sample stays idempotent.
func (d *Detector) Record(sample store.Sample) {
	d.recent = append(d.recent, sample)
	if len(d.recent) > d.cfg.HistoryDepth {
		d.recent = d.recent[len(d.recent)-d.cfg.HistoryDepth:]
	}
}

// Evaluate classifies the sample against the anomaly rules at nowMs.
// Calling it twice with identical inputs yields the identical State;
// the only mutation is remembering the result as the last known state.
func (d *Detector) Evaluate(sample store.Sample, nowMs int64) State {
	state := d.classify(sample, nowMs)
	d.last = state
	return state
}

func (d *Detector) classify(sample store.Sample, nowMs int64) State {
	if sample.CapturedAtMs == 0 {
		return State{Kind: None}
	}
	ageMinutes := (nowMs - sample.CapturedAtMs) / 60000
	if ageMinutes >= d.cfg.InactivityMinutes {
		return State{Kind: ProlongedInactivity, Label: inactivityLabel, AgeMinutes: ageMinutes}
	}
	if d.comparator != nil {
		if label, off := d.comparator.OffRoute(d.recent); off {
			return State{Kind: RouteDeviation, Label: label, AgeMinutes: ageMinutes}
		}
	}
	return State{Kind: None, AgeMinutes: ageMinutes}
}

// Last returns the most recently evaluated state.
func (d *Detector) Last() State {
	return d.last
}
