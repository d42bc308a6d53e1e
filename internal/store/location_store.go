package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"travel_guard/internal/models"
	"travel_guard/internal/risk"
)

// ErrInvalidSample is returned when a sample carries out-of-range
// coordinates. The store is left unchanged.
var ErrInvalidSample = errors.New("invalid location sample")

// Sample is one location reading with its capture time. (0,0) is the
// absent-location sentinel and must never be treated as a real
// equatorial position. Samples are immutable; a new reading supersedes
// the previous one, it never mutates it.
type Sample struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	CapturedAtMs int64   `json:"captured_at_ms"`
}

// Absent reports whether the sample is the "no reading yet" sentinel.
func (s Sample) Absent() bool {
	return s.Latitude == 0 && s.Longitude == 0
}

// Thresholds for the significance filter on the persisted trail.
const (
	minDistanceForRecord   = 5.0 // meters
	periodicRecordInterval = 60 * time.Second
)

// LocationStore owns the traveler's most recent location sample. The
// in-memory value is authoritative; the database copy is best-effort
// durability so the last-known position survives a restart. A failed
// write degrades to memory-only, it never fails the caller.
//
// The store is not internally locked: the monitoring engine serializes
// every Put against snapshot reads behind its own mutex.
type LocationStore struct {
	db          *gorm.DB // nil means memory-only
	travelerKey string

	current Sample
	hasAny  bool

	lastRecord   Sample
	lastRecorded time.Time
}

// New creates a store for one traveler. db may be nil for a
// memory-only store (tests, degraded startup).
func New(db *gorm.DB, travelerKey string) *LocationStore {
	return &LocationStore{db: db, travelerKey: travelerKey}
}

// Restore loads the last persisted sample, if any, so the engine
// resumes from the pre-restart state.
func (s *LocationStore) Restore() error {
	if s.db == nil {
		return nil
	}
	var rec models.LastLocation
	err := s.db.Where("traveler_key = ?", s.travelerKey).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore last location: %w", err)
	}
	s.current = Sample{
		Latitude:     float64(rec.Latitude),
		Longitude:    float64(rec.Longitude),
		CapturedAtMs: rec.CapturedAtMs,
	}
	s.hasAny = !s.current.Absent()
	return nil
}

// Put replaces the current sample after range-validating it. The
// previous sample is superseded, not mutated. Persistence failures are
// logged and swallowed per the best-effort durability contract.
func (s *LocationStore) Put(sample Sample) error {
	if sample.Latitude < -90 || sample.Latitude > 90 ||
		sample.Longitude < -180 || sample.Longitude > 180 {
		return fmt.Errorf("%w: lat=%v lng=%v", ErrInvalidSample, sample.Latitude, sample.Longitude)
	}
	s.current = sample
	s.hasAny = true
	s.persist(sample)
	return nil
}

// Get returns the current sample. ok is false until a sample has been
// accepted in this session or restored from durable state.
func (s *LocationStore) Get() (Sample, bool) {
	if !s.hasAny {
		return Sample{}, false
	}
	return s.current, true
}

func (s *LocationStore) persist(sample Sample) {
	if s.db == nil {
		return
	}
	last := models.LastLocation{
		TravelerKey:  s.travelerKey,
		Latitude:     float32(sample.Latitude),
		Longitude:    float32(sample.Longitude),
		CapturedAtMs: sample.CapturedAtMs,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "traveler_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"latitude", "longitude", "captured_at_ms", "updated_at"}),
	}).Create(&last).Error
	if err != nil {
		logrus.WithError(err).WithField("traveler_key", s.travelerKey).
			Warn("Failed to persist last location, keeping in-memory state.")
		return
	}
	s.appendTrail(sample)
}

// appendTrail records the sample in the location trail when the move
// is significant: first point, >= 5 m displacement, or 60 s since the
// previous recorded point.
func (s *LocationStore) appendTrail(sample Sample) {
	var (
		distance  float64
		bearing   float64
		eventType string
	)
	switch {
	case s.lastRecorded.IsZero():
		eventType = "initial"
	default:
		distance = risk.Distance(s.lastRecord.Latitude, s.lastRecord.Longitude, sample.Latitude, sample.Longitude)
		bearing = risk.Bearing(s.lastRecord.Latitude, s.lastRecord.Longitude, sample.Latitude, sample.Longitude)
		if distance >= minDistanceForRecord {
			eventType = "move"
		} else if time.Since(s.lastRecorded) >= periodicRecordInterval {
			eventType = "periodic"
		} else {
			return
		}
	}

	rec := models.LocationRecord{
		TravelerKey:      s.travelerKey,
		Latitude:         sample.Latitude,
		Longitude:        sample.Longitude,
		CapturedAtMs:     sample.CapturedAtMs,
		DistanceFromLast: distance,
		BearingDeg:       bearing,
		EventType:        eventType,
	}
	if err := s.db.Create(&rec).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"traveler_key": s.travelerKey,
			"event_type":   eventType,
		}).Warn("Failed to append location trail record.")
		return
	}
	s.lastRecord = sample
	s.lastRecorded = time.Now()
	logrus.WithFields(logrus.Fields{
		"traveler_key": s.travelerKey,
		"event_type":   eventType,
		"distance_m":   fmt.Sprintf("%.2f", distance),
	}).Debug("Location trail record appended.")
}
