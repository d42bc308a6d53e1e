package models

import (
	"gorm.io/gorm"
)

// LocationRecord is one entry in the traveler's persisted location
// trail. Only samples that pass the significance filter are recorded,
// so the trail stays sparse while still giving a future route
// comparator something to work with.
type LocationRecord struct {
	gorm.Model
	TravelerKey      string  `json:"traveler_key" gorm:"index"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	CapturedAtMs     int64   `json:"captured_at_ms"`
	DistanceFromLast float64 `json:"distance_from_last"` // meters from previous recorded point
	BearingDeg       float64 `json:"bearing_deg"`
	EventType        string  `json:"event_type"` // "initial", "move", "periodic"
}
