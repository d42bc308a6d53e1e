package models

import (
	"gorm.io/gorm"
)

// LastLocation is the durable copy of the most recent accepted location
// sample, keyed by a fixed traveler key so exactly one row exists per
// traveler. Latitude/longitude are stored at 32-bit precision; the
// capture timestamp keeps full epoch-millisecond resolution.
type LastLocation struct {
	gorm.Model
	TravelerKey  string  `json:"traveler_key" gorm:"uniqueIndex"`
	Latitude     float32 `json:"latitude"`
	Longitude    float32 `json:"longitude"`
	CapturedAtMs int64   `json:"captured_at_ms"`
}
