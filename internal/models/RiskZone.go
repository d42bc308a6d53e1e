package models

import (
	"gorm.io/gorm"
)

// RiskZone mirrors the configured zone set into the database at
// startup. Zones are configuration data and never mutated at runtime.
type RiskZone struct {
	gorm.Model
	Label        string  `json:"label" gorm:"uniqueIndex"`
	CenterLat    float64 `json:"center_lat"`
	CenterLng    float64 `json:"center_lng"`
	RadiusMeters float64 `json:"radius_meters"`
}
