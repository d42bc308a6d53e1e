package models

import (
	"gorm.io/gorm"
)

// TravelerProfile holds the per-traveler identity the engine monitors.
// SafetyID is the short identifier shown to trusted contacts.
type TravelerProfile struct {
	gorm.Model
	TravelerKey string `json:"traveler_key" gorm:"uniqueIndex"`
	SafetyID    string `json:"safety_id"`
}
