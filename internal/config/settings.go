package config

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"travel_guard/internal/engine"
	"travel_guard/internal/models"
)

// TravelerKey returns the fixed key the engine monitors under. The
// persisted-state layout is one record per key.
func TravelerKey() string {
	return getEnv("TRAVELER_KEY", "traveler")
}

// SubscriptionRequest builds the provider cadence from env vars, with
// the reference defaults (10 s target, 5 s minimum, high accuracy).
func SubscriptionRequest() engine.SubscriptionRequest {
	req := engine.DefaultSubscriptionRequest()
	req.IntervalMs = getEnvInt64("LOCATION_INTERVAL_MS", req.IntervalMs)
	req.MinIntervalMs = getEnvInt64("LOCATION_MIN_INTERVAL_MS", req.MinIntervalMs)
	return req
}

// EnsureProfile makes sure a traveler profile with a safety ID exists,
// creating one with a fresh identifier on first boot.
func EnsureProfile(travelerKey string) models.TravelerProfile {
	profile := models.TravelerProfile{
		TravelerKey: travelerKey,
		SafetyID:    uuid.NewString()[:8],
	}
	if DB == nil {
		return profile
	}
	if err := DB.Where("traveler_key = ?", travelerKey).FirstOrCreate(&profile).Error; err != nil {
		logrus.WithError(err).WithField("traveler_key", travelerKey).
			Warn("Failed to ensure traveler profile.")
	}
	return profile
}

func getEnvInt64(key string, defaultValue int64) int64 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logrus.WithField("key", key).WithError(err).
			Warn("Ignoring non-numeric environment value.")
		return defaultValue
	}
	return v
}
