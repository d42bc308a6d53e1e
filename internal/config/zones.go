package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"

	"travel_guard/internal/models"
	"travel_guard/internal/risk"
)

// LoadZones resolves the high-risk zone configuration: a GeoJSON file
// named by RISK_ZONES_FILE when present, the built-in default zone
// otherwise. The resolved set is mirrored into the risk_zones table so
// operators can inspect what the engine is running with. Zones are
// loaded once at startup and never mutated afterwards.
func LoadZones() []risk.Zone {
	zones := risk.DefaultZones()
	if path := os.Getenv("RISK_ZONES_FILE"); path != "" {
		loaded, err := parseZoneFile(path)
		if err != nil {
			logrus.WithError(err).WithField("path", path).
				Warn("Failed to load risk-zone file, falling back to default zones.")
		} else if len(loaded) > 0 {
			zones = loaded
		}
	}
	seedZones(zones)
	return zones
}

// parseZoneFile reads a GeoJSON FeatureCollection of Point features.
// Each feature needs "label" and "radius_meters" properties.
func parseZoneFile(path string) ([]risk.Zone, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc gjson.FeatureCollection
	if err := fc.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("invalid zone GeoJSON: %w", err)
	}

	var zones []risk.Zone
	for _, f := range fc.Features {
		point, ok := f.Geometry.(*geom.Point)
		if !ok {
			logrus.WithField("path", path).Warn("Skipping non-Point zone feature.")
			continue
		}
		label, _ := f.Properties["label"].(string)
		radius, ok := f.Properties["radius_meters"].(float64)
		if label == "" || !ok || radius <= 0 {
			logrus.WithFields(logrus.Fields{
				"path":  path,
				"label": label,
			}).Warn("Skipping zone feature without label or positive radius_meters.")
			continue
		}
		coords := point.Coords()
		zones = append(zones, risk.Zone{
			Label:        label,
			CenterLng:    coords[0],
			CenterLat:    coords[1],
			RadiusMeters: radius,
		})
	}
	return zones, nil
}

// seedZones mirrors the zone set to the database, best effort.
func seedZones(zones []risk.Zone) {
	if DB == nil {
		return
	}
	for _, z := range zones {
		row := models.RiskZone{
			Label:        z.Label,
			CenterLat:    z.CenterLat,
			CenterLng:    z.CenterLng,
			RadiusMeters: z.RadiusMeters,
		}
		if err := DB.Where("label = ?", z.Label).FirstOrCreate(&row).Error; err != nil {
			logrus.WithError(err).WithField("label", z.Label).
				Warn("Failed to mirror risk zone to database.")
		}
	}
}
