package risk

// Zone is a configured circular region around a point of concern.
// A location is considered high-risk when it falls strictly inside the
// radius of any configured zone.
type Zone struct {
	Label        string  `json:"label"`
	CenterLat    float64 `json:"center_lat"`
	CenterLng    float64 `json:"center_lng"`
	RadiusMeters float64 `json:"radius_meters"`
}

// DefaultZones returns the built-in zone set used when no zone
// configuration is supplied.
func DefaultZones() []Zone {
	return []Zone{
		{
			Label:        "Kaziranga perimeter",
			CenterLat:    26.2006,
			CenterLng:    92.9376,
			RadiusMeters: 1000,
		},
	}
}

// InHighRiskZone reports whether (lat, lng) lies inside any zone.
// The (0,0) sentinel is never in a zone.
func InHighRiskZone(lat, lng float64, zones []Zone) bool {
	if lat == 0 && lng == 0 {
		return false
	}
	for _, z := range zones {
		if Distance(lat, lng, z.CenterLat, z.CenterLng) < z.RadiusMeters {
			return true
		}
	}
	return false
}
