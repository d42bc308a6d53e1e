package suggest

import (
	"fmt"
	"strings"

	"travel_guard/internal/anomaly"
)

// Lines maps an anomaly state plus the current coordinates to the
// ordered guidance shown to the traveler. Pure function: identical
// inputs always produce the identical sequence.
//
// The text is a placeholder for model-driven guidance; the help-center
// distance is a static line, not computed from facility data.
func Lines(state anomaly.State, lat, lng float64) []string {
	var lines []string
	if state.Kind != anomaly.None {
		lines = append(lines, "We detected: "+state.Label)
		label := strings.ToLower(state.Label)
		switch {
		case strings.Contains(label, "inactivity"):
			lines = append(lines,
				"Consider taking a short break at a nearby safe spot.",
				"Notify a trusted contact if you feel unwell.")
		case strings.Contains(label, "deviat"):
			lines = append(lines,
				"You seem off your planned route. Would you like safer alternatives?",
				"Opening map to guide you back to the main route.")
		}
	} else {
		lines = append(lines, "All normal. Explore nearby attractions safely.")
	}
	lines = append(lines, "Nearest help center is approx 1.2 km from your location.")
	lines = append(lines, "Open map: "+MapLink(lat, lng))
	return lines
}

// MapLink builds the map deep link from the exact coordinate values
// passed in. Emitted as an opaque string, never parsed back.
func MapLink(lat, lng float64) string {
	return fmt.Sprintf("https://maps.google.com/?q=%v,%v", lat, lng)
}

// FormatAge humanizes the age of a capture timestamp relative to
// nowMs: "Just now" under a minute, then minutes, then hours.
func FormatAge(capturedAtMs, nowMs int64) string {
	minutes := (nowMs - capturedAtMs) / 60000
	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%d minutes ago", minutes)
	default:
		return fmt.Sprintf("%d hours ago", minutes/60)
	}
}
