package suggest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel_guard/internal/anomaly"
)

func TestLinesAllNormal(t *testing.T) {
	lines := Lines(anomaly.State{Kind: anomaly.None}, 26.2006, 92.9376)
	require.Equal(t, []string{
		"All normal. Explore nearby attractions safely.",
		"Nearest help center is approx 1.2 km from your location.",
		"Open map: https://maps.google.com/?q=26.2006,92.9376",
	}, lines)
}

func TestLinesInactivity(t *testing.T) {
	state := anomaly.State{Kind: anomaly.ProlongedInactivity, Label: "Prolonged inactivity detected", AgeMinutes: 42}
	lines := Lines(state, 26.15, 92.9)
	require.Equal(t, []string{
		"We detected: Prolonged inactivity detected",
		"Consider taking a short break at a nearby safe spot.",
		"Notify a trusted contact if you feel unwell.",
		"Nearest help center is approx 1.2 km from your location.",
		"Open map: https://maps.google.com/?q=26.15,92.9",
	}, lines)
}

func TestLinesDeviation(t *testing.T) {
	state := anomaly.State{Kind: anomaly.RouteDeviation, Label: "Route deviation detected"}
	lines := Lines(state, 25.57, 91.88)
	require.Equal(t, []string{
		"We detected: Route deviation detected",
		"You seem off your planned route. Would you like safer alternatives?",
		"Opening map to guide you back to the main route.",
		"Nearest help center is approx 1.2 km from your location.",
		"Open map: https://maps.google.com/?q=25.57,91.88",
	}, lines)
}

func TestLinesUnmatchedLabelGetsNoRemediation(t *testing.T) {
	state := anomaly.State{Kind: anomaly.RouteDeviation, Label: "Sudden jump detected"}
	lines := Lines(state, 1.5, 2.5)
	require.Len(t, lines, 3)
	assert.Equal(t, "We detected: Sudden jump detected", lines[0])
}

func TestLinesDeterministic(t *testing.T) {
	state := anomaly.State{Kind: anomaly.ProlongedInactivity, Label: "Prolonged inactivity detected"}
	assert.Equal(t, Lines(state, 26.15, 92.9), Lines(state, 26.15, 92.9))
}

func TestLinesEndWithDeepLinkOfExactCoordinates(t *testing.T) {
	lines := Lines(anomaly.State{Kind: anomaly.None}, -12.0464, -77.0428)
	last := lines[len(lines)-1]
	assert.True(t, strings.Contains(last, "?q=-12.0464,-77.0428"), "got %q", last)
}

func TestMapLinkInterpolatesSentinel(t *testing.T) {
	// The deep link interpolates whatever it is given, sentinel included.
	assert.Equal(t, "https://maps.google.com/?q=0,0", MapLink(0, 0))
}

func TestFormatAge(t *testing.T) {
	const minuteMs = int64(60_000)
	now := int64(1_000_000 * minuteMs)
	tests := []struct {
		name string
		age  int64 // minutes
		want string
	}{
		{"under a minute", 0, "Just now"},
		{"single minute", 1, "1 minutes ago"},
		{"most of an hour", 59, "59 minutes ago"},
		{"exactly an hour", 60, "1 hours ago"},
		{"two hours", 125, "2 hours ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAge(now-tt.age*minuteMs, now))
		})
	}
}
