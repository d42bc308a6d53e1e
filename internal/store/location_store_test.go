package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBeforeAnySample(t *testing.T) {
	s := New(nil, "traveler")
	_, ok := s.Get()
	assert.False(t, ok)
}

func TestPutThenGet(t *testing.T) {
	s := New(nil, "traveler")
	sample := Sample{Latitude: 26.15, Longitude: 92.9, CapturedAtMs: 1700000000000}
	require.NoError(t, s.Put(sample))

	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, sample, got)
}

func TestPutSupersedes(t *testing.T) {
	s := New(nil, "traveler")
	require.NoError(t, s.Put(Sample{Latitude: 26.15, Longitude: 92.9, CapturedAtMs: 1}))
	require.NoError(t, s.Put(Sample{Latitude: 26.16, Longitude: 92.91, CapturedAtMs: 2}))

	got, _ := s.Get()
	assert.Equal(t, int64(2), got.CapturedAtMs)
	assert.Equal(t, 26.16, got.Latitude)
}

func TestPutRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		sample Sample
	}{
		{"latitude too high", Sample{Latitude: 90.1, Longitude: 0.5}},
		{"latitude too low", Sample{Latitude: -90.1, Longitude: 0.5}},
		{"longitude too high", Sample{Latitude: 0.5, Longitude: 180.1}},
		{"longitude too low", Sample{Latitude: 0.5, Longitude: -180.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(nil, "traveler")
			prior := Sample{Latitude: 26.15, Longitude: 92.9, CapturedAtMs: 10}
			require.NoError(t, s.Put(prior))

			err := s.Put(tt.sample)
			assert.ErrorIs(t, err, ErrInvalidSample)

			// Prior state retained.
			got, ok := s.Get()
			require.True(t, ok)
			assert.Equal(t, prior, got)
		})
	}
}

func TestSampleAbsentSentinel(t *testing.T) {
	assert.True(t, Sample{}.Absent())
	assert.True(t, Sample{CapturedAtMs: 5}.Absent())
	assert.False(t, Sample{Latitude: 0.0001}.Absent())
	assert.False(t, Sample{Longitude: -0.0001}.Absent())
}

func TestRestoreWithoutDatabase(t *testing.T) {
	s := New(nil, "traveler")
	require.NoError(t, s.Restore())
	_, ok := s.Get()
	assert.False(t, ok)
}
