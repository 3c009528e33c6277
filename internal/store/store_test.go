package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"density-api/internal/density"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestNormalizeDefaultsAndTruncation(t *testing.T) {
	r := NewReport{
		PlaceID:  "  fsq-1 ",
		Level:    density.High,
		Source:   strings.Repeat("s", 40),
		UserHash: strings.Repeat("h", 200),
	}
	require.NoError(t, r.normalize())
	assert.Equal(t, "fsq-1", r.PlaceID)
	assert.Len(t, r.Source, 32)
	assert.Len(t, r.UserHash, 128)

	r2 := NewReport{PlaceID: "p", Level: density.Low}
	require.NoError(t, r2.normalize())
	assert.Equal(t, "user", r2.Source)
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	cases := map[string]NewReport{
		"missing id":    {Level: density.Low},
		"unknown level": {PlaceID: "p", Level: density.Unknown},
		"bad lat":       {PlaceID: "p", Level: density.Med, Lat: ptr(95), Lng: ptr(0)},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			err := r.normalize()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidReport))
		})
	}
}

func TestNormalizeDropsHalfCoordinates(t *testing.T) {
	r := NewReport{PlaceID: "p", Level: density.Med, Lat: ptr(10)}
	require.NoError(t, r.normalize())
	assert.Nil(t, r.Lat)
	assert.Nil(t, r.Lng)
}

func TestReportsSinceEmptyIDsSkipsDatabase(t *testing.T) {
	s := &Store{}
	rows, err := s.ReportsSince(context.Background(), nil, time.Now())
	require.NoError(t, err)
	assert.Empty(t, rows)
}
