package main

import (
	"bytes"
	"strings"
	"testing"

	"density-api/internal/density"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePlaces(t *testing.T) {
	want := []density.Place{{ID: "a", Lat: 1, Lng: 2}}

	got, err := decodePlaces(strings.NewReader(`{"places":[{"id":"a","lat":1,"lng":2}]}`))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = decodePlaces(strings.NewReader(`[{"id":"a","lat":1,"lng":2}]`))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = decodePlaces(strings.NewReader(`nope`))
	assert.Error(t, err)
}

func TestDecodePlacesRejectsMissingCoordinates(t *testing.T) {
	for _, body := range []string{
		`{"places":[{"id":"a","lat":1}]}`,
		`[{"id":"a","lng":2}]`,
		`[{"id":"a"}]`,
	} {
		_, err := decodePlaces(strings.NewReader(body))
		assert.ErrorIs(t, err, density.ErrInvalidLocation, body)
	}

	got, err := decodePlaces(strings.NewReader(`[{"id":"equator","lat":0,"lng":0}]`))
	require.NoError(t, err)
	assert.Equal(t, []density.Place{{ID: "equator"}}, got)
}

func TestPruneDryRunNeedsNoDB(t *testing.T) {
	cmd := pruneCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--older-than", "720h", "--dry-run"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "would delete reports created before")
}

func TestPruneHonorsConfiguredLookback(t *testing.T) {
	t.Setenv("DENSITY_LOOKBACK_MIN", "1440")
	cmd := pruneCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--older-than", "12h", "--dry-run"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "24h0m0s")

	cmd = pruneCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--older-than", "48h", "--dry-run"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "would delete")
}

func TestPruneRejectsWindowInsideLookback(t *testing.T) {
	cmd := pruneCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--older-than", "30m", "--dry-run"})
	assert.Error(t, cmd.Execute())
}
