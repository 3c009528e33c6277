package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchNormalizesResults(t *testing.T) {
	var gotAuth, gotVersion, gotLL, gotRadius string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("X-Places-Api-Version")
		gotLL = r.URL.Query().Get("ll")
		gotRadius = r.URL.Query().Get("radius")
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"fsq_place_id":"new1","name":"Cafe","latitude":40.1,"longitude":-73.2,"categories":[{"name":"Coffee"}]},
			{"fsq_id":"old1","name":"Gym","geocodes":{"main":{"latitude":40.2,"longitude":-73.3}}},
			{"name":"no id","latitude":1,"longitude":2},
			{"fsq_id":"nocoords","name":"x"}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", "", srv.Client())
	got, err := c.Search(context.Background(), SearchParams{Lat: 40.1, Lng: -73.2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Place{ID: "new1", Name: "Cafe", Lat: 40.1, Lng: -73.2, Category: "Coffee"}, got[0])
	assert.Equal(t, "old1", got[1].ID)
	assert.Equal(t, 40.2, got[1].Lat)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, DefaultAPIVersion, gotVersion)
	assert.Equal(t, "40.100000,-73.200000", gotLL)
	assert.Equal(t, DefaultRadius, gotRadius)
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "k", "", srv.Client()).Search(context.Background(), SearchParams{})
	assert.True(t, errors.Is(err, ErrUpstream))
}

func TestSearchRequiresKey(t *testing.T) {
	_, err := New("", "", "", nil).Search(context.Background(), SearchParams{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	var nilClient *Client
	assert.False(t, nilClient.Configured())
}
