package ors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/route-impact/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const routeResponse = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "geometry": {"type": "LineString", "coordinates": [[4.47, 51.92], [4.60, 51.95], [5.11, 52.09]]},
    "properties": {"summary": {"distance": 61234.5, "duration": 3000}}
  }]
}`

func TestClient_Route(t *testing.T) {
	origin := domain.GeoPoint{Lat: 51.92, Lng: 4.47}
	dest := domain.GeoPoint{Lat: 52.09, Lng: 5.11}

	t.Run("heavy uses hgv profile", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/directions/driving-hgv/geojson", r.URL.Path)
			assert.Equal(t, "secret", r.Header.Get("Authorization"))

			var req directionsRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, [2]float64{4.47, 51.92}, req.Coordinates[0])

			_, _ = w.Write([]byte(routeResponse))
		}))
		defer server.Close()

		c := newClient(server.Client(), server.URL, "secret", zap.NewNop())
		res, err := c.Route(context.Background(), origin, dest, domain.VehicleClassHeavy)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Len(t, res.Polyline, 3)
		assert.Equal(t, domain.GeoPoint{Lat: 51.95, Lng: 4.60}, res.Polyline[1])
		assert.InDelta(t, 61.2345, res.DistanceKm, 1e-9)
		assert.InDelta(t, 50.0, res.DurationMin, 1e-9)
	})

	t.Run("light uses car profile", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/directions/driving-car/geojson", r.URL.Path)
			_, _ = w.Write([]byte(routeResponse))
		}))
		defer server.Close()

		c := newClient(server.Client(), server.URL, "secret", zap.NewNop())
		_, err := c.Route(context.Background(), origin, dest, domain.VehicleClassLight)
		require.NoError(t, err)
	})

	t.Run("no route", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":2010,"message":"Could not find routable point"}}`))
		}))
		defer server.Close()

		c := newClient(server.Client(), server.URL, "secret", zap.NewNop())
		res, err := c.Route(context.Background(), origin, dest, domain.VehicleClassHeavy)
		assert.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		c := newClient(server.Client(), server.URL, "secret", zap.NewNop())
		_, err := c.Route(context.Background(), origin, dest, domain.VehicleClassHeavy)
		assert.Error(t, err)
	})
}

func TestDecodeRoute_RejectsPointGeometry(t *testing.T) {
	_, err := decodeRoute([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{}}]}`))
	assert.Error(t, err)
}
