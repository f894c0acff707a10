package overpass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/route-impact/internal/config"
	"github.com/route-impact/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const elementsFixture = `{
  "version": 0.6,
  "elements": [
    {"type": "node", "id": 42, "lat": 52.1, "lon": 5.1,
     "tags": {"highway": "traffic_signals", "name": "Kruising Noord", "priority:hgv": "yes", "operator": "Gemeente Utrecht"}},
    {"type": "node", "id": 7, "lat": 52.0, "lon": 5.0,
     "tags": {"highway": "traffic_signals", "traffic_signals:priority": "bus;emergency"}}
  ]
}`

func TestClient_LoadSignals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.Form.Get("data"), `node["highway"="traffic_signals"]`)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(elementsFixture))
	}))
	defer server.Close()

	client := NewClient(&config.CatalogConfig{
		OverpassURL: server.URL,
		BBox:        [4]float64{50.75, 3.2, 53.7, 7.22},
		Timeout:     5 * time.Second,
	}, zap.NewNop())

	signals, err := client.LoadSignals(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 2)

	assert.Equal(t, "osm:7", signals[0].ID)
	assert.Equal(t, "traffic_signals 7", signals[0].Name)
	assert.False(t, signals[0].IsEligible())
	assert.True(t, signals[0].Priorities.PublicTransport)
	assert.True(t, signals[0].Priorities.Emergency)

	assert.Equal(t, "osm:42", signals[1].ID)
	assert.True(t, signals[1].IsEligible())
	assert.Equal(t, "Gemeente Utrecht", signals[1].RoadRegulatorName)
	assert.Equal(t, domain.GeoPoint{Lat: 52.1, Lng: 5.1}, signals[1].Location)
}

func TestClient_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(&config.CatalogConfig{OverpassURL: server.URL, Timeout: 5 * time.Second}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.LoadSignals(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
