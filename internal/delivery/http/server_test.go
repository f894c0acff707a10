package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-impact/internal/config"
	httpDelivery "github.com/route-impact/internal/delivery/http"
	"github.com/route-impact/internal/delivery/http/handler"
	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/domain/repository"
	"github.com/route-impact/internal/repository/memory"
	"github.com/route-impact/internal/usecase"
)

type stubGeocoder struct{}

func (stubGeocoder) Geocode(_ context.Context, query string) (*repository.GeocodeResult, error) {
	switch query {
	case "3511 AB":
		return &repository.GeocodeResult{Point: domain.GeoPoint{Lat: 52.0, Lng: 4.0}, DisplayName: "Utrecht", Provider: "stub"}, nil
	case "2611 AA":
		return &repository.GeocodeResult{Point: domain.GeoPoint{Lat: 52.0, Lng: 4.1}, DisplayName: "Delft", Provider: "stub"}, nil
	}
	return nil, nil
}

type stubRouter struct{}

func (stubRouter) Route(_ context.Context, origin, destination domain.GeoPoint, _ domain.VehicleClass) (*repository.RouteResult, error) {
	return &repository.RouteResult{
		Polyline:    domain.Polyline{origin, destination},
		DistanceKm:  7,
		DurationMin: 10,
	}, nil
}

type stubPayment struct{}

func (stubPayment) CreateCharge(_ context.Context, rowCount int, sessionID string) (*repository.CheckoutHandle, error) {
	return &repository.CheckoutHandle{
		ChargeID:    "cs_test_" + sessionID,
		CheckoutURL: "https://checkout.example/cs_test",
		RowCount:    rowCount,
		AmountCents: int64(rowCount) * 50,
	}, nil
}

func (stubPayment) CheckStatus(_ context.Context, id string) (repository.ChargeStatus, error) {
	if id == "cs_paid" {
		return repository.ChargeStatus{Status: repository.PaymentStatusPaid, RowCount: 2}, nil
	}
	return repository.ChargeStatus{Status: repository.PaymentStatusPending}, nil
}

func newTestServer(t *testing.T) *httpDelivery.Server {
	t.Helper()
	log := zap.NewNop()

	signals := []domain.SignalFeature{
		{ID: "s1", RoadRegulatorName: "Utrecht", Location: domain.GeoPoint{Lat: 52.0, Lng: 4.02}, Priorities: domain.PriorityFlags{Logistics: true}},
		{ID: "s2", RoadRegulatorName: "Utrecht", Location: domain.GeoPoint{Lat: 52.0, Lng: 4.06}, Priorities: domain.PriorityFlags{Emergency: true}},
	}
	catalog := usecase.NewStaticSignalCatalog(signals, "test")

	tables, err := config.DefaultSavingsTables()
	require.NoError(t, err)
	savings := usecase.NewSavingsModel(tables)

	routeUC := usecase.NewRouteAnalysisUseCase(
		catalog, savings, nil, stubGeocoder{}, stubRouter{},
		domain.VehicleClassHeavy, usecase.DefaultThresholdKm, log,
	)
	bulkUC := usecase.NewBulkAnalysisUseCase(routeUC, memory.NewQuotaRepository(), stubPayment{}, usecase.BulkLimits{
		FreeRows:          3,
		MaxRows:           5,
		FreeBatchesPerDay: 2,
		QuotaWindow:       24 * time.Hour,
		PricePerRowCents:  50,
	}, log)

	cfg := &config.Config{}
	return httpDelivery.NewServer(
		cfg,
		log,
		handler.NewSignalHandler(catalog, log),
		handler.NewRouteHandler(routeUC, log),
		handler.NewSavingsHandler(savings, log),
		handler.NewBulkHandler(bulkUC, log),
	)
}

func doJSON(t *testing.T, s *httpDelivery.Server, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp, decoded
}

func errorCode(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)
	resp, body := doJSON(t, s, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestSignalHandler(t *testing.T) {
	s := newTestServer(t)

	t.Run("stats", func(t *testing.T) {
		resp, body := doJSON(t, s, http.MethodGet, "/api/v1/signals/stats", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := body["data"].(map[string]interface{})
		assert.EqualValues(t, 2, data["total"])
	})

	t.Run("geojson", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/signals.geojson", nil)
		resp, err := s.App().Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

		var fc map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&fc))
		assert.Equal(t, "FeatureCollection", fc["type"])
		assert.Len(t, fc["features"], 2)
	})
}

func TestRouteHandler_Analyze(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name: "postal codes",
			body: map[string]interface{}{
				"origin":        map[string]interface{}{"postal_code": "3511 AB"},
				"destination":   map[string]interface{}{"postal_code": "2611 AA"},
				"trips_per_day": 2,
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "unknown postal code",
			body: map[string]interface{}{
				"origin":      map[string]interface{}{"postal_code": "9999 ZZ"},
				"destination": map[string]interface{}{"postal_code": "2611 AA"},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "ROW_RESOLUTION_ERROR",
		},
		{
			name: "bad vehicle class",
			body: map[string]interface{}{
				"origin":        map[string]interface{}{"postal_code": "3511 AB"},
				"destination":   map[string]interface{}{"postal_code": "2611 AA"},
				"vehicle_class": "bicycle",
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, s, http.MethodPost, "/api/v1/route/analyze", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(body))
				return
			}
			data := body["data"].(map[string]interface{})
			result := data["result"].(map[string]interface{})
			assert.EqualValues(t, 1, result["eligible_signals"])
			assert.NotNil(t, data["geojson"])
		})
	}
}

func TestSavingsHandler_Estimate(t *testing.T) {
	s := newTestServer(t)

	resp, body := doJSON(t, s, http.MethodPost, "/api/v1/savings/estimate", map[string]interface{}{
		"eligible_signals": 4,
		"vehicle_class":    "heavy",
		"trips_per_day":    1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.NotNil(t, data["savings"])

	resp, body = doJSON(t, s, http.MethodPost, "/api/v1/savings/estimate", map[string]interface{}{
		"eligible_signals": 4,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", errorCode(body))
}

func TestBulkHandler_Parse(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", "trips.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("origin;destination;trips\nUtrecht;Delft;2\n;;\nAmsterdam;Gouda;1\n"))
	require.NoError(t, err)
	part, err = w.CreateFormFile("files", "broken.xml")
	require.NoError(t, err)
	_, err = part.Write([]byte("<vehicles><vehicle>"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/parse", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Rows  []domain.TripRow `json:"rows"`
			Files []struct {
				FileName string `json:"file_name"`
				Rows     int    `json:"rows"`
				Dropped  int    `json:"dropped"`
				Error    string `json:"error"`
			} `json:"files"`
		} `json:"data"`
		Meta struct {
			Total   int `json:"total"`
			Dropped int `json:"dropped"`
		} `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Data.Rows, 2)
	assert.Equal(t, 2, body.Meta.Total)
	assert.Equal(t, 1, body.Meta.Dropped)
	require.Len(t, body.Data.Files, 2)
	assert.Empty(t, body.Data.Files[0].Error)
	assert.NotEmpty(t, body.Data.Files[1].Error)
}

func TestBulkHandler_PreviewAndCheckout(t *testing.T) {
	s := newTestServer(t)
	rows := func(n int) []map[string]interface{} {
		out := make([]map[string]interface{}, n)
		for i := range out {
			out[i] = map[string]interface{}{
				"origin":      map[string]interface{}{"postal_code": "3511 AB"},
				"destination": map[string]interface{}{"postal_code": "2611 AA"},
			}
		}
		return out
	}

	t.Run("preview of a paid batch", func(t *testing.T) {
		resp, body := doJSON(t, s, http.MethodPost, "/api/v1/bulk/preview", map[string]interface{}{
			"session_id": "sess-1",
			"rows":       rows(4),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, true, data["payment_required"])
		assert.EqualValues(t, 1, data["paid_rows"])
		assert.EqualValues(t, 50, data["price_cents"])
	})

	t.Run("preview of an oversized batch", func(t *testing.T) {
		resp, body := doJSON(t, s, http.MethodPost, "/api/v1/bulk/preview", map[string]interface{}{
			"session_id": "sess-1",
			"rows":       rows(6),
		})
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		assert.Equal(t, "BATCH_TOO_LARGE", errorCode(body))
	})

	t.Run("checkout", func(t *testing.T) {
		resp, body := doJSON(t, s, http.MethodPost, "/api/v1/bulk/checkout", map[string]interface{}{
			"session_id": "sess-1",
			"row_count":  5,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "cs_test_sess-1", data["charge_id"])
		assert.EqualValues(t, 2, data["row_count"])
	})

	t.Run("paid run without payment", func(t *testing.T) {
		resp, body := doJSON(t, s, http.MethodPost, "/api/v1/bulk/run", map[string]interface{}{
			"session_id": "sess-1",
			"charge_id":  "cs_pending",
			"rows":       rows(4),
		})
		assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
		assert.Equal(t, "PAYMENT_REQUIRED", errorCode(body))
	})
}

func TestBulkHandler_RunStreamsEvents(t *testing.T) {
	s := newTestServer(t)

	payload, err := json.Marshal(map[string]interface{}{
		"session_id": "sess-stream",
		"rows": []map[string]interface{}{
			{
				"origin":      map[string]interface{}{"postal_code": "3511 AB"},
				"destination": map[string]interface{}{"postal_code": "2611 AA"},
			},
			{
				"origin":      map[string]interface{}{"postal_code": "0000 XX"},
				"destination": map[string]interface{}{"postal_code": "2611 AA"},
			},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/run", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Batch-ID"))

	var types []string
	var final domain.BatchEvent
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			types = append(types, strings.TrimPrefix(line, "event: "))
		}
		if strings.HasPrefix(line, "data: ") {
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &final))
		}
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, []string{"progress", "progress", "completed"}, types)
	require.NotNil(t, final.Summary)
	assert.Equal(t, domain.BatchStateCompleted, final.Summary.State)
	assert.Equal(t, 2, final.Summary.ProcessedRows)
	assert.Equal(t, 1, final.Summary.ErrorRows)
	require.Len(t, final.Results, 2)
	assert.Empty(t, final.Results[0].Error)
	assert.NotEmpty(t, final.Results[1].Error)
}

func TestBulkHandler_Cancel(t *testing.T) {
	s := newTestServer(t)

	resp, body := doJSON(t, s, http.MethodDelete, "/api/v1/bulk/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", errorCode(body))

	resp, body = doJSON(t, s, http.MethodDelete, "/api/v1/bulk/7b0a4d4e-3f5c-4b8a-9a53-2f0c3c1e8f11", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "BATCH_NOT_FOUND", errorCode(body))
}
