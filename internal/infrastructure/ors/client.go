package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/route-impact/internal/config"
	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	profileHGV = "driving-hgv"
	profileCar = "driving-car"
)

type client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// NewClient создает клиент OpenRouteService directions
func NewClient(cfg *config.RouterConfig, logger *zap.Logger) repository.Router {
	return newClient(&http.Client{Timeout: cfg.Timeout}, cfg.URL, cfg.APIKey, logger)
}

func newClient(httpClient *http.Client, baseURL, apiKey string, logger *zap.Logger) *client {
	return &client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
}

type directionsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

// Profile возвращает профиль ORS для класса ТС
func Profile(class domain.VehicleClass) string {
	if class == domain.VehicleClassHeavy {
		return profileHGV
	}
	return profileCar
}

// Route строит маршрут; (nil, nil), если ORS не нашёл дорогу между точками
func (c *client) Route(ctx context.Context, origin, destination domain.GeoPoint, class domain.VehicleClass) (*repository.RouteResult, error) {
	body, err := json.Marshal(directionsRequest{
		Coordinates: [][2]float64{
			{origin.Lng, origin.Lat},
			{destination.Lng, destination.Lat},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s/geojson", c.baseURL, Profile(class))
	c.logger.Debug("Calling ORS directions",
		zap.String("profile", Profile(class)),
		zap.Any("origin", origin),
		zap.Any("destination", destination),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug("ORS found no route", zap.String("body", string(raw)))
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ors API error: status %d, body: %s", resp.StatusCode, truncate(raw, 512))
	}

	return decodeRoute(raw)
}

func decodeRoute(raw []byte) (*repository.RouteResult, error) {
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, nil
	}

	feature := fc.Features[0]
	ls, ok := feature.Geometry.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("unexpected route geometry %s", feature.Geometry.GeoJSONType())
	}

	result := &repository.RouteResult{Polyline: domain.PolylineFromLineString(ls)}
	if summary, ok := feature.Properties["summary"].(map[string]interface{}); ok {
		if d, ok := summary["distance"].(float64); ok {
			result.DistanceKm = d / 1000
		}
		if s, ok := summary["duration"].(float64); ok {
			result.DurationMin = s / 60
		}
	}
	return result, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
