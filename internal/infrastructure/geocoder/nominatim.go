package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/domain/repository"
	"go.uber.org/zap"
)

const providerNominatim = "nominatim"

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NominatimClient - геокодер OpenStreetMap Nominatim
type NominatimClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *zap.Logger
}

// NewNominatimClient создает новый клиент Nominatim
func NewNominatimClient(httpClient *http.Client, baseURL, userAgent string, logger *zap.Logger) *NominatimClient {
	return &NominatimClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Geocode ищет адрес; (nil, nil), если ничего не найдено
func (c *NominatimClient) Geocode(ctx context.Context, query string) (*repository.GeocodeResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	params.Set("countrycodes", "nl,be,de")
	reqURL := c.baseURL + "/search?" + params.Encode()

	c.logger.Debug("Calling Nominatim search", zap.String("query", query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("nominatim API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(places) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lat %q: %w", places[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lon %q: %w", places[0].Lon, err)
	}

	return &repository.GeocodeResult{
		Point:       domain.GeoPoint{Lat: lat, Lng: lng},
		DisplayName: places[0].DisplayName,
		Provider:    providerNominatim,
	}, nil
}
