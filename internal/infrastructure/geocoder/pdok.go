package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/domain/repository"
	"go.uber.org/zap"
)

const providerPDOK = "pdok"

type pdokResponse struct {
	Response struct {
		NumFound int `json:"numFound"`
		Docs     []struct {
			DisplayName string `json:"weergavenaam"`
			Centroid    string `json:"centroide_ll"`
			Type        string `json:"type"`
		} `json:"docs"`
	} `json:"response"`
}

// PDOKClient - геокодер PDOK Locatieserver (адреса и индексы Нидерландов)
type PDOKClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewPDOKClient создает новый клиент PDOK Locatieserver
func NewPDOKClient(httpClient *http.Client, baseURL string, logger *zap.Logger) *PDOKClient {
	return &PDOKClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// Geocode ищет адрес или индекс; (nil, nil), если ничего не найдено
func (c *PDOKClient) Geocode(ctx context.Context, query string) (*repository.GeocodeResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("rows", "1")
	params.Set("fl", "weergavenaam,centroide_ll,type")
	reqURL := c.baseURL + "/free?" + params.Encode()

	c.logger.Debug("Calling PDOK locatieserver", zap.String("query", query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("pdok API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var pr pdokResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(pr.Response.Docs) == 0 {
		return nil, nil
	}

	doc := pr.Response.Docs[0]
	point, err := parseWKTPoint(doc.Centroid)
	if err != nil {
		return nil, err
	}

	return &repository.GeocodeResult{
		Point:       point,
		DisplayName: doc.DisplayName,
		Provider:    providerPDOK,
	}, nil
}

// parseWKTPoint разбирает центроид "POINT(lng lat)"
func parseWKTPoint(s string) (domain.GeoPoint, error) {
	p, err := wkt.UnmarshalPoint(s)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("unexpected centroid %q: %w", s, err)
	}
	return domain.GeoPointFromOrb(p), nil
}
