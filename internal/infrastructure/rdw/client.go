package rdw

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/route-impact/internal/config"
	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/domain/repository"
	"go.uber.org/zap"
)

// datasetPath - открытый набор RDW "Gekentekende voertuigen"
const datasetPath = "/resource/m9d7-ebf2.json"

type vehicleRow struct {
	Kenteken                  string `json:"kenteken"`
	EuropeseVoertuigcategorie string `json:"europese_voertuigcategorie"`
	MaximumMassaSamenstelling string `json:"maximum_massa_samenstelling"`
	ToegestaneMaximumMassa    string `json:"toegestane_maximum_massa_voertuig"`
	MassaLedigVoertuig        string `json:"massa_ledig_voertuig"`
	Voertuigsoort             string `json:"voertuigsoort"`
	Merk                      string `json:"merk"`
}

type client struct {
	httpClient *http.Client
	baseURL    string
	appToken   string
	logger     *zap.Logger
}

// NewClient создает клиент реестра RDW
func NewClient(cfg *config.RegistryConfig, logger *zap.Logger) repository.VehicleRegistry {
	return newClient(&http.Client{Timeout: cfg.Timeout}, cfg.URL, cfg.AppToken, logger)
}

func newClient(httpClient *http.Client, baseURL, appToken string, logger *zap.Logger) *client {
	return &client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		appToken:   appToken,
		logger:     logger,
	}
}

// Lookup ищет ТС по нормализованному номеру
func (c *client) Lookup(ctx context.Context, plate string) (*domain.VehicleRecord, error) {
	params := url.Values{}
	params.Set("kenteken", plate)
	reqURL := c.baseURL + datasetPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("rdw API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var rows []vehicleRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(rows) == 0 {
		c.logger.Debug("Plate not found in registry", zap.String("plate", plate))
		return nil, nil
	}

	row := rows[0]
	return &domain.VehicleRecord{
		Plate:                plate,
		EUCategory:           strings.ToUpper(strings.TrimSpace(row.EuropeseVoertuigcategorie)),
		VehicleType:          row.Voertuigsoort,
		Brand:                row.Merk,
		MaxCombinationMassKg: atoi(row.MaximumMassaSamenstelling),
		MaxMassKg:            atoi(row.ToegestaneMaximumMassa),
		EmptyMassKg:          atoi(row.MassaLedigVoertuig),
	}, nil
}

// atoi - RDW отдаёт числа строками; пустые и битые значения = 0
func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
