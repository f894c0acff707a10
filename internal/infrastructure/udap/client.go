package udap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/route-impact/internal/config"
	"github.com/route-impact/internal/domain"
	"go.uber.org/zap"
)

// Коды категорий приоритета в UDAP
const (
	categoryEmergency       = "PBC:EMERGENCY"
	categoryRoadOperator    = "PBC:ROAD_OPERATOR"
	categoryPublic          = "PBC:PUBLIC"
	categoryPublicTransport = "PBC:PUBLIC_TRANSPORT"
	categoryLogistics       = "PBC:LOGISTICS"
	categoryMachinery       = "PBC:MACHINERY"
	categoryAgriculture     = "PBC:AGRICULTURE"
)

var categoryPriorities = map[string]string{
	categoryEmergency:       domain.PriorityEmergency,
	categoryRoadOperator:    domain.PriorityRoadOperator,
	categoryPublic:          domain.PriorityPublicTransport,
	categoryPublicTransport: domain.PriorityPublicTransport,
	categoryLogistics:       domain.PriorityLogistics,
	categoryMachinery:       domain.PriorityAgriculture,
	categoryAgriculture:     domain.PriorityAgriculture,
}

// subject - запись /api/v1/subjects
type subject struct {
	ID                json.RawMessage `json:"id"`
	Name              string          `json:"name"`
	Identifier        string          `json:"identifier"`
	Latitude          *float64        `json:"latitude"`
	Longitude         *float64        `json:"longitude"`
	RoadRegulatorID   *int64          `json:"roadRegulatorId"`
	RoadRegulatorName string          `json:"roadRegulatorName"`
	Categories        []category      `json:"categories"`
	Components        []component     `json:"subjectComponents"`
}

type category struct {
	ID         string `json:"id"`
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
}

type component struct {
	TypeName          string `json:"typeName"`
	ComponentTypeName string `json:"componentTypeName"`
	OrganizationName  string `json:"organizationName"`
}

// cacheFile - формат локального кеша ответа API
type cacheFile struct {
	FetchedAt  time.Time       `json:"fetched_at"`
	Source     string          `json:"source"`
	TotalCount int             `json:"total_count"`
	Locations  json.RawMessage `json:"locations"`
}

// Client загружает iVRI из UDAP
type Client struct {
	httpClient *http.Client
	url        string
	cacheFile  string
	logger     *zap.Logger
}

// NewClient создает новый клиент для UDAP API
func NewClient(cfg *config.CatalogConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		url:       cfg.UDAPURL,
		cacheFile: cfg.CacheFile,
		logger:    logger,
	}
}

// Name - имя источника
func (c *Client) Name() string {
	return "udap"
}

// LoadSignals возвращает все светофоры с координатами: из файла кеша или из API
func (c *Client) LoadSignals(ctx context.Context) ([]domain.SignalFeature, error) {
	if c.cacheFile != "" {
		signals, err := c.loadCache()
		if err == nil {
			c.logger.Info("UDAP catalog loaded from cache file",
				zap.String("file", c.cacheFile),
				zap.Int("count", len(signals)))
			return signals, nil
		}
		if !os.IsNotExist(err) {
			c.logger.Warn("UDAP cache unusable, fetching from API", zap.Error(err))
		}
	}

	raw, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	signals, err := decodeSubjects(raw)
	if err != nil {
		return nil, err
	}

	if c.cacheFile != "" {
		if err := c.writeCache(raw, len(signals)); err != nil {
			c.logger.Warn("Failed to write UDAP cache file", zap.Error(err))
		}
	}
	return signals, nil
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	c.logger.Debug("Calling UDAP subjects API", zap.String("url", c.url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "route-impact/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("UDAP API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("udap API error: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return raw, nil
}

func (c *Client) loadCache() ([]domain.SignalFeature, error) {
	data, err := os.ReadFile(c.cacheFile)
	if err != nil {
		return nil, err
	}
	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("decode cache file: %w", err)
	}
	if len(cf.Locations) == 0 {
		return nil, fmt.Errorf("cache file %s has no locations", c.cacheFile)
	}
	return decodeSubjects(cf.Locations)
}

func (c *Client) writeCache(raw []byte, count int) error {
	if err := os.MkdirAll(filepath.Dir(c.cacheFile), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cacheFile{
		FetchedAt:  time.Now(),
		Source:     c.url,
		TotalCount: count,
		Locations:  raw,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.cacheFile, data, 0o644)
}

// decodeSubjects разбирает массив subjects; записи без координат отбрасываются
func decodeSubjects(raw []byte) ([]domain.SignalFeature, error) {
	var subjects []subject
	if err := json.Unmarshal(raw, &subjects); err != nil {
		return nil, fmt.Errorf("failed to decode subjects: %w", err)
	}

	signals := make([]domain.SignalFeature, 0, len(subjects))
	for _, s := range subjects {
		if s.Latitude == nil || s.Longitude == nil {
			continue
		}
		signals = append(signals, s.toDomain())
	}
	return signals, nil
}

func (s subject) toDomain() domain.SignalFeature {
	f := domain.SignalFeature{
		ID:                rawID(s.ID),
		Name:              s.Name,
		Identifier:        s.Identifier,
		Location:          domain.GeoPoint{Lat: *s.Latitude, Lng: *s.Longitude},
		RoadRegulatorName: s.RoadRegulatorName,
	}
	if f.ID == "" {
		f.ID = s.Identifier
	}
	if s.RoadRegulatorID != nil {
		f.RoadRegulatorID = *s.RoadRegulatorID
	}

	for _, cat := range s.Categories {
		code := cat.ID
		if code == "" {
			code = cat.CategoryID
		}
		if p, ok := categoryPriorities[code]; ok {
			f.Priorities.Set(p)
		}
	}

	for _, comp := range s.Components {
		typeName := comp.TypeName
		if typeName == "" {
			typeName = comp.ComponentTypeName
		}
		switch typeName {
		case "TLC":
			setOnce(&f.TLCOrganization, comp.OrganizationName)
		case "ITS-applicatie":
			setOnce(&f.ITSOrganization, comp.OrganizationName)
		case "RIS":
			setOnce(&f.RISOrganization, comp.OrganizationName)
		}
	}
	return f
}

// rawID приводит числовой или строковый id к строке
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func setOnce(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
