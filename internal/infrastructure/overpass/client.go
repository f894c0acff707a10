package overpass

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/route-impact/internal/config"
	"github.com/route-impact/internal/domain"
	"github.com/serjvanilla/go-overpass"
	"go.uber.org/zap"
)

// Client загружает светофоры highway=traffic_signals из OpenStreetMap.
// Флаги приоритета выводятся из тегов; без тегов светофор не даёт грузового приоритета.
type Client struct {
	client  *overpass.Client
	bbox    [4]float64
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient создает новый клиент Overpass API
func NewClient(cfg *config.CatalogConfig, logger *zap.Logger) *Client {
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
	}
	client := overpass.NewWithSettings(cfg.OverpassURL, 2, httpClient)
	return &Client{
		client:  &client,
		bbox:    cfg.BBox,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Name - имя источника
func (c *Client) Name() string {
	return "overpass"
}

// LoadSignals возвращает светофоры в заданном прямоугольнике
func (c *Client) LoadSignals(ctx context.Context) ([]domain.SignalFeature, error) {
	query := fmt.Sprintf(`
		[out:json][timeout:%d];
		node["highway"="traffic_signals"](%g,%g,%g,%g);
		out body;
	`, int(c.timeout.Seconds()), c.bbox[0], c.bbox[1], c.bbox[2], c.bbox[3])

	c.logger.Debug("Calling Overpass API", zap.Float64s("bbox", c.bbox[:]))

	result, err := c.executeQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute traffic signals query: %w", err)
	}

	return convertNodes(result), nil
}

// executeQuery выполняет запрос; библиотека не принимает context, поэтому ждём в select
func (c *Client) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	type queryResult struct {
		result overpass.Result
		err    error
	}
	done := make(chan queryResult, 1)
	go func() {
		res, err := c.client.Query(query)
		done <- queryResult{result: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("overpass query: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("overpass query failed: %w", r.err)
		}
		return &r.result, nil
	}
}

func convertNodes(result *overpass.Result) []domain.SignalFeature {
	ids := make([]int64, 0, len(result.Nodes))
	for id := range result.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	signals := make([]domain.SignalFeature, 0, len(ids))
	for _, id := range ids {
		node := result.Nodes[id]
		tags := node.Tags
		s := domain.SignalFeature{
			ID:                "osm:" + strconv.FormatInt(id, 10),
			Name:              firstTag(tags, "name", "ref"),
			Identifier:        tags["ref"],
			Location:          domain.GeoPoint{Lat: node.Lat, Lng: node.Lon},
			RoadRegulatorName: firstTag(tags, "operator"),
		}
		if s.Name == "" {
			s.Name = "traffic_signals " + strconv.FormatInt(id, 10)
		}
		s.Priorities = prioritiesFromTags(tags)
		signals = append(signals, s)
	}
	return signals
}

// prioritiesFromTags читает priority:<class>=yes и перечисление в traffic_signals:priority
func prioritiesFromTags(tags map[string]string) domain.PriorityFlags {
	var flags domain.PriorityFlags
	aliases := map[string]string{
		"hgv":              domain.PriorityLogistics,
		"goods":            domain.PriorityLogistics,
		"logistics":        domain.PriorityLogistics,
		"emergency":        domain.PriorityEmergency,
		"bus":              domain.PriorityPublicTransport,
		"tram":             domain.PriorityPublicTransport,
		"public_transport": domain.PriorityPublicTransport,
		"agricultural":     domain.PriorityAgriculture,
		"road_operator":    domain.PriorityRoadOperator,
	}

	for alias, class := range aliases {
		if tags["priority:"+alias] == "yes" {
			flags.Set(class)
		}
	}
	for _, v := range strings.Split(tags["traffic_signals:priority"], ";") {
		if class, ok := aliases[strings.TrimSpace(v)]; ok {
			flags.Set(class)
		}
	}
	return flags
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return ""
}
