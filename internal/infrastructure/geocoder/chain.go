package geocoder

import (
	"context"
	"errors"
	"net/http"

	"github.com/route-impact/internal/config"
	"github.com/route-impact/internal/domain/repository"
	"go.uber.org/zap"
)

// ChainGeocoder опрашивает провайдеров по порядку; первый найденный результат побеждает.
// "Не найдено" возвращается, если хотя бы один провайдер ответил без ошибки.
type ChainGeocoder struct {
	providers []repository.Geocoder
	logger    *zap.Logger
}

// NewChainGeocoder создает цепочку геокодеров
func NewChainGeocoder(logger *zap.Logger, providers ...repository.Geocoder) *ChainGeocoder {
	return &ChainGeocoder{providers: providers, logger: logger}
}

// New собирает цепочку PDOK -> Nominatim из конфигурации
func New(cfg *config.GeocoderConfig, logger *zap.Logger) *ChainGeocoder {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	providers := make([]repository.Geocoder, 0, 2)
	if cfg.PDOKURL != "" {
		providers = append(providers, NewPDOKClient(httpClient, cfg.PDOKURL, logger))
	}
	if cfg.NominatimURL != "" {
		providers = append(providers, NewNominatimClient(httpClient, cfg.NominatimURL, cfg.UserAgent, logger))
	}
	return NewChainGeocoder(logger, providers...)
}

func (g *ChainGeocoder) Geocode(ctx context.Context, query string) (*repository.GeocodeResult, error) {
	var (
		errs      []error
		responded bool
	)
	for _, p := range g.providers {
		res, err := p.Geocode(ctx, query)
		if err != nil {
			g.logger.Warn("Geocoder provider failed", zap.String("query", query), zap.Error(err))
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		responded = true
		if res != nil {
			return res, nil
		}
	}
	if responded || len(errs) == 0 {
		return nil, nil
	}
	return nil, errors.Join(errs...)
}
