package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/route-impact/internal/pkg/utils"
	"github.com/route-impact/internal/usecase"
	"go.uber.org/zap"
)

// SignalHandler отдаёт каталог светофоров
type SignalHandler struct {
	catalog *usecase.SignalCatalogUseCase
	logger  *zap.Logger
}

// NewSignalHandler создает новый экземпляр SignalHandler
func NewSignalHandler(catalog *usecase.SignalCatalogUseCase, logger *zap.Logger) *SignalHandler {
	return &SignalHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// GetStats godoc
// @Summary Signal catalog statistics
// @Description Количество светофоров по дорожным управлениям, организациям TLC и категориям приоритета
// @Tags Signals
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=domain.CatalogStats}
// @Router /api/v1/signals/stats [get]
func (h *SignalHandler) GetStats(c *fiber.Ctx) error {
	return utils.SendSuccess(c, h.catalog.Stats(), nil)
}

// GetGeoJSON godoc
// @Summary Signal catalog as GeoJSON
// @Tags Signals
// @Produce json
// @Success 200 {object} map[string]interface{} "GeoJSON FeatureCollection"
// @Router /api/v1/signals.geojson [get]
func (h *SignalHandler) GetGeoJSON(c *fiber.Ctx) error {
	fc := h.catalog.FeatureCollection()
	data, err := fc.MarshalJSON()
	if err != nil {
		h.logger.Error("Failed to marshal signals", zap.Error(err))
		return utils.SendError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(data)
}
