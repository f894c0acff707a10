package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/route-impact/internal/pkg/utils"
	"github.com/route-impact/internal/pkg/validator"
	"github.com/route-impact/internal/usecase"
	"github.com/route-impact/internal/usecase/dto"
	"go.uber.org/zap"
)

// RouteHandler - анализ одного маршрута
type RouteHandler struct {
	routeUC *usecase.RouteAnalysisUseCase
	logger  *zap.Logger
}

// NewRouteHandler создает новый экземпляр RouteHandler
func NewRouteHandler(routeUC *usecase.RouteAnalysisUseCase, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{
		routeUC: routeUC,
		logger:  logger,
	}
}

// Analyze godoc
// @Summary Analyze a single route
// @Description Строит маршрут, находит светофоры вдоль него и считает диапазон экономии
// @Tags Route
// @Accept json
// @Produce json
// @Param request body dto.RouteAnalysisRequest true "Маршрут"
// @Success 200 {object} utils.SuccessResponse{data=dto.RouteAnalysisResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/route/analyze [post]
func (h *RouteHandler) Analyze(c *fiber.Ctx) error {
	var req dto.RouteAnalysisRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidRequest(err))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, invalidRequest(err))
	}

	result, err := h.routeUC.AnalyzeRoute(c.UserContext(), req)
	if err != nil {
		h.logger.Warn("Route analysis failed", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Result.MatchedSignals})
}
