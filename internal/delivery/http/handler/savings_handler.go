package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/route-impact/internal/pkg/utils"
	"github.com/route-impact/internal/pkg/validator"
	"github.com/route-impact/internal/usecase"
	"github.com/route-impact/internal/usecase/dto"
	"go.uber.org/zap"
)

type SavingsHandler struct {
	model  *usecase.SavingsModel
	logger *zap.Logger
}

func NewSavingsHandler(model *usecase.SavingsModel, logger *zap.Logger) *SavingsHandler {
	return &SavingsHandler{
		model:  model,
		logger: logger,
	}
}

// Estimate - экономия по числу светофоров без построения маршрута
func (h *SavingsHandler) Estimate(c *fiber.Ctx) error {
	var req dto.SavingsEstimateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidRequest(err))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, invalidRequest(err))
	}

	result, err := h.model.Estimate(req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}
