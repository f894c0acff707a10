package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/pkg/errors"
	"github.com/route-impact/internal/pkg/utils"
	"github.com/route-impact/internal/pkg/validator"
	"github.com/route-impact/internal/usecase"
	"github.com/route-impact/internal/usecase/dto"
	"github.com/route-impact/internal/usecase/tripimport"
	"go.uber.org/zap"
)

const uploadField = "files"

// BulkHandler - загрузка файлов, предпросмотр, оплата и запуск пакета
type BulkHandler struct {
	bulkUC *usecase.BulkAnalysisUseCase
	logger *zap.Logger
}

// NewBulkHandler создает новый экземпляр BulkHandler
func NewBulkHandler(bulkUC *usecase.BulkAnalysisUseCase, logger *zap.Logger) *BulkHandler {
	return &BulkHandler{
		bulkUC: bulkUC,
		logger: logger,
	}
}

// Parse godoc
// @Summary Parse uploaded trip files
// @Description CSV/TSV, XML или XLSX; ошибка одного файла не мешает разбору остальных
// @Tags Bulk
// @Accept mpfd
// @Produce json
// @Param files formData file true "Файлы поездок"
// @Success 200 {object} utils.SuccessResponse{data=dto.BulkParseResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/bulk/parse [post]
func (h *BulkHandler) Parse(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, errors.ErrInputParse.Wrap(err))
	}
	headers := form.File[uploadField]
	if len(headers) == 0 {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"reason": "no files uploaded in field " + uploadField,
		}))
	}

	files := make([]tripimport.File, 0, len(headers))
	resp := &dto.BulkParseResponse{Files: make([]dto.ParsedFile, 0, len(headers))}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			resp.Files = append(resp.Files, dto.ParsedFile{FileName: fh.Filename, Error: err.Error()})
			continue
		}
		defer f.Close()
		files = append(files, tripimport.File{Name: fh.Filename, Reader: f})
	}

	results := tripimport.ParseFiles(files)
	dropped := 0
	for _, r := range results {
		pf := dto.ParsedFile{FileName: r.Name}
		if r.Err != nil {
			h.logger.Warn("Failed to parse uploaded file", zap.String("file", r.Name), zap.Error(r.Err))
			pf.Error = r.Err.Error()
		} else {
			detected := r.Result.Detected
			pf.Rows = len(r.Result.Rows)
			pf.Dropped = r.Result.Dropped
			pf.Detected = &detected
			dropped += r.Result.Dropped
		}
		resp.Files = append(resp.Files, pf)
	}
	resp.Rows = tripimport.MergeRows(results)

	return utils.SendSuccess(c, resp, &utils.Meta{Total: len(resp.Rows), Dropped: dropped})
}

// Preview godoc
// @Summary Preview a batch before running it
// @Tags Bulk
// @Accept json
// @Produce json
// @Param request body dto.BulkPreviewRequest true "Строки пакета"
// @Success 200 {object} utils.SuccessResponse{data=dto.BatchPreview}
// @Failure 413 {object} utils.ErrorResponse
// @Router /api/v1/bulk/preview [post]
func (h *BulkHandler) Preview(c *fiber.Ctx) error {
	var req dto.BulkPreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidRequest(err))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, invalidRequest(err))
	}

	preview, err := h.bulkUC.Preview(c.UserContext(), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, preview, nil)
}

// Checkout создаёт платёж за строки сверх бесплатного лимита
func (h *BulkHandler) Checkout(c *fiber.Ctx) error {
	var req dto.BulkCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidRequest(err))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, invalidRequest(err))
	}

	handle, err := h.bulkUC.Checkout(c.UserContext(), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, handle, nil)
}

// Run godoc
// @Summary Run a batch
// @Description Server-Sent Events: событие progress после каждой строки, затем completed, cancelled или failed
// @Tags Bulk
// @Accept json
// @Produce text/event-stream
// @Param request body dto.BulkRunRequest true "Пакет"
// @Success 200 {object} domain.BatchEvent
// @Failure 402 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 413 {object} utils.ErrorResponse
// @Failure 429 {object} utils.ErrorResponse
// @Router /api/v1/bulk/run [post]
func (h *BulkHandler) Run(c *fiber.Ctx) error {
	var req dto.BulkRunRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidRequest(err))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, invalidRequest(err))
	}

	batchID := uuid.New()
	if req.BatchID != "" {
		batchID = uuid.MustParse(req.BatchID)
	}

	// пакет живёт дольше обработчика; отмена - через DELETE или обрыв соединения
	events, err := h.bulkUC.Run(context.Background(), usecase.RunRequest{
		BatchID:   batchID,
		SessionID: req.SessionID,
		ChargeID:  req.ChargeID,
		Rows:      req.Rows,
		Options:   req.Options(),
	})
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Batch-ID", batchID.String())

	logger := h.logger.With(zap.String("batch_id", batchID.String()))
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		for ev := range events {
			if err := writeEvent(w, ev); err != nil {
				logger.Info("Client disconnected, cancelling batch", zap.Error(err))
				h.bulkUC.Cancel(batchID)
				for range events {
				}
				return
			}
		}
	})
	return nil
}

// Cancel - кооперативная отмена; текущая строка дорабатывает
func (h *BulkHandler) Cancel(c *fiber.Ctx) error {
	batchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, invalidRequest(err))
	}
	if !h.bulkUC.Cancel(batchID) {
		return utils.SendError(c, errors.ErrBatchNotFound)
	}
	return utils.SendSuccess(c, dto.CancelResponse{BatchID: batchID, Cancelled: true}, nil)
}

func writeEvent(w *bufio.Writer, ev domain.BatchEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	return w.Flush()
}
