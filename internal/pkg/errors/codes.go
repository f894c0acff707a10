package errors

import "net/http"

const (
	CodeConfiguration   = "CONFIGURATION_ERROR"
	CodeInputParse      = "INPUT_PARSE_ERROR"
	CodeRowResolution   = "ROW_RESOLUTION_ERROR"
	CodeQuotaExceeded   = "QUOTA_EXCEEDED"
	CodeBatchTooLarge   = "BATCH_TOO_LARGE"
	CodePaymentRequired = "PAYMENT_REQUIRED"
	CodeBatchConflict   = "BATCH_CONFLICT"
)

var (
	// ErrConfiguration - неверный класс ТС, источник данных или таблица констант.
	// Фатальная, не повторяется.
	ErrConfiguration = New(
		CodeConfiguration,
		"Invalid configuration",
		http.StatusInternalServerError,
	)

	// ErrInputParse - файл не удалось прочитать или разобрать
	ErrInputParse = New(
		CodeInputParse,
		"Input could not be parsed",
		http.StatusBadRequest,
	)

	// ErrRowResolution - строку не удалось разрешить (геокодер, маршрут, таймаут)
	ErrRowResolution = New(
		CodeRowResolution,
		"Trip could not be resolved",
		http.StatusUnprocessableEntity,
	)

	ErrQuotaExceeded = New(
		CodeQuotaExceeded,
		"Free usage quota exceeded",
		http.StatusTooManyRequests,
	)

	ErrBatchTooLarge = New(
		CodeBatchTooLarge,
		"Batch exceeds the maximum size, please contact us",
		http.StatusRequestEntityTooLarge,
	)

	ErrPaymentRequired = New(
		CodePaymentRequired,
		"Payment required before the batch can start",
		http.StatusPaymentRequired,
	)

	// ErrBatchConflict - пакет с таким id уже запущен или уже отработал
	ErrBatchConflict = New(
		CodeBatchConflict,
		"Batch with this id is already running or finished",
		http.StatusConflict,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrBatchNotFound = New(
		"BATCH_NOT_FOUND",
		"Batch not found",
		http.StatusNotFound,
	)

	ErrExternalService = New(
		"EXTERNAL_SERVICE_ERROR",
		"External service failed",
		http.StatusBadGateway,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
