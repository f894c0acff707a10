package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	cause      error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap отдаёт исходную причину для errors.Is/As
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is сравнивает ошибки по коду, чтобы обёрнутые копии совпадали с эталоном
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

// WithDetails возвращает копию ошибки с деталями
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap возвращает копию ошибки с причиной
func (e *AppError) Wrap(cause error) *AppError {
	cp := *e
	cp.cause = cause
	return &cp
}

// Wrapf возвращает копию ошибки с отформатированной причиной
func (e *AppError) Wrapf(format string, args ...interface{}) *AppError {
	return e.Wrap(fmt.Errorf(format, args...))
}

// As извлекает AppError из цепочки
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is - обёртка над errors.Is, чтобы не импортировать оба пакета
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
