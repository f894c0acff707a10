package handler

import (
	"github.com/route-impact/internal/pkg/errors"
)

// invalidRequest оборачивает ошибку разбора или валидации тела запроса
func invalidRequest(err error) error {
	return errors.ErrInvalidRequest.Wrap(err).WithDetails(map[string]interface{}{
		"reason": err.Error(),
	})
}
