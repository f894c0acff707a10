package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/route-impact/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("vehicle_class", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		return v == "" || domain.VehicleClass(v).Valid()
	})
	_ = validate.RegisterValidation("data_source", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		return v == "" || domain.DataSource(v).Valid()
	})
}

// Validate - валидация структуры
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}
