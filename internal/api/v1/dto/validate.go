package dto

import (
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// WilayaCount is the number of Algerian provinces; codes run 01..58.
const WilayaCount = 58

var dzPhone = regexp.MustCompile(`^(?:\+213|00213|0)(?:[5-7]\d{8}|[2-4]\d{7})$`)

// NewValidator returns a validator with the form rules used across the API.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("wilaya", func(fl validator.FieldLevel) bool {
		return IsWilaya(fl.Field().String())
	})
	_ = v.RegisterValidation("dzphone", func(fl validator.FieldLevel) bool {
		return dzPhone.MatchString(fl.Field().String())
	})
	return v
}

// IsWilaya accepts a one or two digit province code between 1 and 58.
func IsWilaya(code string) bool {
	if len(code) == 0 || len(code) > 2 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	n, err := strconv.Atoi(code)
	return err == nil && n >= 1 && n <= WilayaCount
}
