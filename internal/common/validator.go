package common

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

// ValidateStruct checks `validate` struct tags with a shared validator.
func ValidateStruct(i interface{}) error {
	structValidatorOnce.Do(func() {
		structValidator = validator.New()
	})
	return structValidator.Struct(i)
}

type GenericEchoValidator struct {
	Validator *validator.Validate
}

func (gv *GenericEchoValidator) Validate(i interface{}) error {
	if gv.Validator == nil {
		gv.Validator = validator.New()
	}
	if err := gv.Validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request body: %v", err))
	}
	return nil
}
