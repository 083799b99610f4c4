package common

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator"
	"github.com/jo-hoe/lovenotes/internal/photo"
	"github.com/labstack/echo/v4"
)

type GenericEchoValidator struct {
	Validator *validator.Validate
}

// NewValidator returns a validator that knows the album specific tags
// "category" (a storable category) and "photodate" (YYYY-MM-DD)
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, err := photo.ParseCategory(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("photodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(photo.DateLayout, fl.Field().String())
		return err == nil
	})
	return v
}

func (gv *GenericEchoValidator) Validate(i interface{}) error {
	if err := gv.Validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request body: %v", err))
	}
	return nil
}
