package common

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

type sample struct {
	Caption  string `validate:"required"`
	Date     string `validate:"omitempty,photodate"`
	Category string `validate:"required,category"`
}

func TestGenericEchoValidator(t *testing.T) {
	tests := []struct {
		name  string
		input sample
		valid bool
	}{
		{"valid", sample{Caption: "c", Date: "2025-01-29", Category: "Travel"}, true},
		{"date optional", sample{Caption: "c", Category: "Daily Life"}, true},
		{"missing caption", sample{Category: "Travel"}, false},
		{"bad date", sample{Caption: "c", Date: "29/01/2025", Category: "Travel"}, false},
		{"all is not storable", sample{Caption: "c", Category: "All"}, false},
		{"unknown category", sample{Caption: "c", Category: "Work"}, false},
	}

	v := &GenericEchoValidator{Validator: NewValidator()}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.valid {
				var httpErr *echo.HTTPError
				if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
					t.Fatalf("expected 400 HTTPError, got %v", err)
				}
			}
		})
	}
}
