package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared payload validator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// DecodeAndValidate decodes a JSON request body into dst and runs struct validation.
// Failures are reported as AppErrors carrying per-field details.
func DecodeAndValidate(r *http.Request, dst any) error {
	if r.Body == nil {
		return NewAppError("BAD_REQUEST", "request body required", http.StatusBadRequest, ErrInvalidArgument)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return NewAppError("BAD_REQUEST", "invalid payload", http.StatusBadRequest, fmt.Errorf("decode payload: %w", ErrInvalidArgument))
	}
	if err := Validator().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				ns := fe.Namespace()
				if i := strings.Index(ns, "."); i >= 0 {
					ns = ns[i+1:]
				}
				fields[ns] = fe.Tag()
			}
			appErr := NewAppError("VALIDATION_FAILED", "payload validation failed", http.StatusBadRequest, fmt.Errorf("validate payload: %w", ErrInvalidArgument))
			appErr.Details = fields
			return appErr
		}
		return NewAppError("BAD_REQUEST", "invalid payload", http.StatusBadRequest, fmt.Errorf("validate payload: %w", ErrInvalidArgument))
	}
	return nil
}
