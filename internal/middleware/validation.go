package middleware

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apperrors "featurepipe/internal/errors"
	"featurepipe/internal/features"
)

// FieldError is one failed constraint, reported under the JSON field name
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator decodes JSON request bodies and checks their struct tags
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator that reports JSON field names and knows
// the "stage" tag (a registered feature stage id)
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("stage", isKnownStage)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// DecodeAndValidate reads r's JSON body into dst and validates it.
// Failures come back as 400 (or 413 for oversized bodies) APIErrors.
func (v *Validator) DecodeAndValidate(r *http.Request, dst interface{}) *apperrors.APIError {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperrors.NewWithDetails(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
				"Request body exceeds maximum allowed size", map[string]int64{"max_size": maxErr.Limit})
		case errors.Is(err, io.EOF):
			return apperrors.NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Request body is empty", nil)
		default:
			return apperrors.InvalidRequestWithError(err)
		}
	}
	return v.Validate(dst)
}

// Validate checks dst's struct tags
func (v *Validator) Validate(dst interface{}) *apperrors.APIError {
	err := v.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.InvalidRequestWithError(err)
	}
	details := make([]FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, FieldError{Field: fieldPath(fe), Message: formatValidationError(fe)})
	}
	return apperrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", details)
}

// ContentTypeValidator ensures requests with a body carry an allowed content type
func ContentTypeValidator(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodDelete || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				apperrors.WriteError(w, apperrors.New(http.StatusBadRequest, "MISSING_CONTENT_TYPE", "Content-Type header is required"))
				return
			}
			for _, allowed := range contentTypes {
				if strings.HasPrefix(contentType, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}
			apperrors.WriteError(w, apperrors.NewWithDetails(
				http.StatusUnsupportedMediaType,
				"UNSUPPORTED_MEDIA_TYPE",
				"Unsupported content type",
				map[string]interface{}{
					"content_type": contentType,
					"allowed":      contentTypes,
				},
			))
		})
	}
}

// fieldPath drops the top-level struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "stage":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(features.StageIDs(), ", "))
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", field)
	case "min":
		return fmt.Sprintf("%s must contain at least %s items", field, param)
	case "max":
		return fmt.Sprintf("%s must contain at most %s items", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

func isKnownStage(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	for _, known := range features.StageIDs() {
		if id == known {
			return true
		}
	}
	return false
}
