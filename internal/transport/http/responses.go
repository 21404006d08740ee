package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	apperrors "featurepipe/internal/errors"
	"featurepipe/internal/services"
)

// toAPIError classifies service and loader errors for the response
func toAPIError(err error) *apperrors.APIError {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return apperrors.NewWithDetails(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
			"Request body exceeds maximum allowed size", map[string]int64{"max_size": maxErr.Limit})
	case errors.Is(err, services.ErrStageNotFound):
		return apperrors.NewWithDetails(http.StatusNotFound, apperrors.ErrStageNotFound.ErrorCode, err.Error(), nil)
	case errors.Is(err, services.ErrNoSource):
		return apperrors.InvalidRequestWithError(err)
	}
	return apperrors.FromError(err)
}

func writeAPIError(w http.ResponseWriter, r *http.Request, apiErr *apperrors.APIError) {
	render.Status(r, apiErr.StatusCode)
	render.JSON(w, r, apperrors.NewErrorResponse(apiErr))
}

// NotFound answers unknown routes with the standard error body
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeAPIError(w, r, apperrors.NotFoundError(r.URL.Path))
}
