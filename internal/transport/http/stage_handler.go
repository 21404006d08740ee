package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"featurepipe/internal/dataprocessing"
	apperrors "featurepipe/internal/errors"
	"featurepipe/internal/exporter"
	"featurepipe/internal/services"
	"featurepipe/pkg/contracts/domain"
)

// ContentTypeCSV is the media type of stage input and output
const ContentTypeCSV = "text/csv; charset=utf-8"

// StageHandler applies a single feature stage to an uploaded CSV
type StageHandler struct {
	service PipelineServiceInterface
	schema  dataprocessing.Schema
	logger  *slog.Logger
}

// NewStageHandler creates a stage handler reading uploads with the employee schema
func NewStageHandler(service PipelineServiceInterface, logger *slog.Logger) *StageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StageHandler{
		service: service,
		schema:  dataprocessing.EmployeeSchema(),
		logger:  logger.With(slog.String("handler", "stages")),
	}
}

// Routes mounts under /api/v1/stages
func (h *StageHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListStages)
	r.With(h.StageCtx).Post("/{stage}", h.ApplyStage)
	return r
}

// StageCtx rejects unknown stage ids before the body is read
func (h *StageHandler) StageCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stage := chi.URLParam(r, "stage")
		if !h.service.HasStage(stage) {
			writeAPIError(w, r, apperrors.NewWithDetails(http.StatusNotFound,
				apperrors.ErrStageNotFound.ErrorCode,
				fmt.Sprintf("stage %q not found", stage),
				map[string]interface{}{"stage": stage, "available": stageIDs(h.service.Stages())}))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListStages handles GET /api/v1/stages
func (h *StageHandler) ListStages(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"stages": h.service.Stages(),
	})
}

// ApplyStage handles POST /api/v1/stages/{stage}. The body is a delimited
// table with a header row; the response is the augmented table as CSV.
func (h *StageHandler) ApplyStage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stage := chi.URLParam(r, "stage")

	comma, apiErr := delimiterParam(r)
	if apiErr != nil {
		writeAPIError(w, r, apiErr)
		return
	}

	source, err := dataprocessing.LoadCSVWithComma(r.Body, h.schema, comma)
	if err != nil {
		h.logger.WarnContext(ctx, "stage_input_rejected",
			slog.String("stage", stage),
			slog.String("error", err.Error()))
		writeAPIError(w, r, toAPIError(err))
		return
	}

	out, err := h.service.RunStage(ctx, stage, source)
	if err != nil {
		writeAPIError(w, r, toAPIError(err))
		return
	}

	// encode fully before the status line so a write error can still be reported
	var buf bytes.Buffer
	if err := exporter.EncodeTable(&buf, out); err != nil {
		writeAPIError(w, r, toAPIError(err))
		return
	}
	w.Header().Set("Content-Type", ContentTypeCSV)
	w.Header().Set("X-Rows", strconv.Itoa(out.NumRows()))
	w.Header().Set("X-Columns", strconv.Itoa(out.NumColumns()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// delimiterParam reads the optional single-character ?delimiter= query value
func delimiterParam(r *http.Request) (rune, *apperrors.APIError) {
	raw := r.URL.Query().Get("delimiter")
	if raw == "" {
		return 0, nil
	}
	if raw == "tab" {
		return '\t', nil
	}
	if utf8.RuneCountInString(raw) != 1 {
		return 0, apperrors.NewWithDetails(http.StatusBadRequest, "INVALID_DELIMITER",
			"delimiter must be a single character", raw)
	}
	c, _ := utf8.DecodeRuneInString(raw)
	return c, nil
}

func stageIDs(stages []services.StageInfo) []string {
	ids := make([]string, len(stages))
	for i, s := range stages {
		ids[i] = s.ID
	}
	return ids
}

// tableCSV encodes a table for embedding in a JSON response
func tableCSV(table *domain.Table) (string, error) {
	var buf bytes.Buffer
	if err := exporter.EncodeTable(&buf, table); err != nil {
		return "", err
	}
	return buf.String(), nil
}
