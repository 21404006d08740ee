package http

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"featurepipe/internal/dataprocessing"
	"featurepipe/internal/middleware"
	"featurepipe/internal/operations"
	"featurepipe/internal/services"
)

// PipelineRequest runs several stages over one inline CSV document
type PipelineRequest struct {
	Stages    []string `json:"stages,omitempty" validate:"omitempty,unique,dive,stage"`
	Mode      string   `json:"mode,omitempty" validate:"omitempty,oneof=sequential parallel"`
	Delimiter string   `json:"delimiter,omitempty" validate:"omitempty,len=1"`
	CSV       string   `json:"csv" validate:"required"`
}

// PipelineResponse reports every stage and carries the CSV of those that
// completed, keyed by stage id
type PipelineResponse struct {
	Success   bool                          `json:"success"`
	Operation *operations.OperationResponse `json:"operation"`
	Outputs   map[string]string             `json:"outputs"`
}

// PipelineHandler runs the multi-stage endpoint and table profiling
type PipelineHandler struct {
	service   PipelineServiceInterface
	validator *middleware.Validator
	schema    dataprocessing.Schema
	logger    *slog.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(service PipelineServiceInterface, validator *middleware.Validator, logger *slog.Logger) *PipelineHandler {
	if validator == nil {
		validator = middleware.NewValidator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineHandler{
		service:   service,
		validator: validator,
		schema:    dataprocessing.EmployeeSchema(),
		logger:    logger.With(slog.String("handler", "pipeline")),
	}
}

// Routes mounts under /api/v1
func (h *PipelineHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/pipeline", h.RunPipeline)
	r.Post("/profile", h.ProfileTable)
	return r
}

// RunPipeline handles POST /api/v1/pipeline. Stage failures do not fail the
// request: the response lists them and success is false.
func (h *PipelineHandler) RunPipeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PipelineRequest
	if apiErr := h.validator.DecodeAndValidate(r, &req); apiErr != nil {
		writeAPIError(w, r, apiErr)
		return
	}

	var comma rune
	if req.Delimiter != "" {
		comma, _ = utf8.DecodeRuneInString(req.Delimiter)
	}
	source, err := dataprocessing.LoadCSVWithComma(strings.NewReader(req.CSV), h.schema, comma)
	if err != nil {
		writeAPIError(w, r, toAPIError(err))
		return
	}

	result, err := h.service.Run(ctx, services.RunRequest{
		Stages: req.Stages,
		Mode:   operations.ExecutionMode(req.Mode),
	}, source)
	if result == nil || result.Operation == nil {
		writeAPIError(w, r, toAPIError(err))
		return
	}
	if err != nil {
		h.logger.WarnContext(ctx, "pipeline_partial_failure",
			slog.String("operation_id", result.Operation.ID),
			slog.Int("failed", len(result.Operation.Failed())),
			slog.String("error", err.Error()))
	}

	resp := PipelineResponse{
		Success:   err == nil,
		Operation: result.Operation,
		Outputs:   make(map[string]string, len(result.Outputs)),
	}
	for id, table := range result.Outputs {
		encoded, encErr := tableCSV(table)
		if encErr != nil {
			writeAPIError(w, r, toAPIError(encErr))
			return
		}
		resp.Outputs[id] = encoded
	}
	render.JSON(w, r, resp)
}

// ProfileTable handles POST /api/v1/profile with a CSV body
func (h *PipelineHandler) ProfileTable(w http.ResponseWriter, r *http.Request) {
	comma, apiErr := delimiterParam(r)
	if apiErr != nil {
		writeAPIError(w, r, apiErr)
		return
	}
	table, err := dataprocessing.LoadCSVWithComma(r.Body, h.schema, comma)
	if err != nil {
		writeAPIError(w, r, toAPIError(err))
		return
	}
	render.JSON(w, r, dataprocessing.Profile(table))
}
