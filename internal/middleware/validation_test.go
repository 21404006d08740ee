package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runRequest struct {
	Stages []string `json:"stages" validate:"omitempty,unique,dive,stage"`
	Mode   string   `json:"mode" validate:"omitempty,oneof=sequential parallel"`
	CSV    string   `json:"csv" validate:"required"`
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{name: "valid", body: `{"stages":["derive","time"],"mode":"parallel","csv":"a\n1"}`},
		{name: "empty body", body: ``, wantStatus: http.StatusBadRequest, wantCode: "INVALID_REQUEST"},
		{name: "malformed", body: `{"csv":`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_REQUEST"},
		{name: "missing csv", body: `{"stages":["bin"]}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED", wantField: "csv"},
		{name: "unknown stage", body: `{"stages":["scale"],"csv":"x"}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED", wantField: "stages[0]"},
		{name: "bad mode", body: `{"mode":"async","csv":"x"}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED", wantField: "mode"},
		{name: "duplicate stages", body: `{"stages":["bin","bin"],"csv":"x"}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED", wantField: "stages"},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst runRequest
			apiErr := v.DecodeAndValidate(req, &dst)

			if tt.wantStatus == 0 {
				require.Nil(t, apiErr)
				assert.Equal(t, []string{"derive", "time"}, dst.Stages)
				return
			}
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
			if tt.wantField != "" {
				details, ok := apiErr.Details.([]FieldError)
				require.True(t, ok)
				require.Len(t, details, 1)
				assert.Equal(t, tt.wantField, details[0].Field)
			}
		})
	}
}

func TestDecodeAndValidateOversizedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"csv":"`+strings.Repeat("x", 64)+`"}`))
	req.Body = http.MaxBytesReader(rec, req.Body, 16)

	var dst runRequest
	apiErr := NewValidator().DecodeAndValidate(req, &dst)

	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusRequestEntityTooLarge, apiErr.StatusCode)
}

func TestContentTypeValidator(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"get skips", http.MethodGet, "", http.StatusOK},
		{"csv allowed", http.MethodPost, "text/csv; charset=utf-8", http.StatusOK},
		{"missing", http.MethodPost, "", http.StatusBadRequest},
		{"unsupported", http.MethodPost, "application/xml", http.StatusUnsupportedMediaType},
	}
	h := ContentTypeValidator("text/csv", "application/json")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader("x"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
