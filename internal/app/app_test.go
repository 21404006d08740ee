package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"featurepipe/internal/config"
	"featurepipe/internal/shared/testutil"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()
	cfg := config.Default()
	cfg.Pipeline.Today = testutil.ReferenceDate
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	a, err := NewApplication(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.OTelProviders.Shutdown(context.Background()) })
	return a
}

func serve(a *Application, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestNewApplicationRequiresConfig(t *testing.T) {
	_, err := NewApplication(nil, nil)
	assert.Error(t, err)
}

func TestApplication_Routes(t *testing.T) {
	a := newTestApp(t, nil)

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		wantStatus  int
		wantBody    string
	}{
		{"health", http.MethodGet, "/api/health", "", "", http.StatusOK, `"status":"ok"`},
		{"readiness", http.MethodGet, "/api/health/ready", "", "", http.StatusOK, `"status":"ready"`},
		{"version", http.MethodGet, "/api/version", "", "", http.StatusOK, `"version"`},
		{"list stages", http.MethodGet, "/api/v1/stages", "", "", http.StatusOK, `"id":"anomaly"`},
		{"derive", http.MethodPost, "/api/v1/stages/derive", "text/csv", testutil.EmployeesCSV, http.StatusOK, "salary_per_age,annual_bonus,is_senior,salary_level,score_rank"},
		{"time", http.MethodPost, "/api/v1/stages/time", "text/csv", testutil.EmployeesCSV, http.StatusOK, "join_quarter"},
		{"unknown stage", http.MethodPost, "/api/v1/stages/scale", "text/csv", testutil.EmployeesCSV, http.StatusNotFound, "STAGE_NOT_FOUND"},
		{"missing column", http.MethodPost, "/api/v1/stages/derive", "text/csv", "age,score\n40,50\n", http.StatusUnprocessableEntity, "MISSING_COLUMN"},
		{"bad date", http.MethodPost, "/api/v1/stages/time", "text/csv", "join_date\nsoon\n", http.StatusUnprocessableEntity, "DATE_PARSE"},
		{"no content type", http.MethodPost, "/api/v1/stages/derive", "", testutil.EmployeesCSV, http.StatusBadRequest, "MISSING_CONTENT_TYPE"},
		{"profile", http.MethodPost, "/api/v1/profile", "text/csv", testutil.EmployeesCSV, http.StatusOK, `"rows":3`},
		{"unknown route", http.MethodGet, "/nope", "", "", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(a, tt.method, tt.path, tt.contentType, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestApplication_DeriveScenario(t *testing.T) {
	a := newTestApp(t, nil)

	rec := serve(a, http.MethodPost, "/api/v1/stages/derive", "text/csv", testutil.EmployeesCSV)

	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "45,95000.0,40.0,IT,A,2019-03-15,2111.11,9500.0,1,High,4.0", lines[1])
}

func TestApplication_Pipeline(t *testing.T) {
	a := newTestApp(t, nil)
	payload, err := json.Marshal(map[string]interface{}{
		"stages": []string{"encode", "anomaly"},
		"mode":   "parallel",
		"csv":    testutil.EmployeesCSV,
	})
	require.NoError(t, err)

	rec := serve(a, http.MethodPost, "/api/v1/pipeline", "application/json", string(payload))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Success   bool              `json:"success"`
		Outputs   map[string]string `json:"outputs"`
		Operation struct {
			Status string `json:"status"`
			Steps  []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"steps"`
		} `json:"operation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "completed", resp.Operation.Status)
	assert.Len(t, resp.Operation.Steps, 2)
	assert.Contains(t, resp.Outputs["encode"], "dept_HR,dept_IT")
	assert.Contains(t, resp.Outputs["anomaly"], "is_anomaly")
}

func TestApplication_BodyLimit(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) { c.Server.MaxBodyBytes = 32 })

	rec := serve(a, http.MethodPost, "/api/v1/stages/derive", "text/csv", testutil.EmployeesCSV)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
}

func TestApplication_RateLimit(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) {
		c.Server.RateLimit.RPS = 0.001
		c.Server.RateLimit.Burst = 1
	})

	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/api/health/live", "", "").Code)
	rec := serve(a, http.MethodGet, "/api/health/live", "", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestApplication_Metrics(t *testing.T) {
	a := newTestApp(t, nil)
	serve(a, http.MethodPost, "/api/v1/stages/bin", "text/csv", testutil.EmployeesCSV)

	rec := serve(a, http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "featurepipe_stage_runs")
	assert.Contains(t, rec.Body.String(), `stage="bin"`)
	assert.Contains(t, rec.Body.String(), "http_requests")
}

func TestApplication_ServeAndStop(t *testing.T) {
	a := newTestApp(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/health/live")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, a.Stop(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
