package testutil

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	logger, handler := NewTestLogger(nil)

	scoped := logger.With(slog.String("component", "loader"))
	scoped.Info("table_loaded", slog.Int("rows", 3))
	logger.Error("stage_failed", slog.String("step", "time"))
	logger.Debug("noise")

	records := handler.Records()
	require.Len(t, records, 3)

	rec, ok := handler.Find("table_loaded")
	require.True(t, ok)
	assert.Equal(t, "loader", rec.Attrs["component"])
	assert.Equal(t, int64(3), rec.Attrs["rows"])

	_, ok = handler.Find("missing")
	assert.False(t, ok)
	assert.True(t, handler.ContainsMessage("stage_"))
	assert.Equal(t, 1, handler.CountLevel(slog.LevelError))
	assert.Equal(t, 1, handler.CountLevel(slog.LevelDebug))
}

func TestWriteFile(t *testing.T) {
	path := WriteFile(t, "employees.csv", EmployeesCSV)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, EmployeesCSV, string(data))
}
