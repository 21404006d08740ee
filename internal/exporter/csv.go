package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "featurepipe/internal/errors"
	"featurepipe/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes delimited tables under an output directory
type CSVWriter struct {
	outputDir string
	bom       bool
}

// NewCSVWriter creates a writer rooted at outputDir. When bom is set every
// new file starts with a UTF-8 byte order mark for spreadsheet tools.
func NewCSVWriter(outputDir string, bom bool) *CSVWriter {
	return &CSVWriter{outputDir: outputDir, bom: bom}
}

// OutputDir returns the directory relative paths resolve against
func (w *CSVWriter) OutputDir() string {
	return w.outputDir
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool
}

// WriteCSV writes headers and records to filePath, creating parent directories
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	slog.Debug("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return apperrors.NewStorageError("failed to open file", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write(utf8BOM); err != nil {
			return apperrors.NewStorageError("failed to write BOM", err)
		}
	}

	writer := csv.NewWriter(file)
	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return apperrors.NewStorageError("failed to write headers", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError("failed to flush csv", err)
	}
	return nil
}

// WriteTable persists a table to filePath and returns the resolved path and
// the number of bytes written. The file only appears once fully written.
func (w *CSVWriter) WriteTable(filePath string, table *domain.Table) (string, int64, error) {
	stream, err := w.CreateStreamWriter(filePath, table.ColumnNames())
	if err != nil {
		return "", 0, err
	}
	for i := 0; i < table.NumRows(); i++ {
		if err := stream.WriteRecord(table.Row(i)); err != nil {
			stream.Abort()
			return "", 0, apperrors.NewStorageError(fmt.Sprintf("failed to write row %d", i), err)
		}
	}
	if err := stream.Close(); err != nil {
		return "", 0, err
	}

	info, err := os.Stat(stream.path)
	if err != nil {
		return "", 0, apperrors.NewStorageError("failed to stat output", err)
	}

	slog.Debug("Table written",
		slog.String("path", stream.path),
		slog.Int("rows", table.NumRows()),
		slog.Int("columns", table.NumColumns()),
		slog.Int64("bytes", info.Size()))

	return stream.path, info.Size(), nil
}

// EncodeTable writes a table as CSV with a header row to any writer
func EncodeTable(out io.Writer, table *domain.Table) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(table.ColumnNames()); err != nil {
		return err
	}
	for i := 0; i < table.NumRows(); i++ {
		if err := writer.Write(table.Row(i)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// StreamWriter writes records to a temporary file that is renamed into
// place on Close
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
	path   string
}

// CreateStreamWriter opens a stream for filePath and writes the header row
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create directory", err)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*.tmp")
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create file", err)
	}
	s := &StreamWriter{file: file, writer: csv.NewWriter(file), path: fullPath}

	if w.bom {
		if _, err := file.Write(utf8BOM); err != nil {
			s.Abort()
			return nil, apperrors.NewStorageError("failed to write BOM", err)
		}
	}
	if len(headers) > 0 {
		if err := s.writer.Write(headers); err != nil {
			s.Abort()
			return nil, apperrors.NewStorageError("failed to write headers", err)
		}
	}
	return s, nil
}

// Path returns the final destination of the stream
func (s *StreamWriter) Path() string {
	return s.path
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes the stream and moves it to its destination
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.Abort()
		return apperrors.NewStorageError("failed to flush csv", err)
	}
	if err := s.file.Close(); err != nil {
		os.Remove(s.file.Name())
		return apperrors.NewStorageError("failed to close file", err)
	}
	if err := os.Rename(s.file.Name(), s.path); err != nil {
		os.Remove(s.file.Name())
		return apperrors.NewStorageError("failed to move file into place", err)
	}
	return nil
}

// Abort discards everything written so far
func (s *StreamWriter) Abort() {
	s.file.Close()
	os.Remove(s.file.Name())
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.outputDir == "" {
		return filePath
	}
	return filepath.Join(w.outputDir, filePath)
}
