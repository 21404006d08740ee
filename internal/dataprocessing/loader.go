package dataprocessing

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "featurepipe/internal/errors"
	"featurepipe/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadOptions tunes how a source file is read
type LoadOptions struct {
	// Sheet selects a workbook sheet. Empty means the first sheet.
	Sheet string
	// Comma overrides the CSV field delimiter
	Comma rune
}

// LoadFile reads a table from path, picking the reader from the extension
func LoadFile(path string, schema Schema) (*domain.Table, error) {
	return LoadFileWithOptions(path, schema, LoadOptions{})
}

// LoadFileWithOptions is LoadFile with explicit options
func LoadFileWithOptions(path string, schema Schema, opts LoadOptions) (*domain.Table, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("input file %q", path))
		}
		return nil, apperrors.NewStorageError("failed to stat input file", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, schema, opts.Sheet)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to open input file", err)
		}
		defer f.Close()
		return LoadCSVWithComma(f, schema, opts.Comma)
	}
}

// LoadCSV reads a comma separated table with a header row
func LoadCSV(r io.Reader, schema Schema) (*domain.Table, error) {
	return LoadCSVWithComma(r, schema, 0)
}

// LoadCSVWithComma reads a delimited table. A zero comma means ','.
// A leading UTF-8 BOM is ignored.
func LoadCSVWithComma(r io.Reader, schema Schema, comma rune) (*domain.Table, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && string(prefix) == string(utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	if comma != 0 {
		reader.Comma = comma
	}
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.NewParsingError("source is empty", nil)
	}
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read header", err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read record", err).
				WithContext(apperrors.ContextRow, len(rows))
		}
		if isBlankRecord(record) {
			continue
		}
		rows = append(rows, record)
	}
	return buildTable(header, rows, schema)
}

// LoadXLSX reads a workbook sheet whose first non-empty row is the header
func LoadXLSX(path string, schema Schema, sheet string) (*domain.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParsingError("workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}

	start := 0
	for start < len(rows) && isBlankRecord(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, apperrors.NewParsingError(fmt.Sprintf("sheet %q is empty", sheet), nil)
	}

	header := trimTrailingBlanks(rows[start])
	var data [][]string
	for _, row := range rows[start+1:] {
		if isBlankRecord(row) {
			continue
		}
		data = append(data, trimTrailingBlanks(row))
	}
	return buildTable(header, data, schema)
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimTrailingBlanks(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}
