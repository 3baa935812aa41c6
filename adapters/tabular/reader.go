package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"dataprobe/adapters/datareadiness/coercer"
	"dataprobe/domain/core"
	"dataprobe/domain/dataset"
	"dataprobe/internal"
	"dataprobe/internal/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DataReader turns uploaded bytes into a typed Dataset. It handles
// comma-separated text and XLSX workbooks (first sheet).
type DataReader struct {
	coercer *coercer.TypeCoercer
	logger  *internal.Logger
}

// NewDataReader creates a reader using the given typing rules
func NewDataReader(c *coercer.TypeCoercer) *DataReader {
	if c == nil {
		c = coercer.NewTypeCoercer(coercer.DefaultCoercionConfig())
	}
	return &DataReader{coercer: c, logger: internal.DefaultLogger.With("DataReader")}
}

// ReadFile reads a dataset from disk
func (r *DataReader) ReadFile(path string) (*dataset.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return r.Read(filepath.Base(path), data)
}

// Read parses raw upload bytes. Anything that is not delimited text or an XLSX
// workbook fails with a DataFormatError.
func (r *DataReader) Read(name string, data []byte) (*dataset.Dataset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.DataFormatError(fmt.Sprintf("%s is empty", name), nil)
	}

	detected := mimetype.Detect(data)
	r.logger.Debug("%s detected as %s (%d bytes)", name, detected.String(), len(data))

	var (
		ds  *dataset.Dataset
		err error
	)
	switch {
	case detected.Is(xlsxMIME), isA(detected, "application/zip"):
		// Some writers order zip entries so that only the container is recognised
		ds, err = r.readExcel(name, data)
	case isA(detected, "text/plain"):
		ds, err = r.readCSV(name, data)
	default:
		return nil, errors.DataFormatError(
			fmt.Sprintf("%s is not tabular text (detected %s)", name, detected.String()), nil)
	}
	if err != nil {
		return nil, err
	}
	ds.Fingerprint = core.NewHash(data)
	return ds, nil
}

// isA reports whether m or one of its ancestors in the MIME tree is want
func isA(m *mimetype.MIME, want string) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}

// readCSV parses comma-separated text with a required header row
func (r *DataReader) readCSV(name string, data []byte) (*dataset.Dataset, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, errors.DataFormatError(fmt.Sprintf("%s is not valid UTF-8 text", name), nil)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, errors.DataFormatError(fmt.Sprintf("%s contains binary data", name), nil)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	// Short rows are padded, long rows are rejected below
	reader.FieldsPerRecord = -1

	readStart := time.Now()
	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.DataFormatError(fmt.Sprintf("%s could not be parsed as CSV", name), err)
		}
		if len(rows) > 0 && len(record) > len(rows[0]) {
			line, _ := reader.FieldPos(0)
			return nil, errors.DataFormatError(
				fmt.Sprintf("%s: line %d has %d fields, header has %d", name, line, len(record), len(rows[0])), nil)
		}
		rows = append(rows, record)
	}
	r.logger.Debug("CSV read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) == 0 {
		return nil, errors.DataFormatError(fmt.Sprintf("%s has no header row", name), nil)
	}
	return r.processRows(name, "csv", rows)
}

// readExcel reads the first sheet of an XLSX workbook
func (r *DataReader) readExcel(name string, data []byte) (*dataset.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.DataFormatError(fmt.Sprintf("%s could not be opened as a workbook", name), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.DataFormatError(fmt.Sprintf("%s has no sheets", name), nil)
	}

	readStart := time.Now()
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.DataFormatError(fmt.Sprintf("failed to read sheet %q of %s", sheets[0], name), err)
	}
	r.logger.Debug("sheet %q read in %.2fms (%d rows)", sheets[0], float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	// GetRows drops trailing empty cells and rows, so widths vary
	for len(rows) > 0 && len(rows[0]) == 0 {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, errors.DataFormatError(fmt.Sprintf("%s has no header row", name), nil)
	}
	width := len(rows[0])
	for _, row := range rows[1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	for len(rows[0]) < width {
		rows[0] = append(rows[0], "")
	}

	return r.processRows(name, "xlsx", rows)
}

// processRows converts raw string rows (header first) into a typed Dataset
func (r *DataReader) processRows(name, source string, rows [][]string) (*dataset.Dataset, error) {
	headers := normalizeHeaders(rows[0])
	body := rows[1:]

	columns := make([]*dataset.Column, len(headers))
	for j, header := range headers {
		cells := make([]string, len(body))
		for i, row := range body {
			if j < len(row) {
				cells[i] = row[j]
			}
		}
		col, analysis := r.coercer.BuildColumn(header, cells)
		r.logger.Trace("column %q typed %s (valid=%d numeric=%d unique=%d)",
			header, col.Type, analysis.ValidCount, analysis.NumericCount, analysis.UniqueCount)
		columns[j] = col
	}

	ds, err := dataset.New(name, source, columns)
	if err != nil {
		return nil, errors.DataFormatError(fmt.Sprintf("%s is not a consistent table", name), err)
	}

	r.logger.Info("%s file processed (%d columns, %d rows)", strings.ToUpper(source), len(headers), len(body))
	return ds, nil
}

// normalizeHeaders trims names, fills blanks with "Unnamed: <i>" and
// disambiguates repeats as name.1, name.2, ...
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		headers[i] = h
	}

	used := make(map[string]bool, len(headers))
	counts := make(map[string]int, len(headers))
	for i, h := range headers {
		if !used[h] {
			used[h] = true
			continue
		}
		base := h
		for {
			counts[base]++
			candidate := fmt.Sprintf("%s.%d", base, counts[base])
			if !used[candidate] {
				headers[i] = candidate
				used[candidate] = true
				break
			}
		}
	}
	return headers
}
