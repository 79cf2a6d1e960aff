package source

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shoptrends/internal"
	"shoptrends/internal/errors"

	"github.com/xuri/excelize/v2"
)

// RawRow represents a row of raw cells keyed by normalised header
type RawRow map[string]string

// RawTable is a source table before typing and null fill
type RawTable struct {
	Headers []string // Column headers, normalised
	Rows    []RawRow // Data rows
}

// DataReader handles reading Excel and CSV files from disk
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{filePath: filePath, fileType: fileTypeOf(filePath), logger: logger}
}

func fileTypeOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return "xlsx"
	default:
		return "csv"
	}
}

// ReadData reads the file into a RawTable
func (r *DataReader) ReadData() (*RawTable, error) {
	r.logger.Debug("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); err != nil {
		return nil, errors.LoadIO(strings.ToUpper(r.fileType)+" file not found: "+r.filePath, err)
	}

	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.LoadIO("failed to open "+r.filePath, err)
	}
	defer f.Close()

	return ParseTable(f, r.fileType, r.logger)
}

// ParseTable decodes a csv or xlsx stream
func ParseTable(rd io.Reader, fileType string, logger *internal.Logger) (*RawTable, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	switch fileType {
	case "csv":
		return parseCSV(rd, logger)
	case "xlsx":
		return parseExcel(rd, logger)
	}
	return nil, errors.Parse("unsupported file type: "+fileType, nil)
}

// parseExcel reads Sheet1 of a workbook
func parseExcel(rd io.Reader, logger *internal.Logger) (*RawTable, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(rd)
	if err != nil {
		return nil, errors.Parse("failed to open Excel workbook", err)
	}
	defer f.Close()
	logger.Debug("[DataReader] Excel workbook opened in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)

	readStart := time.Now()
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, errors.Parse("failed to read Sheet1", err)
	}
	logger.Debug("[DataReader] Sheet1 read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	// excelize drops trailing empty cells, so rows may be shorter than the header
	return processRows(rows, logger)
}

func parseCSV(rd io.Reader, logger *internal.Logger) (*RawTable, error) {
	reader := csv.NewReader(rd)
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Parse("failed to read CSV", err)
	}
	logger.Debug("[DataReader] CSV read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return processRows(rows, logger)
}

// processRows converts raw string rows into a RawTable
func processRows(rows [][]string, logger *internal.Logger) (*RawTable, error) {
	if len(rows) == 0 {
		return nil, errors.Parse("table has no header row", nil)
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = NormalizeHeader(header)
	}
	if strings.Join(headers, "") == "" {
		return nil, errors.Parse("table header is empty", nil)
	}

	dataRows := make([]RawRow, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		rowData := make(RawRow, len(headers))
		for j, cell := range row {
			if j < len(headers) && headers[j] != "" {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	logger.Debug("[DataReader] table processed (%d columns, %d rows)", len(headers), len(dataRows))

	return &RawTable{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

// NormalizeHeader maps a display header onto its column name:
// "Purchase Amount (USD)" becomes "Purchase_Amount_USD".
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.NewReplacer("(", " ", ")", " ").Replace(h)
	return strings.Join(strings.Fields(h), "_")
}
