package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"heartdash/domain/patient"
	"heartdash/internal/errors"
)

const (
	FileTypeCSV  = "csv"
	FileTypeXLSX = "xlsx"
)

// DataReader reads the patient table from a CSV or Excel file
type DataReader struct {
	filePath string
	fileType string
}

// NewDataReader creates a reader whose file type follows the extension
func NewDataReader(filePath string) *DataReader {
	fileType := FileTypeCSV
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx", ".xlsm":
		fileType = FileTypeXLSX
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// NewDataReaderWithType creates a reader with an explicit file type
func NewDataReaderWithType(filePath, fileType string) (*DataReader, error) {
	fileType = strings.ToLower(strings.TrimSpace(fileType))
	if fileType != FileTypeCSV && fileType != FileTypeXLSX {
		return nil, errors.ConfigInvalid(fmt.Sprintf("unsupported file type: %s", fileType))
	}
	return &DataReader{filePath: filePath, fileType: fileType}, nil
}

// Describe names the file for logs
func (r *DataReader) Describe() string {
	return r.fileType + ":" + r.filePath
}

// Load reads the file and builds the patient table
func (r *DataReader) Load(ctx context.Context) (*patient.Table, error) {
	records, err := r.ReadRecords(ctx)
	if err != nil {
		return nil, err
	}

	table, err := patient.FromRecords(records)
	if err != nil {
		return nil, errors.DataSource(fmt.Sprintf("failed to load %s", r.Describe()), err)
	}
	return table, nil
}

// ReadRecords returns the raw string records, header first
func (r *DataReader) ReadRecords(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(r.filePath); err != nil {
		return nil, errors.DataSource(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath), err)
	}

	var (
		records [][]string
		err     error
	)
	switch r.fileType {
	case FileTypeCSV:
		records, err = r.readCSVRecords()
	case FileTypeXLSX:
		records, err = r.readExcelRecords()
	default:
		err = errors.ConfigInvalid(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return nil, errors.DataSource(fmt.Sprintf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType)), nil)
	}
	return normalizeRecords(records), nil
}

func (r *DataReader) readCSVRecords() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.DataSource("failed to open CSV file", err)
	}
	defer file.Close()

	readStart := time.Now()
	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.DataSource("failed to read CSV file", err)
	}
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return rows, nil
}

// readExcelRecords reads Sheet1, or the first sheet when there is no Sheet1
func (r *DataReader) readExcelRecords() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.DataSource("failed to open Excel file", err)
	}
	defer f.Close()

	sheet := "Sheet1"
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.DataSource("Excel file has no sheets", nil)
	}
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.DataSource(fmt.Sprintf("failed to read sheet %s", sheet), err)
	}
	log.Printf("[DataReader] Excel sheet %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	return rows, nil
}

// normalizeRecords trims cells and pads short rows to the header width.
// Excel omits trailing empty cells, so short rows are expected there.
func normalizeRecords(rows [][]string) [][]string {
	width := len(rows[0])
	out := make([][]string, len(rows))
	for i, row := range rows {
		normalized := make([]string, width)
		for j := 0; j < width && j < len(row); j++ {
			normalized[j] = strings.TrimSpace(row[j])
		}
		out[i] = normalized
	}
	return out
}
