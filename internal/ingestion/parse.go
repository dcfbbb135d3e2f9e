package ingestion

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rpattn/memberload/internal/domain"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyFile is returned for uploads without content.
	ErrEmptyFile = errors.New("file is empty")
	// ErrNoHeader is returned when no header line can be found.
	ErrNoHeader = errors.New("no header row detected")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

const maxSpreadsheetRows = 100000

// ParseOptions controls how delimited text is split.
type ParseOptions struct {
	// QuotedFields enables RFC 4180 quoting. By default lines are split on every
	// literal comma and quotes carry no meaning.
	QuotedFields bool
}

type record struct {
	line  int
	cells []string
}

type parsedRow struct {
	line   int
	values domain.InputRow
}

type tableData struct {
	headers []string
	rows    []parsedRow
}

func parseTable(fileName string, payload []byte, opts ParseOptions) (tableData, error) {
	if len(bytes.TrimSpace(bytes.TrimPrefix(payload, byteOrderMark))) == 0 {
		return tableData{}, ErrEmptyFile
	}

	var (
		records []record
		err     error
	)

	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case "", ".csv", ".txt":
		if opts.QuotedFields {
			records, err = readQuotedCSV(payload)
		} else {
			records = splitLines(payload)
		}
	case ".xlsx":
		records, err = readExcel(payload)
	case ".xls":
		records, err = readLegacyExcel(payload)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return tableData{}, err
	}

	return normalizeTable(records)
}

// splitLines breaks payload into lines and each line on literal commas.
func splitLines(payload []byte) []record {
	payload = bytes.TrimPrefix(payload, byteOrderMark)
	lines := strings.Split(string(payload), "\n")

	records := make([]record, 0, len(lines))
	for idx, line := range lines {
		line = strings.TrimRight(line, "\r")
		records = append(records, record{
			line:  idx + 1,
			cells: strings.Split(line, ","),
		})
	}
	return records
}

func readQuotedCSV(payload []byte) ([]record, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	var records []record
	for {
		cells, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := csvReader.FieldPos(0)
		records = append(records, record{line: line, cells: cells})
	}
	return records, nil
}

func readExcel(payload []byte) ([]record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return numberRows(rows), nil
}

func readLegacyExcel(payload []byte) ([]record, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(payload), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}
	if workbook.NumSheets() == 0 {
		return nil, errors.New("excel file has no sheets")
	}
	return numberRows(workbook.ReadAllCells(maxSpreadsheetRows)), nil
}

func numberRows(rows [][]string) []record {
	records := make([]record, len(rows))
	for idx, cells := range rows {
		records[idx] = record{line: idx + 1, cells: cells}
	}
	return records
}

// normalizeTable takes the first non-blank record as the header and every later
// non-blank record as a data row.
func normalizeTable(records []record) (tableData, error) {
	var table tableData
	headerFound := false

	for _, rec := range records {
		if isBlank(rec.cells) {
			continue
		}
		if !headerFound {
			table.headers = sanitizeHeaders(rec.cells)
			headerFound = true
			continue
		}

		values := make(domain.InputRow, len(table.headers))
		for idx, header := range table.headers {
			if header == "" {
				continue
			}
			if idx < len(rec.cells) {
				values[header] = rec.cells[idx]
			} else {
				values[header] = ""
			}
		}
		table.rows = append(table.rows, parsedRow{line: rec.line, values: values})
	}

	if !headerFound {
		return tableData{}, ErrNoHeader
	}
	return table, nil
}

func sanitizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for idx, value := range raw {
		headers[idx] = strings.TrimSpace(value)
	}
	return headers
}

func isBlank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// expectedColumns lists the header columns a well-formed file carries.
func expectedColumns(mode domain.Mode) []string {
	cols := []string{
		domain.ColumnSite,
		domain.ColumnFullName,
		domain.ColumnIdentityNo,
		domain.ColumnIdentityType,
		domain.ColumnEmail,
		domain.ColumnGender,
	}
	if mode == domain.ModeValidate {
		cols = append(cols, domain.ColumnPhone)
	}
	return cols
}

func headerWarnings(headers []string, mode domain.Mode) []string {
	present := make(map[string]struct{}, len(headers))
	for _, header := range headers {
		present[header] = struct{}{}
	}

	var missing []string
	for _, column := range expectedColumns(mode) {
		if _, ok := present[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) == 0 {
		return []string{}
	}
	return []string{"Missing expected columns: " + strings.Join(missing, ", ")}
}
