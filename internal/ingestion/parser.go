package ingestion

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one parsed line keyed by column name. Values are strings,
// float64 for cells that parse cleanly as numbers, or nil.
type Row map[string]any

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// ParseRows converts raw upload bytes into an ordered row sequence,
// dispatching on the detected file format.
func ParseRows(fileName string, payload []byte) ([]Row, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatSpreadsheet:
		return parseSpreadsheet(payload)
	case FormatDelimited:
		return parseDelimited(payload)
	case FormatDocument:
		return parseDocument(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func parseSpreadsheet(payload []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("excel sheet has no rows")
	}

	// Header labels stay raw (trimmed only); badge id extraction matches
	// against human readable variants like "Badge ID".
	headers := make([]string, len(records[0]))
	for i, cell := range records[0] {
		headers[i] = strings.TrimSpace(cell)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := Row{}
		hasData := false
		for i, header := range headers {
			if header == "" || i >= len(record) {
				continue
			}
			cell := strings.TrimSpace(record[i])
			if cell == "" {
				continue
			}
			hasData = true
			row[header] = castScalar(cell)
		}
		if hasData {
			rows = append(rows, row)
		}
	}

	return rows, nil
}

func parseDelimited(payload []byte) ([]Row, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("csv file has no rows")
	}

	headers := make([]string, len(records[0]))
	for i, cell := range records[0] {
		headers[i] = strings.TrimSpace(cell)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := Row{}
		hasData := false
		for i, header := range headers {
			if header == "" || i >= len(record) {
				continue
			}
			cell := strings.TrimSpace(record[i])
			if cell == "" {
				continue
			}
			hasData = true
			row[header] = castScalar(cell)
		}
		if hasData {
			rows = append(rows, row)
		}
	}

	return rows, nil
}

// columnSplitter breaks a document line on runs of two or more spaces or
// a tab, the widths table exports tend to pad columns with.
var columnSplitter = regexp.MustCompile(`\s{2,}|\t`)

// parseDocument extracts whole-document text and splits it into
// positional rows. There is no header concept here: layouts without wide
// padding between columns will not parse, which is accepted as
// best-effort behaviour rather than a contract.
func parseDocument(payload []byte) ([]Row, error) {
	text, err := extractDocumentText(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to extract document text: %w", err)
	}

	var rows []Row
	for _, line := range strings.Split(text, "\n") {
		row := rowFromLine(line)
		if row != nil {
			rows = append(rows, row)
		}
	}

	return rows, nil
}

// rowFromLine splits one document line into a positional row, or returns
// nil when the line does not yield at least two columns.
func rowFromLine(line string) Row {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	var tokens []string
	for _, part := range columnSplitter.Split(line, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	if len(tokens) < 2 {
		return nil
	}

	row := Row{}
	for i, token := range tokens {
		row[fmt.Sprintf("column_%d", i+1)] = token
	}
	return row
}

// castScalar keeps a cell as float64 when it parses cleanly as a number,
// otherwise as the trimmed string.
func castScalar(cell string) any {
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	return cell
}
