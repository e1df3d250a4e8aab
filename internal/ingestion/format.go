package ingestion

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when an uploaded file is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Format enumerates the file formats the pipeline can parse.
type Format string

const (
	FormatSpreadsheet Format = "spreadsheet"
	FormatDelimited   Format = "delimited"
	FormatDocument    Format = "document"
)

// DetectFormat maps a filename extension to a supported format.
func DetectFormat(fileName string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".xlsx", ".xls":
		return FormatSpreadsheet, nil
	case ".csv":
		return FormatDelimited, nil
	case ".pdf":
		return FormatDocument, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}
