// Package stockfile extracts credentials from uploaded inventory files.
package stockfile

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat indicates the uploaded file has an extension the
// decoder does not handle.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrEmpty indicates the file yielded no usable credential lines.
var ErrEmpty = errors.New("no credentials found in file")

// Decode reads credentials from an uploaded stock file. The format is chosen
// by the filename extension: .txt takes one credential per line, .csv and
// .xlsx take the first column of each row. Blank entries are skipped and
// surrounding whitespace is trimmed.
func Decode(filename string, r io.Reader) ([]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return decodeLines(r)
	case ".csv":
		return decodeCSV(r)
	case ".xlsx":
		return decodeXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

func decodeLines(r io.Reader) ([]string, error) {
	var credentials []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			credentials = append(credentials, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read txt: %w", err)
	}

	return nonEmpty(credentials)
}

func decodeCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var credentials []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		if value := strings.TrimSpace(record[0]); value != "" {
			credentials = append(credentials, value)
		}
	}

	return nonEmpty(credentials)
}

func decodeXLSX(r io.Reader) ([]string, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}

	var credentials []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if value := strings.TrimSpace(row[0]); value != "" {
			credentials = append(credentials, value)
		}
	}

	return nonEmpty(credentials)
}

func nonEmpty(credentials []string) ([]string, error) {
	if len(credentials) == 0 {
		return nil, ErrEmpty
	}

	return credentials, nil
}
