// Package ocrinput reads recognized text lines produced by an external OCR service.
// Only line-level units are returned; word and region units are dropped.
package ocrinput

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fjacquet/claimflow/internal/models"

	"github.com/gocarina/gocsv"
)

// Format selects the input encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// FormatFromPath guesses the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return FormatCSV
	}
	return FormatJSON
}

// Read decodes OCR lines in the given format.
func Read(r io.Reader, format Format) ([]models.OCRLine, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatJSON:
		return ReadJSON(r)
	default:
		return nil, fmt.Errorf("unsupported OCR input format: %s", format)
	}
}

// textractBlock mirrors the block shape of document-analysis services.
type textractBlock struct {
	BlockType  string   `json:"BlockType"`
	Text       string   `json:"Text"`
	Confidence *float64 `json:"Confidence"`
}

type textractEnvelope struct {
	Blocks []textractBlock `json:"Blocks"`
}

// ReadJSON accepts either a plain array of {text, confidence, type} objects or an
// envelope of the form {"Blocks": [{"BlockType", "Text", "Confidence"}]}.
func ReadJSON(r io.Reader) ([]models.OCRLine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading OCR input: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []models.OCRLine{}, nil
	}

	if trimmed[0] == '{' {
		var env textractEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("error parsing OCR block envelope: %w", err)
		}
		lines := make([]models.OCRLine, 0, len(env.Blocks))
		for _, b := range env.Blocks {
			lines = append(lines, models.OCRLine{Text: b.Text, Confidence: b.Confidence, Type: b.BlockType})
		}
		return FilterLines(lines), nil
	}

	var lines []models.OCRLine
	if err := json.Unmarshal(trimmed, &lines); err != nil {
		return nil, fmt.Errorf("error parsing OCR lines: %w", err)
	}
	return FilterLines(lines), nil
}

type csvRow struct {
	Text       string `csv:"text"`
	Confidence string `csv:"confidence"`
	Type       string `csv:"type"`
}

// ReadCSV reads a CSV with a text,confidence,type header. Empty confidence cells
// produce lines without a confidence value.
func ReadCSV(r io.Reader) ([]models.OCRLine, error) {
	var rows []csvRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("error parsing OCR CSV: %w", err)
	}

	lines := make([]models.OCRLine, 0, len(rows))
	for i, row := range rows {
		line := models.OCRLine{Text: row.Text, Type: strings.ToUpper(strings.TrimSpace(row.Type))}
		if c := strings.TrimSpace(row.Confidence); c != "" {
			v, err := strconv.ParseFloat(c, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid confidence %q: %w", i+1, c, err)
			}
			line.Confidence = &v
		}
		lines = append(lines, line)
	}
	return FilterLines(lines), nil
}

// FilterLines keeps only line-level units, preserving order.
func FilterLines(lines []models.OCRLine) []models.OCRLine {
	out := make([]models.OCRLine, 0, len(lines))
	for _, l := range lines {
		if l.IsLine() {
			out = append(out, l)
		}
	}
	return out
}
