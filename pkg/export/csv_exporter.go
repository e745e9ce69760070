package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Column describes one output column of a sheet.
type Column struct {
	Key   string
	Title string
	// Width is the relative PDF width; zero means equal share.
	Width float64
}

// Sheet is a titled table ready for rendering.
type Sheet struct {
	Title    string
	Subtitle string
	Columns  []Column
	Rows     []map[string]string
}

func (s Sheet) validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("sheet requires at least one column")
	}
	return nil
}

func (s Sheet) record(row map[string]string) []string {
	record := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		record[i] = row[col.Key]
	}
	return record
}

// CSVExporter renders sheets as CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV bytes with a header row of column titles.
func (e *CSVExporter) Render(sheet Sheet) ([]byte, error) {
	if err := sheet.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	headers := make([]string, len(sheet.Columns))
	for i, col := range sheet.Columns {
		headers[i] = col.Title
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range sheet.Rows {
		if err := writer.Write(sheet.record(row)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
