package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSheet() Sheet {
	return Sheet{
		Title:    "Substitution Sheet",
		Subtitle: "2026-03-02",
		Columns: []Column{
			{Key: "period", Title: "Period", Width: 1},
			{Key: "class", Title: "Class", Width: 2},
			{Key: "substitute", Title: "Substitute", Width: 3},
		},
		Rows: []map[string]string{
			{"period": "2", "class": "X-A", "substitute": "Budi, S.Pd"},
			{"period": "4", "class": "XI-B"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleSheet())
	require.NoError(t, err)
	assert.Equal(t, "Period,Class,Substitute\n2,X-A,\"Budi, S.Pd\"\n4,XI-B,\n", string(out))
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Sheet{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleSheet())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	empty := sampleSheet()
	empty.Rows = nil
	out, err = NewPDFExporter().Render(empty)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestColumnWidthsSpanPage(t *testing.T) {
	widths := columnWidths([]Column{{Width: 1}, {Width: 3}, {}})
	assert.InDelta(t, landscapeWidth, widths[0]+widths[1]+widths[2], 0.001)
	assert.InDelta(t, widths[0], widths[2], 0.001)
}
