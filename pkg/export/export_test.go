package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expiryDataset() Dataset {
	return Dataset{
		Title:   "Certificates expiring within 14 days",
		Headers: []string{"Name", "Certificate", "Expiry", "Days"},
		Rows: []map[string]string{
			{"Name": "Jo Bloggs", "Certificate": "TAS Badge", "Expiry": "2026-10-20", "Days": "4"},
			{"Name": "AB12 CDE", "Certificate": "MOT", "Expiry": "2026-10-22"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(expiryDataset())
	require.NoError(t, err)
	assert.Equal(t, "Name,Certificate,Expiry,Days\nJo Bloggs,TAS Badge,2026-10-20,4\nAB12 CDE,MOT,2026-10-22,\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(expiryDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	assert.IsType(t, &CSVExporter{}, RendererFor(f))

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}
