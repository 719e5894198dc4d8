package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"발주일", "구입처", "총액"},
		Rows: []map[string]string{
			{"발주일": "2024-03-01", "구입처": "신선농장", "총액": "3000"},
			{"발주일": "2024-03-02", "구입처": "바다수산", "총액": "15000"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	payload, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(payload, []byte{0xEF, 0xBB, 0xBF}))
	body := string(payload[3:])
	assert.Contains(t, body, "발주일,구입처,총액\n")
	assert.Contains(t, body, "2024-03-01,신선농장,3000\n")
	assert.Contains(t, body, "2024-03-02,바다수산,15000\n")
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestExcelExporterRoundTrip(t *testing.T) {
	payload, err := NewExcelExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"발주일", "구입처", "총액"}, rows[0])
	assert.Equal(t, []string{"2024-03-01", "신선농장", "3000"}, rows[1])
}

func TestPDFExporterRender(t *testing.T) {
	payload, err := NewPDFExporter().Render(sampleDataset(), "orders")
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
	assert.NotEmpty(t, payload)
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "")
	require.Error(t, err)
}
