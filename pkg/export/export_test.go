package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledger() Dataset {
	return Dataset{
		Title:   "Purchases",
		Headers: []string{"date", "client", "package", "amount"},
		Rows: []map[string]string{
			{"date": "2024-05-01", "client": "Ada", "package": "5-Pack", "amount": "100.00"},
		},
		Footer: []map[string]string{{"package": "Total", "amount": "100.00"}},
	}
}

func TestCSVIncludesFooter(t *testing.T) {
	out, err := Render(FormatCSV, ledger())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,client,package,amount", lines[0])
	assert.Equal(t, ",,Total,100.00", lines[2])
}

func TestPDFRender(t *testing.T) {
	out, err := Render(FormatPDF, ledger())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}

func TestRenderRequiresHeaders(t *testing.T) {
	_, err := Render(FormatCSV, Dataset{})
	assert.Error(t, err)
}
