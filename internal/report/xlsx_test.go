package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/attribution-cli/internal/model"
)

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	overall := model.LeadMetrics{
		TotalLeads:     4,
		QualifiedLeads: 2,
		BookedLeads:    2,
		TotalRevenue:   1500,
		TotalSpend:     50,
		CPA:            12.5,
		ConversionRate: 50,
		ROI:            2900,
	}
	bySource := []model.SourceMetrics{
		{Source: model.SourceYelp, Metrics: model.LeadMetrics{TotalLeads: 3}},
		{Source: model.SourceOrganic, Metrics: model.LeadMetrics{TotalLeads: 1}},
	}

	require.NoError(t, WriteXLSX(path, overall, bySource))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)
	assert.Equal(t, "Summary", f.Sheets[0].Name)
	assert.Equal(t, "By Source", f.Sheets[1].Name)

	// Header + one row per source.
	require.Len(t, f.Sheets[1].Rows, 3)
	assert.Equal(t, "yelp", f.Sheets[1].Rows[1].Cells[0].String())
	assert.Equal(t, "organic", f.Sheets[1].Rows[2].Cells[0].String())
}
