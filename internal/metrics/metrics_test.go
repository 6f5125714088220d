package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/attribution-cli/internal/model"
)

func lead(source model.LeadSource, booked bool, revenue, cost *float64) model.MasterLead {
	return model.MasterLead{
		PrimarySource: source,
		IsBooked:      booked,
		JobRevenue:    revenue,
		LeadCost:      cost,
	}
}

func f(v float64) *float64 { return &v }

func TestCalculate_Empty(t *testing.T) {
	m := Calculate(nil)
	assert.Equal(t, model.LeadMetrics{}, m, "empty input must yield all zeros, no division errors")
}

func TestCalculate_Totals(t *testing.T) {
	leads := []model.MasterLead{
		{IsQualified: true, IsBooked: true, IsCompleted: true, JobRevenue: f(1200), LeadCost: f(25)},
		{IsQualified: true, LeadCost: f(25)},
		{}, // null revenue and cost count as zero
		{IsBooked: true, JobRevenue: f(300)},
	}

	m := Calculate(leads)
	assert.Equal(t, 4, m.TotalLeads)
	assert.Equal(t, 2, m.QualifiedLeads)
	assert.Equal(t, 2, m.BookedLeads)
	assert.Equal(t, 1, m.CompletedLeads)
	assert.Equal(t, 1500.0, m.TotalRevenue)
	assert.Equal(t, 50.0, m.TotalSpend)
	assert.Equal(t, 12.5, m.CPA)
	assert.Equal(t, 50.0, m.ConversionRate)
	assert.Equal(t, (1500.0-50.0)/50.0*100, m.ROI)
}

func TestCalculate_ZeroSpendGuardsROI(t *testing.T) {
	m := Calculate([]model.MasterLead{{JobRevenue: f(500)}})
	assert.Equal(t, 0.0, m.ROI)
	assert.Equal(t, 0.0, m.CPA)
}

func TestCalculateBySource_OrderedByTotalLeads(t *testing.T) {
	leads := []model.MasterLead{
		lead(model.SourceYelp, true, f(100), f(10)),
		lead(model.SourceYelp, false, nil, f(10)),
		lead(model.SourceYelp, false, nil, nil),
		lead(model.SourceOrganic, true, f(900), f(0)),
	}

	bySource := CalculateBySource(leads)
	require.Len(t, bySource, 2)
	assert.Equal(t, model.SourceYelp, bySource[0].Source)
	assert.Equal(t, 3, bySource[0].Metrics.TotalLeads)
	assert.Equal(t, model.SourceOrganic, bySource[1].Source)
	assert.Equal(t, 1, bySource[1].Metrics.TotalLeads)
}

func TestCalculateBySource_DetailDoesNotSplitGroups(t *testing.T) {
	a := lead(model.SourceOrganic, false, nil, nil)
	a.SourceDetail = "Radio Spot Q1"
	b := lead(model.SourceOrganic, false, nil, nil)
	b.SourceDetail = "Direct call"

	bySource := CalculateBySource([]model.MasterLead{a, b})
	require.Len(t, bySource, 1)
	assert.Equal(t, 2, bySource[0].Metrics.TotalLeads)
}

func TestCalculateBySource_TieBreaksBySourceName(t *testing.T) {
	leads := []model.MasterLead{
		lead(model.SourceWebsite, false, nil, nil),
		lead(model.SourceGBP, false, nil, nil),
	}
	bySource := CalculateBySource(leads)
	require.Len(t, bySource, 2)
	assert.Equal(t, model.SourceGBP, bySource[0].Source)
	assert.Equal(t, model.SourceWebsite, bySource[1].Source)
}
