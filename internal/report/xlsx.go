// Package report exports lead metrics to spreadsheet files for the
// operations team.
package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/attribution-cli/internal/model"
)

// WriteXLSX writes a workbook with a summary sheet and a per-source sheet.
func WriteXLSX(path string, overall model.LeadMetrics, bySource []model.SourceMetrics) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	writeHeader(summary, []string{"Metric", "Value"})
	addMetricRows(summary, overall)

	sources, err := f.AddSheet("By Source")
	if err != nil {
		return eris.Wrap(err, "report: add by-source sheet")
	}
	writeHeader(sources, []string{
		"Source", "Total Leads", "Qualified", "Booked", "Completed",
		"Revenue", "Spend", "CPA", "Conversion Rate %", "ROI %",
	})
	for _, sm := range bySource {
		row := sources.AddRow()
		row.AddCell().SetString(string(sm.Source))
		row.AddCell().SetInt(sm.Metrics.TotalLeads)
		row.AddCell().SetInt(sm.Metrics.QualifiedLeads)
		row.AddCell().SetInt(sm.Metrics.BookedLeads)
		row.AddCell().SetInt(sm.Metrics.CompletedLeads)
		row.AddCell().SetFloat(sm.Metrics.TotalRevenue)
		row.AddCell().SetFloat(sm.Metrics.TotalSpend)
		row.AddCell().SetFloat(sm.Metrics.CPA)
		row.AddCell().SetFloat(sm.Metrics.ConversionRate)
		row.AddCell().SetFloat(sm.Metrics.ROI)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func writeHeader(sheet *xlsx.Sheet, cols []string) {
	row := sheet.AddRow()
	for _, c := range cols {
		row.AddCell().SetString(c)
	}
}

func addMetricRows(sheet *xlsx.Sheet, m model.LeadMetrics) {
	for _, kv := range []struct {
		name  string
		value float64
		isInt bool
	}{
		{"Total Leads", float64(m.TotalLeads), true},
		{"Qualified Leads", float64(m.QualifiedLeads), true},
		{"Booked Leads", float64(m.BookedLeads), true},
		{"Completed Leads", float64(m.CompletedLeads), true},
		{"Total Revenue", m.TotalRevenue, false},
		{"Total Spend", m.TotalSpend, false},
		{"CPA", m.CPA, false},
		{"Conversion Rate %", m.ConversionRate, false},
		{"ROI %", m.ROI, false},
	} {
		row := sheet.AddRow()
		row.AddCell().SetString(kv.name)
		if kv.isInt {
			row.AddCell().SetInt(int(kv.value))
		} else {
			row.AddCell().SetFloat(kv.value)
		}
	}
}
