// Package metrics computes funnel and ROI aggregates over master leads.
package metrics

import (
	"sort"

	"github.com/sells-group/attribution-cli/internal/model"
)

// Calculate computes funnel and ROI metrics over a set of master leads.
// Null revenue and cost are treated as zero; every ratio guards its
// denominator so an empty input yields all-zero metrics rather than NaN.
func Calculate(leads []model.MasterLead) model.LeadMetrics {
	var m model.LeadMetrics
	for _, l := range leads {
		m.TotalLeads++
		if l.IsQualified {
			m.QualifiedLeads++
		}
		if l.IsBooked {
			m.BookedLeads++
		}
		if l.IsCompleted {
			m.CompletedLeads++
		}
		if l.JobRevenue != nil {
			m.TotalRevenue += *l.JobRevenue
		}
		if l.LeadCost != nil {
			m.TotalSpend += *l.LeadCost
		}
	}

	if m.TotalLeads > 0 {
		m.CPA = m.TotalSpend / float64(m.TotalLeads)
		m.ConversionRate = float64(m.BookedLeads) / float64(m.TotalLeads) * 100
	}
	if m.TotalSpend > 0 {
		m.ROI = (m.TotalRevenue - m.TotalSpend) / m.TotalSpend * 100
	}

	return m
}

// CalculateBySource groups leads by primary source and computes metrics per
// group, sorted descending by total leads. Grouping ignores the source
// detail label: two leads with the same primary source but different detail
// strings land in the same group. Ties sort by source name for stable output.
func CalculateBySource(leads []model.MasterLead) []model.SourceMetrics {
	groups := make(map[model.LeadSource][]model.MasterLead)
	for _, l := range leads {
		groups[l.PrimarySource] = append(groups[l.PrimarySource], l)
	}

	out := make([]model.SourceMetrics, 0, len(groups))
	for source, group := range groups {
		out = append(out, model.SourceMetrics{
			Source:  source,
			Metrics: Calculate(group),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Metrics.TotalLeads != out[j].Metrics.TotalLeads {
			return out[i].Metrics.TotalLeads > out[j].Metrics.TotalLeads
		}
		return out[i].Source < out[j].Source
	})

	return out
}
