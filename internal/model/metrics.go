package model

// LeadMetrics holds funnel and ROI aggregates over a set of master leads.
type LeadMetrics struct {
	TotalLeads     int     `json:"total_leads"`
	QualifiedLeads int     `json:"qualified_leads"`
	BookedLeads    int     `json:"booked_leads"`
	CompletedLeads int     `json:"completed_leads"`
	TotalRevenue   float64 `json:"total_revenue"`
	TotalSpend     float64 `json:"total_spend"`
	CPA            float64 `json:"cpa"`
	ConversionRate float64 `json:"conversion_rate"`
	ROI            float64 `json:"roi"`
}

// SourceMetrics pairs a primary source with its metrics.
type SourceMetrics struct {
	Source  LeadSource  `json:"source"`
	Metrics LeadMetrics `json:"metrics"`
}
