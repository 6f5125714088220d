package model

import (
	"strconv"
	"time"
)

// LeadSource identifies where a lead originally came from.
type LeadSource string

const (
	SourceYelp          LeadSource = "yelp"
	SourceOrganic       LeadSource = "organic"
	SourceWebsite       LeadSource = "website"
	SourceGBP           LeadSource = "gbp"
	SourceGoogleLSA     LeadSource = "google_lsa"
	SourceCallCenter    LeadSource = "call_center"
	SourceBookingSystem LeadSource = "booking_system"
	SourceAngi          LeadSource = "angi"
	SourceThumbtack     LeadSource = "thumbtack"
)

// LeadType classifies how the customer made contact.
type LeadType string

const (
	LeadTypeCall    LeadType = "call"
	LeadTypeForm    LeadType = "form"
	LeadTypeBooking LeadType = "booking"
	LeadTypeMessage LeadType = "message"
)

// LeadStatus tracks a lead through the funnel.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusBooked    LeadStatus = "booked"
	LeadStatusCompleted LeadStatus = "completed"
	LeadStatusLost      LeadStatus = "lost"
	LeadStatusInvalid   LeadStatus = "invalid"
)

// ReconStatus records how (or whether) a lead was reconciled against the
// call log.
type ReconStatus string

const (
	ReconPending         ReconStatus = "pending"
	ReconAutoMatched     ReconStatus = "auto_matched"
	ReconManuallyMatched ReconStatus = "manually_matched"
	ReconNoMatch         ReconStatus = "no_match"
	ReconDuplicate       ReconStatus = "duplicate"
)

// Trade is a service trade inferred from category or business-unit text.
type Trade string

const (
	TradeHVAC     Trade = "HVAC"
	TradePlumbing Trade = "Plumbing"
	TradeOther    Trade = "Other"
)

// originPrefix values namespace the origin key per originating record kind.
const (
	originAdLead = "ad"
	originCall   = "call"
)

// MasterLead is the canonical, deduplicated representation of a single
// real-world customer contact with one attributed acquisition source.
// Created exactly once per originating ad lead, or per call record that was
// not claimed by an ad-lead match. Never deleted; enrichment fills the
// nullable linkage and economics fields later but must not touch provenance
// after reconciliation.
type MasterLead struct {
	ID string `json:"id"`

	// Identity links back to the originating records.
	AdLeadID         *string `json:"ad_lead_id,omitempty"`
	CallRecordID     *int64  `json:"call_record_id,omitempty"`
	AggregatorLeadID *string `json:"aggregator_lead_id,omitempty"`

	// Provenance.
	OriginalSource   LeadSource `json:"original_source"`
	OriginalSourceID string     `json:"original_source_id"`
	PrimarySource    LeadSource `json:"primary_source"`
	SourceDetail     string     `json:"source_detail,omitempty"`
	SourceConfidence int        `json:"source_confidence"` // 0-100

	// Contact.
	PhoneRaw        string  `json:"phone_raw,omitempty"`
	PhoneNormalized *string `json:"phone_normalized,omitempty"`
	CustomerName    *string `json:"customer_name,omitempty"`

	// Classification.
	LeadType LeadType `json:"lead_type"`
	Trade    *Trade   `json:"trade,omitempty"`

	// Funnel state. is_completed implies is_booked; qualification is driven
	// independently by the charged flag for ad leads.
	LeadStatus  LeadStatus `json:"lead_status"`
	IsQualified bool       `json:"is_qualified"`
	IsBooked    bool       `json:"is_booked"`
	IsCompleted bool       `json:"is_completed"`

	// Field-service linkage, populated by out-of-scope lookups.
	CustomerID *int64 `json:"customer_id,omitempty"`
	JobID      *int64 `json:"job_id,omitempty"`
	BookingID  *int64 `json:"booking_id,omitempty"`

	// Economics.
	JobRevenue     *float64   `json:"job_revenue,omitempty"`
	JobCompletedAt *time.Time `json:"job_completed_at,omitempty"`
	LeadCost       *float64   `json:"lead_cost,omitempty"`

	// Reconciliation metadata.
	ReconStatus     ReconStatus `json:"recon_status"`
	ReconConfidence *int        `json:"recon_confidence,omitempty"` // 0-100
	MatchingRule    *string     `json:"matching_rule,omitempty"`
	ReconciledAt    *time.Time  `json:"reconciled_at,omitempty"`
	ReconciledBy    string      `json:"reconciled_by,omitempty"`

	// Duplicate tracking.
	IsDuplicate   bool    `json:"is_duplicate"`
	DuplicateOfID *string `json:"duplicate_of_id,omitempty"`

	LeadCreatedAt time.Time `json:"lead_created_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OriginKey identifies the originating record of a master lead. The store
// upserts on this key so re-running reconciliation never creates a second
// master lead for the same ad lead or call record.
func (m MasterLead) OriginKey() string {
	if m.AdLeadID != nil {
		return originAdLead + ":" + *m.AdLeadID
	}
	if m.CallRecordID != nil {
		return originCall + ":" + strconv.FormatInt(*m.CallRecordID, 10)
	}
	return ""
}
