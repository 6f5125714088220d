package model

import "time"

// AdLead is a contact event reported by the ads platform (Yelp), tied to a
// billing/credit state. Immutable once synced.
type AdLead struct {
	ID             string    `json:"id"`
	ExternalLeadID string    `json:"external_lead_id"`
	AccountID      string    `json:"account_id"`
	LeadType       string    `json:"lead_type"`   // raw platform string: PHONE / MESSAGE / BOOKING / UNKNOWN
	CategoryID     string    `json:"category_id"` // free text, e.g. "xcat:service_area_business_hvac"
	ConsumerPhone  string    `json:"consumer_phone,omitempty"`
	BusinessPhone  string    `json:"business_phone,omitempty"`
	Status         string    `json:"status"`
	Charged        bool      `json:"charged"`
	CreditState    string    `json:"credit_state,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Locale         string    `json:"locale,omitempty"`
}
