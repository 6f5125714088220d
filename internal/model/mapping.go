package model

import "time"

// IdentifierTypeTrackingNumber is the identifier type consulted by the
// tracking-number match rule.
const IdentifierTypeTrackingNumber = "tracking_number"

// SourceMapping associates a tracking identifier with an acquisition source.
// Administrator-maintained, low cardinality.
type SourceMapping struct {
	ID              int64      `json:"id"`
	IdentifierType  string     `json:"identifier_type"`
	IdentifierValue string     `json:"identifier_value"`
	Source          LeadSource `json:"source"`
	Trade           *Trade     `json:"trade,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
