package model

import "time"

// CallDirection distinguishes inbound from outbound calls.
type CallDirection string

const (
	DirectionInbound  CallDirection = "inbound"
	DirectionOutbound CallDirection = "outbound"
)

// CallRecord is a phone call logged by the field-service system.
// Records are immutable once synced; the reconciliation engine only reads them.
type CallRecord struct {
	ID               int64         `json:"id"`
	Direction        CallDirection `json:"direction"`
	CallType         string        `json:"call_type"`
	DurationSecs     int           `json:"duration_secs"`
	CustomerID       *int64        `json:"customer_id,omitempty"`
	JobID            *int64        `json:"job_id,omitempty"`
	BookingID        *int64        `json:"booking_id,omitempty"`
	FromPhone        string        `json:"from_phone"`
	ToPhone          string        `json:"to_phone"`
	TrackingNumber   string        `json:"tracking_number,omitempty"`
	CampaignID       *int64        `json:"campaign_id,omitempty"`
	CampaignName     string        `json:"campaign_name,omitempty"`
	Agent            string        `json:"agent,omitempty"`
	BusinessUnitName string        `json:"business_unit_name,omitempty"`
	ReceivedAt       time.Time     `json:"received_at"`
	AnsweredAt       *time.Time    `json:"answered_at,omitempty"`
	EndedAt          *time.Time    `json:"ended_at,omitempty"`
}
