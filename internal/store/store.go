package store

import (
	"context"
	"time"

	"github.com/sells-group/attribution-cli/internal/model"
)

// CallFilter specifies criteria for listing call records.
type CallFilter struct {
	From        time.Time `json:"from,omitempty"`
	To          time.Time `json:"to,omitempty"`
	InboundOnly bool      `json:"inbound_only,omitempty"`
	Limit       int       `json:"limit,omitempty"`
}

// AdLeadFilter specifies criteria for listing ad leads.
type AdLeadFilter struct {
	From  time.Time `json:"from,omitempty"`
	To    time.Time `json:"to,omitempty"`
	Limit int       `json:"limit,omitempty"`
}

// LeadFilter specifies criteria for listing master leads.
type LeadFilter struct {
	Source      model.LeadSource  `json:"source,omitempty"`
	ReconStatus model.ReconStatus `json:"recon_status,omitempty"`
	From        time.Time         `json:"from,omitempty"`
	To          time.Time         `json:"to,omitempty"`
	Limit       int               `json:"limit,omitempty"`
}

// Store defines the persistence interface for the reconciliation engine.
type Store interface {
	// Synced source records (written by the import layer, read-only to the
	// engine).
	UpsertCallRecords(ctx context.Context, calls []model.CallRecord) (int, error)
	ListCallRecords(ctx context.Context, filter CallFilter) ([]model.CallRecord, error)
	UpsertAdLeads(ctx context.Context, leads []model.AdLead) (int, error)
	ListAdLeads(ctx context.Context, filter AdLeadFilter) ([]model.AdLead, error)

	// Source mappings (administrator-maintained reference table).
	UpsertSourceMapping(ctx context.Context, m model.SourceMapping) error
	ListSourceMappings(ctx context.Context, activeOnly bool) ([]model.SourceMapping, error)

	// Master leads. SaveMasterLead upserts on the lead's origin key, keeping
	// the existing id and created_at when the originating record was already
	// reconciled once.
	SaveMasterLead(ctx context.Context, ml model.MasterLead) (*model.MasterLead, error)
	ListMasterLeads(ctx context.Context, filter LeadFilter) ([]model.MasterLead, error)

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}
