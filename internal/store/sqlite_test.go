package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/attribution-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testCall(id int64, dir model.CallDirection, receivedAt time.Time) model.CallRecord {
	return model.CallRecord{
		ID:         id,
		Direction:  dir,
		CallType:   "Abandoned",
		FromPhone:  "5551234567",
		ReceivedAt: receivedAt,
	}
}

func testMasterLead(adLeadID string) model.MasterLead {
	now := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)
	return model.MasterLead{
		ID:               uuid.New().String(),
		AdLeadID:         &adLeadID,
		OriginalSource:   model.SourceYelp,
		OriginalSourceID: adLeadID,
		PrimarySource:    model.SourceYelp,
		SourceConfidence: 100,
		LeadType:         model.LeadTypeCall,
		LeadStatus:       model.LeadStatusNew,
		ReconStatus:      model.ReconPending,
		LeadCreatedAt:    now.Add(-time.Hour),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestSQLiteStore_CallRecordsRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC)

	n, err := s.UpsertCallRecords(ctx, []model.CallRecord{
		testCall(1, model.DirectionInbound, base),
		testCall(2, model.DirectionOutbound, base.Add(time.Minute)),
		testCall(3, model.DirectionInbound, base.Add(2*time.Minute)),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := s.ListCallRecords(ctx, CallFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	inbound, err := s.ListCallRecords(ctx, CallFilter{InboundOnly: true})
	require.NoError(t, err)
	require.Len(t, inbound, 2)
	assert.Equal(t, int64(1), inbound[0].ID)
	assert.Equal(t, int64(3), inbound[1].ID)
}

func TestSQLiteStore_CallRecordsTimeFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC)

	_, err := s.UpsertCallRecords(ctx, []model.CallRecord{
		testCall(1, model.DirectionInbound, base),
		testCall(2, model.DirectionInbound, base.Add(time.Hour)),
	})
	require.NoError(t, err)

	got, err := s.ListCallRecords(ctx, CallFilter{From: base.Add(30 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestSQLiteStore_UpsertCallRecords_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	call := testCall(1, model.DirectionInbound, time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC))

	_, err := s.UpsertCallRecords(ctx, []model.CallRecord{call})
	require.NoError(t, err)
	call.CallType = "Booked"
	_, err = s.UpsertCallRecords(ctx, []model.CallRecord{call})
	require.NoError(t, err)

	got, err := s.ListCallRecords(ctx, CallFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Booked", got[0].CallType)
}

func TestSQLiteStore_AdLeadsRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC)

	n, err := s.UpsertAdLeads(ctx, []model.AdLead{
		{ID: "al-1", LeadType: "PHONE", Status: "NEW", CreatedAt: base},
		{ID: "al-2", LeadType: "MESSAGE", Status: "BOOKED", CreatedAt: base.Add(time.Minute)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.ListAdLeads(ctx, AdLeadFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "al-1", got[0].ID)
	assert.Equal(t, "PHONE", got[0].LeadType)
}

func TestSQLiteStore_SourceMappings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tr := model.TradeHVAC
	require.NoError(t, s.UpsertSourceMapping(ctx, model.SourceMapping{
		IdentifierType:  model.IdentifierTypeTrackingNumber,
		IdentifierValue: "8885550001",
		Source:          model.SourceYelp,
		Trade:           &tr,
		IsActive:        true,
	}))
	require.NoError(t, s.UpsertSourceMapping(ctx, model.SourceMapping{
		IdentifierType:  model.IdentifierTypeTrackingNumber,
		IdentifierValue: "8885550002",
		Source:          model.SourceGoogleLSA,
		IsActive:        false,
	}))

	all, err := s.ListSourceMappings(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	require.NotNil(t, all[0].Trade)
	assert.Equal(t, model.TradeHVAC, *all[0].Trade)

	active, err := s.ListSourceMappings(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "8885550001", active[0].IdentifierValue)
}

func TestSQLiteStore_SourceMappings_UpsertReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := model.SourceMapping{
		IdentifierType:  model.IdentifierTypeTrackingNumber,
		IdentifierValue: "8885550001",
		Source:          model.SourceYelp,
		IsActive:        true,
	}
	require.NoError(t, s.UpsertSourceMapping(ctx, m))
	m.IsActive = false
	require.NoError(t, s.UpsertSourceMapping(ctx, m))

	all, err := s.ListSourceMappings(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)
}

func TestSQLiteStore_SaveMasterLead_CreatedOncePerOrigin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.SaveMasterLead(ctx, testMasterLead("al-1"))
	require.NoError(t, err)

	// A reconcile re-run produces a new candidate with a fresh uuid; the
	// store must keep the original identity for the same origin.
	second := testMasterLead("al-1")
	second.ReconStatus = model.ReconAutoMatched
	saved, err := s.SaveMasterLead(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, saved.ID)
	assert.Equal(t, first.CreatedAt, saved.CreatedAt)

	leads, err := s.ListMasterLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, model.ReconAutoMatched, leads[0].ReconStatus)
}

func TestSQLiteStore_SaveMasterLead_NoOrigin(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SaveMasterLead(context.Background(), model.MasterLead{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no originating record")
}

func TestSQLiteStore_ListMasterLeads_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testMasterLead("al-1")
	_, err := s.SaveMasterLead(ctx, a)
	require.NoError(t, err)

	b := testMasterLead("al-2")
	b.PrimarySource = model.SourceOrganic
	b.ReconStatus = model.ReconNoMatch
	_, err = s.SaveMasterLead(ctx, b)
	require.NoError(t, err)

	bySource, err := s.ListMasterLeads(ctx, LeadFilter{Source: model.SourceOrganic})
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, model.SourceOrganic, bySource[0].PrimarySource)

	byStatus, err := s.ListMasterLeads(ctx, LeadFilter{ReconStatus: model.ReconPending})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, model.ReconPending, byStatus[0].ReconStatus)
}
