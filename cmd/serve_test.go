package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/attribution-cli/internal/model"
	"github.com/sells-group/attribution-cli/internal/recon"
	"github.com/sells-group/attribution-cli/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	srv := httptest.NewServer(newAPIRouter(st, 2))
	t.Cleanup(srv.Close)
	return srv, st
}

func seedMasterLead(t *testing.T, st store.Store, adLeadID string, source model.LeadSource, booked bool) {
	t.Helper()

	cost := 35.0
	_, err := st.SaveMasterLead(context.Background(), model.MasterLead{
		AdLeadID:         &adLeadID,
		OriginalSource:   source,
		OriginalSourceID: adLeadID,
		PrimarySource:    source,
		SourceConfidence: 100,
		LeadType:         model.LeadTypeCall,
		LeadStatus:       model.LeadStatusNew,
		IsQualified:      true,
		IsBooked:         booked,
		LeadCost:         &cost,
		ReconStatus:      model.ReconNoMatch,
		ReconciledBy:     "auto",
		LeadCreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	seedMasterLead(t, st, "al-1", model.SourceYelp, true)
	seedMasterLead(t, st, "al-2", model.SourceYelp, false)

	resp, err := http.Get(srv.URL + "/api/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var m model.LeadMetrics
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	assert.Equal(t, 2, m.TotalLeads)
	assert.Equal(t, 1, m.BookedLeads)
	assert.InDelta(t, 70.0, m.TotalSpend, 0.001)
}

func TestMetricsBySourceEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	seedMasterLead(t, st, "al-1", model.SourceYelp, true)
	seedMasterLead(t, st, "al-2", model.SourceWebsite, false)

	resp, err := http.Get(srv.URL + "/api/metrics/by-source")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var groups []model.SourceMetrics
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&groups))
	require.Len(t, groups, 2)
}

func TestLeadsEndpointSourceFilter(t *testing.T) {
	srv, st := newTestServer(t)
	seedMasterLead(t, st, "al-1", model.SourceYelp, true)
	seedMasterLead(t, st, "al-2", model.SourceWebsite, false)

	resp, err := http.Get(srv.URL + "/api/leads?source=yelp")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var leads []model.MasterLead
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&leads))
	require.Len(t, leads, 1)
	assert.Equal(t, model.SourceYelp, leads[0].PrimarySource)
}

func TestReconcileEndpointEmptyStore(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/reconcile", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary recon.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Zero(t, summary.AdLeads)
	assert.Zero(t, summary.Saved)
}
