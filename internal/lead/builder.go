// Package lead builds canonical master leads from raw ad leads and call
// records.
package lead

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/attribution-cli/internal/matcher"
	"github.com/sells-group/attribution-cli/internal/model"
	"github.com/sells-group/attribution-cli/internal/phone"
	"github.com/sells-group/attribution-cli/internal/trade"
)

// ReconciledByAuto marks master leads reconciled by the matching engine
// rather than an operator.
const ReconciledByAuto = "auto"

// directCallDetail labels organic leads that arrived with no campaign
// attribution at all.
const directCallDetail = "Direct call"

// Source confidence for call-sourced leads: campaign-name inference is
// trusted more than a bare call with no attribution signal.
const (
	confidenceWithCampaign    = 70
	confidenceWithoutCampaign = 50
)

// Builder constructs master leads. The clock is injectable for testing.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a Builder using the wall clock.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// WithNow sets a fixed time for testing.
func (b *Builder) WithNow(t time.Time) *Builder {
	b.now = func() time.Time { return t }
	return b
}

// FromAdLead converts an ad lead into a master lead, attaching the match
// result when the lead was paired with a call record. An ad lead is always
// authoritative for its own attribution, so the primary source is the ads
// platform at confidence 100 whether or not a call was matched.
func (b *Builder) FromAdLead(al model.AdLead, match matcher.Result) model.MasterLead {
	now := b.now().UTC()

	if !trade.EnglishLocale(al.Locale) {
		zap.L().Warn("lead: non-English locale, trade keywords are English-only",
			zap.String("ad_lead_id", al.ID),
			zap.String("locale", al.Locale),
		)
	}

	ml := model.MasterLead{
		ID:               uuid.New().String(),
		AdLeadID:         &al.ID,
		OriginalSource:   model.SourceYelp,
		OriginalSourceID: al.ID,
		PrimarySource:    model.SourceYelp,
		SourceConfidence: 100,
		PhoneRaw:         al.ConsumerPhone,
		LeadType:         adLeadType(al.LeadType),
		IsQualified:      al.Charged,
		IsBooked:         al.Status == "BOOKED",
		ReconStatus:      model.ReconPending,
		LeadCreatedAt:    al.CreatedAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if norm := phone.Normalize(al.ConsumerPhone); norm != "" {
		ml.PhoneNormalized = &norm
	}
	if tr := trade.Classify(al.CategoryID); tr != "" {
		ml.Trade = &tr
	}

	ml.LeadStatus = model.LeadStatusNew
	if ml.IsBooked {
		ml.LeadStatus = model.LeadStatusBooked
	}

	// Charged leads carry no cost here: actual spend arrives via the daily
	// cost feed. Unbilled leads cost nothing.
	if !al.Charged {
		ml.LeadCost = float64Ptr(0)
	}

	if match.Matched {
		ml.ReconStatus = model.ReconAutoMatched
		ml.ReconConfidence = intPtr(match.Confidence)
		ml.MatchingRule = strPtr(match.Rule)
		ml.CallRecordID = match.CallID
		reconciledAt := now
		ml.ReconciledAt = &reconciledAt
		ml.ReconciledBy = ReconciledByAuto
	}

	return ml
}

// FromCallRecord converts a call record that was NOT claimed by any ad-lead
// match into a master lead. The acquisition source is inferred from the
// tracking campaign name; a call-sourced lead is never itself the target of
// matching, so its reconciliation status is fixed to no_match.
func (b *Builder) FromCallRecord(call model.CallRecord) model.MasterLead {
	now := b.now().UTC()

	source, detail := inferCallSource(call.CampaignName)
	confidence := confidenceWithoutCampaign
	if call.CampaignName != "" {
		confidence = confidenceWithCampaign
	}

	callID := call.ID
	ml := model.MasterLead{
		ID:               uuid.New().String(),
		CallRecordID:     &callID,
		OriginalSource:   source,
		OriginalSourceID: strconv.FormatInt(call.ID, 10),
		PrimarySource:    source,
		SourceDetail:     detail,
		SourceConfidence: confidence,
		PhoneRaw:         call.FromPhone,
		LeadType:         model.LeadTypeCall,
		IsQualified:      call.CallType == "Booked",
		IsBooked:         call.BookingID != nil || call.JobID != nil,
		CustomerID:       call.CustomerID,
		JobID:            call.JobID,
		BookingID:        call.BookingID,
		LeadCost:         float64Ptr(0),
		ReconStatus:      model.ReconNoMatch,
		LeadCreatedAt:    call.ReceivedAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if norm := phone.Normalize(call.FromPhone); norm != "" {
		ml.PhoneNormalized = &norm
	}
	if tr := trade.ClassifyBusinessUnit(call.BusinessUnitName); tr != "" {
		ml.Trade = &tr
	}

	ml.LeadStatus = model.LeadStatusNew
	if ml.IsBooked {
		ml.LeadStatus = model.LeadStatusBooked
	}

	return ml
}

// adLeadType maps the platform's free-text lead type onto the canonical
// enum via case-insensitive substring checks.
func adLeadType(raw string) model.LeadType {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "phone"), strings.Contains(lower, "call"):
		return model.LeadTypeCall
	case strings.Contains(lower, "message"):
		return model.LeadTypeMessage
	case strings.Contains(lower, "booking"):
		return model.LeadTypeBooking
	default:
		return model.LeadTypeForm
	}
}

// inferCallSource derives an acquisition source from a tracking campaign
// name. Unrecognized campaign names stay organic but keep the raw name as
// the detail label; a missing campaign means a direct call.
func inferCallSource(campaign string) (model.LeadSource, string) {
	if campaign == "" {
		return model.SourceOrganic, directCallDetail
	}
	lower := strings.ToLower(campaign)
	switch {
	case strings.Contains(lower, "website"), strings.Contains(lower, "web"):
		return model.SourceWebsite, campaign
	case strings.Contains(lower, "gbp"), strings.Contains(lower, "google business"):
		return model.SourceGBP, campaign
	case strings.Contains(lower, "lsa"), strings.Contains(lower, "local service"):
		return model.SourceGoogleLSA, campaign
	default:
		return model.SourceOrganic, campaign
	}
}

func strPtr(s string) *string       { return &s }
func intPtr(i int) *int             { return &i }
func float64Ptr(f float64) *float64 { return &f }
