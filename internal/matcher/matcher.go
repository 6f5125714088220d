// Package matcher pairs ad leads with field-service call records using an
// ordered waterfall of matching rules.
package matcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/attribution-cli/internal/model"
	"github.com/sells-group/attribution-cli/internal/phone"
	"github.com/sells-group/attribution-cli/internal/trade"
)

// Rule names, in waterfall priority order.
const (
	RuleTrackingNumber = "tracking_number"
	RulePhoneTime      = "phone_time"
	RuleCampaignName   = "campaign_name"
	RuleTimeOnly       = "time_only"
)

// Confidence assigned by each rule.
const (
	ConfidenceTrackingNumber = 95
	ConfidencePhoneTime      = 90
	ConfidenceCampaignName   = 80
	ConfidenceTimeOnly       = 60
)

// Time windows per rule. Boundaries are inclusive.
const (
	trackingWindow = 15 * time.Minute
	phoneWindow    = 15 * time.Minute
	campaignWindow = 30 * time.Minute
	timeOnlyWindow = 5 * time.Minute
)

// campaignPlatformTokens are the ads-platform name substrings the
// campaign-name rule looks for in tracking campaign names.
var campaignPlatformTokens = []string{"yelp", "yp-"}

// Result is the outcome of evaluating one ad lead against a candidate set.
type Result struct {
	Matched    bool   `json:"matched"`
	Rule       string `json:"rule,omitempty"`
	Confidence int    `json:"confidence"`
	CallID     *int64 `json:"call_id,omitempty"`
	Details    string `json:"details,omitempty"`
}

// leadContext carries per-lead derived values shared by all rules, so each
// rule stays a pure predicate over (context, candidate).
type leadContext struct {
	lead           model.AdLead
	normPhone      string
	leadTrade      model.Trade
	trackingValues map[string]bool
}

// rule is one step of the waterfall: a precondition on the ad lead and an
// acceptance predicate over a single candidate call.
type rule struct {
	name       string
	confidence int
	applies    func(lc leadContext) bool
	accepts    func(lc leadContext, call model.CallRecord) bool
	details    func(lc leadContext, call model.CallRecord) string
}

// waterfall lists the rules in strict priority order. The first rule whose
// precondition holds and that accepts any candidate short-circuits the
// evaluation; lower-priority rules are never consulted after a hit.
var waterfall = []rule{
	{
		name:       RuleTrackingNumber,
		confidence: ConfidenceTrackingNumber,
		applies: func(lc leadContext) bool {
			return lc.normPhone != "" && len(lc.trackingValues) > 0
		},
		accepts: func(lc leadContext, call model.CallRecord) bool {
			return call.TrackingNumber != "" &&
				lc.trackingValues[call.TrackingNumber] &&
				withinWindow(call.ReceivedAt, lc.lead.CreatedAt, trackingWindow)
		},
		details: func(lc leadContext, call model.CallRecord) string {
			return fmt.Sprintf("tracking number %s within %s of lead creation", call.TrackingNumber, trackingWindow)
		},
	},
	{
		name:       RulePhoneTime,
		confidence: ConfidencePhoneTime,
		applies: func(lc leadContext) bool {
			return lc.normPhone != ""
		},
		accepts: func(lc leadContext, call model.CallRecord) bool {
			return phone.Normalize(call.FromPhone) == lc.normPhone &&
				withinWindow(call.ReceivedAt, lc.lead.CreatedAt, phoneWindow)
		},
		details: func(lc leadContext, call model.CallRecord) string {
			return fmt.Sprintf("caller phone %s within %s of lead creation", lc.normPhone, phoneWindow)
		},
	},
	{
		name:       RuleCampaignName,
		confidence: ConfidenceCampaignName,
		applies: func(leadContext) bool {
			return true
		},
		accepts: func(lc leadContext, call model.CallRecord) bool {
			return campaignMentionsPlatform(call.CampaignName) &&
				withinWindow(call.ReceivedAt, lc.lead.CreatedAt, campaignWindow)
		},
		details: func(lc leadContext, call model.CallRecord) string {
			return fmt.Sprintf("campaign %q within %s of lead creation", call.CampaignName, campaignWindow)
		},
	},
	{
		name:       RuleTimeOnly,
		confidence: ConfidenceTimeOnly,
		applies: func(lc leadContext) bool {
			return lc.leadTrade != ""
		},
		accepts: func(lc leadContext, call model.CallRecord) bool {
			if !withinWindow(call.ReceivedAt, lc.lead.CreatedAt, timeOnlyWindow) {
				return false
			}
			// The trade check is bypassed only when the lead's own category
			// is unclassifiable.
			if lc.leadTrade == model.TradeOther {
				return true
			}
			return trade.ClassifyBusinessUnit(call.BusinessUnitName) == lc.leadTrade
		},
		details: func(lc leadContext, call model.CallRecord) string {
			return fmt.Sprintf("call within %s of lead creation, trade %s", timeOnlyWindow, lc.leadTrade)
		},
	},
}

// Match evaluates the waterfall for one ad lead against a candidate call set.
// Only inbound calls are eligible. Within a rule, the first candidate in
// input order that satisfies the predicate wins; candidate order is
// preserved so repeated runs over the same inputs yield identical results.
// Mappings must already be filtered to is_active by the caller; the
// tracking-number rule re-checks is_active itself.
func Match(lead model.AdLead, calls []model.CallRecord, mappings []model.SourceMapping) Result {
	lc := leadContext{
		lead:           lead,
		normPhone:      phone.Normalize(lead.ConsumerPhone),
		leadTrade:      trade.Classify(lead.CategoryID),
		trackingValues: activeTrackingValues(mappings),
	}

	inbound := make([]model.CallRecord, 0, len(calls))
	for _, c := range calls {
		if c.Direction == model.DirectionInbound {
			inbound = append(inbound, c)
		}
	}

	for _, r := range waterfall {
		if !r.applies(lc) {
			continue
		}
		for _, call := range inbound {
			if r.accepts(lc, call) {
				id := call.ID
				return Result{
					Matched:    true,
					Rule:       r.name,
					Confidence: r.confidence,
					CallID:     &id,
					Details:    r.details(lc, call),
				}
			}
		}
	}

	return Result{}
}

// MatchExcluding evaluates the waterfall with a set of call ids removed from
// the candidate pool. Used when re-evaluating the loser of a duplicate claim
// without the contested call.
func MatchExcluding(lead model.AdLead, calls []model.CallRecord, mappings []model.SourceMapping, exclude map[int64]bool) Result {
	if len(exclude) == 0 {
		return Match(lead, calls, mappings)
	}
	eligible := make([]model.CallRecord, 0, len(calls))
	for _, c := range calls {
		if !exclude[c.ID] {
			eligible = append(eligible, c)
		}
	}
	return Match(lead, eligible, mappings)
}

func withinWindow(receivedAt, leadCreatedAt time.Time, window time.Duration) bool {
	d := receivedAt.Sub(leadCreatedAt)
	if d < 0 {
		d = -d
	}
	return d <= window
}

func campaignMentionsPlatform(name string) bool {
	lower := strings.ToLower(name)
	for _, token := range campaignPlatformTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func activeTrackingValues(mappings []model.SourceMapping) map[string]bool {
	values := make(map[string]bool)
	for _, m := range mappings {
		if m.IsActive && m.IdentifierType == model.IdentifierTypeTrackingNumber {
			values[m.IdentifierValue] = true
		}
	}
	return values
}
