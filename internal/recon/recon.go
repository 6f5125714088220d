// Package recon runs batch reconciliation: it matches every synced ad lead
// against the inbound call log, resolves duplicate claims, and persists the
// resulting master leads.
package recon

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/attribution-cli/internal/lead"
	"github.com/sells-group/attribution-cli/internal/matcher"
	"github.com/sells-group/attribution-cli/internal/model"
	"github.com/sells-group/attribution-cli/internal/store"
)

// DefaultMaxConcurrent bounds the parallel match fan-out when no explicit
// limit is configured.
const DefaultMaxConcurrent = 8

// Summary reports the outcome of one reconciliation pass.
type Summary struct {
	AdLeads         int           `json:"ad_leads"`
	Matched         int           `json:"matched"`
	Unmatched       int           `json:"unmatched"`
	DuplicateClaims int           `json:"duplicate_claims"`
	CallLeads       int           `json:"call_leads"`
	Saved           int           `json:"saved"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Reconciler coordinates one full reconciliation pass over the store.
type Reconciler struct {
	store         store.Store
	builder       *lead.Builder
	maxConcurrent int
}

// New creates a Reconciler.
func New(st store.Store, maxConcurrent int) *Reconciler {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Reconciler{
		store:         st,
		builder:       lead.NewBuilder(),
		maxConcurrent: maxConcurrent,
	}
}

// WithBuilder substitutes the lead builder, used by tests to fix the clock.
func (r *Reconciler) WithBuilder(b *lead.Builder) *Reconciler {
	r.builder = b
	return r
}

// Run executes one reconciliation pass:
//
//  1. Match every ad lead against the inbound call set in parallel. Matching
//     is pure and read-only against the shared candidate slice, so the only
//     coordination needed is the bounded errgroup.
//  2. Resolve duplicate claims sequentially: when two ad leads claim the
//     same call, the higher-confidence match keeps it and the loser is
//     re-evaluated without the contested calls. A loser that cannot re-match
//     is marked as a duplicate of the winner's master lead.
//  3. Persist a master lead per ad lead, then sweep call records that no ad
//     lead claimed into call-sourced master leads. Claimed calls never spawn
//     their own master lead, so one real-world contact is never counted
//     twice.
//
// The pass is idempotent: the store upserts on each lead's origin key.
func (r *Reconciler) Run(ctx context.Context) (*Summary, error) {
	log := zap.L().With(zap.String("component", "reconciler"))
	start := time.Now()

	adLeads, err := r.store.ListAdLeads(ctx, store.AdLeadFilter{})
	if err != nil {
		return nil, eris.Wrap(err, "recon: list ad leads")
	}
	calls, err := r.store.ListCallRecords(ctx, store.CallFilter{})
	if err != nil {
		return nil, eris.Wrap(err, "recon: list call records")
	}
	mappings, err := r.store.ListSourceMappings(ctx, true)
	if err != nil {
		return nil, eris.Wrap(err, "recon: list source mappings")
	}

	log.Info("reconcile pass starting",
		zap.Int("ad_leads", len(adLeads)),
		zap.Int("calls", len(calls)),
		zap.Int("mappings", len(mappings)),
	)

	results := make([]matcher.Result, len(adLeads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrent)
	for i, al := range adLeads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = matcher.Match(al, calls, mappings)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "recon: match ad leads")
	}

	summary := &Summary{AdLeads: len(adLeads)}

	// Resolve duplicate claims in ad-lead input order so repeated passes
	// produce identical outcomes.
	claims := resolveClaims(adLeads, calls, mappings, results)
	summary.DuplicateClaims = claims.duplicates

	// Persist master leads for ad leads: winners first so duplicate losers
	// can reference the winner's saved master lead id.
	savedLeadIDs := make(map[int]string, len(adLeads))
	for i, al := range adLeads {
		if _, isDup := claims.duplicateOf[i]; isDup {
			continue
		}
		res := claims.results[i]
		saved, err := r.store.SaveMasterLead(ctx, r.builder.FromAdLead(al, res))
		if err != nil {
			return nil, eris.Wrapf(err, "recon: save master lead for ad lead %s", al.ID)
		}
		savedLeadIDs[i] = saved.ID
		summary.Saved++
		if res.Matched {
			summary.Matched++
		} else {
			summary.Unmatched++
		}
	}
	for i, al := range adLeads {
		winnerIdx, isDup := claims.duplicateOf[i]
		if !isDup {
			continue
		}
		ml := r.builder.FromAdLead(al, matcher.Result{})
		ml.IsDuplicate = true
		ml.ReconStatus = model.ReconDuplicate
		if winnerID, ok := savedLeadIDs[winnerIdx]; ok {
			ml.DuplicateOfID = &winnerID
		}
		if _, err := r.store.SaveMasterLead(ctx, ml); err != nil {
			return nil, eris.Wrapf(err, "recon: save master lead for ad lead %s", al.ID)
		}
		summary.Saved++
		summary.Unmatched++
	}

	// Sweep unclaimed inbound calls into call-sourced master leads.
	for _, call := range calls {
		if call.Direction != model.DirectionInbound {
			continue
		}
		if claims.claimed[call.ID] {
			continue
		}
		ml := r.builder.FromCallRecord(call)
		if _, err := r.store.SaveMasterLead(ctx, ml); err != nil {
			return nil, eris.Wrapf(err, "recon: save master lead for call %d", call.ID)
		}
		summary.CallLeads++
		summary.Saved++
	}

	summary.Elapsed = time.Since(start)
	log.Info("reconcile pass complete",
		zap.Int("matched", summary.Matched),
		zap.Int("unmatched", summary.Unmatched),
		zap.Int("duplicate_claims", summary.DuplicateClaims),
		zap.Int("call_leads", summary.CallLeads),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

// claimSet is the outcome of duplicate-claim resolution.
type claimSet struct {
	results     []matcher.Result
	claimed     map[int64]bool
	duplicateOf map[int]int // loser ad-lead index -> winner ad-lead index
	duplicates  int
}

// resolveClaims walks the parallel match results in ad-lead input order and
// ensures each call record is claimed by at most one ad lead. The first
// claim stands unless a later ad lead matched the same call with strictly
// higher confidence, in which case the earlier claimant is demoted. Demoted
// leads are re-evaluated without the contested calls; those that cannot
// re-match are recorded as duplicates of the winning claimant.
func resolveClaims(adLeads []model.AdLead, calls []model.CallRecord, mappings []model.SourceMapping, initial []matcher.Result) claimSet {
	cs := claimSet{
		results:     make([]matcher.Result, len(initial)),
		claimed:     make(map[int64]bool),
		duplicateOf: make(map[int]int),
	}
	copy(cs.results, initial)

	winnerByCall := make(map[int64]int)
	var demoted []int

	for i, res := range cs.results {
		if !res.Matched {
			continue
		}
		callID := *res.CallID
		prev, contested := winnerByCall[callID]
		if !contested {
			winnerByCall[callID] = i
			cs.claimed[callID] = true
			continue
		}
		if res.Confidence > cs.results[prev].Confidence {
			winnerByCall[callID] = i
			demoted = append(demoted, prev)
			cs.duplicateOf[prev] = i
		} else {
			demoted = append(demoted, i)
			cs.duplicateOf[i] = prev
		}
	}

	// Re-evaluate demoted leads against the remaining pool, claiming calls
	// sequentially so two demoted leads cannot claim the same call.
	for _, i := range demoted {
		res := matcher.MatchExcluding(adLeads[i], calls, mappings, cs.claimed)
		if res.Matched {
			cs.results[i] = res
			cs.claimed[*res.CallID] = true
			delete(cs.duplicateOf, i)
			continue
		}
		cs.results[i] = matcher.Result{}
		cs.duplicates++
	}

	return cs
}
