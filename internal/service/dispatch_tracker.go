package service

import (
	"log/slog"
	"sync"

	"github.com/unclebandit/church-broadcast/internal/model"
	"github.com/unclebandit/church-broadcast/internal/queue"
)

// DispatchTracker collects gateway outcomes per campaign. It remembers the
// most recent max campaigns only.
type DispatchTracker struct {
	mu      sync.Mutex
	max     int
	order   []string
	tallies map[string]*model.DispatchTally
	log     *slog.Logger
}

func NewDispatchTracker(max int, log *slog.Logger) *DispatchTracker {
	if max < 1 {
		max = 1
	}
	return &DispatchTracker{max: max, tallies: map[string]*model.DispatchTally{}, log: log}
}

// Record is the queue.Pool outcome callback.
func (t *DispatchTracker) Record(out queue.Outcome) {
	if out.Err != nil {
		t.log.Warn("delivery attempt failed",
			"campaign_id", out.CampaignID, "delivery_id", out.Key, "error", out.Err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	tally, ok := t.tallies[out.CampaignID]
	if !ok {
		tally = &model.DispatchTally{}
		t.tallies[out.CampaignID] = tally
		t.order = append(t.order, out.CampaignID)
		if len(t.order) > t.max {
			delete(t.tallies, t.order[0])
			t.order = t.order[1:]
		}
	}
	if out.Err != nil {
		tally.Failed++
	} else {
		tally.Accepted++
	}
}

// Get returns a copy of the tally, or nil if none is known.
func (t *DispatchTracker) Get(campaignID string) *model.DispatchTally {
	t.mu.Lock()
	defer t.mu.Unlock()
	tally, ok := t.tallies[campaignID]
	if !ok {
		return nil
	}
	cp := *tally
	return &cp
}
