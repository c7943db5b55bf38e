package service

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/drainwatch/internal/domain/detect"
	"github.com/okian/drainwatch/internal/domain/model"
	"github.com/okian/drainwatch/internal/domain/reconcile"
)

// vesselProcessor runs detection and reconciliation for one vessel.
type vesselProcessor struct {
	detector *detect.Detector
	engine   *reconcile.Engine
}

func (p *vesselProcessor) Process(ctx context.Context, task model.VesselTask) (model.VesselResult, error) {
	if err := ctx.Err(); err != nil {
		return model.VesselResult{}, err
	}
	events := p.detector.Detect(task.Readings)
	return model.VesselResult{
		VesselID: task.VesselID,
		Events:   events,
		Matches:  p.engine.Reconcile(ctx, task.Tickets, events),
		Rates:    detect.Rates(task.VesselID, task.Readings),
	}, nil
}

// collector gathers worker results.
type collector struct {
	mu      sync.Mutex
	results map[string]model.VesselResult
}

func newCollector(sizeHint int) *collector {
	return &collector{results: make(map[string]model.VesselResult, sizeHint)}
}

func (c *collector) Collect(_ context.Context, r model.VesselResult) {
	c.mu.Lock()
	c.results[r.VesselID] = r
	c.mu.Unlock()
}

// sorted returns the collected results ordered by vessel id.
func (c *collector) sorted() []model.VesselResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.VesselResult, 0, len(c.results))
	for _, r := range c.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VesselID < out[j].VesselID })
	return out
}
