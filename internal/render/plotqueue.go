package render

import "sync"

// Plot types drawn on the results page.
const (
	PlotHeatmap = "heatmap"
	PlotNetwork = "network"
)

// PlotQueue collects chart payloads produced while the results page is
// assembled and releases them in one flush once the charting runtime has
// loaded. At most one payload is held per plot type; a later payload for the
// same type replaces the earlier one. Readiness is one-way.
type PlotQueue struct {
	mu      sync.Mutex
	ready   bool
	pending map[string]any
	order   []string
	draw    func(plotType string, payload any)
}

// NewPlotQueue creates a queue that delivers payloads to draw. Payloads
// enqueued before Ready are held; payloads enqueued after are delivered
// immediately.
func NewPlotQueue(draw func(plotType string, payload any)) *PlotQueue {
	return &PlotQueue{
		pending: make(map[string]any),
		draw:    draw,
	}
}

// Enqueue registers a payload for a plot type. Last write wins while the
// queue is not ready.
func (q *PlotQueue) Enqueue(plotType string, payload any) {
	q.mu.Lock()
	if q.ready {
		q.mu.Unlock()
		q.draw(plotType, payload)
		return
	}
	if _, seen := q.pending[plotType]; !seen {
		q.order = append(q.order, plotType)
	}
	q.pending[plotType] = payload
	q.mu.Unlock()
}

// Ready flips the queue to the ready state and flushes everything held, in
// enqueue order of plot types. Subsequent calls are no-ops.
func (q *PlotQueue) Ready() {
	q.mu.Lock()
	if q.ready {
		q.mu.Unlock()
		return
	}
	q.ready = true
	types := q.order
	pending := q.pending
	q.order = nil
	q.pending = make(map[string]any)
	q.mu.Unlock()

	for _, t := range types {
		q.draw(t, pending[t])
	}
}
