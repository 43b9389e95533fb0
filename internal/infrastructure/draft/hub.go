package draft

import (
	"context"
	"sync"

	"github.com/erp/workstation/internal/domain/printing"
)

const defaultWatchBuffer = 16

// hub fans DraftChange values out to per-dataset subscribers. A subscriber
// that falls behind loses changes rather than blocking writers; every change
// only means "reload", so a dropped one is covered by the next.
type hub struct {
	mu     sync.Mutex
	subs   map[string]map[chan printing.DraftChange]struct{}
	buffer int
	closed bool
}

func newHub() *hub {
	return &hub{
		subs:   make(map[string]map[chan printing.DraftChange]struct{}),
		buffer: defaultWatchBuffer,
	}
}

// subscribe registers a channel for datasetID. It is closed when ctx is done
// or the hub closes.
func (h *hub) subscribe(ctx context.Context, datasetID string) (<-chan printing.DraftChange, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrStoreClosed
	}

	ch := make(chan printing.DraftChange, h.buffer)
	set, ok := h.subs[datasetID]
	if !ok {
		set = make(map[chan printing.DraftChange]struct{})
		h.subs[datasetID] = set
	}
	set[ch] = struct{}{}

	go func() {
		<-ctx.Done()
		h.unsubscribe(datasetID, ch)
	}()
	return ch, nil
}

func (h *hub) unsubscribe(datasetID string, ch chan printing.DraftChange) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[datasetID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(h.subs, datasetID)
	}
}

// publish delivers change to every subscriber of its dataset without blocking
func (h *hub) publish(change printing.DraftChange) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[change.DatasetID] {
		select {
		case ch <- change:
		default:
		}
	}
}

func (h *hub) subscribers(datasetID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[datasetID])
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, id)
	}
}
