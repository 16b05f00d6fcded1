package services

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/observability"
	"context"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

// UnreadIDs returns, in view order, the messages viewerID has to acknowledge:
// sent by someone else and not yet read by the viewer.
func UnreadIDs(view []domain.Message, viewerID string) []string {
	return lo.FilterMap(view, func(m domain.Message, _ int) (string, bool) {
		return m.ID, m.Committed() && m.SenderID != viewerID && !m.HasReader(viewerID)
	})
}

// ReadReceipts batches read acknowledgements of one viewer in one conversation.
// Writes only happen while the conversation is visible.
type ReadReceipts struct {
	log      *slog.Logger
	store    contract.ConversationStore
	metrics  *observability.Metrics
	viewerID string

	mu           sync.Mutex
	visible      bool
	inFlight     map[string]struct{}
	acknowledged map[string]struct{}
}

func NewReadReceipts(log *slog.Logger, store contract.ConversationStore, viewerID string, metrics *observability.Metrics) *ReadReceipts {
	return &ReadReceipts{
		log:          log,
		store:        store,
		metrics:      metrics,
		viewerID:     viewerID,
		inFlight:     make(map[string]struct{}),
		acknowledged: make(map[string]struct{}),
	}
}

// SetVisible reports whether the conversation just became visible.
func (r *ReadReceipts) SetVisible(visible bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	became := visible && !r.visible
	r.visible = visible
	return became
}

func (r *ReadReceipts) Visible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

// MarkRead writes one batch for every unread message of view that is neither
// acknowledged nor being acknowledged. It returns the ids the store confirmed.
// Nothing is written when the conversation is hidden or every message is read.
func (r *ReadReceipts) MarkRead(ctx context.Context, view []domain.Message) ([]string, error) {
	batch := r.claim(view)
	if len(batch) == 0 {
		return nil, nil
	}

	err := r.store.BatchMarkRead(ctx, batch, r.viewerID)

	r.mu.Lock()
	for _, id := range batch {
		delete(r.inFlight, id)
		if err == nil {
			r.acknowledged[id] = struct{}{}
		}
	}
	r.mu.Unlock()

	if err != nil {
		r.log.Warn("Batch read failed", "viewer", r.viewerID, "count", len(batch), "error", err)
		return nil, errors.Network("mark read", err)
	}
	r.metrics.IncReceipts(len(batch))
	return batch, nil
}

func (r *ReadReceipts) claim(view []domain.Message) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.visible {
		return nil
	}
	batch := lo.Filter(UnreadIDs(view, r.viewerID), func(id string, _ int) bool {
		_, pending := r.inFlight[id]
		_, done := r.acknowledged[id]
		return !pending && !done
	})
	for _, id := range batch {
		r.inFlight[id] = struct{}{}
	}
	return batch
}

// Reset forgets acknowledgements and hides the conversation.
func (r *ReadReceipts) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visible = false
	r.inFlight = make(map[string]struct{})
	r.acknowledged = make(map[string]struct{})
}
