// Package projection builds the local timeline of one conversation.
// Handles ordering, deduplication, and the merge of pages with live snapshots.
// Does not fetch, subscribe or interact with UI directly.
package projection

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// PageResult describes a merged page.
type PageResult struct {
	Count     int
	Exhausted bool
}

// Timeline is the merged view of one conversation: paged history plus the live window.
// A message id is held either in history or in live, never both.
type Timeline struct {
	mu        sync.Mutex
	pageSize  int
	history   map[string]domain.Message
	live      map[string]domain.Message
	floor     int64 // live is authoritative for CreatedAt > floor
	hasLive   bool
	exhausted bool
}

func NewTimeline(pageSize int) *Timeline {
	return &Timeline{
		pageSize: pageSize,
		history:  make(map[string]domain.Message),
		live:     make(map[string]domain.Message),
	}
}

// ApplyPage merges one descending page. An initial page replaces the paged history
// but keeps the live window. A page holding an uncommitted message is rejected whole.
func (t *Timeline) ApplyPage(messages []domain.Message, initial bool) (PageResult, error) {
	if err := requireCommitted(messages); err != nil {
		return PageResult{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if initial {
		t.history = make(map[string]domain.Message)
		t.exhausted = false
	}
	for _, msg := range messages {
		t.mergeHistorical(msg.Clone())
	}
	if len(messages) < t.pageSize {
		t.exhausted = true
	}
	return PageResult{Count: len(messages), Exhausted: t.exhausted}, nil
}

// ApplyLiveUpdate replaces the live window with a full snapshot.
// The snapshot covers the whole conversation when it is shorter than the window,
// otherwise everything strictly newer than its oldest entry. Held messages inside
// the covered range that the snapshot omits were deleted. Messages that left the
// window from below are kept as history.
func (t *Timeline) ApplyLiveUpdate(snapshot []domain.Message) error {
	if err := requireCommitted(snapshot); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	next := make(map[string]domain.Message, len(snapshot))
	for _, msg := range snapshot {
		merged := msg.Clone()
		if prev, ok := t.live[msg.ID]; ok {
			merged = merged.MergeReaders(prev)
		}
		if prev, ok := t.history[msg.ID]; ok {
			merged = merged.MergeReaders(prev)
			delete(t.history, msg.ID)
		}
		if dup, ok := next[msg.ID]; ok {
			merged = merged.MergeReaders(dup)
		}
		next[msg.ID] = merged
	}

	floor := int64(math.MinInt64)
	if len(snapshot) >= t.pageSize && len(snapshot) > 0 {
		floor = lo.MinBy(snapshot, func(a, b domain.Message) bool {
			return a.CreatedAt < b.CreatedAt
		}).CreatedAt
	}

	for id, prev := range t.live {
		if _, kept := next[id]; kept {
			continue
		}
		if prev.CreatedAt <= floor {
			t.history[id] = prev
		}
	}
	for id, msg := range t.history {
		if msg.CreatedAt > floor {
			delete(t.history, id)
		}
	}

	t.live = next
	t.floor = floor
	t.hasLive = true
	return nil
}

// MarkRead records readerID on every held message in ids.
func (t *Timeline) MarkRead(ids []string, readerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range ids {
		if msg, ok := t.live[id]; ok {
			t.live[id] = msg.WithReader(readerID)
		}
		if msg, ok := t.history[id]; ok {
			t.history[id] = msg.WithReader(readerID)
		}
	}
}

// View returns a newest-first copy of the timeline.
func (t *Timeline) View() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	view := make([]domain.Message, 0, len(t.live)+len(t.history))
	for _, msg := range t.live {
		view = append(view, msg.Clone())
	}
	for _, msg := range t.history {
		view = append(view, msg.Clone())
	}
	sort.Slice(view, func(i, j int) bool {
		return domain.Newer(view[i], view[j])
	})
	return view
}

// Cursor returns the timestamp of the oldest held message and whether older pages may exist.
func (t *Timeline) Cursor() (*int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var oldest *int64
	for _, set := range []map[string]domain.Message{t.live, t.history} {
		for _, msg := range set {
			if oldest == nil || msg.CreatedAt < *oldest {
				oldest = lo.ToPtr(msg.CreatedAt)
			}
		}
	}
	return oldest, !t.exhausted
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live) + len(t.history)
}

func (t *Timeline) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = make(map[string]domain.Message)
	t.live = make(map[string]domain.Message)
	t.floor = 0
	t.hasLive = false
	t.exhausted = false
}

// A page may be older than the live window that arrived before it.
func (t *Timeline) mergeHistorical(msg domain.Message) {
	if cur, ok := t.live[msg.ID]; ok {
		t.live[msg.ID] = cur.MergeReaders(msg)
		return
	}
	if t.hasLive && msg.CreatedAt > t.floor {
		// Deleted since the page was read.
		return
	}
	if prev, ok := t.history[msg.ID]; ok {
		msg = msg.MergeReaders(prev)
	}
	t.history[msg.ID] = msg
}

func requireCommitted(messages []domain.Message) error {
	for i, msg := range messages {
		if !msg.Committed() {
			return fmt.Errorf("entry %d: %w", i, errors.ErrUncommittedMessage)
		}
	}
	return nil
}
