package repositories

import (
	"chat-sync/domain"
	"sync"
)

type watcherSet map[uint64]chan struct{}

// ChangeFeed wakes the subscribers of a conversation after every committed write.
// A notification carries no data: subscribers re-query their window. Pending
// notifications coalesce, so a slow subscriber never blocks a writer.
type ChangeFeed struct {
	mu       sync.RWMutex
	next     uint64
	watchers map[domain.ConversationID]watcherSet
}

func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{watchers: make(map[domain.ConversationID]watcherSet)}
}

// Watch registers a watcher on conv. The returned cancel is idempotent.
func (f *ChangeFeed) Watch(conv domain.ConversationID) (<-chan struct{}, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	id := f.next
	ch := make(chan struct{}, 1)
	if _, ok := f.watchers[conv]; !ok {
		f.watchers[conv] = make(watcherSet)
	}
	f.watchers[conv][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { f.unwatch(conv, id) })
	}
}

func (f *ChangeFeed) unwatch(conv domain.ConversationID, id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if set, ok := f.watchers[conv]; ok {
		delete(set, id)
		// No watcher left: drop the conversation entry
		if len(set) == 0 {
			delete(f.watchers, conv)
		}
	}
}

// Notify wakes every watcher of the given conversations.
func (f *ChangeFeed) Notify(convs ...domain.ConversationID) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, conv := range convs {
		for _, ch := range f.watchers[conv] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

func (f *ChangeFeed) Watchers(conv domain.ConversationID) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.watchers[conv])
}
