package runtime

import (
	"chat-sync/domain"
	"context"
	"log/slog"
	"sort"
	"sync"
)

// Registry keeps one Session per conversation of a single viewer.
// Sessions of different conversations run independently.
type Registry struct {
	log      *slog.Logger
	viewerID string
	deps     Dependencies
	cfg      SessionConfig

	mu       sync.RWMutex
	sessions map[domain.ConversationID]*Session
}

func NewRegistry(log *slog.Logger, viewerID string, deps Dependencies, cfg SessionConfig) *Registry {
	return &Registry{
		log:      log,
		viewerID: viewerID,
		deps:     deps,
		cfg:      cfg,
		sessions: make(map[domain.ConversationID]*Session),
	}
}

// Open returns the session of target, opening it when needed.
// A session that fails to open is not kept.
func (r *Registry) Open(ctx context.Context, target domain.Target) (*Session, error) {
	if target.ViewerID == "" {
		target.ViewerID = r.viewerID
	}
	conv, err := target.ConversationID()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	session, ok := r.sessions[conv]
	if !ok {
		session, err = NewSession(r.log, r.viewerID, r.deps, r.cfg)
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		r.sessions[conv] = session
	}
	r.mu.Unlock()

	if err := session.Open(ctx, target); err != nil {
		if !ok {
			r.remove(conv, session)
		}
		return nil, err
	}
	return session, nil
}

func (r *Registry) Get(conv domain.ConversationID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[conv]
	return session, ok
}

// Close closes and forgets the session of conv.
func (r *Registry) Close(conv domain.ConversationID) {
	r.mu.Lock()
	session, ok := r.sessions[conv]
	delete(r.sessions, conv)
	r.mu.Unlock()

	if ok {
		session.Close()
	}
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[domain.ConversationID]*Session)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, session := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session.Close()
		}()
	}
	wg.Wait()
}

// Conversations lists the open conversations in key order.
func (r *Registry) Conversations() []domain.ConversationID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	convs := make([]domain.ConversationID, 0, len(r.sessions))
	for conv := range r.sessions {
		convs = append(convs, conv)
	}
	sort.Slice(convs, func(i, j int) bool { return convs[i] < convs[j] })
	return convs
}

func (r *Registry) remove(conv domain.ConversationID, session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[conv] == session {
		delete(r.sessions, conv)
	}
}
