package services

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

const previewConcurrency = 4

// Preview is the latest message of the direct conversation with one peer.
// Last is nil when they never talked; Err is set when it could not be read.
type Preview struct {
	Peer domain.Identity
	Last *domain.Message
	Err  error
}

func (p Preview) Text() string {
	switch {
	case p.Err != nil:
		return "Error fetching message"
	case p.Last == nil:
		return "No messages yet"
	case p.Last.Text == "" && len(p.Last.Attachments) > 0:
		return "Attachment"
	default:
		return p.Last.Text
	}
}

// Previews reads the last message next to every peer of a directory listing.
type Previews struct {
	log   *slog.Logger
	store contract.ConversationStore
}

func NewPreviews(log *slog.Logger, store contract.ConversationStore) *Previews {
	return &Previews{log: log, store: store}
}

// Load keeps the order of peers. One failing preview does not fail the others.
func (p *Previews) Load(ctx context.Context, viewerID string, peers []domain.Identity) []Preview {
	previews := make([]Preview, len(peers))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(previewConcurrency)
	for i, peer := range peers {
		g.Go(func() error {
			previews[i] = p.load(ctx, viewerID, peer)
			return nil
		})
	}
	_ = g.Wait()
	return previews
}

func (p *Previews) load(ctx context.Context, viewerID string, peer domain.Identity) Preview {
	preview := Preview{Peer: peer}
	conv, err := domain.DirectConversationID(viewerID, peer.ID)
	if err == nil {
		preview.Last, err = p.store.LastMessage(ctx, conv)
	}
	if err != nil {
		p.log.Warn("Preview not loaded", "peer", peer.ID, "error", err)
		preview.Err = err
	}
	return preview
}
