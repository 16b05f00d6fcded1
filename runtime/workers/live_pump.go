package workers

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"context"
	"log/slog"
)

// LivePump subscribes to one conversation and hands every snapshot to Deliver.
//
// A subscription failure is delivered as a Snapshot carrying the error and
// returned, so the supervisor subscribes again after its restart delay.
// Run returns nil only when ctx ends.
type LivePump struct {
	Log          *slog.Logger
	Store        contract.ConversationStore
	Conversation domain.ConversationID
	Filter       domain.Filter
	Deliver      func(domain.Snapshot)
}

func NewLivePump(log *slog.Logger, store contract.ConversationStore, conv domain.ConversationID, filter domain.Filter, deliver func(domain.Snapshot)) *LivePump {
	return &LivePump{Log: log, Store: store, Conversation: conv, Filter: filter, Deliver: deliver}
}

func (p *LivePump) Run(ctx context.Context) error {
	sub, err := p.Store.Subscribe(ctx, p.Conversation, p.Filter)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		err = errors.Network("subscribe", err)
		p.Deliver(domain.Snapshot{Err: err})
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			p.Log.Debug("Context done, closing subscription", "conversation", p.Conversation)
			return nil
		case snapshot, ok := <-sub.Snapshots():
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				p.Deliver(domain.Snapshot{Err: errors.ErrSubscriptionClosed})
				return errors.ErrSubscriptionClosed
			}
			if snapshot.Err != nil {
				snapshot.Err = errors.Network("live update", snapshot.Err)
				p.Deliver(snapshot)
				return snapshot.Err
			}
			p.Deliver(snapshot)
		}
	}
}
