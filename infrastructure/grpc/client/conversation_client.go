package client

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/infrastructure/grpc/wire"
	"context"
	"io"
	"log/slog"
	"sync"

	"google.golang.org/grpc"
)

// ConversationClient is the remote ConversationStore of a device.
type ConversationClient struct {
	log    *slog.Logger
	client wire.ConversationsClient
}

func NewConversationClient(log *slog.Logger, cc grpc.ClientConnInterface) *ConversationClient {
	return &ConversationClient{log: log, client: wire.NewConversationsClient(cc)}
}

func (c *ConversationClient) FetchPage(ctx context.Context, conv domain.ConversationID, filter domain.Filter, pageSize int, before *int64) ([]domain.Message, error) {
	resp, err := c.client.FetchPage(ctx, &wire.FetchPageRequest{
		Conversation: conv,
		Filter:       filter,
		PageSize:     pageSize,
		Before:       before,
	})
	if err != nil {
		return nil, errors.FromGRPCError(err)
	}
	return resp.Messages, nil
}

func (c *ConversationClient) CommitMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	resp, err := c.client.CommitMessage(ctx, &wire.CommitMessageRequest{Message: msg})
	if err != nil {
		return domain.Message{}, errors.FromGRPCError(err)
	}
	return resp.Message, nil
}

func (c *ConversationClient) UpdateMessage(ctx context.Context, id string, edit domain.MessageEdit) error {
	_, err := c.client.UpdateMessage(ctx, &wire.UpdateMessageRequest{ID: id, Edit: edit})
	return errors.FromGRPCError(err)
}

func (c *ConversationClient) DeleteMessage(ctx context.Context, id string) error {
	_, err := c.client.DeleteMessage(ctx, &wire.DeleteMessageRequest{ID: id})
	return errors.FromGRPCError(err)
}

func (c *ConversationClient) BatchMarkRead(ctx context.Context, ids []string, readerID string) error {
	_, err := c.client.BatchMarkRead(ctx, &wire.BatchMarkReadRequest{IDs: ids, ReaderID: readerID})
	return errors.FromGRPCError(err)
}

func (c *ConversationClient) LastMessage(ctx context.Context, conv domain.ConversationID) (*domain.Message, error) {
	resp, err := c.client.LastMessage(ctx, &wire.LastMessageRequest{Conversation: conv})
	if err != nil {
		return nil, errors.FromGRPCError(err)
	}
	return resp.Message, nil
}

// Subscribe relays the snapshots of the server stream. A stream failure is delivered
// as a last snapshot error before the channel closes.
func (c *ConversationClient) Subscribe(ctx context.Context, conv domain.ConversationID, filter domain.Filter) (contract.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	stream, err := c.client.Subscribe(ctx, &wire.SubscribeRequest{Conversation: conv, Filter: filter})
	if err != nil {
		cancel()
		return nil, errors.FromGRPCError(err)
	}

	sub := &remoteSubscription{out: make(chan domain.Snapshot), cancel: cancel}
	go func() {
		defer close(sub.out)
		for {
			resp, err := stream.Recv()
			if ctx.Err() != nil {
				return
			}
			var snapshot domain.Snapshot
			switch {
			case err == io.EOF:
				c.log.Debug("Subscription ended by server", "conversation", conv)
				return
			case err != nil:
				snapshot.Err = errors.FromGRPCError(err)
			default:
				snapshot.Messages = resp.Messages
			}
			select {
			case sub.out <- snapshot:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return sub, nil
}

type remoteSubscription struct {
	out    chan domain.Snapshot
	cancel context.CancelFunc
	once   sync.Once
}

func (s *remoteSubscription) Snapshots() <-chan domain.Snapshot {
	return s.out
}

func (s *remoteSubscription) Close() {
	s.once.Do(s.cancel)
}
