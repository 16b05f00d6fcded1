package server

import (
	"chat-sync/auth"
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/infrastructure/grpc/wire"
	"chat-sync/repositories"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
)

// Directory resolves registered users.
type Directory interface {
	GetUser(ctx context.Context, id string) (domain.Identity, error)
}

// ConversationServer exposes the message store to signed-in callers.
// A caller only reaches conversations they take part in and only writes as themselves.
type ConversationServer struct {
	log      *slog.Logger
	messages repositories.IMessageRepository
	groups   contract.GroupReader
	users    Directory
}

func NewConversationServer(log *slog.Logger, messages repositories.IMessageRepository,
	groups contract.GroupReader, users Directory) *ConversationServer {
	return &ConversationServer{log: log, messages: messages, groups: groups, users: users}
}

func (s *ConversationServer) FetchPage(ctx context.Context, req *wire.FetchPageRequest) (*wire.MessagesResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	if err := s.authorize(ctx, caller, req.Conversation, req.Filter.Group); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	page, err := s.messages.FetchPage(ctx, req.Conversation, req.Filter, req.PageSize, req.Before)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.MessagesResponse{Messages: page}, nil
}

// LastMessage previews a direct or group conversation of the caller.
func (s *ConversationServer) LastMessage(ctx context.Context, req *wire.LastMessageRequest) (*wire.LastMessageResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	if err := s.authorize(ctx, caller, req.Conversation, false); err != nil {
		if !errors.Is(err, errors.ErrPermission) || s.requireMember(ctx, caller, string(req.Conversation)) != nil {
			return nil, errors.MapToGRPCError(err)
		}
	}
	last, err := s.messages.LastMessage(ctx, req.Conversation)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.LastMessageResponse{Message: last}, nil
}

func (s *ConversationServer) CommitMessage(ctx context.Context, req *wire.CommitMessageRequest) (*wire.MessageResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	msg := req.Message
	if msg.SenderID != caller {
		return nil, errors.MapToGRPCError(errors.ErrForeignIdentity)
	}
	if err := s.authorizeAddressing(ctx, msg); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	committed, err := s.messages.CommitMessage(ctx, msg)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	s.log.Debug("Message committed", "id", committed.ID, "conversation", committed.ConversationID, "sender", caller)
	return &wire.MessageResponse{Message: committed}, nil
}

func (s *ConversationServer) UpdateMessage(ctx context.Context, req *wire.UpdateMessageRequest) (*wire.Empty, error) {
	if err := s.authorizeAuthor(ctx, req.ID); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	if err := s.messages.UpdateMessage(ctx, req.ID, req.Edit); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.Empty{}, nil
}

func (s *ConversationServer) DeleteMessage(ctx context.Context, req *wire.DeleteMessageRequest) (*wire.Empty, error) {
	if err := s.authorizeAuthor(ctx, req.ID); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	if err := s.messages.DeleteMessage(ctx, req.ID); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.Empty{}, nil
}

// BatchMarkRead only records the caller as reader, and only on messages they can see.
func (s *ConversationServer) BatchMarkRead(ctx context.Context, req *wire.BatchMarkReadRequest) (*wire.Empty, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	if req.ReaderID != caller {
		return nil, errors.MapToGRPCError(errors.ErrForeignIdentity)
	}
	allowed := make(map[domain.ConversationID]struct{})
	for _, id := range req.IDs {
		msg, err := s.messages.GetMessage(ctx, id)
		if err != nil {
			return nil, errors.MapToGRPCError(err)
		}
		if _, ok := allowed[msg.ConversationID]; ok {
			continue
		}
		if err := s.authorize(ctx, caller, msg.ConversationID, msg.IsGroup); err != nil {
			return nil, errors.MapToGRPCError(err)
		}
		allowed[msg.ConversationID] = struct{}{}
	}
	if err := s.messages.BatchMarkRead(ctx, req.IDs, caller); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.Empty{}, nil
}

// Subscribe forwards every snapshot of the store until the caller disconnects.
func (s *ConversationServer) Subscribe(req *wire.SubscribeRequest, stream grpc.ServerStreamingServer[wire.MessagesResponse]) error {
	ctx := stream.Context()
	caller, err := callerID(ctx)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	if err := s.authorize(ctx, caller, req.Conversation, req.Filter.Group); err != nil {
		return errors.MapToGRPCError(err)
	}
	sub, err := s.messages.Subscribe(ctx, req.Conversation, req.Filter)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Subscriber disconnected", "user_id", caller, "conversation", req.Conversation)
			return nil
		case snapshot, ok := <-sub.Snapshots():
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.MapToGRPCError(errors.ErrSubscriptionClosed)
			}
			if snapshot.Err != nil {
				s.log.Warn("Snapshot failed", "conversation", req.Conversation, "error", snapshot.Err)
				return errors.MapToGRPCError(snapshot.Err)
			}
			if err := stream.Send(&wire.MessagesResponse{Messages: snapshot.Messages}); err != nil {
				s.log.Error("failed to push snapshot to stream",
					"user_id", caller,
					"conversation", req.Conversation,
					"error", err)
				return err
			}
		}
	}
}

// authorize checks the caller takes part in conv.
func (s *ConversationServer) authorize(ctx context.Context, caller string, conv domain.ConversationID, group bool) error {
	if err := conv.Validate(); err != nil {
		return err
	}
	if group {
		return s.requireMember(ctx, caller, string(conv))
	}
	for _, peer := range peersOf(caller, conv) {
		_, err := s.users.GetUser(ctx, peer)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			return errors.Network("resolve peer", err)
		}
	}
	return fmt.Errorf("%w: %s is not a participant", errors.ErrPermission, caller)
}

// authorizeAddressing checks the conversation id of msg agrees with its addressing.
func (s *ConversationServer) authorizeAddressing(ctx context.Context, msg domain.Message) error {
	if msg.IsGroup {
		if msg.GroupID == "" || string(msg.ConversationID) != msg.GroupID {
			return errors.ErrInvalidIdentifier
		}
		return s.requireMember(ctx, msg.SenderID, msg.GroupID)
	}
	conv, err := domain.DirectConversationID(msg.SenderID, msg.RecipientID)
	if err != nil {
		return err
	}
	if conv != msg.ConversationID {
		return errors.ErrInvalidIdentifier
	}
	if _, err := s.users.GetUser(ctx, msg.RecipientID); err != nil {
		return err
	}
	return nil
}

func (s *ConversationServer) authorizeAuthor(ctx context.Context, id string) error {
	caller, err := callerID(ctx)
	if err != nil {
		return err
	}
	msg, err := s.messages.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if msg.SenderID != caller {
		return errors.ErrForeignIdentity
	}
	return nil
}

func (s *ConversationServer) requireMember(ctx context.Context, caller, groupID string) error {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsMember(caller) {
		return errors.ErrNotMember
	}
	return nil
}

// peersOf lists the ids p for which the direct conversation of caller and p is conv.
// Ids may contain the separator, so every split is tried.
func peersOf(caller string, conv domain.ConversationID) []string {
	id := string(conv)
	var peers []string
	if peer, ok := strings.CutPrefix(id, caller+"-"); ok {
		peers = append(peers, peer)
	}
	if peer, ok := strings.CutSuffix(id, "-"+caller); ok {
		peers = append(peers, peer)
	}
	var valid []string
	for _, peer := range peers {
		if got, err := domain.DirectConversationID(caller, peer); err == nil && got == conv {
			valid = append(valid, peer)
		}
	}
	return valid
}

func callerID(ctx context.Context) (string, error) {
	id, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return "", errors.ErrNotAuthenticated
	}
	return id, nil
}
