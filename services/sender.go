package services

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/media"
	"chat-sync/observability"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type SendState int

const (
	SendIdle SendState = iota
	SendSending
)

func (s SendState) String() string {
	if s == SendSending {
		return "sending"
	}
	return "idle"
}

// DeletePolicy decides what deleting an absent message reports.
type DeletePolicy int

const (
	DeletePolicySwallow DeletePolicy = iota
	DeletePolicyReport
)

type SenderConfig struct {
	UploadConcurrency int
	MaxImageDimension int
	DeletePolicy      DeletePolicy
}

func DefaultSenderConfig() SenderConfig {
	return SenderConfig{
		UploadConcurrency: 1,
		MaxImageDimension: media.DefaultMaxDimension,
		DeletePolicy:      DeletePolicySwallow,
	}
}

// Sender allows a single send in flight per conversation.
// Nothing is rendered before CommitMessage returns: the message shows up through
// the next live snapshot.
type Sender struct {
	log     *slog.Logger
	store   contract.ConversationStore
	blobs   contract.BlobStore
	metrics *observability.Metrics
	cfg     SenderConfig
	target  domain.Target
	conv    domain.ConversationID
	now     func() time.Time

	mu            sync.Mutex
	state         SendState
	lastCreatedAt int64
}

func NewSender(
	log *slog.Logger,
	store contract.ConversationStore,
	blobs contract.BlobStore,
	target domain.Target,
	cfg SenderConfig,
	metrics *observability.Metrics,
) (*Sender, error) {
	conv, err := target.ConversationID()
	if err != nil {
		return nil, err
	}
	return &Sender{
		log:     log,
		store:   store,
		blobs:   blobs,
		metrics: metrics,
		cfg:     cfg,
		target:  target,
		conv:    conv,
		now:     time.Now,
	}, nil
}

func (s *Sender) State() SendState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Send uploads the attachments then commits the message.
// It returns ErrAlreadySending without side effect while another send is in flight.
func (s *Sender) Send(ctx context.Context, text string, attachments []domain.Attachment) (domain.Message, error) {
	if !s.acquire() {
		return domain.Message{}, errors.ErrAlreadySending
	}
	defer s.release()

	if strings.TrimSpace(text) == "" && len(attachments) == 0 {
		return domain.Message{}, errors.ErrEmptyMessage
	}

	urls, err := s.upload(ctx, attachments)
	if err != nil {
		s.metrics.IncSendFailure("upload")
		return domain.Message{}, err
	}

	msg := domain.Message{
		ConversationID: s.conv,
		SenderID:       s.target.ViewerID,
		Text:           text,
		Attachments:    urls,
		CreatedAt:      s.nextTimestamp(),
	}
	if s.target.IsGroup() {
		msg.IsGroup = true
		msg.GroupID = s.target.GroupID
	} else {
		msg.RecipientID = s.target.PeerID
		msg.ReadBy = []string{s.target.ViewerID}
	}
	if err := msg.Validate(); err != nil {
		return domain.Message{}, err
	}

	committed, err := s.store.CommitMessage(ctx, msg)
	if err != nil {
		s.metrics.IncSendFailure("commit")
		return domain.Message{}, errors.Network("commit message", err)
	}
	s.metrics.IncSent()
	s.log.Debug("Message committed",
		"conversation", s.conv,
		"message_id", committed.ID,
		"attachments", len(urls))
	return committed, nil
}

// Edit does not take the send lock.
func (s *Sender) Edit(ctx context.Context, id, text string) error {
	if strings.TrimSpace(id) == "" {
		return errors.ErrInvalidIdentifier
	}
	if strings.TrimSpace(text) == "" {
		return errors.ErrEmptyMessage
	}
	edit := domain.MessageEdit{Text: text, EditedAt: s.now().UnixMilli()}
	if err := s.store.UpdateMessage(ctx, id, edit); err != nil {
		return errors.Network("edit message", err)
	}
	return nil
}

func (s *Sender) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.ErrInvalidIdentifier
	}
	err := s.store.DeleteMessage(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errors.ErrNotFound) && s.cfg.DeletePolicy == DeletePolicySwallow:
		s.log.Debug("Delete of an absent message ignored", "message_id", id)
		return nil
	default:
		return errors.Network("delete message", err)
	}
}

func (s *Sender) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SendSending {
		return false
	}
	s.state = SendSending
	return true
}

func (s *Sender) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SendIdle
}

// Only called while the send lock is held.
func (s *Sender) nextTimestamp() int64 {
	ts := s.now().UnixMilli()
	if ts <= s.lastCreatedAt {
		ts = s.lastCreatedAt + 1
	}
	s.lastCreatedAt = ts
	return ts
}

// upload prepares every attachment before the first byte leaves, then uploads them
// with at most UploadConcurrency in flight. The result keeps the attachment order.
func (s *Sender) upload(ctx context.Context, attachments []domain.Attachment) ([]string, error) {
	if len(attachments) == 0 {
		return nil, nil
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("%w: no blob store configured", errors.ErrAttachmentUpload)
	}

	prepared := make([]media.Prepared, len(attachments))
	for i, a := range attachments {
		p, err := media.Normalize(a.Data, s.cfg.MaxImageDimension)
		if err != nil {
			return nil, fmt.Errorf("attachment %q: %w", a.Name, err)
		}
		prepared[i] = p
	}

	stamp := s.now().UnixMilli()
	urls := make([]string, len(prepared))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.UploadConcurrency))
	for i, p := range prepared {
		path := fmt.Sprintf("chat_images/%s_%d_%d%s", s.target.ViewerID, stamp, i, p.Extension)
		g.Go(func() error {
			url, err := s.blobs.Upload(gctx, p.Data, path)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", errors.ErrAttachmentUpload, path, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.metrics.IncUploads(len(urls))
	return urls, nil
}
