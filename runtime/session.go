// Package runtime runs open conversations. A Session ties the live subscription,
// page fetches, read receipts and sends of one conversation together and emits
// the merged view to its presentation layer.
package runtime

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/observability"
	"chat-sync/projection"
	"chat-sync/runtime/workers"
	"chat-sync/services"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const DefaultPageSize = 20

type State int

const (
	StateClosed State = iota
	StateOpening
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Op names the operation an error belongs to.
type Op string

const (
	OpOpen     Op = "open"
	OpLoadMore Op = "load_more"
	OpLive     Op = "live"
	OpReceipts Op = "receipts"
	OpSend     Op = "send"
	OpEdit     Op = "edit"
	OpDelete   Op = "delete"
)

type UpdateKind int

const (
	UpdateView UpdateKind = iota
	UpdateState
	UpdateError
)

// Update is what the presentation layer renders. View is set for UpdateView,
// Op and Err for UpdateError.
type Update struct {
	Kind  UpdateKind
	State State
	View  []domain.Message
	Op    Op
	Err   error
}

type Dependencies struct {
	Store   contract.ConversationStore
	Blobs   contract.BlobStore
	Groups  contract.GroupReader
	Metrics *observability.Metrics
}

type SessionConfig struct {
	PageSize     int
	RestartDelay time.Duration
	Sender       services.SenderConfig
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		PageSize:     DefaultPageSize,
		RestartDelay: workers.DefaultRestartDelay,
		Sender:       services.DefaultSenderConfig(),
	}
}

// Session is the Closed -> Opening -> Open -> Closed state machine of one viewer.
// Every callback carries the epoch it was started in and is dropped once the
// session was closed or reopened since.
type Session struct {
	log      *slog.Logger
	viewerID string
	deps     Dependencies
	cfg      SessionConfig
	timeline *projection.Timeline
	receipts *services.ReadReceipts
	updates  chan Update

	mu       sync.Mutex
	state    State
	target   domain.Target
	conv     domain.ConversationID
	epoch    uint64
	ctx      context.Context
	cancel   context.CancelFunc
	running  *sync.WaitGroup
	sender   *services.Sender
	fetching bool
	pending  []domain.Attachment
	lastErr  map[Op]error
}

func NewSession(log *slog.Logger, viewerID string, deps Dependencies, cfg SessionConfig) (*Session, error) {
	if viewerID == "" {
		return nil, errors.ErrNotAuthenticated
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("%w: a conversation store is required", errors.ErrValidation)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &Session{
		log:      log.With("viewer", viewerID),
		viewerID: viewerID,
		deps:     deps,
		cfg:      cfg,
		timeline: projection.NewTimeline(cfg.PageSize),
		receipts: services.NewReadReceipts(log, deps.Store, viewerID, deps.Metrics),
		updates:  make(chan Update, 1),
		lastErr:  make(map[Op]error),
	}, nil
}

// Open starts the live subscription and the first page fetch of target.
// Opening the conversation already open is a no-op; any other target closes it first.
func (s *Session) Open(ctx context.Context, target domain.Target) error {
	if target.ViewerID == "" {
		target.ViewerID = s.viewerID
	}
	if target.ViewerID != s.viewerID {
		return errors.ErrForeignIdentity
	}
	conv, err := target.ConversationID()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.state != StateClosed && s.conv == conv {
		s.mu.Unlock()
		return nil
	}
	visible := s.receipts.Visible()
	s.closeLocked()
	s.mu.Unlock()

	if err := s.checkMembership(ctx, target); err != nil {
		return err
	}
	sender, err := services.NewSender(s.log, s.deps.Store, s.deps.Blobs, target, s.cfg.Sender, s.deps.Metrics)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
	s.receipts.SetVisible(visible)

	s.epoch++
	epoch := s.epoch
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	running := &sync.WaitGroup{}
	s.state = StateOpening
	s.target, s.conv, s.sender = target, conv, sender
	s.ctx, s.cancel, s.running = sessionCtx, cancel, running
	s.fetching = true
	s.lastErr = make(map[Op]error)
	s.deps.Metrics.SessionOpened()
	s.publishLocked(Update{Kind: UpdateState, State: StateOpening})

	filter := target.Filter(s.cfg.PageSize)
	pump := workers.NewLivePump(s.log, s.deps.Store, conv, filter, func(snapshot domain.Snapshot) {
		s.applySnapshot(epoch, snapshot)
	})
	supervisor := workers.NewSupervisor(s.log).WithRestartDelay(s.cfg.RestartDelay)

	running.Add(2)
	go func() {
		defer running.Done()
		supervisor.Add(pump).Run(sessionCtx)
	}()
	go func() {
		defer running.Done()
		s.fetch(sessionCtx, epoch, conv, filter, nil, true)
	}()

	s.log.Info("Conversation opened", "conversation", conv, "group", target.IsGroup())
	return nil
}

func (s *Session) checkMembership(ctx context.Context, target domain.Target) error {
	if !target.IsGroup() || s.deps.Groups == nil {
		return nil
	}
	group, err := s.deps.Groups.GetGroup(ctx, target.GroupID)
	if err != nil {
		return errors.Network("load group", err)
	}
	if !group.IsMember(s.viewerID) {
		return errors.ErrNotMember
	}
	return nil
}

// Close is idempotent. It waits for the goroutines of the closed conversation.
func (s *Session) Close() {
	s.mu.Lock()
	running := s.running
	closed := s.closeLocked()
	s.mu.Unlock()

	if closed && running != nil {
		running.Wait()
	}
}

func (s *Session) closeLocked() bool {
	if s.state == StateClosed {
		return false
	}
	s.cancel()
	s.epoch++
	s.log.Info("Conversation closed", "conversation", s.conv)

	s.state = StateClosed
	s.sender = nil
	s.fetching = false
	s.pending = nil
	s.timeline.Reset()
	s.receipts.Reset()
	s.deps.Metrics.SessionClosed()
	s.publishLocked(Update{Kind: UpdateState, State: StateClosed})
	return true
}

// LoadMore fetches the page older than everything held.
// It is a no-op while a fetch is outstanding or once history is exhausted.
func (s *Session) LoadMore() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		return errors.ErrSessionNotOpen
	}
	if s.fetching {
		return nil
	}
	before, more := s.timeline.Cursor()
	if !more {
		return nil
	}

	s.fetching = true
	delete(s.lastErr, OpLoadMore)
	ctx, epoch, running := s.ctx, s.epoch, s.running
	conv, filter := s.conv, s.target.Filter(s.cfg.PageSize)
	running.Add(1)
	go func() {
		defer running.Done()
		s.fetch(ctx, epoch, conv, filter, before, false)
	}()
	return nil
}

func (s *Session) fetch(ctx context.Context, epoch uint64, conv domain.ConversationID, filter domain.Filter, before *int64, initial bool) {
	op := OpLoadMore
	if initial {
		op = OpOpen
	}
	page, err := s.deps.Store.FetchPage(ctx, conv, filter, s.cfg.PageSize, before)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	s.fetching = false
	if err != nil {
		err = errors.Network("fetch page", err)
	} else {
		_, err = s.timeline.ApplyPage(page, initial)
	}
	if err != nil {
		s.log.Warn("Page not applied", "conversation", conv, "error", err)
		s.failLocked(op, err)
		return
	}
	delete(s.lastErr, op)
	s.deps.Metrics.IncPage()
	s.refreshLocked()
}

func (s *Session) applySnapshot(epoch uint64, snapshot domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	err := snapshot.Err
	if err == nil {
		err = s.timeline.ApplyLiveUpdate(snapshot.Messages)
	}
	if err != nil {
		s.log.Warn("Live update not applied", "conversation", s.conv, "error", err)
		s.failLocked(OpLive, err)
		return
	}
	delete(s.lastErr, OpLive)
	s.deps.Metrics.IncSnapshot()
	s.refreshLocked()
}

// refreshLocked promotes Opening to Open, publishes the view and acknowledges
// what became visible.
func (s *Session) refreshLocked() {
	if s.state == StateOpening {
		s.state = StateOpen
		s.publishLocked(Update{Kind: UpdateState, State: StateOpen})
	}
	view := s.timeline.View()
	s.publishLocked(Update{Kind: UpdateView, State: s.state, View: view})
	s.acknowledgeLocked(view)
}

func (s *Session) acknowledgeLocked(view []domain.Message) {
	if s.state == StateClosed || !s.receipts.Visible() {
		return
	}
	if len(services.UnreadIDs(view, s.viewerID)) == 0 {
		return
	}

	ctx, epoch, running := s.ctx, s.epoch, s.running
	running.Add(1)
	go func() {
		defer running.Done()
		ids, err := s.receipts.MarkRead(ctx, view)

		s.mu.Lock()
		defer s.mu.Unlock()
		if epoch != s.epoch {
			return
		}
		if err != nil {
			s.failLocked(OpReceipts, err)
			return
		}
		if len(ids) == 0 {
			return
		}
		delete(s.lastErr, OpReceipts)
		s.timeline.MarkRead(ids, s.viewerID)
		s.publishLocked(Update{Kind: UpdateView, State: s.state, View: s.timeline.View()})
	}()
}

// SetVisible marks incoming messages read as soon as the conversation shows.
func (s *Session) SetVisible(visible bool) {
	if !s.receipts.SetVisible(visible) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acknowledgeLocked(s.timeline.View())
}

// Send commits text with the pending attachments. The pending attachments it
// sent are dropped only once the message is committed.
func (s *Session) Send(ctx context.Context, text string) (domain.Message, error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return domain.Message{}, errors.ErrSessionNotOpen
	}
	sender, epoch := s.sender, s.epoch
	attachments := slices.Clone(s.pending)
	// A send rejected as already in flight keeps the error of the running one.
	if sender.State() == services.SendIdle {
		delete(s.lastErr, OpSend)
	}
	s.mu.Unlock()

	msg, err := sender.Send(ctx, text, attachments)
	if errors.Is(err, errors.ErrAlreadySending) {
		return domain.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return msg, err
	}
	if err != nil {
		s.failLocked(OpSend, err)
		return domain.Message{}, err
	}
	delete(s.lastErr, OpSend)
	s.pending = lo.Reject(s.pending, func(a domain.Attachment, _ int) bool {
		return lo.ContainsBy(attachments, func(sent domain.Attachment) bool { return sent.ID == a.ID })
	})
	return msg, nil
}

func (s *Session) Edit(ctx context.Context, id, text string) error {
	return s.withSender(OpEdit, func(sender *services.Sender) error {
		return sender.Edit(ctx, id, text)
	})
}

func (s *Session) Delete(ctx context.Context, id string) error {
	return s.withSender(OpDelete, func(sender *services.Sender) error {
		return sender.Delete(ctx, id)
	})
}

func (s *Session) withSender(op Op, call func(*services.Sender) error) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return errors.ErrSessionNotOpen
	}
	sender, epoch := s.sender, s.epoch
	delete(s.lastErr, op)
	s.mu.Unlock()

	err := call(sender)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil && epoch == s.epoch {
		s.failLocked(op, err)
	}
	return err
}

// AddAttachment queues data for the next send and returns it with its local id.
func (s *Session) AddAttachment(attachment domain.Attachment) (domain.Attachment, error) {
	if len(attachment.Data) == 0 {
		return domain.Attachment{}, fmt.Errorf("%w: empty attachment", errors.ErrValidation)
	}
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return domain.Attachment{}, errors.ErrSessionNotOpen
	}
	s.pending = append(s.pending, attachment)
	return attachment, nil
}

func (s *Session) RemoveAttachment(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.pending)
	s.pending = lo.Reject(s.pending, func(a domain.Attachment, _ int) bool { return a.ID == id })
	return len(s.pending) != before
}

func (s *Session) PendingAttachments() []domain.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.pending)
}

// Updates coalesces: a reader that falls behind only sees the latest update.
// Errors stay available through LastError.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

func (s *Session) View() []domain.Message {
	return s.timeline.View()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Conversation() domain.ConversationID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv
}

func (s *Session) Target() domain.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Loading reports whether a page fetch is outstanding.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetching
}

// LastError is cleared by the next attempt of op.
func (s *Session) LastError(op Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr[op]
}

func (s *Session) SendState() services.SendState {
	s.mu.Lock()
	sender := s.sender
	s.mu.Unlock()
	if sender == nil {
		return services.SendIdle
	}
	return sender.State()
}

func (s *Session) failLocked(op Op, err error) {
	s.lastErr[op] = err
	s.publishLocked(Update{Kind: UpdateError, State: s.state, Op: op, Err: err})
}

// publishLocked never blocks: an unread update is replaced.
func (s *Session) publishLocked(update Update) {
	select {
	case <-s.updates:
	default:
	}
	s.updates <- update
}
