//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-sync/codec"
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	contract.ConversationStore
	GetMessage(ctx context.Context, id string) (domain.Message, error)
}

type MessageRepository struct {
	db           *badger.DB
	log          *slog.Logger
	feed         *ChangeFeed
	defaultLimit int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, feed *ChangeFeed, defaultLimit int) *MessageRepository {
	return &MessageRepository{db: db, log: log, feed: feed, defaultLimit: defaultLimit}
}

// messageKey is formatted as "msg:{conversation}:{timestamp_padded}:{id}":
//  1. 19-digit zero padding keeps chronological order lexicographical.
//  2. The id breaks ties between messages created in the same millisecond.
func messageKey(conv domain.ConversationID, createdAt int64, id string) []byte {
	return fmt.Appendf(nil, "msg:%s:%019d:%s", conv, createdAt, id)
}

func conversationPrefix(conv domain.ConversationID) []byte {
	return fmt.Appendf(nil, "msg:%s:", conv)
}

// The index maps a message id to its primary key.
func indexKey(id string) []byte {
	return []byte("msgid:" + id)
}

// FetchPage scans the conversation backwards from the cursor.
// Messages created exactly at before are excluded.
func (m *MessageRepository) FetchPage(ctx context.Context, conv domain.ConversationID, filter domain.Filter, pageSize int, before *int64) ([]domain.Message, error) {
	if err := conv.Validate(); err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be positive", errors.ErrValidation)
	}

	var page []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := conversationPrefix(conv)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch before {
		case nil:
			// Past the newest key of the conversation
			seekKey = append(append([]byte(nil), prefix...), 0xff)
		default:
			seekKey = fmt.Appendf(append([]byte(nil), prefix...), "%019d", *before)
		}

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(page) == pageSize {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			var msg domain.Message
			err := it.Item().Value(func(value []byte) error {
				var err error
				msg, err = codec.DecodeMessage(value)
				return err
			})
			if err != nil {
				return err
			}
			if filter.Matches(msg) {
				page = append(page, msg)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// LastMessage reads the newest key of the conversation, group or direct alike.
func (m *MessageRepository) LastMessage(_ context.Context, conv domain.ConversationID) (*domain.Message, error) {
	if err := conv.Validate(); err != nil {
		return nil, err
	}

	var last *domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := conversationPrefix(conv)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		it.Seek(append(append([]byte(nil), prefix...), 0xff))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		return it.Item().Value(func(value []byte) error {
			msg, err := codec.DecodeMessage(value)
			if err != nil {
				return err
			}
			last = &msg
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return last, nil
}

func (m *MessageRepository) GetMessage(ctx context.Context, id string) (domain.Message, error) {
	var msg domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		var err error
		msg, _, err = m.load(txn, id)
		return err
	})
	return msg, err
}

// CommitMessage assigns an id when the message has none.
func (m *MessageRepository) CommitMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	if err := msg.Validate(); err != nil {
		return domain.Message{}, err
	}
	if msg.CreatedAt < 0 {
		return domain.Message{}, fmt.Errorf("%w: negative timestamp", errors.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}
	msg = msg.Clone()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.ReadBy = lo.Uniq(msg.ReadBy)

	key := messageKey(msg.ConversationID, msg.CreatedAt, msg.ID)
	err := m.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(indexKey(msg.ID)); err == nil {
			return errors.ErrMessageExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(key, codec.EncodeMessage(msg)); err != nil {
			return err
		}
		return txn.Set(indexKey(msg.ID), key)
	})
	if err != nil {
		return domain.Message{}, err
	}
	m.feed.Notify(msg.ConversationID)
	return msg, nil
}

func (m *MessageRepository) UpdateMessage(ctx context.Context, id string, edit domain.MessageEdit) error {
	var conv domain.ConversationID
	err := m.db.Update(func(txn *badger.Txn) error {
		msg, key, err := m.load(txn, id)
		if err != nil {
			return err
		}
		conv = msg.ConversationID
		return txn.Set(key, codec.EncodeMessage(msg.ApplyEdit(edit)))
	})
	if err != nil {
		return err
	}
	m.feed.Notify(conv)
	return nil
}

func (m *MessageRepository) DeleteMessage(ctx context.Context, id string) error {
	var conv domain.ConversationID
	err := m.db.Update(func(txn *badger.Txn) error {
		msg, key, err := m.load(txn, id)
		if err != nil {
			return err
		}
		conv = msg.ConversationID
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(indexKey(id))
	})
	if err != nil {
		return err
	}
	m.feed.Notify(conv)
	return nil
}

// BatchMarkRead adds readerID to every message in one transaction.
// An unknown id aborts the whole batch.
func (m *MessageRepository) BatchMarkRead(ctx context.Context, ids []string, readerID string) error {
	if readerID == "" {
		return errors.ErrInvalidIdentifier
	}
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return nil
	}

	touched := make(map[domain.ConversationID]struct{})
	err := m.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			msg, key, err := m.load(txn, id)
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			if msg.HasReader(readerID) {
				continue
			}
			if err := txn.Set(key, codec.EncodeMessage(msg.WithReader(readerID))); err != nil {
				return err
			}
			touched[msg.ConversationID] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.feed.Notify(lo.Keys(touched)...)
	return nil
}

func (m *MessageRepository) load(txn *badger.Txn, id string) (domain.Message, []byte, error) {
	if id == "" {
		return domain.Message{}, nil, errors.ErrInvalidIdentifier
	}
	item, err := txn.Get(indexKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, nil, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, nil, err
	}
	key, err := item.ValueCopy(nil)
	if err != nil {
		return domain.Message{}, nil, err
	}
	item, err = txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, nil, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, nil, err
	}
	var msg domain.Message
	err = item.Value(func(value []byte) error {
		msg, err = codec.DecodeMessage(value)
		return err
	})
	return msg, key, err
}

// Subscribe delivers the newest filter.Limit messages now and after every write to
// the conversation. Snapshots are complete result sets, never diffs.
func (m *MessageRepository) Subscribe(ctx context.Context, conv domain.ConversationID, filter domain.Filter) (contract.Subscription, error) {
	if err := conv.Validate(); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = m.defaultLimit
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{out: make(chan domain.Snapshot), cancel: cancel}
	// Watch before the first query so no write falls in between.
	changes, unwatch := m.feed.Watch(conv)

	go func() {
		defer close(sub.out)
		defer unwatch()
		for {
			page, err := m.FetchPage(ctx, conv, filter, filter.Limit, nil)
			if ctx.Err() != nil {
				return
			}
			snapshot := domain.Snapshot{Messages: page, Err: err}
			select {
			case sub.out <- snapshot:
			case <-ctx.Done():
				return
			}
			select {
			case <-changes:
			case <-ctx.Done():
				return
			}
		}
	}()

	m.log.Debug("Subscription opened", "conversation", conv, "group", filter.Group, "limit", filter.Limit)
	return sub, nil
}

type subscription struct {
	out    chan domain.Snapshot
	cancel context.CancelFunc
	once   sync.Once
}

func (s *subscription) Snapshots() <-chan domain.Snapshot {
	return s.out
}

func (s *subscription) Close() {
	s.once.Do(s.cancel)
}
