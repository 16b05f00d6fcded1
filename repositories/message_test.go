package repositories

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newMessageRepo(t *testing.T) *MessageRepository {
	t.Helper()
	return NewMessageRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug), NewChangeFeed(), 20)
}

func direct(text string, at int64) domain.Message {
	return domain.Message{
		ConversationID: "alice-bob",
		SenderID:       "alice",
		RecipientID:    "bob",
		Text:           text,
		CreatedAt:      at,
		ReadBy:         []string{"alice"},
	}
}

func commitAll(t *testing.T, repo *MessageRepository, msgs ...domain.Message) []domain.Message {
	t.Helper()
	committed := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		c, err := repo.CommitMessage(context.Background(), m)
		require.NoError(t, err)
		committed = append(committed, c)
	}
	return committed
}

func texts(msgs []domain.Message) []string {
	return lo.Map(msgs, func(m domain.Message, _ int) string { return m.Text })
}

func TestMessageRepository_FetchPage_StrictlyOlderThanCursor(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := newMessageRepo(t)

	// Given five messages, two of them created in the same millisecond
	commitAll(t, repo,
		direct("m1", 10), direct("m2", 20), direct("m3", 30), direct("m3bis", 30), direct("m4", 40))
	filter := domain.Filter{Limit: 2}

	// When the newest page is requested
	first, err := repo.FetchPage(ctx, "alice-bob", filter, 2, nil)
	req.NoError(err)
	req.Len(first, 2)
	req.Equal("m4", first[0].Text)

	// And the next page starts at the oldest timestamp held
	cursor := lo.MinBy(first, func(a, b domain.Message) bool { return a.CreatedAt < b.CreatedAt }).CreatedAt
	second, err := repo.FetchPage(ctx, "alice-bob", filter, 2, &cursor)
	req.NoError(err)

	// Then nothing created at the cursor comes back
	req.Equal([]string{"m2", "m1"}, texts(second))

	cursor = 10
	last, err := repo.FetchPage(ctx, "alice-bob", filter, 2, &cursor)
	req.NoError(err)
	req.Empty(last)
}

func TestMessageRepository_FetchPage_FiltersGroupMessages(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := newMessageRepo(t)

	group := domain.Message{ConversationID: "alice-bob", SenderID: "alice", GroupID: "alice-bob", IsGroup: true, Text: "g", CreatedAt: 15}
	commitAll(t, repo, direct("d1", 10), group, direct("d2", 20))

	directs, err := repo.FetchPage(ctx, "alice-bob", domain.Filter{}, 10, nil)
	req.NoError(err)
	req.Equal([]string{"d2", "d1"}, texts(directs))

	groups, err := repo.FetchPage(ctx, "alice-bob", domain.Filter{Group: true}, 10, nil)
	req.NoError(err)
	req.Equal([]string{"g"}, texts(groups))
}

func TestMessageRepository_FetchPage_IsolatesConversations(t *testing.T) {
	req := require.New(t)
	repo := newMessageRepo(t)

	other := direct("elsewhere", 5)
	other.ConversationID = "alice-bobby"
	other.RecipientID = "bobby"
	commitAll(t, repo, direct("here", 10), other)

	page, err := repo.FetchPage(context.Background(), "alice-bob", domain.Filter{}, 10, nil)
	req.NoError(err)
	req.Equal([]string{"here"}, texts(page))

	_, err = repo.FetchPage(context.Background(), "alice:bob", domain.Filter{}, 10, nil)
	req.ErrorIs(err, errors.ErrInvalidIdentifier)
}

func TestMessageRepository_LastMessage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := newMessageRepo(t)

	// Given an empty conversation there is nothing to preview
	last, err := repo.LastMessage(ctx, "alice-bob")
	req.NoError(err)
	req.Nil(last)

	// When direct and group messages share it, and a neighbour has a newer one
	group := domain.Message{ConversationID: "alice-bob", SenderID: "bob", GroupID: "alice-bob", IsGroup: true, Text: "g", CreatedAt: 30}
	neighbour := direct("elsewhere", 99)
	neighbour.ConversationID = "alice-bobby"
	neighbour.RecipientID = "bobby"
	commitAll(t, repo, direct("d1", 10), group, direct("d2", 20), neighbour)

	// Then the newest of the conversation comes back whatever its kind
	last, err = repo.LastMessage(ctx, "alice-bob")
	req.NoError(err)
	req.NotNil(last)
	req.Equal("g", last.Text)
	req.NotEmpty(last.ID)

	_, err = repo.LastMessage(ctx, "alice:bob")
	req.ErrorIs(err, errors.ErrInvalidIdentifier)
}

func TestMessageRepository_CommitMessage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := newMessageRepo(t)

	committed, err := repo.CommitMessage(ctx, direct("hello", 10))
	req.NoError(err)
	req.NotEmpty(committed.ID)

	fetched, err := repo.GetMessage(ctx, committed.ID)
	req.NoError(err)
	req.Equal(committed, fetched)

	// Replaying a committed message is a conflict
	_, err = repo.CommitMessage(ctx, committed)
	req.ErrorIs(err, errors.ErrMessageExists)

	_, err = repo.CommitMessage(ctx, direct("", 10))
	req.ErrorIs(err, errors.ErrEmptyMessage)
}

func TestMessageRepository_UpdateAndDelete(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := newMessageRepo(t)
	msg := commitAll(t, repo, direct("helo", 10))[0]

	req.NoError(repo.UpdateMessage(ctx, msg.ID, domain.MessageEdit{Text: "hello", EditedAt: 12}))
	fetched, err := repo.GetMessage(ctx, msg.ID)
	req.NoError(err)
	req.Equal("hello", fetched.Text)
	req.True(fetched.Edited)
	req.Equal(lo.ToPtr(int64(12)), fetched.EditedAt)
	req.Equal(int64(10), fetched.CreatedAt)

	req.NoError(repo.DeleteMessage(ctx, msg.ID))
	page, err := repo.FetchPage(ctx, "alice-bob", domain.Filter{}, 10, nil)
	req.NoError(err)
	req.Empty(page)

	req.ErrorIs(repo.DeleteMessage(ctx, msg.ID), errors.ErrMessageNotFound)
	req.ErrorIs(repo.UpdateMessage(ctx, msg.ID, domain.MessageEdit{Text: "x", EditedAt: 1}), errors.ErrNotFound)
}

func TestMessageRepository_BatchMarkRead_IsAtomic(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := newMessageRepo(t)
	msgs := commitAll(t, repo, direct("m1", 10), direct("m2", 20))

	// When one id of the batch is unknown
	err := repo.BatchMarkRead(ctx, []string{msgs[0].ID, "unknown"}, "bob")

	// Then no message is marked
	req.ErrorIs(err, errors.ErrMessageNotFound)
	fetched, err := repo.GetMessage(ctx, msgs[0].ID)
	req.NoError(err)
	req.Equal([]string{"alice"}, fetched.ReadBy)

	// When every id is known
	req.NoError(repo.BatchMarkRead(ctx, []string{msgs[0].ID, msgs[1].ID, msgs[0].ID}, "bob"))
	req.NoError(repo.BatchMarkRead(ctx, []string{msgs[0].ID}, "bob"))

	// Then readers grow once
	for _, m := range msgs {
		fetched, err := repo.GetMessage(ctx, m.ID)
		req.NoError(err)
		req.Equal([]string{"alice", "bob"}, fetched.ReadBy)
		req.Equal(domain.StatusRead, domain.StatusFor(fetched))
	}
}

func nextSnapshot(t *testing.T, snapshots <-chan domain.Snapshot) domain.Snapshot {
	t.Helper()
	select {
	case s, ok := <-snapshots:
		require.True(t, ok, "subscription closed")
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
		return domain.Snapshot{}
	}
}

func TestMessageRepository_Subscribe_DeliversFullSnapshots(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := newMessageRepo(t)
	commitAll(t, repo, direct("m1", 10))

	// Given a subscription on a window of two messages
	sub, err := repo.Subscribe(ctx, "alice-bob", domain.Filter{Limit: 2})
	req.NoError(err)
	defer sub.Close()

	initial := nextSnapshot(t, sub.Snapshots())
	req.NoError(initial.Err)
	req.Equal([]string{"m1"}, texts(initial.Messages))

	// When two more messages are committed
	commitAll(t, repo, direct("m2", 20))
	req.Equal([]string{"m2", "m1"}, texts(nextSnapshot(t, sub.Snapshots()).Messages))
	commitAll(t, repo, direct("m3", 30))

	// Then the snapshot is the whole window, not a diff
	req.Equal([]string{"m3", "m2"}, texts(nextSnapshot(t, sub.Snapshots()).Messages))
}

func TestMessageRepository_Subscribe_CloseEndsStream(t *testing.T) {
	req := require.New(t)
	repo := newMessageRepo(t)

	sub, err := repo.Subscribe(context.Background(), "alice-bob", domain.Filter{})
	req.NoError(err)
	nextSnapshot(t, sub.Snapshots())

	sub.Close()
	sub.Close()

	req.Eventually(func() bool {
		_, ok := <-sub.Snapshots()
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
	req.Eventually(func() bool {
		return repo.feed.Watchers("alice-bob") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMessageRepository_Subscribe_SlowConsumerGetsLatest(t *testing.T) {
	req := require.New(t)
	repo := newMessageRepo(t)

	sub, err := repo.Subscribe(context.Background(), "alice-bob", domain.Filter{Limit: 20})
	req.NoError(err)
	defer sub.Close()
	nextSnapshot(t, sub.Snapshots())

	// Writers never block on a subscriber that does not read
	for i := 1; i <= 10; i++ {
		commitAll(t, repo, direct(fmt.Sprintf("m%d", i), int64(i)))
	}

	// Pending notifications coalesce: a few reads reach the final state
	var latest domain.Snapshot
	for i := 0; i < 10 && len(latest.Messages) < 10; i++ {
		latest = nextSnapshot(t, sub.Snapshots())
	}
	req.Len(latest.Messages, 10)
}
