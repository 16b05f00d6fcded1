package client

import (
	"chat-sync/auth"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/infrastructure/grpc/server"
	"chat-sync/repositories"
	"chat-sync/runtime"
	"chat-sync/services"
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

const (
	password = "ComplexPass123!"
	waitFor  = 2 * time.Second
	tick     = 10 * time.Millisecond
)

type backend struct {
	listener *bufconn.Listener
}

// startBackend serves a complete daemon over an in-memory listener.
func startBackend(t *testing.T) *backend {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)

	users := repositories.NewUserRepository(db)
	messages := repositories.NewMessageRepository(db, log, repositories.NewChangeFeed(), 20)
	tokens := auth.NewTokens("test-secret", time.Hour)
	userService := services.NewUserService(users, nil)
	groupService := services.NewGroupService(log, repositories.NewGroupRepository(db), nil)

	srv := server.New(log, tokens, nil, server.Services{
		Auth:          server.NewAuthServer(log, services.NewAuthService(users, tokens)),
		Conversations: server.NewConversationServer(log, messages, groupService, userService),
		Groups:        server.NewGroupServer(groupService),
		Users:         server.NewUserServer(userService),
	})
	listener := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(listener) }()
	t.Cleanup(func() {
		srv.Stop()
		_ = db.Close()
	})
	return &backend{listener: listener}
}

func (b *backend) dial(t *testing.T, source TokenSource) *grpc.ClientConn {
	t.Helper()
	conn, err := Dial(logs.GetLoggerFromLevel(slog.LevelDebug), "passthrough:///bufnet", source,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return b.listener.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// signUp registers email and returns a connection authenticated as that user.
func (b *backend) signUp(t *testing.T, email string) (*services.DeviceAuth, *grpc.ClientConn) {
	t.Helper()
	var device *services.DeviceAuth
	conn := b.dial(t, func() string { return device.Token() })
	device = services.NewDeviceAuth(logs.GetLoggerFromLevel(slog.LevelDebug), NewAuthClient(conn), nil)
	_, err := device.SignUp(context.Background(), email, password)
	require.NoError(t, err)
	return device, conn
}

func directMessage(from, to, text string, at int64) domain.Message {
	conv, _ := domain.DirectConversationID(from, to)
	return domain.Message{
		ConversationID: conv,
		SenderID:       from,
		RecipientID:    to,
		Text:           text,
		CreatedAt:      at,
		ReadBy:         []string{from},
	}
}

func TestConversationClient_RoundTrip(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	b := startBackend(t)
	_, aliceConn := b.signUp(t, "alice@x.com")
	_, bobConn := b.signUp(t, "bob@x.com")
	alice := NewConversationClient(logs.GetLoggerFromLevel(slog.LevelDebug), aliceConn)
	bob := NewConversationClient(logs.GetLoggerFromLevel(slog.LevelDebug), bobConn)

	// Given alice wrote to bob
	first, err := alice.CommitMessage(ctx, directMessage("alice@x.com", "bob@x.com", "hi bob", 1000))
	req.NoError(err)
	req.True(first.Committed())
	conv := first.ConversationID

	// When bob subscribes
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sub, err := bob.Subscribe(subCtx, conv, domain.Filter{Limit: 10})
	req.NoError(err)
	defer sub.Close()

	// Then he receives the current window, then every change
	snapshot := <-sub.Snapshots()
	req.NoError(snapshot.Err)
	req.Len(snapshot.Messages, 1)

	_, err = alice.CommitMessage(ctx, directMessage("alice@x.com", "bob@x.com", "still there?", 2000))
	req.NoError(err)
	req.Eventually(func() bool {
		select {
		case snapshot = <-sub.Snapshots():
			return len(snapshot.Messages) == 2
		default:
			return false
		}
	}, waitFor, tick)
	req.Equal("still there?", snapshot.Messages[0].Text)

	// And his read receipt lands on the messages
	req.NoError(bob.BatchMarkRead(ctx, []string{first.ID}, "bob@x.com"))
	page, err := alice.FetchPage(ctx, conv, domain.Filter{}, 10, lo.ToPtr[int64](2000))
	req.NoError(err)
	req.Len(page, 1)
	req.ElementsMatch([]string{"alice@x.com", "bob@x.com"}, page[0].ReadBy)

	// And bob previews the newest message
	last, err := bob.LastMessage(ctx, conv)
	req.NoError(err)
	req.NotNil(last)
	req.Equal("still there?", last.Text)

	// And only the author edits or deletes
	req.NoError(alice.UpdateMessage(ctx, first.ID, domain.MessageEdit{Text: "hello bob", EditedAt: 3000}))
	req.ErrorIs(bob.DeleteMessage(ctx, first.ID), errors.ErrPermission)
	req.NoError(alice.DeleteMessage(ctx, first.ID))
	req.ErrorIs(alice.DeleteMessage(ctx, first.ID), errors.ErrNotFound)
}

func TestConversationServer_RejectsOutsiders(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	b := startBackend(t)
	_, aliceConn := b.signUp(t, "alice@x.com")
	b.signUp(t, "bob@x.com")
	_, carolConn := b.signUp(t, "carol@x.com")
	alice := NewConversationClient(logs.GetLoggerFromLevel(slog.LevelDebug), aliceConn)
	carol := NewConversationClient(logs.GetLoggerFromLevel(slog.LevelDebug), carolConn)

	msg, err := alice.CommitMessage(ctx, directMessage("alice@x.com", "bob@x.com", "private", 1000))
	req.NoError(err)

	t.Run("no token", func(t *testing.T) {
		anonymous := NewConversationClient(logs.GetLoggerFromLevel(slog.LevelDebug), b.dial(t, nil))
		_, err := anonymous.FetchPage(ctx, msg.ConversationID, domain.Filter{}, 10, nil)
		require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})

	t.Run("not a participant", func(t *testing.T) {
		_, err := carol.FetchPage(ctx, msg.ConversationID, domain.Filter{}, 10, nil)
		require.ErrorIs(t, err, errors.ErrPermission)

		err = carol.BatchMarkRead(ctx, []string{msg.ID}, "carol@x.com")
		require.ErrorIs(t, err, errors.ErrPermission)

		_, err = carol.LastMessage(ctx, msg.ConversationID)
		require.ErrorIs(t, err, errors.ErrPermission)
	})

	t.Run("writing as someone else", func(t *testing.T) {
		_, err := carol.CommitMessage(ctx, directMessage("alice@x.com", "bob@x.com", "forged", 2000))
		require.ErrorIs(t, err, errors.ErrPermission)

		err = carol.BatchMarkRead(ctx, []string{msg.ID}, "bob@x.com")
		require.ErrorIs(t, err, errors.ErrPermission)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		_, err := alice.CommitMessage(ctx, directMessage("alice@x.com", "nobody@x.com", "hello?", 3000))
		require.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("group outsider", func(t *testing.T) {
		groups := NewGroupClient(aliceConn)
		group, err := groups.CreateGroup(ctx, services.CreateGroupRequest{Name: "Team", Members: []string{"bob@x.com"}})
		require.NoError(t, err)

		_, err = NewGroupClient(carolConn).GetGroup(ctx, group.ID)
		require.ErrorIs(t, err, errors.ErrPermission)
		_, err = carol.FetchPage(ctx, domain.ConversationID(group.ID), domain.Filter{Group: true}, 10, nil)
		require.ErrorIs(t, err, errors.ErrPermission)
		_, err = carol.LastMessage(ctx, domain.ConversationID(group.ID))
		require.ErrorIs(t, err, errors.ErrPermission)

		// A member previews the group even before anyone wrote
		last, err := alice.LastMessage(ctx, domain.ConversationID(group.ID))
		require.NoError(t, err)
		require.Nil(t, last)
	})
}

func TestAuthClient_Resume(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	b := startBackend(t)
	device, _ := b.signUp(t, "Alice@X.com")
	accounts := NewAuthClient(b.dial(t, nil))

	identity, err := accounts.Resume(ctx, device.Token())
	req.NoError(err)
	req.Equal("alice@x.com", identity.ID)

	_, err = accounts.Resume(ctx, "garbage")
	req.ErrorIs(err, errors.ErrInvalidCredentials)

	_, _, err = accounts.Login(ctx, "alice@x.com", "WrongPass123!")
	req.ErrorIs(err, errors.ErrInvalidCredentials)

	_, _, err = accounts.Register(ctx, "alice@x.com", password)
	req.ErrorIs(err, errors.ErrConflict)
}

func TestUserClient_ActsAsCaller(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	b := startBackend(t)
	_, conn := b.signUp(t, "alice@x.com")
	b.signUp(t, "bob@x.com")
	users := NewUserClient(conn)

	found, err := users.SearchUsers(ctx, "")
	req.NoError(err)
	req.Equal([]string{"bob@x.com"}, lo.Map(found, func(u domain.Identity, _ int) string { return u.ID }))

	identity, err := users.UpdateProfile(ctx, services.ProfileUpdate{Username: "Alice"})
	req.NoError(err)
	req.Equal("Alice", identity.Username)

	req.NoError(users.RegisterToken(ctx, "ignored", "device-1"))
}

func TestSession_OverTheWire(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	b := startBackend(t)
	_, aliceConn := b.signUp(t, "alice@x.com")
	_, bobConn := b.signUp(t, "bob@x.com")
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	open := func(viewer, peer string, conn *grpc.ClientConn) *runtime.Session {
		session, err := runtime.NewSession(log, viewer, runtime.Dependencies{
			Store:  NewConversationClient(log, conn),
			Groups: NewGroupClient(conn),
		}, runtime.DefaultSessionConfig())
		req.NoError(err)
		req.NoError(session.Open(ctx, domain.DirectTarget(viewer, peer)))
		t.Cleanup(session.Close)
		return session
	}
	alice := open("alice@x.com", "bob@x.com", aliceConn)
	bob := open("bob@x.com", "alice@x.com", bobConn)
	bob.SetVisible(true)

	// When alice sends
	sent, err := alice.Send(ctx, "hello over grpc")
	req.NoError(err)

	// Then bob's timeline shows it and his receipt reaches alice
	req.Eventually(func() bool { return len(bob.View()) == 1 }, waitFor, tick)
	req.Eventually(func() bool {
		view := alice.View()
		return len(view) == 1 && view[0].ID == sent.ID && view[0].HasReader("bob@x.com")
	}, waitFor, tick)
}
