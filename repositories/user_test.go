package repositories

import (
	"chat-sync/codec"
	"chat-sync/domain"
	"chat-sync/errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openDB(t))

	// Given a user created with a mixed-case email
	created, err := repo.CreateUser(" Alice@X.com ", "hash", "alice")
	req.NoError(err)
	req.Equal("alice@x.com", created.ID)

	// Then any spelling finds the account
	fetched, err := repo.GetUserByEmail("ALICE@x.com")
	req.NoError(err)
	req.Equal(created, fetched)
	req.Equal([]string{"user"}, fetched.Roles)

	// And the email cannot be registered twice
	_, err = repo.CreateUser("alice@x.com", "hash", "other")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	_, err = repo.GetUserByEmail("nobody@x.com")
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = repo.CreateUser("a:b@x.com", "hash", "")
	req.ErrorIs(err, errors.ErrInvalidIdentifier)
}

func TestUserRepository_ProfileAndTokens(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openDB(t))
	_, err := repo.CreateUser("bob@y.com", "hash", "bob")
	req.NoError(err)
	_, err = repo.CreateUser("alice@x.com", "hash", "alice")
	req.NoError(err)

	updated, err := repo.UpdateProfile("bob@y.com", "bobby", lo.ToPtr("https://cdn/bob.png"))
	req.NoError(err)
	req.Equal("bobby", updated.Username)

	// A nil photo keeps the current one
	updated, err = repo.UpdateProfile("bob@y.com", "bobby2", nil)
	req.NoError(err)
	req.Equal(lo.ToPtr("https://cdn/bob.png"), updated.PhotoURL)

	req.NoError(repo.AddPushToken("bob@y.com", "tok-1"))
	req.NoError(repo.AddPushToken("bob@y.com", "tok-1"))
	req.ErrorIs(repo.AddPushToken("bob@y.com", " "), errors.ErrValidation)
	req.ErrorIs(repo.AddPushToken("ghost@y.com", "tok"), errors.ErrUserNotFound)

	users, err := repo.ListUsers()
	req.NoError(err)
	req.Equal([]string{"alice@x.com", "bob@y.com"}, lo.Map(users, func(u User, _ int) string { return u.Email }))
	req.Equal([]string{"tok-1"}, users[1].PushTokens)

	identity := users[1].Identity()
	req.Equal(domain.Identity{
		ID:         "bob@y.com",
		Email:      "bob@y.com",
		Username:   "bobby2",
		PhotoURL:   lo.ToPtr("https://cdn/bob.png"),
		CreatedAt:  users[1].CreatedAt,
		PushTokens: []string{"tok-1"},
	}, identity)
}

func TestUserRecord_DecodesAsIdentity(t *testing.T) {
	req := require.New(t)
	user := User{
		ID:           "u1",
		Email:        "alice@x.com",
		Username:     "alice",
		PhotoURL:     lo.ToPtr("https://cdn/alice.png"),
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.UnixMilli(1_700_000_000_000).UTC(),
		PushTokens:   []string{"tok"},
		Roles:        []string{"admin"},
	}

	stored := encodeUser(user)
	decoded, err := decodeUser(stored)
	req.NoError(err)
	req.Equal(user, decoded)

	// The shared identity layout reads a stored user without its secrets
	identity, err := codec.DecodeIdentity(stored)
	req.NoError(err)
	req.Equal(user.Identity(), identity)
}
