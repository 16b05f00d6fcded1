//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-sync/errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IUserRepository interface {
	CreateUser(email, hashedPassword, username string) (User, error)
	GetUserByEmail(email string) (User, error)
	ListUsers() ([]User, error)
	UpdateProfile(email, username string, photoURL *string) (User, error)
	AddPushToken(email, token string) error
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

const userPrefix = "user:"

// The email is the chat identity: lowercased so either spelling finds one account.
func userKey(email string) []byte {
	return []byte(userPrefix + NormalizeEmail(email))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser persists a user keyed by its email.
func (u UserRepository) CreateUser(email, hashedPassword, username string) (User, error) {
	email = NormalizeEmail(email)
	if email == "" || strings.Contains(email, ":") {
		return User{}, errors.ErrInvalidIdentifier
	}
	user := User{
		ID:           email,
		Email:        email,
		Username:     username,
		PasswordHash: hashedPassword,
		CreatedAt:    time.UnixMilli(time.Now().UnixMilli()).UTC(),
		Roles:        []string{"user"},
	}

	err := u.db.Update(func(txn *badger.Txn) error {
		key := userKey(email)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, encodeUser(user))
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// GetUserByEmail returns ErrUserNotFound for unknown emails.
func (u UserRepository) GetUserByEmail(email string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, email)
		return err
	})
	return user, err
}

// ListUsers returns every account sorted by email.
func (u UserRepository) ListUsers() ([]User, error) {
	var users []User
	err := u.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = []byte(userPrefix)
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				user, err := decodeUser(val)
				if err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (u UserRepository) UpdateProfile(email, username string, photoURL *string) (User, error) {
	var updated User
	err := u.db.Update(func(txn *badger.Txn) error {
		user, err := getUser(txn, email)
		if err != nil {
			return err
		}
		user.Username = username
		if photoURL != nil {
			user.PhotoURL = photoURL
		}
		updated = user
		return txn.Set(userKey(email), encodeUser(user))
	})
	return updated, err
}

// AddPushToken is idempotent.
func (u UserRepository) AddPushToken(email, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: empty push token", errors.ErrValidation)
	}
	return u.db.Update(func(txn *badger.Txn) error {
		user, err := getUser(txn, email)
		if err != nil {
			return err
		}
		if lo.Contains(user.PushTokens, token) {
			return nil
		}
		user.PushTokens = append(user.PushTokens, token)
		return txn.Set(userKey(email), encodeUser(user))
	})
}

func getUser(txn *badger.Txn, email string) (User, error) {
	item, err := txn.Get(userKey(email))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	var user User
	err = item.Value(func(val []byte) error {
		user, err = decodeUser(val)
		return err
	})
	return user, err
}
