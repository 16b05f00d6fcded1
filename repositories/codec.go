package repositories

import (
	"chat-sync/codec"
	"chat-sync/domain"
	"time"

	"github.com/samber/lo"
	"google.golang.org/protobuf/encoding/protowire"
)

// Messages and groups use the shared records of the codec package. Users carry
// the password hash, so their record is only ever stored.
const (
	userID protowire.Number = iota + 1
	userEmail
	userUsername
	userPhotoURL
	userPasswordHash
	userCreatedAt
	userPushTokens
	userRoles
)

// User is the stored account. The password hash never leaves the repository layer
// except for verification.
type User struct {
	ID           string
	Email        string
	Username     string
	PhotoURL     *string
	PasswordHash string
	CreatedAt    time.Time
	PushTokens   []string
	Roles        []string
}

func (u User) Identity() domain.Identity {
	return domain.Identity{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		PhotoURL:   u.PhotoURL,
		CreatedAt:  u.CreatedAt,
		PushTokens: append([]string(nil), u.PushTokens...),
	}
}

func encodeUser(u User) []byte {
	return codec.Record(nil).
		Str(userID, u.ID).
		Str(userEmail, u.Email).
		Str(userUsername, u.Username).
		OptStr(userPhotoURL, u.PhotoURL).
		Str(userPasswordHash, u.PasswordHash).
		Time(userCreatedAt, u.CreatedAt).
		Strs(userPushTokens, u.PushTokens).
		Strs(userRoles, u.Roles)
}

func decodeUser(b []byte) (User, error) {
	var u User
	err := codec.Decode(b, func(f codec.Field) error {
		switch f.Num {
		case userID:
			u.ID = f.S
		case userEmail:
			u.Email = f.S
		case userUsername:
			u.Username = f.S
		case userPhotoURL:
			u.PhotoURL = lo.ToPtr(f.S)
		case userPasswordHash:
			u.PasswordHash = f.S
		case userCreatedAt:
			u.CreatedAt = f.Time()
		case userPushTokens:
			u.PushTokens = append(u.PushTokens, f.S)
		case userRoles:
			u.Roles = append(u.Roles, f.S)
		}
		return nil
	})
	return u, err
}
