package services

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/media"
	"chat-sync/repositories"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

type ProfileUpdate struct {
	Username string `validate:"required,min=2,max=40"`
	Photo    []byte
}

// UserService is the user directory: search, profile and push tokens.
type UserService struct {
	users repositories.IUserRepository
	blobs contract.BlobStore
	now   func() time.Time
}

func NewUserService(users repositories.IUserRepository, blobs contract.BlobStore) *UserService {
	return &UserService{users: users, blobs: blobs, now: time.Now}
}

// SearchUsers lists every other user whose email or username contains query,
// case-insensitively. An empty query lists everyone but the viewer.
func (s *UserService) SearchUsers(_ context.Context, viewerID, query string) ([]domain.Identity, error) {
	users, err := s.users.ListUsers()
	if err != nil {
		return nil, errors.Network("list users", err)
	}
	viewerID = repositories.NormalizeEmail(viewerID)
	query = strings.ToLower(strings.TrimSpace(query))
	return lo.FilterMap(users, func(u repositories.User, _ int) (domain.Identity, bool) {
		if u.ID == viewerID {
			return domain.Identity{}, false
		}
		matches := query == "" ||
			strings.Contains(strings.ToLower(u.Email), query) ||
			strings.Contains(strings.ToLower(u.Username), query)
		return u.Identity(), matches
	}), nil
}

func (s *UserService) GetUser(_ context.Context, id string) (domain.Identity, error) {
	user, err := s.users.GetUserByEmail(id)
	if err != nil {
		return domain.Identity{}, err
	}
	return user.Identity(), nil
}

// UpdateProfile uploads the optional photo to profile_images/{email}_{ms}{ext} first.
func (s *UserService) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (domain.Identity, error) {
	if err := validate.Struct(update); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	var photoURL *string
	if len(update.Photo) > 0 {
		url, err := uploadPhoto(ctx, s.blobs, update.Photo, fmt.Sprintf("profile_images/%s_%d", id, s.now().UnixMilli()))
		if err != nil {
			return domain.Identity{}, err
		}
		photoURL = &url
	}

	user, err := s.users.UpdateProfile(id, update.Username, photoURL)
	if err != nil {
		return domain.Identity{}, err
	}
	return user.Identity(), nil
}

func (s *UserService) RegisterToken(_ context.Context, identityID, token string) error {
	return s.users.AddPushToken(identityID, token)
}

func uploadPhoto(ctx context.Context, blobs contract.BlobStore, data []byte, path string) (string, error) {
	if blobs == nil {
		return "", fmt.Errorf("%w: no blob store configured", errors.ErrAttachmentUpload)
	}
	prepared, err := media.Normalize(data, media.DefaultMaxDimension)
	if err != nil {
		return "", err
	}
	url, err := blobs.Upload(ctx, prepared.Data, path+prepared.Extension)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrAttachmentUpload, err)
	}
	return url, nil
}
