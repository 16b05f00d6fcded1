package services

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/repositories"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type CreateGroupRequest struct {
	Name    string   `validate:"required,min=1,max=80"`
	Members []string `validate:"dive,required,excludesall=:"`
	Photo   []byte
}

// GroupService applies membership rules: only members act on a group, only the
// creator removes other members, and the creator never leaves.
type GroupService struct {
	log    *slog.Logger
	groups repositories.IGroupRepository
	blobs  contract.BlobStore
	now    func() time.Time
}

func NewGroupService(log *slog.Logger, groups repositories.IGroupRepository, blobs contract.BlobStore) *GroupService {
	return &GroupService{log: log, groups: groups, blobs: blobs, now: time.Now}
}

// CreateGroup adds the creator to the members and uploads the optional photo to
// group_images/{ms}{ext}.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID string, req CreateGroupRequest) (domain.Group, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return domain.Group{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if strings.TrimSpace(creatorID) == "" {
		return domain.Group{}, errors.ErrNotAuthenticated
	}

	now := s.now().UnixMilli()
	group := domain.NewGroup(req.Name, creatorID, req.Members, now)
	if len(req.Photo) > 0 {
		url, err := uploadPhoto(ctx, s.blobs, req.Photo, fmt.Sprintf("group_images/%d", now))
		if err != nil {
			return domain.Group{}, err
		}
		group.PhotoURL = &url
	}

	created, err := s.groups.CreateGroup(group)
	if err != nil {
		return domain.Group{}, errors.Network("create group", err)
	}
	s.log.Info("Group created", "group_id", created.ID, "creator", creatorID, "members", len(created.Members))
	return created, nil
}

func (s *GroupService) GetGroup(_ context.Context, groupID string) (domain.Group, error) {
	return s.groups.GetGroup(groupID)
}

func (s *GroupService) ListGroups(_ context.Context, memberID string) ([]domain.Group, error) {
	return s.groups.ListGroupsForMember(memberID)
}

func (s *GroupService) AddMember(ctx context.Context, actorID, groupID, memberID string) (domain.Group, error) {
	if strings.TrimSpace(memberID) == "" || strings.Contains(memberID, ":") {
		return domain.Group{}, errors.ErrInvalidIdentifier
	}
	return s.mutate(actorID, groupID, func(g domain.Group) (domain.Group, error) {
		return g.WithMember(memberID), nil
	})
}

// RemoveMember lets the creator remove anyone but themselves, and anyone remove themselves.
func (s *GroupService) RemoveMember(ctx context.Context, actorID, groupID, memberID string) (domain.Group, error) {
	return s.mutate(actorID, groupID, func(g domain.Group) (domain.Group, error) {
		if actorID != memberID && actorID != g.CreatedBy {
			return g, fmt.Errorf("%w: only the creator removes other members", errors.ErrPermission)
		}
		return g.WithoutMember(memberID)
	})
}

func (s *GroupService) Leave(ctx context.Context, actorID, groupID string) error {
	_, err := s.RemoveMember(ctx, actorID, groupID, actorID)
	return err
}

func (s *GroupService) Rename(ctx context.Context, actorID, groupID, name string) (domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Group{}, fmt.Errorf("%w: group name is required", errors.ErrValidation)
	}
	return s.mutate(actorID, groupID, func(g domain.Group) (domain.Group, error) {
		g.Name = name
		return g, nil
	})
}

func (s *GroupService) mutate(actorID, groupID string, change func(domain.Group) (domain.Group, error)) (domain.Group, error) {
	group, err := s.groups.GetGroup(groupID)
	if err != nil {
		return domain.Group{}, err
	}
	if !group.IsMember(actorID) {
		return domain.Group{}, errors.ErrNotMember
	}
	updated, err := change(group)
	if err != nil {
		return domain.Group{}, err
	}
	if err := s.groups.SaveGroup(updated); err != nil {
		return domain.Group{}, errors.Network("save group", err)
	}
	return updated, nil
}
