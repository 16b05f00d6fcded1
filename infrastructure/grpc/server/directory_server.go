package server

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/infrastructure/grpc/wire"
	"chat-sync/services"
	"context"
)

type GroupManager interface {
	CreateGroup(ctx context.Context, creatorID string, req services.CreateGroupRequest) (domain.Group, error)
	GetGroup(ctx context.Context, groupID string) (domain.Group, error)
	ListGroups(ctx context.Context, memberID string) ([]domain.Group, error)
	AddMember(ctx context.Context, actorID, groupID, memberID string) (domain.Group, error)
	RemoveMember(ctx context.Context, actorID, groupID, memberID string) (domain.Group, error)
	Rename(ctx context.Context, actorID, groupID, name string) (domain.Group, error)
}

type UserManager interface {
	SearchUsers(ctx context.Context, viewerID, query string) ([]domain.Identity, error)
	UpdateProfile(ctx context.Context, id string, update services.ProfileUpdate) (domain.Identity, error)
	RegisterToken(ctx context.Context, identityID, token string) error
}

// GroupServer acts on groups as the caller. Only members read a group.
type GroupServer struct {
	groups GroupManager
}

func NewGroupServer(groups GroupManager) *GroupServer {
	return &GroupServer{groups: groups}
}

func (s *GroupServer) Get(ctx context.Context, req *wire.GroupRequest) (*wire.GroupResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	group, err := s.groups.GetGroup(ctx, req.GroupID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	if !group.IsMember(caller) {
		return nil, errors.MapToGRPCError(errors.ErrNotMember)
	}
	return &wire.GroupResponse{Group: group}, nil
}

func (s *GroupServer) Create(ctx context.Context, req *wire.CreateGroupRequest) (*wire.GroupResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	group, err := s.groups.CreateGroup(ctx, caller, services.CreateGroupRequest{
		Name:    req.Name,
		Members: req.Members,
		Photo:   req.Photo,
	})
	return groupResponse(group, err)
}

func (s *GroupServer) List(ctx context.Context, _ *wire.Empty) (*wire.GroupsResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	groups, err := s.groups.ListGroups(ctx, caller)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.GroupsResponse{Groups: groups}, nil
}

func (s *GroupServer) AddMember(ctx context.Context, req *wire.MemberRequest) (*wire.GroupResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return groupResponse(s.groups.AddMember(ctx, caller, req.GroupID, req.MemberID))
}

func (s *GroupServer) RemoveMember(ctx context.Context, req *wire.MemberRequest) (*wire.GroupResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return groupResponse(s.groups.RemoveMember(ctx, caller, req.GroupID, req.MemberID))
}

func (s *GroupServer) Rename(ctx context.Context, req *wire.RenameGroupRequest) (*wire.GroupResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return groupResponse(s.groups.Rename(ctx, caller, req.GroupID, req.Name))
}

func groupResponse(group domain.Group, err error) (*wire.GroupResponse, error) {
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.GroupResponse{Group: group}, nil
}

type UserServer struct {
	users UserManager
}

func NewUserServer(users UserManager) *UserServer {
	return &UserServer{users: users}
}

func (s *UserServer) Search(ctx context.Context, req *wire.SearchUsersRequest) (*wire.UsersResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	users, err := s.users.SearchUsers(ctx, caller, req.Query)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.UsersResponse{Users: users}, nil
}

func (s *UserServer) UpdateProfile(ctx context.Context, req *wire.ProfileRequest) (*wire.IdentityResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	identity, err := s.users.UpdateProfile(ctx, caller, services.ProfileUpdate{Username: req.Username, Photo: req.Photo})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.IdentityResponse{Identity: identity}, nil
}

func (s *UserServer) RegisterToken(ctx context.Context, req *wire.RegisterTokenRequest) (*wire.Empty, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	if err := s.users.RegisterToken(ctx, caller, req.Token); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.Empty{}, nil
}
