package client

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/infrastructure/grpc/wire"
	"chat-sync/services"
	"context"

	"google.golang.org/grpc"
)

// AuthClient is the remote Authenticator of a device.
type AuthClient struct {
	client wire.AuthClient
}

func NewAuthClient(cc grpc.ClientConnInterface) *AuthClient {
	return &AuthClient{client: wire.NewAuthClient(cc)}
}

func (c *AuthClient) Register(ctx context.Context, email, password string) (domain.Identity, string, error) {
	resp, err := c.client.SignUp(ctx, &wire.CredentialsRequest{Email: email, Password: password})
	if err != nil {
		return domain.Identity{}, "", errors.FromGRPCError(err)
	}
	return resp.Identity, resp.Token, nil
}

func (c *AuthClient) Login(ctx context.Context, email, password string) (domain.Identity, string, error) {
	resp, err := c.client.SignIn(ctx, &wire.CredentialsRequest{Email: email, Password: password})
	if err != nil {
		return domain.Identity{}, "", errors.FromGRPCError(err)
	}
	return resp.Identity, resp.Token, nil
}

// Resume asks the server who token belongs to.
func (c *AuthClient) Resume(ctx context.Context, token string) (domain.Identity, error) {
	resp, err := c.client.WhoAmI(withToken(ctx, token), &wire.Empty{})
	if err != nil {
		return domain.Identity{}, errors.FromGRPCError(err)
	}
	return resp.Identity, nil
}

// GroupClient manages groups as the signed-in user.
type GroupClient struct {
	client wire.GroupsClient
}

func NewGroupClient(cc grpc.ClientConnInterface) *GroupClient {
	return &GroupClient{client: wire.NewGroupsClient(cc)}
}

func (c *GroupClient) GetGroup(ctx context.Context, groupID string) (domain.Group, error) {
	return groupOf(c.client.Get(ctx, &wire.GroupRequest{GroupID: groupID}))
}

func (c *GroupClient) CreateGroup(ctx context.Context, req services.CreateGroupRequest) (domain.Group, error) {
	return groupOf(c.client.Create(ctx, &wire.CreateGroupRequest{Name: req.Name, Members: req.Members, Photo: req.Photo}))
}

func (c *GroupClient) ListGroups(ctx context.Context) ([]domain.Group, error) {
	resp, err := c.client.List(ctx, &wire.Empty{})
	if err != nil {
		return nil, errors.FromGRPCError(err)
	}
	return resp.Groups, nil
}

func (c *GroupClient) AddMember(ctx context.Context, groupID, memberID string) (domain.Group, error) {
	return groupOf(c.client.AddMember(ctx, &wire.MemberRequest{GroupID: groupID, MemberID: memberID}))
}

func (c *GroupClient) RemoveMember(ctx context.Context, groupID, memberID string) (domain.Group, error) {
	return groupOf(c.client.RemoveMember(ctx, &wire.MemberRequest{GroupID: groupID, MemberID: memberID}))
}

func (c *GroupClient) Rename(ctx context.Context, groupID, name string) (domain.Group, error) {
	return groupOf(c.client.Rename(ctx, &wire.RenameGroupRequest{GroupID: groupID, Name: name}))
}

func groupOf(resp *wire.GroupResponse, err error) (domain.Group, error) {
	if err != nil {
		return domain.Group{}, errors.FromGRPCError(err)
	}
	return resp.Group, nil
}

// UserClient reaches the user directory as the signed-in user.
type UserClient struct {
	client wire.UsersClient
}

func NewUserClient(cc grpc.ClientConnInterface) *UserClient {
	return &UserClient{client: wire.NewUsersClient(cc)}
}

func (c *UserClient) SearchUsers(ctx context.Context, query string) ([]domain.Identity, error) {
	resp, err := c.client.Search(ctx, &wire.SearchUsersRequest{Query: query})
	if err != nil {
		return nil, errors.FromGRPCError(err)
	}
	return resp.Users, nil
}

func (c *UserClient) UpdateProfile(ctx context.Context, update services.ProfileUpdate) (domain.Identity, error) {
	resp, err := c.client.UpdateProfile(ctx, &wire.ProfileRequest{Username: update.Username, Photo: update.Photo})
	if err != nil {
		return domain.Identity{}, errors.FromGRPCError(err)
	}
	return resp.Identity, nil
}

// RegisterToken attaches token to the caller of the connection. The server ignores
// identityID and keys on the bearer token.
func (c *UserClient) RegisterToken(ctx context.Context, _ string, token string) error {
	_, err := c.client.RegisterToken(ctx, &wire.RegisterTokenRequest{Token: token})
	return errors.FromGRPCError(err)
}
