package wire

import (
	"context"

	"google.golang.org/grpc"
)

const (
	Groups_Get_FullMethodName          = "/chatsync.v1.Groups/Get"
	Groups_Create_FullMethodName       = "/chatsync.v1.Groups/Create"
	Groups_List_FullMethodName         = "/chatsync.v1.Groups/List"
	Groups_AddMember_FullMethodName    = "/chatsync.v1.Groups/AddMember"
	Groups_RemoveMember_FullMethodName = "/chatsync.v1.Groups/RemoveMember"
	Groups_Rename_FullMethodName       = "/chatsync.v1.Groups/Rename"

	Users_Search_FullMethodName        = "/chatsync.v1.Users/Search"
	Users_UpdateProfile_FullMethodName = "/chatsync.v1.Users/UpdateProfile"
	Users_RegisterToken_FullMethodName = "/chatsync.v1.Users/RegisterToken"
)

type GroupsServer interface {
	Get(context.Context, *GroupRequest) (*GroupResponse, error)
	Create(context.Context, *CreateGroupRequest) (*GroupResponse, error)
	List(context.Context, *Empty) (*GroupsResponse, error)
	AddMember(context.Context, *MemberRequest) (*GroupResponse, error)
	RemoveMember(context.Context, *MemberRequest) (*GroupResponse, error)
	Rename(context.Context, *RenameGroupRequest) (*GroupResponse, error)
}

type GroupsClient interface {
	Get(ctx context.Context, in *GroupRequest, opts ...grpc.CallOption) (*GroupResponse, error)
	Create(ctx context.Context, in *CreateGroupRequest, opts ...grpc.CallOption) (*GroupResponse, error)
	List(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*GroupsResponse, error)
	AddMember(ctx context.Context, in *MemberRequest, opts ...grpc.CallOption) (*GroupResponse, error)
	RemoveMember(ctx context.Context, in *MemberRequest, opts ...grpc.CallOption) (*GroupResponse, error)
	Rename(ctx context.Context, in *RenameGroupRequest, opts ...grpc.CallOption) (*GroupResponse, error)
}

var Groups_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "chatsync.v1.Groups",
	HandlerType: (*GroupsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Get", Handler: unary(Groups_Get_FullMethodName, GroupsServer.Get)},
		{MethodName: "Create", Handler: unary(Groups_Create_FullMethodName, GroupsServer.Create)},
		{MethodName: "List", Handler: unary(Groups_List_FullMethodName, GroupsServer.List)},
		{MethodName: "AddMember", Handler: unary(Groups_AddMember_FullMethodName, GroupsServer.AddMember)},
		{MethodName: "RemoveMember", Handler: unary(Groups_RemoveMember_FullMethodName, GroupsServer.RemoveMember)},
		{MethodName: "Rename", Handler: unary(Groups_Rename_FullMethodName, GroupsServer.Rename)},
	},
}

func RegisterGroupsServer(s grpc.ServiceRegistrar, srv GroupsServer) {
	s.RegisterService(&Groups_ServiceDesc, srv)
}

type groupsClient struct {
	cc grpc.ClientConnInterface
}

func NewGroupsClient(cc grpc.ClientConnInterface) GroupsClient {
	return &groupsClient{cc: cc}
}

func (c *groupsClient) Get(ctx context.Context, in *GroupRequest, opts ...grpc.CallOption) (*GroupResponse, error) {
	return invoke[GroupResponse](ctx, c.cc, Groups_Get_FullMethodName, in, opts)
}

func (c *groupsClient) Create(ctx context.Context, in *CreateGroupRequest, opts ...grpc.CallOption) (*GroupResponse, error) {
	return invoke[GroupResponse](ctx, c.cc, Groups_Create_FullMethodName, in, opts)
}

func (c *groupsClient) List(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*GroupsResponse, error) {
	return invoke[GroupsResponse](ctx, c.cc, Groups_List_FullMethodName, in, opts)
}

func (c *groupsClient) AddMember(ctx context.Context, in *MemberRequest, opts ...grpc.CallOption) (*GroupResponse, error) {
	return invoke[GroupResponse](ctx, c.cc, Groups_AddMember_FullMethodName, in, opts)
}

func (c *groupsClient) RemoveMember(ctx context.Context, in *MemberRequest, opts ...grpc.CallOption) (*GroupResponse, error) {
	return invoke[GroupResponse](ctx, c.cc, Groups_RemoveMember_FullMethodName, in, opts)
}

func (c *groupsClient) Rename(ctx context.Context, in *RenameGroupRequest, opts ...grpc.CallOption) (*GroupResponse, error) {
	return invoke[GroupResponse](ctx, c.cc, Groups_Rename_FullMethodName, in, opts)
}

type UsersServer interface {
	Search(context.Context, *SearchUsersRequest) (*UsersResponse, error)
	UpdateProfile(context.Context, *ProfileRequest) (*IdentityResponse, error)
	RegisterToken(context.Context, *RegisterTokenRequest) (*Empty, error)
}

type UsersClient interface {
	Search(ctx context.Context, in *SearchUsersRequest, opts ...grpc.CallOption) (*UsersResponse, error)
	UpdateProfile(ctx context.Context, in *ProfileRequest, opts ...grpc.CallOption) (*IdentityResponse, error)
	RegisterToken(ctx context.Context, in *RegisterTokenRequest, opts ...grpc.CallOption) (*Empty, error)
}

var Users_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "chatsync.v1.Users",
	HandlerType: (*UsersServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Search", Handler: unary(Users_Search_FullMethodName, UsersServer.Search)},
		{MethodName: "UpdateProfile", Handler: unary(Users_UpdateProfile_FullMethodName, UsersServer.UpdateProfile)},
		{MethodName: "RegisterToken", Handler: unary(Users_RegisterToken_FullMethodName, UsersServer.RegisterToken)},
	},
}

func RegisterUsersServer(s grpc.ServiceRegistrar, srv UsersServer) {
	s.RegisterService(&Users_ServiceDesc, srv)
}

type usersClient struct {
	cc grpc.ClientConnInterface
}

func NewUsersClient(cc grpc.ClientConnInterface) UsersClient {
	return &usersClient{cc: cc}
}

func (c *usersClient) Search(ctx context.Context, in *SearchUsersRequest, opts ...grpc.CallOption) (*UsersResponse, error) {
	return invoke[UsersResponse](ctx, c.cc, Users_Search_FullMethodName, in, opts)
}

func (c *usersClient) UpdateProfile(ctx context.Context, in *ProfileRequest, opts ...grpc.CallOption) (*IdentityResponse, error) {
	return invoke[IdentityResponse](ctx, c.cc, Users_UpdateProfile_FullMethodName, in, opts)
}

func (c *usersClient) RegisterToken(ctx context.Context, in *RegisterTokenRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, Users_RegisterToken_FullMethodName, in, opts)
}
