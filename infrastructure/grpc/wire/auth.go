package wire

import (
	"context"

	"google.golang.org/grpc"
)

const (
	Auth_SignIn_FullMethodName = "/chatsync.v1.Auth/SignIn"
	Auth_SignUp_FullMethodName = "/chatsync.v1.Auth/SignUp"
	Auth_WhoAmI_FullMethodName = "/chatsync.v1.Auth/WhoAmI"
)

// PublicMethods need no bearer token.
var PublicMethods = []string{Auth_SignIn_FullMethodName, Auth_SignUp_FullMethodName}

type AuthServer interface {
	SignIn(context.Context, *CredentialsRequest) (*AuthResponse, error)
	SignUp(context.Context, *CredentialsRequest) (*AuthResponse, error)
	WhoAmI(context.Context, *Empty) (*IdentityResponse, error)
}

type AuthClient interface {
	SignIn(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	SignUp(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	WhoAmI(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*IdentityResponse, error)
}

var Auth_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "chatsync.v1.Auth",
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignIn", Handler: unary(Auth_SignIn_FullMethodName, AuthServer.SignIn)},
		{MethodName: "SignUp", Handler: unary(Auth_SignUp_FullMethodName, AuthServer.SignUp)},
		{MethodName: "WhoAmI", Handler: unary(Auth_WhoAmI_FullMethodName, AuthServer.WhoAmI)},
	},
}

func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&Auth_ServiceDesc, srv)
}

type authClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthClient(cc grpc.ClientConnInterface) AuthClient {
	return &authClient{cc: cc}
}

func (c *authClient) SignIn(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, Auth_SignIn_FullMethodName, in, opts)
}

func (c *authClient) SignUp(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, Auth_SignUp_FullMethodName, in, opts)
}

func (c *authClient) WhoAmI(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*IdentityResponse, error) {
	return invoke[IdentityResponse](ctx, c.cc, Auth_WhoAmI_FullMethodName, in, opts)
}
