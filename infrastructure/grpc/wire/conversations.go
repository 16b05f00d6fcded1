package wire

import (
	"context"

	"google.golang.org/grpc"
)

const (
	Conversations_FetchPage_FullMethodName     = "/chatsync.v1.Conversations/FetchPage"
	Conversations_CommitMessage_FullMethodName = "/chatsync.v1.Conversations/CommitMessage"
	Conversations_UpdateMessage_FullMethodName = "/chatsync.v1.Conversations/UpdateMessage"
	Conversations_DeleteMessage_FullMethodName = "/chatsync.v1.Conversations/DeleteMessage"
	Conversations_BatchMarkRead_FullMethodName = "/chatsync.v1.Conversations/BatchMarkRead"
	Conversations_Subscribe_FullMethodName     = "/chatsync.v1.Conversations/Subscribe"
	Conversations_LastMessage_FullMethodName   = "/chatsync.v1.Conversations/LastMessage"
)

type ConversationsServer interface {
	FetchPage(context.Context, *FetchPageRequest) (*MessagesResponse, error)
	CommitMessage(context.Context, *CommitMessageRequest) (*MessageResponse, error)
	UpdateMessage(context.Context, *UpdateMessageRequest) (*Empty, error)
	DeleteMessage(context.Context, *DeleteMessageRequest) (*Empty, error)
	BatchMarkRead(context.Context, *BatchMarkReadRequest) (*Empty, error)
	Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[MessagesResponse]) error
	LastMessage(context.Context, *LastMessageRequest) (*LastMessageResponse, error)
}

type ConversationsClient interface {
	FetchPage(ctx context.Context, in *FetchPageRequest, opts ...grpc.CallOption) (*MessagesResponse, error)
	CommitMessage(ctx context.Context, in *CommitMessageRequest, opts ...grpc.CallOption) (*MessageResponse, error)
	UpdateMessage(ctx context.Context, in *UpdateMessageRequest, opts ...grpc.CallOption) (*Empty, error)
	DeleteMessage(ctx context.Context, in *DeleteMessageRequest, opts ...grpc.CallOption) (*Empty, error)
	BatchMarkRead(ctx context.Context, in *BatchMarkReadRequest, opts ...grpc.CallOption) (*Empty, error)
	Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[MessagesResponse], error)
	LastMessage(ctx context.Context, in *LastMessageRequest, opts ...grpc.CallOption) (*LastMessageResponse, error)
}

var Conversations_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "chatsync.v1.Conversations",
	HandlerType: (*ConversationsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FetchPage", Handler: unary(Conversations_FetchPage_FullMethodName, ConversationsServer.FetchPage)},
		{MethodName: "CommitMessage", Handler: unary(Conversations_CommitMessage_FullMethodName, ConversationsServer.CommitMessage)},
		{MethodName: "UpdateMessage", Handler: unary(Conversations_UpdateMessage_FullMethodName, ConversationsServer.UpdateMessage)},
		{MethodName: "DeleteMessage", Handler: unary(Conversations_DeleteMessage_FullMethodName, ConversationsServer.DeleteMessage)},
		{MethodName: "BatchMarkRead", Handler: unary(Conversations_BatchMarkRead_FullMethodName, ConversationsServer.BatchMarkRead)},
		{MethodName: "LastMessage", Handler: unary(Conversations_LastMessage_FullMethodName, ConversationsServer.LastMessage)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
}

func RegisterConversationsServer(s grpc.ServiceRegistrar, srv ConversationsServer) {
	s.RegisterService(&Conversations_ServiceDesc, srv)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(SubscribeRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ConversationsServer).Subscribe(in, &grpc.GenericServerStream[SubscribeRequest, MessagesResponse]{ServerStream: stream})
}

type conversationsClient struct {
	cc grpc.ClientConnInterface
}

func NewConversationsClient(cc grpc.ClientConnInterface) ConversationsClient {
	return &conversationsClient{cc: cc}
}

func (c *conversationsClient) FetchPage(ctx context.Context, in *FetchPageRequest, opts ...grpc.CallOption) (*MessagesResponse, error) {
	return invoke[MessagesResponse](ctx, c.cc, Conversations_FetchPage_FullMethodName, in, opts)
}

func (c *conversationsClient) CommitMessage(ctx context.Context, in *CommitMessageRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, Conversations_CommitMessage_FullMethodName, in, opts)
}

func (c *conversationsClient) UpdateMessage(ctx context.Context, in *UpdateMessageRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, Conversations_UpdateMessage_FullMethodName, in, opts)
}

func (c *conversationsClient) DeleteMessage(ctx context.Context, in *DeleteMessageRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, Conversations_DeleteMessage_FullMethodName, in, opts)
}

func (c *conversationsClient) BatchMarkRead(ctx context.Context, in *BatchMarkReadRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, Conversations_BatchMarkRead_FullMethodName, in, opts)
}

func (c *conversationsClient) LastMessage(ctx context.Context, in *LastMessageRequest, opts ...grpc.CallOption) (*LastMessageResponse, error) {
	return invoke[LastMessageResponse](ctx, c.cc, Conversations_LastMessage_FullMethodName, in, opts)
}

func (c *conversationsClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[MessagesResponse], error) {
	stream, err := c.cc.NewStream(ctx, &Conversations_ServiceDesc.Streams[0], Conversations_Subscribe_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SubscribeRequest, MessagesResponse]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
