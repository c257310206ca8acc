package api

import (
	"context"

	"google.golang.org/grpc"
)

// DiaryClient is the client API for the diary service. Every call is sent
// with the JSON codec.
type DiaryClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	Insert(ctx context.Context, in *EntryRequest, opts ...grpc.CallOption) (*EntryResponse, error)
	Update(ctx context.Context, in *EntryRequest, opts ...grpc.CallOption) (*EntryResponse, error)
	Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*EntryResponse, error)
	DeleteAll(ctx context.Context, in *DeleteAllRequest, opts ...grpc.CallOption) (*DeleteAllResponse, error)
	WatchAll(ctx context.Context, in *WatchAllRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[DiariesEvent], error)
	WatchFiltered(ctx context.Context, in *WatchFilteredRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[DiariesEvent], error)
	WatchEntry(ctx context.Context, in *WatchEntryRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[EntryEvent], error)
}

type diaryClient struct {
	cc grpc.ClientConnInterface
}

func NewDiaryClient(cc grpc.ClientConnInterface) DiaryClient {
	return &diaryClient{cc: cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func invoke[Res any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Res, error) {
	out := new(Res)
	if err := cc.Invoke(ctx, method, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func watch[Req, Res any](ctx context.Context, cc grpc.ClientConnInterface, desc *grpc.StreamDesc, method string, in *Req, opts []grpc.CallOption) (grpc.ServerStreamingClient[Res], error) {
	stream, err := cc.NewStream(ctx, desc, method, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[Req, Res]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *diaryClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, Diary_Register_FullMethodName, in, opts)
}

func (c *diaryClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, Diary_Login_FullMethodName, in, opts)
}

func (c *diaryClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, Diary_Ping_FullMethodName, in, opts)
}

func (c *diaryClient) Insert(ctx context.Context, in *EntryRequest, opts ...grpc.CallOption) (*EntryResponse, error) {
	return invoke[EntryResponse](ctx, c.cc, Diary_Insert_FullMethodName, in, opts)
}

func (c *diaryClient) Update(ctx context.Context, in *EntryRequest, opts ...grpc.CallOption) (*EntryResponse, error) {
	return invoke[EntryResponse](ctx, c.cc, Diary_Update_FullMethodName, in, opts)
}

func (c *diaryClient) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*EntryResponse, error) {
	return invoke[EntryResponse](ctx, c.cc, Diary_Delete_FullMethodName, in, opts)
}

func (c *diaryClient) DeleteAll(ctx context.Context, in *DeleteAllRequest, opts ...grpc.CallOption) (*DeleteAllResponse, error) {
	return invoke[DeleteAllResponse](ctx, c.cc, Diary_DeleteAll_FullMethodName, in, opts)
}

func (c *diaryClient) WatchAll(ctx context.Context, in *WatchAllRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[DiariesEvent], error) {
	return watch[WatchAllRequest, DiariesEvent](ctx, c.cc, &Diary_ServiceDesc.Streams[0], Diary_WatchAll_FullMethodName, in, opts)
}

func (c *diaryClient) WatchFiltered(ctx context.Context, in *WatchFilteredRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[DiariesEvent], error) {
	return watch[WatchFilteredRequest, DiariesEvent](ctx, c.cc, &Diary_ServiceDesc.Streams[1], Diary_WatchFiltered_FullMethodName, in, opts)
}

func (c *diaryClient) WatchEntry(ctx context.Context, in *WatchEntryRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[EntryEvent], error) {
	return watch[WatchEntryRequest, EntryEvent](ctx, c.cc, &Diary_ServiceDesc.Streams[2], Diary_WatchEntry_FullMethodName, in, opts)
}
