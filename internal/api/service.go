package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "diary.v1.Diary"

const (
	Diary_Register_FullMethodName      = "/" + ServiceName + "/Register"
	Diary_Login_FullMethodName         = "/" + ServiceName + "/Login"
	Diary_Ping_FullMethodName          = "/" + ServiceName + "/Ping"
	Diary_Insert_FullMethodName        = "/" + ServiceName + "/Insert"
	Diary_Update_FullMethodName        = "/" + ServiceName + "/Update"
	Diary_Delete_FullMethodName        = "/" + ServiceName + "/Delete"
	Diary_DeleteAll_FullMethodName     = "/" + ServiceName + "/DeleteAll"
	Diary_WatchAll_FullMethodName      = "/" + ServiceName + "/WatchAll"
	Diary_WatchFiltered_FullMethodName = "/" + ServiceName + "/WatchFiltered"
	Diary_WatchEntry_FullMethodName    = "/" + ServiceName + "/WatchEntry"
)

// PublicMethods do not require an access token.
var PublicMethods = map[string]bool{
	Diary_Register_FullMethodName: true,
	Diary_Login_FullMethodName:    true,
	Diary_Ping_FullMethodName:     true,
}

// DiaryServer is the server API for the diary service.
type DiaryServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	Insert(context.Context, *EntryRequest) (*EntryResponse, error)
	Update(context.Context, *EntryRequest) (*EntryResponse, error)
	Delete(context.Context, *DeleteRequest) (*EntryResponse, error)
	DeleteAll(context.Context, *DeleteAllRequest) (*DeleteAllResponse, error)
	WatchAll(*WatchAllRequest, grpc.ServerStreamingServer[DiariesEvent]) error
	WatchFiltered(*WatchFilteredRequest, grpc.ServerStreamingServer[DiariesEvent]) error
	WatchEntry(*WatchEntryRequest, grpc.ServerStreamingServer[EntryEvent]) error
	mustEmbedUnimplementedDiaryServer()
}

// UnimplementedDiaryServer must be embedded by implementations.
type UnimplementedDiaryServer struct{}

func (UnimplementedDiaryServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedDiaryServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedDiaryServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedDiaryServer) Insert(context.Context, *EntryRequest) (*EntryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Insert not implemented")
}
func (UnimplementedDiaryServer) Update(context.Context, *EntryRequest) (*EntryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Update not implemented")
}
func (UnimplementedDiaryServer) Delete(context.Context, *DeleteRequest) (*EntryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Delete not implemented")
}
func (UnimplementedDiaryServer) DeleteAll(context.Context, *DeleteAllRequest) (*DeleteAllResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteAll not implemented")
}
func (UnimplementedDiaryServer) WatchAll(*WatchAllRequest, grpc.ServerStreamingServer[DiariesEvent]) error {
	return status.Error(codes.Unimplemented, "method WatchAll not implemented")
}
func (UnimplementedDiaryServer) WatchFiltered(*WatchFilteredRequest, grpc.ServerStreamingServer[DiariesEvent]) error {
	return status.Error(codes.Unimplemented, "method WatchFiltered not implemented")
}
func (UnimplementedDiaryServer) WatchEntry(*WatchEntryRequest, grpc.ServerStreamingServer[EntryEvent]) error {
	return status.Error(codes.Unimplemented, "method WatchEntry not implemented")
}
func (UnimplementedDiaryServer) mustEmbedUnimplementedDiaryServer() {}

func RegisterDiaryServer(s grpc.ServiceRegistrar, srv DiaryServer) {
	s.RegisterService(&Diary_ServiceDesc, srv)
}

// unary builds a method handler that decodes Req and dispatches to call.
func unary[Req any](fullMethod string, call func(DiaryServer, context.Context, *Req) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DiaryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DiaryServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func serverStream[Req, Res any](call func(DiaryServer, *Req, grpc.ServerStreamingServer[Res]) error) grpc.StreamHandler {
	return func(srv any, stream grpc.ServerStream) error {
		in := new(Req)
		if err := stream.RecvMsg(in); err != nil {
			return err
		}
		return call(srv.(DiaryServer), in, &grpc.GenericServerStream[Req, Res]{ServerStream: stream})
	}
}

var Diary_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DiaryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(Diary_Register_FullMethodName, func(s DiaryServer, ctx context.Context, in *RegisterRequest) (any, error) {
			return s.Register(ctx, in)
		})},
		{MethodName: "Login", Handler: unary(Diary_Login_FullMethodName, func(s DiaryServer, ctx context.Context, in *LoginRequest) (any, error) {
			return s.Login(ctx, in)
		})},
		{MethodName: "Ping", Handler: unary(Diary_Ping_FullMethodName, func(s DiaryServer, ctx context.Context, in *PingRequest) (any, error) {
			return s.Ping(ctx, in)
		})},
		{MethodName: "Insert", Handler: unary(Diary_Insert_FullMethodName, func(s DiaryServer, ctx context.Context, in *EntryRequest) (any, error) {
			return s.Insert(ctx, in)
		})},
		{MethodName: "Update", Handler: unary(Diary_Update_FullMethodName, func(s DiaryServer, ctx context.Context, in *EntryRequest) (any, error) {
			return s.Update(ctx, in)
		})},
		{MethodName: "Delete", Handler: unary(Diary_Delete_FullMethodName, func(s DiaryServer, ctx context.Context, in *DeleteRequest) (any, error) {
			return s.Delete(ctx, in)
		})},
		{MethodName: "DeleteAll", Handler: unary(Diary_DeleteAll_FullMethodName, func(s DiaryServer, ctx context.Context, in *DeleteAllRequest) (any, error) {
			return s.DeleteAll(ctx, in)
		})},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchAll", ServerStreams: true, Handler: serverStream(func(s DiaryServer, in *WatchAllRequest, st grpc.ServerStreamingServer[DiariesEvent]) error {
			return s.WatchAll(in, st)
		})},
		{StreamName: "WatchFiltered", ServerStreams: true, Handler: serverStream(func(s DiaryServer, in *WatchFilteredRequest, st grpc.ServerStreamingServer[DiariesEvent]) error {
			return s.WatchFiltered(in, st)
		})},
		{StreamName: "WatchEntry", ServerStreams: true, Handler: serverStream(func(s DiaryServer, in *WatchEntryRequest, st grpc.ServerStreamingServer[EntryEvent]) error {
			return s.WatchEntry(in, st)
		})},
	},
	Metadata: "diary.v1",
}
