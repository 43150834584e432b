package runnerv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	DbRunnerService_RunQuery_FullMethodName             = "/dbrunner.v1.DbRunnerService/RunQuery"
	DbRunnerService_RetrieveQuery_FullMethodName        = "/dbrunner.v1.DbRunnerService/RetrieveQuery"
	DbRunnerService_AreQueriesOutputSame_FullMethodName = "/dbrunner.v1.DbRunnerService/AreQueriesOutputSame"
)

type DbRunnerServiceClient interface {
	RunQuery(ctx context.Context, in *RunQueryRequest, opts ...grpc.CallOption) (*RunQueryResponse, error)
	RetrieveQuery(ctx context.Context, in *RetrieveQueryRequest, opts ...grpc.CallOption) (DbRunnerService_RetrieveQueryClient, error)
	AreQueriesOutputSame(ctx context.Context, in *AreQueriesOutputSameRequest, opts ...grpc.CallOption) (*AreQueriesOutputSameResponse, error)
}

type dbRunnerServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewDbRunnerServiceClient(cc grpc.ClientConnInterface) DbRunnerServiceClient {
	return &dbRunnerServiceClient{cc: cc}
}

func (c *dbRunnerServiceClient) RunQuery(ctx context.Context, in *RunQueryRequest, opts ...grpc.CallOption) (*RunQueryResponse, error) {
	out := new(RunQueryResponse)
	if err := c.cc.Invoke(ctx, DbRunnerService_RunQuery_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dbRunnerServiceClient) RetrieveQuery(ctx context.Context, in *RetrieveQueryRequest, opts ...grpc.CallOption) (DbRunnerService_RetrieveQueryClient, error) {
	stream, err := c.cc.NewStream(ctx, &DbRunnerService_ServiceDesc.Streams[0], DbRunnerService_RetrieveQuery_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &dbRunnerServiceRetrieveQueryClient{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type DbRunnerService_RetrieveQueryClient interface {
	Recv() (*RetrieveQueryResponse, error)
	grpc.ClientStream
}

type dbRunnerServiceRetrieveQueryClient struct {
	grpc.ClientStream
}

func (x *dbRunnerServiceRetrieveQueryClient) Recv() (*RetrieveQueryResponse, error) {
	m := new(RetrieveQueryResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *dbRunnerServiceClient) AreQueriesOutputSame(ctx context.Context, in *AreQueriesOutputSameRequest, opts ...grpc.CallOption) (*AreQueriesOutputSameResponse, error) {
	out := new(AreQueriesOutputSameResponse)
	if err := c.cc.Invoke(ctx, DbRunnerService_AreQueriesOutputSame_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type DbRunnerServiceServer interface {
	RunQuery(context.Context, *RunQueryRequest) (*RunQueryResponse, error)
	RetrieveQuery(*RetrieveQueryRequest, DbRunnerService_RetrieveQueryServer) error
	AreQueriesOutputSame(context.Context, *AreQueriesOutputSameRequest) (*AreQueriesOutputSameResponse, error)
	mustEmbedUnimplementedDbRunnerServiceServer()
}

type UnimplementedDbRunnerServiceServer struct{}

func (UnimplementedDbRunnerServiceServer) RunQuery(context.Context, *RunQueryRequest) (*RunQueryResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RunQuery not implemented")
}
func (UnimplementedDbRunnerServiceServer) RetrieveQuery(*RetrieveQueryRequest, DbRunnerService_RetrieveQueryServer) error {
	return status.Errorf(codes.Unimplemented, "method RetrieveQuery not implemented")
}
func (UnimplementedDbRunnerServiceServer) AreQueriesOutputSame(context.Context, *AreQueriesOutputSameRequest) (*AreQueriesOutputSameResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AreQueriesOutputSame not implemented")
}
func (UnimplementedDbRunnerServiceServer) mustEmbedUnimplementedDbRunnerServiceServer() {}

func RegisterDbRunnerServiceServer(s grpc.ServiceRegistrar, srv DbRunnerServiceServer) {
	s.RegisterService(&DbRunnerService_ServiceDesc, srv)
}

func _DbRunnerService_RunQuery_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RunQueryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DbRunnerServiceServer).RunQuery(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DbRunnerService_RunQuery_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DbRunnerServiceServer).RunQuery(ctx, req.(*RunQueryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _DbRunnerService_RetrieveQuery_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(RetrieveQueryRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(DbRunnerServiceServer).RetrieveQuery(m, &dbRunnerServiceRetrieveQueryServer{ServerStream: stream})
}

type DbRunnerService_RetrieveQueryServer interface {
	Send(*RetrieveQueryResponse) error
	grpc.ServerStream
}

type dbRunnerServiceRetrieveQueryServer struct {
	grpc.ServerStream
}

func (x *dbRunnerServiceRetrieveQueryServer) Send(m *RetrieveQueryResponse) error {
	return x.ServerStream.SendMsg(m)
}

func _DbRunnerService_AreQueriesOutputSame_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AreQueriesOutputSameRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DbRunnerServiceServer).AreQueriesOutputSame(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DbRunnerService_AreQueriesOutputSame_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DbRunnerServiceServer).AreQueriesOutputSame(ctx, req.(*AreQueriesOutputSameRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var DbRunnerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "dbrunner.v1.DbRunnerService",
	HandlerType: (*DbRunnerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RunQuery", Handler: _DbRunnerService_RunQuery_Handler},
		{MethodName: "AreQueriesOutputSame", Handler: _DbRunnerService_AreQueriesOutputSame_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "RetrieveQuery",
			Handler:       _DbRunnerService_RetrieveQuery_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "proto/dbrunner.proto",
}
