// Package monitorv1 holds the gRPC surface of the pulsewatch relay. The
// service is described in monitor.proto and only uses well-known types, so
// the registration below is maintained by hand instead of generated.
package monitorv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName                     = "pulsewatch.v1.Monitor"
	Monitor_GetState_FullMethodName = "/pulsewatch.v1.Monitor/GetState"
)

// MonitorClient is the client API for the Monitor service.
type MonitorClient interface {
	GetState(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type monitorClient struct {
	cc grpc.ClientConnInterface
}

func NewMonitorClient(cc grpc.ClientConnInterface) MonitorClient {
	return &monitorClient{cc}
}

func (c *monitorClient) GetState(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Monitor_GetState_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// MonitorServer is the server API for the Monitor service. Implementations
// must embed UnimplementedMonitorServer.
type MonitorServer interface {
	GetState(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	mustEmbedUnimplementedMonitorServer()
}

// UnimplementedMonitorServer answers codes.Unimplemented for every method.
type UnimplementedMonitorServer struct{}

func (UnimplementedMonitorServer) GetState(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetState not implemented")
}
func (UnimplementedMonitorServer) mustEmbedUnimplementedMonitorServer() {}

func RegisterMonitorServer(s grpc.ServiceRegistrar, srv MonitorServer) {
	s.RegisterService(&Monitor_ServiceDesc, srv)
}

func _Monitor_GetState_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MonitorServer).GetState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Monitor_GetState_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).GetState(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Monitor_ServiceDesc is the grpc.ServiceDesc for the Monitor service.
var Monitor_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MonitorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetState",
			Handler:    _Monitor_GetState_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pkg/api/monitorv1/monitor.proto",
}
