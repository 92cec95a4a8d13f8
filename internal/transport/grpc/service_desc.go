package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "tracker.v1.TrackerService"

// TrackerServiceServer is the command API. Requests and responses are
// google.protobuf.Struct documents keyed by snake_case field names.
type TrackerServiceServer interface {
	CreateTracker(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EndTracker(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Join(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Leave(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Remove(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Unban(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RenderGrid(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RunMaintenance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RunSnapshots(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(TrackerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TrackerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(TrackerServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// TrackerServiceDesc describes the command API for grpc.Server.RegisterService
var TrackerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TrackerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("CreateTracker", TrackerServiceServer.CreateTracker),
		methodDesc("EndTracker", TrackerServiceServer.EndTracker),
		methodDesc("Join", TrackerServiceServer.Join),
		methodDesc("Leave", TrackerServiceServer.Leave),
		methodDesc("Remove", TrackerServiceServer.Remove),
		methodDesc("Unban", TrackerServiceServer.Unban),
		methodDesc("CheckIn", TrackerServiceServer.CheckIn),
		methodDesc("RenderGrid", TrackerServiceServer.RenderGrid),
		methodDesc("RunMaintenance", TrackerServiceServer.RunMaintenance),
		methodDesc("RunSnapshots", TrackerServiceServer.RunSnapshots),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterTrackerServiceServer registers srv on s
func RegisterTrackerServiceServer(s grpc.ServiceRegistrar, srv TrackerServiceServer) {
	s.RegisterService(&TrackerServiceDesc, srv)
}
