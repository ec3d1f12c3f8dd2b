package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tour.v1.TourService"

// Full method names.
const (
	OptimizeMethod           = "/" + ServiceName + "/Optimize"
	SubmitOptimizationMethod = "/" + ServiceName + "/SubmitOptimization"
	GetJobStatusMethod       = "/" + ServiceName + "/GetJobStatus"
	ListJobsMethod           = "/" + ServiceName + "/ListJobs"
)

// TourServiceServer is the server API for the tour service
type TourServiceServer interface {
	Optimize(context.Context, *OptimizeRequest) (*OptimizeResponse, error)
	SubmitOptimization(context.Context, *OptimizeRequest) (*SubmitOptimizationResponse, error)
	GetJobStatus(context.Context, *GetJobStatusRequest) (*GetJobStatusResponse, error)
	ListJobs(context.Context, *ListJobsRequest) (*ListJobsResponse, error)
}

// UnimplementedTourServiceServer can be embedded for forward compatibility
type UnimplementedTourServiceServer struct{}

func (UnimplementedTourServiceServer) Optimize(context.Context, *OptimizeRequest) (*OptimizeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Optimize not implemented")
}

func (UnimplementedTourServiceServer) SubmitOptimization(context.Context, *OptimizeRequest) (*SubmitOptimizationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitOptimization not implemented")
}

func (UnimplementedTourServiceServer) GetJobStatus(context.Context, *GetJobStatusRequest) (*GetJobStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetJobStatus not implemented")
}

func (UnimplementedTourServiceServer) ListJobs(context.Context, *ListJobsRequest) (*ListJobsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListJobs not implemented")
}

// RegisterTourServiceServer registers srv on s
func RegisterTourServiceServer(s grpc.ServiceRegistrar, srv TourServiceServer) {
	s.RegisterService(&TourServiceDesc, srv)
}

// unaryHandler adapts a typed method to grpc.MethodDesc.
func unaryHandler[Req any, Resp any](method string, call func(TourServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TourServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TourServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// TourServiceDesc describes the tour service for grpc.Server
var TourServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TourServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Optimize",
			Handler:    unaryHandler(OptimizeMethod, TourServiceServer.Optimize),
		},
		{
			MethodName: "SubmitOptimization",
			Handler:    unaryHandler(SubmitOptimizationMethod, TourServiceServer.SubmitOptimization),
		},
		{
			MethodName: "GetJobStatus",
			Handler:    unaryHandler(GetJobStatusMethod, TourServiceServer.GetJobStatus),
		},
		{
			MethodName: "ListJobs",
			Handler:    unaryHandler(ListJobsMethod, TourServiceServer.ListJobs),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// TourServiceClient is the client API for the tour service
type TourServiceClient interface {
	Optimize(ctx context.Context, in *OptimizeRequest, opts ...grpc.CallOption) (*OptimizeResponse, error)
	SubmitOptimization(ctx context.Context, in *OptimizeRequest, opts ...grpc.CallOption) (*SubmitOptimizationResponse, error)
	GetJobStatus(ctx context.Context, in *GetJobStatusRequest, opts ...grpc.CallOption) (*GetJobStatusResponse, error)
	ListJobs(ctx context.Context, in *ListJobsRequest, opts ...grpc.CallOption) (*ListJobsResponse, error)
}

type tourServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewTourServiceClient returns a client that speaks the JSON codec over cc
func NewTourServiceClient(cc grpc.ClientConnInterface) TourServiceClient {
	return &tourServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tourServiceClient) Optimize(ctx context.Context, in *OptimizeRequest, opts ...grpc.CallOption) (*OptimizeResponse, error) {
	return invoke[OptimizeResponse](ctx, c.cc, OptimizeMethod, in, opts)
}

func (c *tourServiceClient) SubmitOptimization(ctx context.Context, in *OptimizeRequest, opts ...grpc.CallOption) (*SubmitOptimizationResponse, error) {
	return invoke[SubmitOptimizationResponse](ctx, c.cc, SubmitOptimizationMethod, in, opts)
}

func (c *tourServiceClient) GetJobStatus(ctx context.Context, in *GetJobStatusRequest, opts ...grpc.CallOption) (*GetJobStatusResponse, error) {
	return invoke[GetJobStatusResponse](ctx, c.cc, GetJobStatusMethod, in, opts)
}

func (c *tourServiceClient) ListJobs(ctx context.Context, in *ListJobsRequest, opts ...grpc.CallOption) (*ListJobsResponse, error) {
	return invoke[ListJobsResponse](ctx, c.cc, ListJobsMethod, in, opts)
}
