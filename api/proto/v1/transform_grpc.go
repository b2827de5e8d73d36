package pb

import (
	context "context"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
	wrapperspb "google.golang.org/protobuf/types/known/wrapperspb"
)

const _ = grpc.SupportPackageIsVersion9

const (
	TransformService_Transform_FullMethodName = "/bytepipe.v1.TransformService/Transform"
)

// PipelineMetadataKey selects the pipeline a Transform call runs through.
const PipelineMetadataKey = "x-bytepipe-pipeline"

// TransformServiceClient streams input chunks to a named pipeline and
// receives its output chunks. CloseSend ends the input.
type TransformServiceClient interface {
	Transform(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[wrapperspb.BytesValue, wrapperspb.BytesValue], error)
}

type transformServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTransformServiceClient(cc grpc.ClientConnInterface) TransformServiceClient {
	return &transformServiceClient{cc}
}

func (c *transformServiceClient) Transform(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[wrapperspb.BytesValue, wrapperspb.BytesValue], error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	stream, err := c.cc.NewStream(ctx, &TransformService_ServiceDesc.Streams[0], TransformService_Transform_FullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[wrapperspb.BytesValue, wrapperspb.BytesValue]{ClientStream: stream}
	return x, nil
}

type TransformService_TransformClient = grpc.BidiStreamingClient[wrapperspb.BytesValue, wrapperspb.BytesValue]

type TransformServiceServer interface {
	Transform(grpc.BidiStreamingServer[wrapperspb.BytesValue, wrapperspb.BytesValue]) error
	mustEmbedUnimplementedTransformServiceServer()
}

type UnimplementedTransformServiceServer struct{}

func (UnimplementedTransformServiceServer) Transform(grpc.BidiStreamingServer[wrapperspb.BytesValue, wrapperspb.BytesValue]) error {
	return status.Errorf(codes.Unimplemented, "method Transform not implemented")
}
func (UnimplementedTransformServiceServer) mustEmbedUnimplementedTransformServiceServer() {}
func (UnimplementedTransformServiceServer) testEmbeddedByValue()                          {}

type UnsafeTransformServiceServer interface {
	mustEmbedUnimplementedTransformServiceServer()
}

func RegisterTransformServiceServer(s grpc.ServiceRegistrar, srv TransformServiceServer) {

	if t, ok := srv.(interface{ testEmbeddedByValue() }); ok {
		t.testEmbeddedByValue()
	}
	s.RegisterService(&TransformService_ServiceDesc, srv)
}

func _TransformService_Transform_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(TransformServiceServer).Transform(&grpc.GenericServerStream[wrapperspb.BytesValue, wrapperspb.BytesValue]{ServerStream: stream})
}

type TransformService_TransformServer = grpc.BidiStreamingServer[wrapperspb.BytesValue, wrapperspb.BytesValue]

var TransformService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "bytepipe.v1.TransformService",
	HandlerType: (*TransformServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Transform",
			Handler:       _TransformService_Transform_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "v1/transform.proto",
}
