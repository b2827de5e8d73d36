package transport

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	pb "bytepipe/api/proto/v1"
)

type Server struct {
	grpc   *grpc.Server
	lis    net.Listener
	health *health.Server
}

func StartServer(port int, svc pb.TransformServiceServer) (*Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	return NewServer(lis, svc), nil
}

// NewServer registers svc and the standard health service on lis.
func NewServer(lis net.Listener, svc pb.TransformServiceServer, opts ...grpc.ServerOption) *Server {
	s := &Server{
		grpc:   grpc.NewServer(opts...),
		lis:    lis,
		health: health.NewServer(),
	}
	pb.RegisterTransformServiceServer(s.grpc, svc)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(pb.TransformService_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) Addr() net.Addr { return s.lis.Addr() }

func (s *Server) Serve() error {
	return s.grpc.Serve(s.lis)
}

// Stop drains in-flight calls and releases the listener, also when Serve was
// never called.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
	_ = s.lis.Close()
}
