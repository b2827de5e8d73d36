package transport

import (
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	pb "bytepipe/api/proto/v1"
	"bytepipe/internal/logging"
	"bytepipe/internal/pipeline"
	"bytepipe/internal/telemetry"
	"bytepipe/stream"
	"bytepipe/transform"
)

// Service runs every Transform call through its own stream of the pipeline
// named in the call metadata. Output chunks are sent as they are emitted;
// the client's CloseSend ends the stream.
type Service struct {
	pb.UnimplementedTransformServiceServer

	catalog *pipeline.Catalog
	metrics *telemetry.Metrics
	log     zerolog.Logger
}

// NewService serves the pipelines of c. m may be nil.
func NewService(c *pipeline.Catalog, m *telemetry.Metrics) *Service {
	return &Service{catalog: c, metrics: m, log: logging.Component("transport")}
}

func (svc *Service) Transform(call pb.TransformService_TransformServer) error {
	md, _ := metadata.FromIncomingContext(call.Context())
	names := md.Get(pb.PipelineMetadataKey)
	if len(names) != 1 {
		return status.Errorf(codes.InvalidArgument, "exactly one %s metadata value required", pb.PipelineMetadataKey)
	}
	name := names[0]

	session := uuid.NewString()
	log := svc.log.With().Str("pipeline", name).Str("session", session).Logger()
	s, err := svc.catalog.NewStream(name, stream.WithLogger(log))
	if err != nil {
		return toStatus(err)
	}
	if svc.metrics != nil {
		svc.metrics.Observe(s, name)
	}

	var sendErr error
	s.OnData(func(p []byte) {
		if len(p) == 0 || sendErr != nil {
			return
		}
		sendErr = call.Send(wrapperspb.Bytes(p))
	})
	log.Debug().Msg("session opened")

	for {
		msg, err := call.Recv()
		if errors.Is(err, io.EOF) {
			if err := s.End(nil); err != nil {
				return toStatus(err)
			}
			log.Debug().Int64("consumed", s.Consumed()).Msg("session finished")
			return sendErr
		}
		if err != nil {
			_ = s.Close()
			return err
		}
		if _, err := s.Write(msg.GetValue()); err != nil {
			return toStatus(err)
		}
		if sendErr != nil {
			_ = s.Close()
			return sendErr
		}
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, pipeline.ErrUnknownPipeline):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, transform.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, transform.ErrStreamClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
