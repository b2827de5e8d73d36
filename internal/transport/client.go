package transport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"

	pb "bytepipe/api/proto/v1"
)

// Client talks to a remote TransformService.
type Client struct {
	conn *grpc.ClientConn
	svc  pb.TransformServiceClient
}

// Dial connects to target. Without options the connection is plaintext.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, svc: pb.NewTransformServiceClient(conn)}, nil
}

// Open starts a raw session with the named pipeline.
func (c *Client) Open(ctx context.Context, pipeline string) (pb.TransformService_TransformClient, error) {
	ctx = metadata.AppendToOutgoingContext(ctx, pb.PipelineMetadataKey, pipeline)
	return c.svc.Transform(ctx)
}

// Transform sends everything read from in through the named pipeline and
// writes the output to out.
func (c *Client) Transform(ctx context.Context, pipeline string, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, err := c.Open(ctx, pipeline)
	if err != nil {
		return err
	}

	sent := make(chan error, 1)
	go func() {
		buf := make([]byte, 32<<10)
		for {
			n, rerr := in.Read(buf)
			if n > 0 {
				if err := st.Send(wrapperspb.Bytes(append([]byte(nil), buf[:n]...))); err != nil {
					// the server ended the call; Recv reports why
					sent <- nil
					return
				}
			}
			if errors.Is(rerr, io.EOF) {
				sent <- st.CloseSend()
				return
			}
			if rerr != nil {
				cancel()
				sent <- fmt.Errorf("transport: read input: %w", rerr)
				return
			}
		}
	}()

	for {
		msg, err := st.Recv()
		if errors.Is(err, io.EOF) {
			return <-sent
		}
		if err != nil {
			select {
			case serr := <-sent:
				if serr != nil {
					return serr
				}
			default:
			}
			return err
		}
		if _, err := out.Write(msg.GetValue()); err != nil {
			return err
		}
	}
}

// Health reports whether the remote TransformService is serving.
func (c *Client) Health(ctx context.Context) error {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{
		Service: pb.TransformService_ServiceDesc.ServiceName,
	})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("transport: service status %s", resp.GetStatus())
	}
	return nil
}

func (c *Client) Close() error { return c.conn.Close() }
