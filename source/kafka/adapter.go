package kafka

import (
	"context"

	pb "bytepipe/api/proto/v1"
)

// EmitFunc receives every consumed record in partition order. An error
// stops consumption.
type EmitFunc func(*pb.Frame) error

type Adapter interface {
	Configure(Config) error
	Run(context.Context, EmitFunc) error
	Close() error
}
