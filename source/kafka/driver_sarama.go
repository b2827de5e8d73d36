package kafka

import (
	"context"
	"errors"
	"sync"

	pb "bytepipe/api/proto/v1"
	"bytepipe/internal/logging"

	"github.com/IBM/sarama"
)

type SaramaDriver struct {
	cfg   Config
	cl    sarama.Client
	group sarama.ConsumerGroup
}

func (d *SaramaDriver) Configure(config Config) error {
	d.cfg = config

	sc, err := saramaConfig(config)
	if err != nil {
		return err
	}
	if d.cl, err = sarama.NewClient(config.Brokers, sc); err != nil {
		return err
	}
	d.group, err = sarama.NewConsumerGroupFromClient(config.GroupID, d.cl)
	return err
}

func saramaConfig(config Config) (*sarama.Config, error) {
	ver, err := sarama.ParseKafkaVersion(config.Version)
	if err != nil {
		return nil, err
	}
	sc := sarama.NewConfig()
	sc.Version = ver
	sc.Consumer.Return.Errors = true
	sc.Consumer.Offsets.AutoCommit.Interval = config.CommitInt
	if config.TLSEn {
		sc.Net.TLS.Enable = true
	}
	if config.SASLUser != "" {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.User, sc.Net.SASL.Password = config.SASLUser, config.SASLPass
	}
	switch config.StartFrom {
	case "oldest":
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	default:
		sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	return sc, sc.Validate()
}

// Run consumes until ctx is cancelled, the group is closed or emit fails.
// An emit error is returned once the group session has shut down.
func (d *SaramaDriver) Run(ctx context.Context, emit EmitFunc) error {
	handler := &groupHandler{emit: emit}
	go d.logErrors()

	for {
		err := d.group.Consume(ctx, d.cfg.Topics, handler)
		if ferr := handler.failure(); ferr != nil {
			return ferr
		}
		if err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// logErrors drains the group's error channel until the group is closed.
func (d *SaramaDriver) logErrors() {
	for err := range d.group.Errors() {
		logging.L().Warn().Err(err).Msg("sarama-driver: consumer error")
	}
}

func (d *SaramaDriver) Close() error {
	if d.group != nil {
		_ = d.group.Close()
	}
	if d.cl == nil {
		return nil
	}
	return d.cl.Close()
}

type groupHandler struct {
	emit EmitFunc

	mu  sync.Mutex
	err error
}

func (*groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (*groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) fail(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err == nil {
		h.err = err
	}
}

func (h *groupHandler) failure() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// ConsumeClaim marks a record only after emit returned. The first emit error
// ends the session and is reported by Run; the failed record stays unmarked.
func (h *groupHandler) ConsumeClaim(
	sess sarama.ConsumerGroupSession,
	claim sarama.ConsumerGroupClaim,
) error {
	for {
		select {
		case <-sess.Context().Done():
			return sess.Context().Err()

		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.failure(); err != nil {
				return err
			}
			frame := &pb.Frame{Key: msg.Key, Value: msg.Value, Headers: toHeaderMap(msg.Headers), Ts: msg.Timestamp}
			if err := h.emit(frame); err != nil {
				logging.L().Warn().Err(err).
					Str("topic", msg.Topic).Int32("partition", msg.Partition).Int64("offset", msg.Offset).
					Msg("sarama-driver: emit failed")
				h.fail(err)
				return err
			}
			sess.MarkMessage(msg, "")
		}
	}
}

func toHeaderMap(src []*sarama.RecordHeader) map[string][]byte {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string][]byte, len(src))
	for _, h := range src {
		out[string(h.Key)] = h.Value
	}
	return out
}

func init() { Register("sarama", func() Adapter { return &SaramaDriver{} }) }
