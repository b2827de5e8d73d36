package kafka

import (
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"

	pb "bytepipe/api/proto/v1"
	"bytepipe/internal/spec"
	"bytepipe/sink"
)

type driver struct {
	cfg spec.KafkaSink

	mu     sync.Mutex
	p      sarama.SyncProducer
	closed bool
}

// NewWithProducer returns a kafka sink publishing through p. Configure only
// records the topic when a producer is already set.
func NewWithProducer(p sarama.SyncProducer) sink.Adapter { return &driver{p: p} }

func (d *driver) Configure(c any) error {
	cfg, ok := c.(spec.KafkaSink)
	if !ok {
		return fmt.Errorf("kafka-sink: want spec.KafkaSink, got %T", c)
	}
	if cfg.Topic == "" {
		return errors.New("kafka-sink: topic is required")
	}
	d.cfg = cfg
	if d.p != nil {
		return nil
	}

	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.RequiredAcks(cfg.Acks)
	sc.Producer.Return.Successes = true
	var err error
	d.p, err = sarama.NewSyncProducer(cfg.Brokers, sc)
	return err
}

// Push publishes one chunk. Chunks of one stream go to the same partition
// because they share the frame key.
func (d *driver) Push(f *pb.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.New("kafka-sink: closed")
	}

	msg := &sarama.ProducerMessage{
		Topic: d.cfg.Topic,
		Value: sarama.ByteEncoder(f.Value),
	}
	if len(f.Key) > 0 {
		msg.Key = sarama.ByteEncoder(f.Key)
	}
	for k, v := range f.Headers {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{Key: []byte(k), Value: v})
	}
	if _, _, err := d.p.SendMessage(msg); err != nil {
		return fmt.Errorf("kafka-sink: send: %w", err)
	}
	return nil
}

func (d *driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.p == nil {
		return nil
	}
	d.closed = true
	return d.p.Close()
}

func init() { sink.Register("kafka", func() sink.Adapter { return &driver{} }) }
