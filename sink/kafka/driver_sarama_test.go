package kafka

import (
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	pb "bytepipe/api/proto/v1"
	"bytepipe/internal/spec"
)

func TestDriver_PushSendsToTopic(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(m *sarama.ProducerMessage) error {
		if m.Topic != "out" {
			return errors.New("wrong topic " + m.Topic)
		}
		v, _ := m.Value.Encode()
		k, _ := m.Key.Encode()
		if string(v) != "foo" || string(k) != "session-1" {
			return errors.New("unexpected key/value")
		}
		return nil
	})

	d := NewWithProducer(mp)
	if err := d.Configure(spec.KafkaSink{Topic: "out"}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := d.Push(&pb.Frame{Key: []byte("session-1"), Value: []byte("foo")}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := d.Push(&pb.Frame{Value: []byte("late")}); err == nil {
		t.Fatal("expected push after close to fail")
	}
}

func TestDriver_PushPropagatesSendError(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	d := NewWithProducer(mp)
	if err := d.Configure(spec.KafkaSink{Topic: "out"}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	err := d.Push(&pb.Frame{Value: []byte("foo")})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("want ErrOutOfBrokers, got %v", err)
	}
	_ = d.Close()
}

func TestDriver_ConfigureValidates(t *testing.T) {
	d := NewWithProducer(mocks.NewSyncProducer(t, nil))
	if err := d.Configure(spec.KafkaSink{}); err == nil {
		t.Fatal("expected missing topic error")
	}
	if err := d.Configure("nope"); err == nil {
		t.Fatal("expected config type error")
	}
	_ = d.Close()
}
