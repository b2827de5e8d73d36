package kafka

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	pb "bytepipe/api/proto/v1"

	"github.com/IBM/sarama"
)

type fakeSession struct {
	ctx    context.Context
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32               { return nil }
func (s *fakeSession) MemberID() string                         { return "m" }
func (s *fakeSession) GenerationID() int32                      { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) Commit()                                  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Context() context.Context                 { return s.ctx }
func (s *fakeSession) MarkMessage(m *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, m.Offset)
}

type fakeClaim struct {
	msgs chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string                            { return "t" }
func (c *fakeClaim) Partition() int32                         { return 0 }
func (c *fakeClaim) InitialOffset() int64                     { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64               { return 0 }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func claimOf(values ...string) *fakeClaim {
	c := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, len(values))}
	for i, v := range values {
		c.msgs <- &sarama.ConsumerMessage{
			Topic: "t", Offset: int64(i), Value: []byte(v), Timestamp: time.Unix(int64(i), 0),
			Headers: []*sarama.RecordHeader{{Key: []byte("k"), Value: []byte(v)}},
		}
	}
	close(c.msgs)
	return c
}

func TestGroupHandler_EmitsInOrderAndMarks(t *testing.T) {
	var got []string
	h := &groupHandler{emit: func(f *pb.Frame) error {
		got = append(got, string(f.Value))
		if string(f.Headers["k"]) != string(f.Value) {
			t.Fatalf("headers not carried: %v", f.Headers)
		}
		return nil
	}}
	sess := &fakeSession{ctx: context.Background()}

	if err := h.ConsumeClaim(sess, claimOf("Zm9v", "YmFy")); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}
	if len(got) != 2 || got[0] != "Zm9v" || got[1] != "YmFy" {
		t.Fatalf("unexpected frames: %q", got)
	}
	if len(sess.marked) != 2 {
		t.Fatalf("want 2 marked offsets, got %v", sess.marked)
	}
}

func TestGroupHandler_EmitErrorStopsWithoutMarking(t *testing.T) {
	boom := errors.New("boom")
	h := &groupHandler{emit: func(f *pb.Frame) error {
		if string(f.Value) == "bad" {
			return boom
		}
		return nil
	}}
	sess := &fakeSession{ctx: context.Background()}

	err := h.ConsumeClaim(sess, claimOf("ok", "bad", "never"))
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if len(sess.marked) != 1 || sess.marked[0] != 0 {
		t.Fatalf("only the first record may be marked, got %v", sess.marked)
	}
}

func TestGroupHandler_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := &groupHandler{emit: func(*pb.Frame) error { return nil }}
	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage)}

	if err := h.ConsumeClaim(&fakeSession{ctx: ctx}, claim); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

// fakeGroup hands the handler one claim per Consume call and, like sarama,
// returns nil when a claim fails.
type fakeGroup struct {
	claims []*fakeClaim
	calls  int
	errs   chan error
}

func (g *fakeGroup) Consume(ctx context.Context, _ []string, h sarama.ConsumerGroupHandler) error {
	if g.calls == len(g.claims) {
		return sarama.ErrClosedConsumerGroup
	}
	claim := g.claims[g.calls]
	g.calls++
	_ = h.ConsumeClaim(&fakeSession{ctx: ctx}, claim)
	return nil
}

func (g *fakeGroup) Errors() <-chan error      { return g.errs }
func (g *fakeGroup) Close() error              { close(g.errs); return nil }
func (g *fakeGroup) Pause(map[string][]int32)  {}
func (g *fakeGroup) Resume(map[string][]int32) {}
func (g *fakeGroup) PauseAll()                 {}
func (g *fakeGroup) ResumeAll()                {}

func TestSaramaDriver_RunReturnsEmitError(t *testing.T) {
	boom := errors.New("boom")
	g := &fakeGroup{
		claims: []*fakeClaim{claimOf("ok", "bad"), claimOf("bad"), claimOf("bad")},
		errs:   make(chan error),
	}
	d := &SaramaDriver{group: g}
	defer d.Close()

	var seen []string
	err := d.Run(context.Background(), func(f *pb.Frame) error {
		seen = append(seen, string(f.Value))
		if string(f.Value) == "bad" {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if g.calls != 1 {
		t.Fatalf("want a single session, got %d", g.calls)
	}
	if len(seen) != 2 {
		t.Fatalf("unexpected emits %q", seen)
	}
}

func TestSaramaDriver_RunStopsWhenGroupCloses(t *testing.T) {
	g := &fakeGroup{claims: []*fakeClaim{claimOf("a"), claimOf("b")}, errs: make(chan error)}
	d := &SaramaDriver{group: g}
	defer d.Close()

	var seen []string
	err := d.Run(context.Background(), func(f *pb.Frame) error {
		seen = append(seen, string(f.Value))
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("unexpected emits %q", seen)
	}
}

func TestLoadConfig_FileEnvAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kafka.yml")
	body := []byte("schema_version: v1\nbrokers: [a:9092]\ntopics: [in]\nstart_from: oldest\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BYTEPIPE_KAFKA__GROUP_ID", "g1")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Brokers) != 1 || cfg.Brokers[0] != "a:9092" || cfg.StartFrom != "oldest" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.GroupID != "g1" {
		t.Fatalf("env override not applied: %q", cfg.GroupID)
	}
	if cfg.CommitInt != 5*time.Second || cfg.Version == "" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}

	sc, err := saramaConfig(cfg)
	if err != nil {
		t.Fatalf("saramaConfig: %v", err)
	}
	if sc.Consumer.Offsets.Initial != sarama.OffsetOldest {
		t.Fatalf("start_from not mapped: %d", sc.Consumer.Offsets.Initial)
	}
}

func TestLoadConfig_RejectsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kafka.yml")
	if err := os.WriteFile(path, []byte("schema_version: v3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected schema error")
	}
}

func TestNewAdapter(t *testing.T) {
	a, err := NewAdapter("sarama")
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	if _, ok := a.(*SaramaDriver); !ok {
		t.Fatalf("want *SaramaDriver, got %T", a)
	}
	if _, err := NewAdapter("kgo"); err == nil {
		t.Fatal("expected unknown driver error")
	}
}
