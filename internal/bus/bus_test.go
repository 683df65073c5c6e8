package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sentinelpay/sentinel/internal/domain"
)

func TestChannelBusPublishSubscribe(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	received := make(chan *domain.Message, 1)

	_, err := b.Subscribe(ctx, "test.topic", func(ctx context.Context, msg *domain.Message) error {
		received <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := b.Publish(ctx, "test.topic", []byte("hello")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-received:
		if string(msg.Payload) != "hello" {
			t.Errorf("expected payload hello, got %s", msg.Payload)
		}
		if msg.Topic != "test.topic" {
			t.Errorf("expected topic test.topic, got %s", msg.Topic)
		}
		if msg.ID == "" {
			t.Error("expected message ID to be set")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestChannelBusTopicIsolation(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	var count atomic.Int64
	_, err := b.Subscribe(ctx, "topic.a", func(ctx context.Context, msg *domain.Message) error {
		count.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	_ = b.Publish(ctx, "topic.b", []byte("other"))

	time.Sleep(50 * time.Millisecond)
	if count.Load() != 0 {
		t.Errorf("expected no messages on topic.a, got %d", count.Load())
	}
}

func TestChannelBusUnsubscribe(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	var count atomic.Int64
	sub, err := b.Subscribe(ctx, "test.topic", func(ctx context.Context, msg *domain.Message) error {
		count.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if sub.Topic() != "test.topic" {
		t.Errorf("expected topic test.topic, got %s", sub.Topic())
	}

	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}

	_ = b.Publish(ctx, "test.topic", []byte("after"))

	time.Sleep(50 * time.Millisecond)
	if count.Load() != 0 {
		t.Errorf("expected no messages after unsubscribe, got %d", count.Load())
	}
}

func TestChannelBusClose(t *testing.T) {
	b := NewChannelBus(10)
	ctx := context.Background()

	if err := b.Ping(ctx); err != nil {
		t.Errorf("Ping failed before close: %v", err)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := b.Ping(ctx); err == nil {
		t.Error("expected Ping to fail after close")
	}
	if err := b.Publish(ctx, "test.topic", []byte("x")); err == nil {
		t.Error("expected Publish to fail after close")
	}
	if _, err := b.Subscribe(ctx, "test.topic", nil); err == nil {
		t.Error("expected Subscribe to fail after close")
	}
}

func TestNewFactory(t *testing.T) {
	t.Run("Channel", func(t *testing.T) {
		b, err := New(domain.EventBusConfig{Type: "channel"})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer b.Close()

		if _, ok := b.(*ChannelBus); !ok {
			t.Errorf("expected *ChannelBus, got %T", b)
		}
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		if _, err := New(domain.EventBusConfig{Type: "kafka"}); err == nil {
			t.Error("expected error for unsupported bus type")
		}
	})
}
