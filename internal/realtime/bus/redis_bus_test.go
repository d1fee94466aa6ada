package bus

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/knowledge-backend/internal/platform/logger"
	"github.com/yungbote/knowledge-backend/internal/realtime"
)

func TestRedisBusPublishRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis bus integration tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b, rdb, err := NewRedisBus(ctx, logger.Nop(), RedisConfig{Addr: addr, Channel: "assets-test"})
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	defer b.Close()

	sub := rdb.Subscribe(ctx, "assets-test")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	msg := realtime.SSEMessage{Channel: "user:u1", Event: realtime.SSEEventAssetDeleted, Data: map[string]any{"asset_id": "a1"}}
	if err := b.Publish(ctx, msg); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	var got *goredis.Message
	select {
	case got = <-sub.Channel():
	case <-ctx.Done():
		t.Fatalf("timed out waiting for message")
	}
	var decoded realtime.SSEMessage
	if err := json.Unmarshal([]byte(got.Payload), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Event != realtime.SSEEventAssetDeleted || decoded.Channel != "user:u1" {
		t.Fatalf("payload: got=%+v", decoded)
	}
}

func TestNewRedisBusRequiresAddr(t *testing.T) {
	if _, _, err := NewRedisBus(context.Background(), logger.Nop(), RedisConfig{}); err == nil {
		t.Fatalf("NewRedisBus: expected missing addr error")
	}
}

func TestMemoryBus(t *testing.T) {
	b := NewMemoryBus()
	_ = b.Publish(context.Background(), realtime.SSEMessage{Event: realtime.SSEEventAssetDeleted})
	if len(b.Messages()) != 1 {
		t.Fatalf("Messages: want=1 got=%d", len(b.Messages()))
	}
	b.FailWith(context.Canceled)
	if err := b.Publish(context.Background(), realtime.SSEMessage{}); err == nil {
		t.Fatalf("Publish: expected injected error")
	}
	if err := NewNoopBus().Publish(context.Background(), realtime.SSEMessage{}); err != nil {
		t.Fatalf("noop Publish: %v", err)
	}
}
