package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/soulhub/soulhub-backend/internal/logger"
)

// ChangeKind names a store mutation that peers must mirror into their
// local search index.
type ChangeKind string

const (
	ChangePatchUpserted ChangeKind = "patch_upserted"
	ChangePatchDeleted  ChangeKind = "patch_deleted"
	ChangeFileUpserted  ChangeKind = "file_upserted"
	ChangeFileDeleted   ChangeKind = "file_deleted"
)

type ChangeEvent struct {
	Kind     ChangeKind `json:"kind"`
	EntityID uuid.UUID  `json:"entity_id"`
	Origin   string     `json:"origin"`
	At       time.Time  `json:"at"`
}

// ChangeBus fans patch/file mutations out to every running instance so
// each keeps its own index current without a full rebuild.
type ChangeBus interface {
	Publish(ctx context.Context, evt ChangeEvent) error
	StartForwarder(ctx context.Context, onEvent func(evt ChangeEvent)) error
	Origin() string
	Close() error
}

type changeBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
	origin  string
}

func NewChangeBus(log *logger.Logger) (ChangeBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "soulhub_changes"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &changeBus{
		log:     log.With("service", "RedisChangeBus"),
		rdb:     rdb,
		channel: ch,
		origin:  uuid.NewString(),
	}, nil
}

func (b *changeBus) Origin() string { return b.origin }

func (b *changeBus) Publish(ctx context.Context, evt ChangeEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis change bus not initialized")
	}
	evt.Origin = b.origin
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	raw, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// StartForwarder subscribes and invokes onEvent for every change that
// originated on a different instance. Runs until ctx is done.
func (b *changeBus) StartForwarder(ctx context.Context, onEvent func(evt ChangeEvent)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis change bus not initialized")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %q: %w", b.channel, err)
	}
	go func() {
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var evt ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					b.log.Warn("dropping malformed change event", "error", err)
					continue
				}
				if evt.Origin == b.origin {
					continue
				}
				onEvent(evt)
			}
		}
	}()
	return nil
}

func (b *changeBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
