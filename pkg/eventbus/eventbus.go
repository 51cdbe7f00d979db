// Package eventbus publishes domain events over redis pub/sub. Publishing is
// best effort: a nil Bus drops events and callers only log publish failures.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/propgraph/propgraph/pkg/config"
)

type Event struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

const (
	TypeImportCompleted  = "import.completed"
	TypeCascadeDeleted   = "cascade.deleted"
	TypeCustomerLinked   = "customer.linked"
	TypeCustomerUnlinked = "customer.unlinked"
)

const (
	ChannelImport     = "propgraph:events:import"
	ChannelCascade    = "propgraph:events:cascade"
	ChannelAssignment = "propgraph:events:assignment"
)

type ImportEvent struct {
	Collection string `json:"collection"`
	UserID     string `json:"user_id"`
	Total      int    `json:"total"`
	Inserted   int    `json:"inserted"`
	Invalid    int    `json:"invalid"`
	Duplicate  int    `json:"duplicate"`
	Failed     int    `json:"failed"`
}

type CascadeEvent struct {
	Root    string `json:"root"`
	ID      string `json:"id"`
	Removed int64  `json:"removed"`
}

type AssignmentEvent struct {
	EntityID   string `json:"entity_id"`
	EntityKind string `json:"entity_kind"`
	CustomerID string `json:"customer_id"`
}

type Bus struct {
	client redis.UniversalClient
}

func NewBus(client redis.UniversalClient) *Bus {
	return &Bus{client: client}
}

// Connect dials the configured redis deployment and returns a Bus publishing
// on it. Cluster mode spreads over every address; otherwise the first one is
// used.
func Connect(ctx context.Context, cfg *config.RedisConfig) (*Bus, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("eventbus: no redis addresses configured")
	}

	opts := &redis.UniversalOptions{
		Addrs:    cfg.Addresses,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
	var client redis.UniversalClient
	if cfg.ClusterMode {
		client = redis.NewClusterClient(opts.Cluster())
	} else {
		client = redis.NewClient(opts.Simple())
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("eventbus: ping redis: %w", err)
	}
	return &Bus{client: client}, nil
}

func (b *Bus) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}

func NewEvent(eventType string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}, nil
}

func (b *Bus) Publish(ctx context.Context, channel string, event Event) error {
	if b == nil || b.client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel, payload).Err()
}

// Emit wraps payload in an Event of the given type and publishes it.
func (b *Bus) Emit(ctx context.Context, channel, eventType string, payload interface{}) error {
	if b == nil || b.client == nil {
		return nil
	}
	event, err := NewEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(ctx, channel, event)
}
