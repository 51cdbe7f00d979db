package eventbus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propgraph/propgraph/pkg/config"
)

func TestNewEvent(t *testing.T) {
	event, err := NewEvent(TypeImportCompleted, ImportEvent{Collection: "masterDevelopment", Total: 3, Inserted: 1})
	require.NoError(t, err)
	assert.Equal(t, TypeImportCompleted, event.Type)
	assert.NotZero(t, event.Timestamp)

	var payload ImportEvent
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	assert.Equal(t, 3, payload.Total)
	assert.Equal(t, 1, payload.Inserted)
}

func TestNilBusDropsEvents(t *testing.T) {
	var bus *Bus
	assert.NoError(t, bus.Emit(context.Background(), ChannelCascade, TypeCascadeDeleted, CascadeEvent{Root: "project"}))
	assert.NoError(t, NewBus(nil).Publish(context.Background(), ChannelCascade, Event{Type: TypeCascadeDeleted}))
}

func TestConnect(t *testing.T) {
	t.Run("no addresses", func(t *testing.T) {
		bus, err := Connect(context.Background(), &config.RedisConfig{})
		assert.Error(t, err)
		assert.Nil(t, bus)
	})

	t.Run("unreachable server", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		bus, err := Connect(ctx, &config.RedisConfig{Addresses: []string{"127.0.0.1:1"}})
		assert.ErrorContains(t, err, "ping redis")
		assert.Nil(t, bus)
	})

	t.Run("nil bus closes cleanly", func(t *testing.T) {
		var bus *Bus
		assert.NoError(t, bus.Close())
	})
}
