package eventbus

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	b := New()
	id1, ch1 := b.Subscribe(1)
	_, ch2 := b.Subscribe(1)

	b.PublishNew(EventResourceChanged, "products", "/products/42")

	for _, ch := range []<-chan *Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, EventResourceChanged, ev.Type)
			assert.Equal(t, "products", ev.Resource)
			assert.Equal(t, "/products/42", ev.Path)
			assert.NotEmpty(t, ev.ID)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}

	b.Unsubscribe(id1)
	_, ok := <-ch1
	assert.False(t, ok, "channel closed on unsubscribe")
}

func TestBus_FullBufferDrops(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	b := New()
	_, ch := b.Subscribe(1)

	b.PublishNew(EventResourceChanged, "orders", "/orders")
	b.PublishNew(EventResourceChanged, "products", "/products")

	ev := <-ch
	require.NotNil(t, ev)
	assert.Equal(t, "orders", ev.Resource)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected second event %v", ev)
	default:
	}
	assert.Contains(t, logs.String(), `"msg":"event dropped, subscriber buffer full"`)
	assert.Contains(t, logs.String(), `"resource":"products"`)
	assert.NotContains(t, logs.String(), `"resource":"orders"`)
}
