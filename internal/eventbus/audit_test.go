package eventbus

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAuditLog(t *testing.T) {
	out := &syncBuffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(out, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	b := New()
	audit := NewAuditLog(b)
	b.PublishNew(EventAdminChanged, "admins", "01HZX00000000000000000000A")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- audit.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "event_type=admin_changed")
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
