package message

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/logger"
	"github.com/yanizio/contactform/internal/requestinfo"
)

func TestLogRecorder_LogsPayload(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := NewLogRecorder("contact", zap.New(core).Sugar(), 0)

	p := form.Payload{"email": "ana@example.com"}
	require.NoError(t, r.Record(context.Background(), p))

	entries := logs.FilterMessage("form submitted").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "contact", entries[0].ContextMap()["form"])

	got := r.Recent(0)
	require.Len(t, got, 1)
	assert.Equal(t, p, got[0].Payload)
	assert.Equal(t, "contact", got[0].FormID)
}

func TestLogRecorder_ContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core).Sugar())

	r := NewLogRecorder("contact", nil, 0)
	require.NoError(t, r.Record(ctx, form.Payload{}))
	assert.Equal(t, 1, logs.Len())
}

func TestLogRecorder_BoundedHistory(t *testing.T) {
	r := NewLogRecorder("contact", zap.NewNop().Sugar(), 3)
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Record(context.Background(), form.Payload{"n": fmt.Sprint(i)}))
	}

	got := r.Recent(10)
	require.Len(t, got, 3)
	assert.Equal(t, "2", got[0].Payload["n"])
	assert.Equal(t, "4", got[2].Payload["n"])

	last := r.Recent(1)
	require.Len(t, last, 1)
	assert.Equal(t, "4", last[0].Payload["n"])
}

func TestLogRecorder_AttachesClientInfo(t *testing.T) {
	r := NewLogRecorder("contact", zap.NewNop().Sugar(), 0)
	info := &requestinfo.Info{IP: "203.0.113.7", Browser: "Firefox"}
	ctx := requestinfo.WithInfo(context.Background(), info)

	require.NoError(t, r.Record(ctx, form.Payload{}))
	got := r.Recent(1)
	require.Len(t, got, 1)
	assert.Same(t, info, got[0].Client)
}
