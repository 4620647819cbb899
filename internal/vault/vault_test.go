package vault

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseRef(t *testing.T) {
	p, k, err := ParseRef("secret/contact#csrf_secret")
	require.NoError(t, err)
	assert.Equal(t, "secret/contact", p)
	assert.Equal(t, "csrf_secret", k)

	for _, bad := range []string{"", "secret/contact", "#key", "secret/contact#"} {
		_, _, err := ParseRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestSplitMount(t *testing.T) {
	m, rel := splitMount("secret/contact/prod")
	assert.Equal(t, "secret", m)
	assert.Equal(t, "contact/prod", rel)

	m, rel = splitMount("secret")
	assert.Equal(t, "secret", m)
	assert.Empty(t, rel)
}

func TestGetKV_ServesFromCache(t *testing.T) {
	// No api client: a cache miss would panic.
	c := &Client{
		log: zap.NewNop().Sugar(),
		cache: map[string]cached{
			"secret/contact#csrf_secret": {val: "k3y", exp: time.Now().Add(time.Minute)},
		},
	}
	got, err := c.GetKV(context.Background(), "secret/contact", "csrf_secret", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "k3y", got)
}

func TestGetKV_RejectsEmptyRef(t *testing.T) {
	c := &Client{log: zap.NewNop().Sugar(), cache: map[string]cached{}}
	_, err := c.GetKV(context.Background(), "", "k", 0)
	assert.Error(t, err)
}

func TestBackoff_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	backoff(ctx, time.Hour)
	assert.Less(t, time.Since(start), time.Second)
}
