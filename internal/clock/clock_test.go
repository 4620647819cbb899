package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFake_AdvanceFiresInDeadlineOrder(t *testing.T) {
	f := NewFake(epoch)
	var got []string

	f.AfterFunc(3*time.Second, func() { got = append(got, "c") })
	f.AfterFunc(1*time.Second, func() { got = append(got, "a") })
	f.AfterFunc(1*time.Second, func() { got = append(got, "b") })

	f.Advance(999 * time.Millisecond)
	assert.Empty(t, got)

	f.Advance(time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, f.Pending())

	f.Advance(5 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, epoch.Add(6*time.Second), f.Now())
}

func TestFake_ChainedCallbacks(t *testing.T) {
	f := NewFake(epoch)
	var firedAt []time.Time

	f.AfterFunc(1500*time.Millisecond, func() {
		firedAt = append(firedAt, f.Now())
		f.AfterFunc(3*time.Second, func() {
			firedAt = append(firedAt, f.Now())
		})
	})

	f.Advance(10 * time.Second)
	require.Len(t, firedAt, 2)
	assert.Equal(t, epoch.Add(1500*time.Millisecond), firedAt[0])
	assert.Equal(t, epoch.Add(4500*time.Millisecond), firedAt[1])
}

func TestFake_Stop(t *testing.T) {
	f := NewFake(epoch)
	fired := false
	tm := f.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())

	f.Advance(time.Minute)
	assert.False(t, fired)
	assert.Zero(t, f.Pending())
}

func TestReal_AfterFunc(t *testing.T) {
	done := make(chan struct{})
	New().AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
}
