package redisstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestConnect(t *testing.T) {
	_, err := Connect(context.Background(), "://bad")
	assert.Error(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()
	_, err = Connect(context.Background(), "redis://"+addr)
	assert.Error(t, err)
}

func TestBlacklist(t *testing.T) {
	mr, rdb := newTestRedis(t)
	bl := NewBlacklist(rdb)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "tok", time.Minute))
	revoked, err = bl.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists("blacklist:tok"))

	mr.FastForward(2 * time.Minute)
	revoked, err = bl.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestBlacklistSkipsExpiredToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	require.NoError(t, NewBlacklist(rdb).Revoke(context.Background(), "old", 0))
	assert.False(t, mr.Exists("blacklist:old"))
}

type recordingFanout struct {
	mu  sync.Mutex
	got map[string][]string
	ch  chan struct{}
}

func newRecordingFanout() *recordingFanout {
	return &recordingFanout{got: make(map[string][]string), ch: make(chan struct{}, 16)}
}

func (f *recordingFanout) Publish(group string, payload []byte) int {
	f.mu.Lock()
	f.got[group] = append(f.got[group], string(payload))
	f.mu.Unlock()
	f.ch <- struct{}{}
	return 1
}

func (f *recordingFanout) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for relayed message %d", i+1)
		}
	}
}

func TestRelayFansOutAcrossNodes(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nodeA, nodeB := newRecordingFanout(), newRecordingFanout()
	relayA, relayB := NewRelay(rdb, nodeA), NewRelay(rdb, nodeB)

	subA, err := relayA.Subscribe(ctx)
	require.NoError(t, err)
	subB, err := relayB.Subscribe(ctx)
	require.NoError(t, err)

	done := make(chan error, 2)
	go func() { done <- subA.Run(ctx) }()
	go func() { done <- subB.Run(ctx) }()

	require.NoError(t, relayA.Publish(ctx, "chat_room-1", []byte(`{"content":"hi"}`)))
	require.NoError(t, relayA.Publish(ctx, "chat_room-2", []byte(`{"content":"yo"}`)))

	nodeA.wait(t, 2)
	nodeB.wait(t, 2)

	for _, node := range []*recordingFanout{nodeA, nodeB} {
		node.mu.Lock()
		assert.Equal(t, []string{`{"content":"hi"}`}, node.got["chat_room-1"])
		assert.Equal(t, []string{`{"content":"yo"}`}, node.got["chat_room-2"])
		node.mu.Unlock()
	}

	cancel()
	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("relay did not stop")
		}
	}
}
