package infra

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltKV_PutGetDelete(t *testing.T) {
	kv, err := OpenBoltKV(filepath.Join(t.TempDir(), "store.db"), "")
	require.NoError(t, err)
	defer kv.Close()
	ctx := context.Background()

	_, err = kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKVNotFound)

	require.NoError(t, kv.Put(ctx, "k", []byte("value"), 0))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	require.NoError(t, kv.Delete(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKVNotFound)
}

func TestBoltKV_Expiry(t *testing.T) {
	kv, err := OpenBoltKV(filepath.Join(t.TempDir(), "store.db"), "cache")
	require.NoError(t, err)
	defer kv.Close()
	ctx := context.Background()

	clock := newFakeClock()
	kv.now = clock.Now

	require.NoError(t, kv.Put(ctx, "short", []byte("x"), time.Minute))
	require.NoError(t, kv.Put(ctx, "forever", []byte("y"), 0))

	clock.Advance(2 * time.Minute)
	_, err = kv.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrKVExpired)

	got, err := kv.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("y"), got)
}

func TestBoltKV_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	kv, err := OpenBoltKV(path, "boundaries")
	require.NoError(t, err)
	require.NoError(t, kv.Put(context.Background(), lastKnownGoodKey, []byte(geoFixture), 0))
	require.NoError(t, kv.Close())

	kv, err = OpenBoltKV(path, "boundaries")
	require.NoError(t, err)
	defer kv.Close()

	c := NewNaturalEarthClient(NaturalEarthOptions{URL: "http://127.0.0.1:1/unreachable", Timeout: 100 * time.Millisecond, Store: kv})
	fc, err := c.lastKnownGood(context.Background())
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)
}
