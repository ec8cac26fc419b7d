package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/lsmpricer/xerrors"
)

type entry struct {
	Price float64 `json:"price"`
	Type  string  `json:"type"`
}

func TestBigCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewBigCache(ctx, time.Minute, 8)
	require.NoError(t, err)
	defer c.Close()

	var got entry
	err = c.Get(ctx, "k", &got)
	assert.True(t, errors.Is(err, xerrors.ErrCacheMiss))

	require.NoError(t, c.Set(ctx, "k", entry{Price: 4.47, Type: "put"}, 0))
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, entry{Price: 4.47, Type: "put"}, got)
	assert.Equal(t, 1, c.Len())

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "k", "absent"))
	ok, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
