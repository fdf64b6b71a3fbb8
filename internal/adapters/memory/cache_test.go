package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playgroup_finder/internal/adapters/memory"
	"playgroup_finder/internal/domain"
)

func TestCache_GetReturnsCopy(t *testing.T) {
	c := memory.New(time.Minute)
	ctx := context.Background()

	in := []domain.Record{{"Area": domain.String("Downtown")}}
	require.NoError(t, c.Set(ctx, "k", in, 0))
	in[0]["Area"] = domain.String("changed")

	var out []domain.Record
	ok, err := c.Get(ctx, "k", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Downtown", out[0].Str("Area"))
}

func TestCache_ExpiresAndSweeps(t *testing.T) {
	c := memory.New(10 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1, 0))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, c.Sweep())

	var n int
	ok, err := c.Get(ctx, "k", &n)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Del(t *testing.T) {
	c := memory.New(time.Minute)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1, 0))
	require.NoError(t, c.Del(ctx, "k"))

	var n int
	ok, _ := c.Get(ctx, "k", &n)
	assert.False(t, ok)
}
