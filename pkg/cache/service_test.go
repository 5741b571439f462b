package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tourCard struct {
	ID    string `json:"id"`
	Price int64  `json:"price"`
}

func TestNilClientIsNoop(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	var dest tourCard
	assert.ErrorIs(t, svc.Get(ctx, "k", &dest), ErrCacheMiss)
	assert.NoError(t, svc.Set(ctx, "k", tourCard{}, 0))
	assert.NoError(t, svc.Delete(ctx, "k"))
	assert.NoError(t, svc.DeletePattern(ctx, "k*"))
	assert.NoError(t, svc.Ping(ctx))
}

func TestNoopGetOrSetAlwaysFetches(t *testing.T) {
	svc := NewService(nil)
	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return tourCard{ID: "t1", Price: 300000}, nil
	}

	for i := 0; i < 2; i++ {
		var dest tourCard
		require.NoError(t, svc.GetOrSet(context.Background(), "k", 0, fetch, &dest))
		assert.Equal(t, tourCard{ID: "t1", Price: 300000}, dest)
	}
	assert.Equal(t, 2, calls)
}

func TestNoopGetOrSetPropagatesFetcherError(t *testing.T) {
	boom := errors.New("boom")
	var dest tourCard
	err := NewService(nil).GetOrSet(context.Background(), "k", 0, func() (interface{}, error) {
		return nil, boom
	}, &dest)
	assert.ErrorIs(t, err, boom)
}
