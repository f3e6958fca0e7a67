package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBucketUnlimitedWhenNoRate(t *testing.T) {
	b := New(0, 0)
	require.NoError(t, b.Take(context.Background(), 1_000_000))
}

func TestBucketConsumesBurstImmediately(t *testing.T) {
	b := New(10, 5)
	start := time.Now()
	require.NoError(t, b.Take(context.Background(), 5))
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestBucketRespectsContextCancellation(t *testing.T) {
	b := New(1, 1)
	require.NoError(t, b.Take(context.Background(), 1)) // drains the bucket

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := b.Take(ctx, 1)
	require.Error(t, err)
}
