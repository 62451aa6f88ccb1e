package mongo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/mongo"
)

func TestConnect_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := mongo.Connect(context.Background(), mongo.Config{
		ConnectionURL: "not-a-mongo-url",
		RetryAttempts: 2,
		RetryInterval: time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, mongo.ErrFailedToConnectToMongo)
}

func TestConnect_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mongo.Connect(ctx, mongo.Config{
		ConnectionURL: "not-a-mongo-url",
		RetryAttempts: 5,
		RetryInterval: time.Hour,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, mongo.ErrFailedToConnectToMongo)
	assert.ErrorIs(t, err, context.Canceled)
}
