package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("EmptyURLDisablesRedis", func(t *testing.T) {
		client, err := New(context.Background(), "", 10)

		require.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("InvalidURL", func(t *testing.T) {
		client, err := New(context.Background(), "not-a-url://", 10)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "parse redis URL")
		assert.Nil(t, client)
	})
}
