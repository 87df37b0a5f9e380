package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRedeliversNacked(t *testing.T) {
	m := NewMemory(4)
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := m.Publish(ctx, "jobs", []byte("payload"), map[string]string{"k": "v"})
	require.NoError(t, err)

	attempts := 0
	err = m.Subscribe(ctx, "jobs", func(ctx context.Context, msg Message) error {
		attempts++
		assert.Equal(t, "payload", string(msg.Data))
		assert.Equal(t, "v", msg.Attributes["k"])
		if attempts == 1 {
			return errors.New("retry")
		}
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestMemoryClosed(t *testing.T) {
	m := NewMemory(1)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.Publish(context.Background(), "jobs", nil, nil)
	assert.ErrorIs(t, err, ErrClosed)
}
