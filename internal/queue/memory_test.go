// SPDX-License-Identifier: MIT

package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueSendReceiveAck(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	require.NoError(t, q.Send(ctx, []byte(`{"type":"VALIDATE_ALL"}`)))
	require.NoError(t, q.Send(ctx, []byte(`{"type":"REPAIR_ALL"}`)))
	assert.Equal(t, 2, q.Depth())

	msgs, err := q.Receive(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, `{"type":"VALIDATE_ALL"}`, string(msgs[0].Data))
	assert.NotEmpty(t, msgs[0].ID)
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)
	assert.Equal(t, 0, q.Depth())

	for _, msg := range msgs {
		require.NoError(t, q.Ack(ctx, msg.ID))
	}
	q.Requeue()
	assert.Equal(t, 0, q.Depth(), "acked messages must not be redelivered")
}

func TestMemoryQueueReceiveHonorsMax(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Send(ctx, []byte("payload")))
	}

	msgs, err := q.Receive(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, msgs, 3)
	assert.Equal(t, 2, q.Depth())

	msgs, err = q.Receive(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMemoryQueueRequeueRedeliversUnacked(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	require.NoError(t, q.Send(ctx, []byte("one")))

	msgs, err := q.Receive(ctx, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, 0, q.Depth())

	// Consumer crashed before acking.
	q.Requeue()
	assert.Equal(t, 1, q.Depth())

	again, err := q.Receive(ctx, 1)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, "one", string(again[0].Data))
}

func TestMemoryQueueAckUnknownIDIsNoop(t *testing.T) {
	q := NewMemoryQueue()
	assert.NoError(t, q.Ack(context.Background(), "no-such-id"))
}

func TestMemoryQueueSendCopiesPayload(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	buf := []byte("original")
	require.NoError(t, q.Send(ctx, buf))
	buf[0] = 'X'

	msgs, err := q.Receive(ctx, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "original", string(msgs[0].Data))
}
