// SPDX-License-Identifier: MIT

// Package queue defines the command-queue capability the worker consumes.
// Messages are opaque UTF-8 JSON; delivery is at-least-once and consumers
// acknowledge every message they receive.
package queue

import "context"

// Message is one dequeued command.
type Message struct {
	ID   string
	Data []byte
}

// Queue is the transport contract. Implementations must be safe for
// concurrent use.
type Queue interface {
	// Send enqueues one payload.
	Send(ctx context.Context, data []byte) error
	// Receive dequeues up to max messages. It does not block when the
	// queue is empty.
	Receive(ctx context.Context, max int) ([]Message, error)
	// Ack marks a received message as processed. Acking an unknown ID is
	// a no-op.
	Ack(ctx context.Context, id string) error

	Close() error
}
