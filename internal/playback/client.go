// SPDX-License-Identifier: MIT

package playback

import (
	"context"

	"github.com/streamgate/streamgate/internal/hls"
	"github.com/streamgate/streamgate/internal/resolver"
)

// EventType classifies media client events.
type EventType int

const (
	// EventCanPlay fires when enough media is buffered to start.
	EventCanPlay EventType = iota
	// EventBuffering fires when playback stalls waiting for data.
	EventBuffering
	// EventTransientError is a recoverable error handled inside the client;
	// the engine only logs it.
	EventTransientError
	// EventFatalError is unrecoverable for the current source and triggers
	// failover.
	EventFatalError
	// EventEnded fires when the current item finished playing.
	EventEnded
)

// Event is one media client notification.
type Event struct {
	Type EventType
	Err  error
}

// MediaClient abstracts an adaptive-streaming client bound to exactly one
// manifest. Clients are never redirected to a different manifest; the engine
// tears a client down and constructs a new one on every source change.
type MediaClient interface {
	Play()
	Pause()
	// Seek jumps to an absolute position in seconds.
	Seek(seconds float64)
	Position() float64
	Duration() float64
	SeekableEnd() float64
	// Ready reports whether the client is attached and can accept Play.
	Ready() bool
	// SelectVariant pins a specific quality level instead of adaptive selection.
	SelectVariant(v hls.Variant)
	// Events delivers client notifications; the channel closes on Close.
	Events() <-chan Event
	Close() error
}

// Factory constructs and starts loading a media client for one source.
// A construction error counts as a failed initial load.
type Factory func(ctx context.Context, src resolver.StreamSource) (MediaClient, error)
