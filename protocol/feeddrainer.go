package protocol

import (
	"context"
	"io"
)

// Feeder and Drainer are the two fundamental record-flow contracts.
// A Feeder reads record batches from a source, a Drainer writes them
// to a destination; components couple through these rather than
// through each other.

type Feeder interface {
	// Feed reads and returns records. The EoF convention follows
	// that of io.Reader: either `recs, io.EOF` or `recs, nil`
	// followed by `nil, io.EOF`.
	Feed(ctx context.Context) (recs Records, err error)
}

type FeedCloser interface {
	Feeder
	io.Closer
}

type Drainer interface {
	Drain(ctx context.Context, recs Records) error
}

type DrainCloser interface {
	Drainer
	io.Closer
}

type FeedDrainCloser interface {
	Feeder
	Drainer
	io.Closer
}

// Traced is implemented by objects that carry a trace id for
// debugging and monitoring.
type Traced interface {
	GetTraceId() string
}

type FeedDrainCloserTraced interface {
	FeedDrainCloser
	Traced
}

// Relay performs a single feed-drain hop between a feeder and a
// drainer.
func Relay(ctx context.Context, feeder Feeder, drainer Drainer) error {
	recs, err := feeder.Feed(ctx)
	if err != nil {
		if len(recs) > 0 {
			_ = drainer.Drain(ctx, recs)
		}
		return err
	}
	return drainer.Drain(ctx, recs)
}
