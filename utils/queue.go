package utils

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("[ngit] feed/drain queue is closed")

// FDQueue hands record batches from a Drainer-side producer to a
// Feeder-side consumer. Closing the queue wakes both sides; batches
// already queued are still fed out after Close.
type FDQueue[T ~[][]byte] struct {
	ctx   context.Context
	close context.CancelFunc
	ch    chan T
}

func NewFDQueue[T ~[][]byte](limit int) *FDQueue[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &FDQueue[T]{
		ctx:   ctx,
		close: cancel,
		ch:    make(chan T, limit),
	}
}

func (q *FDQueue[T]) Close() error {
	q.close()
	return nil
}

func (q *FDQueue[T]) Size() int {
	return len(q.ch)
}

func (q *FDQueue[T]) Drain(ctx context.Context, recs T) error {
	if len(recs) == 0 {
		return nil
	}
	select {
	case q.ch <- recs:
		return nil
	case <-q.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *FDQueue[T]) Feed(ctx context.Context) (T, error) {
	select {
	case recs := <-q.ch:
		return recs, nil
	case <-q.ctx.Done():
		// let queued batches out even after Close
		select {
		case recs := <-q.ch:
			return recs, nil
		default:
			return nil, ErrClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
