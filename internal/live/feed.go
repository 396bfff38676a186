// Package live turns change signals from a store into full-snapshot feeds.
// A feed never delivers deltas: every push is the complete current result
// set, re-queried after each change signal.
package live

import (
	"context"

	"go.uber.org/zap"
)

// ListFunc queries the full current result set.
type ListFunc[T any] func(ctx context.Context) ([]T, error)

// WatchFunc opens a change-signal channel (one coalescing tick per change)
// and returns a cancel func that releases it.
type WatchFunc func(ctx context.Context) (<-chan struct{}, func(), error)

// Feed pairs a query with its change signal.
type Feed[T any] struct {
	list  ListFunc[T]
	watch WatchFunc
	log   *zap.Logger
}

// NewFeed creates a snapshot feed.
func NewFeed[T any](list ListFunc[T], watch WatchFunc, log *zap.Logger) *Feed[T] {
	return &Feed[T]{list: list, watch: watch, log: log}
}

// Subscribe delivers the current snapshot immediately and again after every
// change until cancel is called or ctx is done. The returned channel is
// closed on teardown. Callers must call cancel; a leaked subscription leaks
// the underlying watch channel.
func (f *Feed[T]) Subscribe(ctx context.Context) (<-chan []T, func(), error) {
	sctx, cancel := context.WithCancel(ctx)
	ticks, stop, err := f.watch(sctx)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	out := make(chan []T, 1)
	release := func() {
		cancel()
		stop()
	}

	go func() {
		defer close(out)
		f.push(sctx, out)
		for {
			select {
			case <-sctx.Done():
				return
			case _, ok := <-ticks:
				if !ok {
					return
				}
				f.push(sctx, out)
			}
		}
	}()
	return out, release, nil
}

// push re-queries and delivers the snapshot, replacing a stale pending one
// if the consumer has not caught up.
func (f *Feed[T]) push(ctx context.Context, out chan []T) {
	items, err := f.list(ctx)
	if err != nil {
		if ctx.Err() == nil {
			f.log.Error("feed query failed", zap.Error(err))
		}
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case out <- items:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}
