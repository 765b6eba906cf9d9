package session

import (
	"context"
	"sync"
	"time"
)

// Ticker calls fn once per interval on its own goroutine until stopped or
// until ctx is cancelled.
type Ticker struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func StartTicker(ctx context.Context, interval time.Duration, fn func()) *Ticker {
	ctx, cancel := context.WithCancel(ctx)
	t := &Ticker{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)

		tk := time.NewTicker(interval)
		defer tk.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				// A stop can race with a pending tick.
				if ctx.Err() != nil {
					return
				}
				fn()
			}
		}
	}()

	return t
}

// Stop cancels the ticker. It may be called any number of times, including
// from inside fn; it does not wait for the goroutine to exit.
func (t *Ticker) Stop() {
	t.once.Do(t.cancel)
}

// Done is closed once the ticker goroutine has exited.
func (t *Ticker) Done() <-chan struct{} {
	return t.done
}
