package blob

import (
	"context"
	"sync"
)

// Progress is one step of an upload. Session is the resumable session
// token; it is set on every value once the remote side has issued it.
type Progress struct {
	Session string
	Sent    int64
	Total   int64
}

// Transfer is a handle on an asynchronous upload.
type Transfer struct {
	progress chan Progress
	done     chan struct{}
	cancel   context.CancelFunc

	once sync.Once
	err  error
}

func newTransfer(steps int, cancel context.CancelFunc) *Transfer {
	if steps < 1 {
		steps = 1
	}
	return &Transfer{
		progress: make(chan Progress, steps),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
}

// Start runs fn in its own goroutine and returns the Transfer tracking it.
// steps is the number of progress values fn is expected to report.
func Start(ctx context.Context, steps int, fn func(ctx context.Context, report func(Progress)) error) *Transfer {
	ctx, cancel := context.WithCancel(ctx)
	t := newTransfer(steps, cancel)
	go func() {
		t.finish(fn(ctx, t.report))
	}()
	return t
}

// Failed returns a Transfer that has already finished with err.
func Failed(err error) *Transfer {
	t := newTransfer(1, func() {})
	t.finish(err)
	return t
}

// Progress delivers progress values. It is closed when the transfer ends.
func (t *Transfer) Progress() <-chan Progress { return t.progress }

// Done is closed when the transfer ends.
func (t *Transfer) Done() <-chan struct{} { return t.done }

// Err returns the outcome once Done is closed, nil before.
func (t *Transfer) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the transfer ends and returns its outcome.
func (t *Transfer) Wait() error {
	<-t.done
	return t.err
}

// Cancel stops the transfer. Parts already stored stay resumable.
func (t *Transfer) Cancel() { t.cancel() }

// report never blocks: the channel is sized for every expected step and
// extra values are dropped.
func (t *Transfer) report(p Progress) {
	select {
	case t.progress <- p:
	default:
	}
}

func (t *Transfer) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.progress)
		close(t.done)
		t.cancel()
	})
}
