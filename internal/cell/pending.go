package cell

import (
	"context"
	stderrors "errors"
	"sync"
)

// Pending tracks one scheduled write. Callers may wait on it or drop it.
// A nil *Pending behaves as an already completed, successful write.
type Pending struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Resolved returns a Pending that is already complete with err.
func Resolved(err error) *Pending {
	p := newPending()
	p.resolve(err)
	return p
}

func (p *Pending) resolve(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Done is closed once the write finished.
func (p *Pending) Done() <-chan struct{} {
	if p == nil {
		return closedChan
	}
	return p.done
}

// Err returns the write error, or nil while the write is still running.
func (p *Pending) Err() error {
	if p == nil {
		return nil
	}
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the write finished or ctx is done.
func (p *Pending) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join returns a Pending that completes when all of ps have completed. Its
// error joins the individual errors.
func Join(ps ...*Pending) *Pending {
	out := newPending()
	go func() {
		var errs []error
		for _, p := range ps {
			<-p.Done()
			if err := p.Err(); err != nil {
				errs = append(errs, err)
			}
		}
		out.resolve(stderrors.Join(errs...))
	}()
	return out
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()
