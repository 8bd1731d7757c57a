// File: api/promise.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-resolution completion signal. A Promise resolves exactly once,
// with either a value or an error; later resolutions are ignored.
// Listeners registered after resolution run immediately on the caller.

package api

import "sync"

// Promise carries the asynchronous outcome of one operation.
// Resolution is idempotent: the first Resolve or Fail wins.
type Promise struct {
	mu        sync.Mutex
	done      chan struct{}
	resolved  bool
	value     any
	err       error
	listeners []func(*Promise)
}

// NewPromise returns an unresolved promise.
func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// FailedPromise returns a promise already resolved with err.
func FailedPromise(err error) *Promise {
	p := NewPromise()
	p.Fail(err)
	return p
}

// Resolve completes the promise successfully with an optional value.
// Returns false if the promise was already resolved.
func (p *Promise) Resolve(value any) bool {
	return p.complete(value, nil)
}

// Fail completes the promise with err.
// Returns false if the promise was already resolved.
func (p *Promise) Fail(err error) bool {
	return p.complete(nil, err)
}

func (p *Promise) complete(value any, err error) bool {
	p.mu.Lock()
	if p.resolved {
		p.mu.Unlock()
		return false
	}
	p.resolved = true
	p.value = value
	p.err = err
	listeners := p.listeners
	p.listeners = nil
	close(p.done)
	p.mu.Unlock()

	// Listeners run on the resolving goroutine, which for pipeline writes
	// is the single-threaded connection context.
	for _, fn := range listeners {
		fn(p)
	}
	return true
}

// Done is closed once the promise resolves.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// IsDone reports whether the promise has resolved.
func (p *Promise) IsDone() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolved
}

// Err returns the failure cause, or nil while pending or on success.
func (p *Promise) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Value returns the success payload, or nil while pending or on failure.
func (p *Promise) Value() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// OnComplete registers fn to run when the promise resolves.
// If the promise already resolved, fn runs before OnComplete returns.
func (p *Promise) OnComplete(fn func(*Promise)) {
	p.mu.Lock()
	if !p.resolved {
		p.listeners = append(p.listeners, fn)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	fn(p)
}

// CascadeTo propagates this promise's outcome into other.
func (p *Promise) CascadeTo(other *Promise) {
	p.OnComplete(func(src *Promise) {
		if err := src.Err(); err != nil {
			other.Fail(err)
			return
		}
		other.Resolve(src.Value())
	})
}
