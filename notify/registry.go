// File: notify/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Typed multicast registries, one per event code, behind a type-erased entry.

package notify

import (
	"fmt"
	"sync"

	"github.com/momentics/jobnotify/api"
	"github.com/momentics/jobnotify/event"
	"github.com/momentics/jobnotify/procinfo"
	"github.com/rs/zerolog"
)

// Subscription identifies one registered listener. It only matches the
// registry that issued it.
type Subscription struct {
	owner entry
	code  api.EventCode
	id    uint64
}

// Code returns the event code the listener is subscribed to.
func (s Subscription) Code() api.EventCode { return s.code }

// Valid reports whether s was returned by a successful subscribe call.
func (s Subscription) Valid() bool { return s.owner != nil && s.id != 0 }

// entry is the type-erased view of a Registry stored in the registry map.
type entry interface {
	eventCode() api.EventCode
	dispatch(job api.Job, value uint32) (invoked, failed int)
	subscribeAny(fn any) (Subscription, error)
	unsubscribe(id uint64) bool
	len() int
}

type slot[P event.Payload] struct {
	id uint64
	fn func(P) error
}

// Registry holds the listeners of one payload type.
type Registry[P event.Payload] struct {
	code      api.EventCode
	inspector procinfo.Inspector
	log       zerolog.Logger
	onError   ErrorHandler

	mu        sync.RWMutex
	listeners []slot[P] // copy-on-write; never mutated in place
	nextID    uint64
}

var _ entry = (*Registry[*event.NewProcess])(nil)

// NewRegistry creates an empty registry for P. A nil onError logs failures.
func NewRegistry[P event.Payload](inspector procinfo.Inspector, log zerolog.Logger, onError ErrorHandler) *Registry[P] {
	var zero P
	r := &Registry[P]{
		code:      zero.Code(),
		inspector: inspector,
		log:       log,
		onError:   onError,
	}
	if r.onError == nil {
		r.onError = func(le *ListenerError) {
			r.log.Error().Err(le.Err).
				Stringer("code", le.Code).
				Uint32("value", le.Value).
				Int("listener", le.Index).
				Msg("listener failed")
		}
	}
	return r
}

func newEntry[P event.Payload](d deps) entry {
	return NewRegistry[P](d.inspector, d.log, d.onError)
}

// Code returns the event code the registry serves.
func (r *Registry[P]) Code() api.EventCode { return r.code }

// Subscribe appends fn to the listener set.
func (r *Registry[P]) Subscribe(fn func(P) error) (Subscription, error) {
	if fn == nil {
		return Subscription{}, fmt.Errorf("subscribe %s: nil listener: %w", r.code, api.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	next := make([]slot[P], len(r.listeners), len(r.listeners)+1)
	copy(next, r.listeners)
	r.listeners = append(next, slot[P]{id: r.nextID, fn: fn})
	return Subscription{owner: r, code: r.code, id: r.nextID}, nil
}

// Unsubscribe removes the listener behind sub. Subscriptions issued by another
// registry, or already removed, are ignored.
func (r *Registry[P]) Unsubscribe(sub Subscription) {
	if sub.owner != entry(r) {
		return
	}
	r.unsubscribe(sub.id)
}

func (r *Registry[P]) unsubscribe(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.listeners {
		if s.id != id {
			continue
		}
		next := make([]slot[P], 0, len(r.listeners)-1)
		next = append(next, r.listeners[:i]...)
		r.listeners = append(next, r.listeners[i+1:]...)
		return true
	}
	return false
}

// Len reports the number of subscribed listeners.
func (r *Registry[P]) Len() int { return r.len() }

func (r *Registry[P]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}

func (r *Registry[P]) eventCode() api.EventCode { return r.code }

// subscribeAny checks the listener signature at the subscription boundary.
func (r *Registry[P]) subscribeAny(fn any) (Subscription, error) {
	switch f := fn.(type) {
	case func(P) error:
		return r.Subscribe(f)
	case func(P):
		if f == nil {
			return r.Subscribe(nil)
		}
		return r.Subscribe(func(p P) error {
			f(p)
			return nil
		})
	default:
		var zero P
		return Subscription{}, fmt.Errorf("subscribe %s: want func(%T) error, got %T: %w", r.code, zero, fn, api.ErrListenerType)
	}
}

// Dispatch builds the payload for value and invokes every listener in
// registration order. It is a no-op without listeners.
func (r *Registry[P]) Dispatch(job api.Job, value uint32) {
	r.dispatch(job, value)
}

func (r *Registry[P]) dispatch(job api.Job, value uint32) (invoked, failed int) {
	r.mu.RLock()
	listeners := r.listeners
	r.mu.RUnlock()
	if len(listeners) == 0 {
		return 0, 0
	}

	payload, err := event.New[P](event.Env{
		Job:       job,
		Value:     value,
		Inspector: r.inspector,
		Log:       r.log,
	})
	if err != nil {
		err = api.Wrap(api.ErrCodeInternal, "build payload", err).WithContext("value", value)
		r.log.Error().Err(err).Stringer("code", r.code).Msg("payload construction failed")
		return 0, 0
	}
	if rel, ok := any(payload).(event.Releaser); ok {
		defer rel.Release()
	}

	for i, s := range listeners {
		invoked++
		if le := r.invoke(i, s.fn, payload, value); le != nil {
			failed++
			r.report(le)
		}
	}
	return invoked, failed
}

func (r *Registry[P]) invoke(i int, fn func(P) error, payload P, value uint32) (le *ListenerError) {
	defer func() {
		if rec := recover(); rec != nil {
			le = &ListenerError{
				Code:  r.code,
				Value: value,
				Index: i,
				Panic: rec,
				Err:   fmt.Errorf("panic: %v", rec),
			}
		}
	}()
	if err := fn(payload); err != nil {
		return &ListenerError{Code: r.code, Value: value, Index: i, Err: err}
	}
	return nil
}

// report hands le to the error handler, which must not take the loop down either.
func (r *Registry[P]) report(le *ListenerError) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Msg("listener error handler panicked")
		}
	}()
	r.onError(le)
}
