// File: notify/pump.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Notification pump: one goroutine draining a job's completion queue into the
// typed registries.

package notify

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/jobnotify/affinity"
	"github.com/momentics/jobnotify/api"
	"github.com/momentics/jobnotify/completion"
	"github.com/momentics/jobnotify/control"
	"github.com/momentics/jobnotify/event"
	"github.com/momentics/jobnotify/procinfo"
	"github.com/rs/zerolog"
)

// deps are the collaborators every registry of a pump shares.
type deps struct {
	inspector procinfo.Inspector
	log       zerolog.Logger
	onError   ErrorHandler
}

// kinds maps every native event code to the constructor of its typed registry.
var kinds = map[api.EventCode]func(deps) entry{
	api.EventEndOfJobTime:        newEntry[*event.EndOfJobTime],
	api.EventEndOfProcessTime:    newEntry[*event.EndOfProcessTime],
	api.EventActiveProcessLimit:  newEntry[*event.ActiveProcessLimit],
	api.EventActiveProcessZero:   newEntry[*event.ActiveProcessZero],
	api.EventNewProcess:          newEntry[*event.NewProcess],
	api.EventExitProcess:         newEntry[*event.ExitProcess],
	api.EventAbnormalExitProcess: newEntry[*event.AbnormalExitProcess],
	api.EventProcessMemoryLimit:  newEntry[*event.ProcessMemoryLimit],
	api.EventJobMemoryLimit:      newEntry[*event.JobMemoryLimit],
	api.EventNotificationLimit:   newEntry[*event.NotificationLimit],
}

// Metric keys recorded when a metrics registry is configured.
const (
	MetricReceived   = "notifications.received"
	MetricDispatched = "notifications.dispatched"
	MetricIgnored    = "notifications.ignored"
	MetricInvoked    = "listeners.invoked"
	MetricFailed     = "listeners.failed"
	MetricState      = "pump.state"
)

// Pump delivers the notifications of one job to subscribed listeners.
type Pump struct {
	job         api.Job
	queue       completion.Queue
	log         zerolog.Logger
	deps        deps
	joinTimeout time.Duration
	onFatal     FatalHandler
	metrics     api.Metrics
	probes      api.Debug
	cpu         int

	mu         sync.RWMutex
	registries map[api.EventCode]entry

	state      atomic.Int32
	closing    atomic.Bool
	closeOnce  sync.Once
	done       chan struct{}
	loopThread atomic.Int64 // OS thread of the loop, 0 when unknown
	selfClose  bool         // Close ran on the loop; written and read only there

	errMu sync.Mutex
	err   error
}

var _ api.Lifecycle = (*Pump)(nil)

// New creates the completion queue, associates it with job and starts the pump
// goroutine. On error nothing is left running.
func New(job api.Job, opts ...Option) (*Pump, error) {
	if job == nil {
		return nil, api.Wrap(api.ErrCodeInvalidArgument, "nil job", api.ErrInvalidArgument)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, api.Wrap(api.ErrCodeInvalidArgument, "invalid options", o.err)
	}
	log := o.log.With().Str("component", "jobnotify").Str("job", job.Name()).Logger()
	if o.level != nil {
		log = log.Level(*o.level)
	}
	if o.inspector == nil {
		if o.arenaMax > 0 {
			o.inspector = procinfo.New(o.arenaMax)
		} else {
			o.inspector = procinfo.Default()
		}
	}

	q := o.queue
	if q == nil {
		var err error
		if q, err = completion.New(o.backend); err != nil {
			return nil, api.Wrap(api.ErrCodeSetup, "create completion queue", err)
		}
	}
	if err := q.Associate(job); err != nil {
		if cerr := q.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("release completion queue after failed association")
		}
		return nil, api.Wrap(api.ErrCodeSetup, "associate job with completion queue", err).
			WithContext("job", job.Name())
	}

	p := &Pump{
		job:         job,
		queue:       q,
		log:         log,
		joinTimeout: o.joinTimeout,
		onFatal:     o.onFatal,
		metrics:     o.metrics,
		probes:      o.probes,
		cpu:         o.cpu,
		registries:  make(map[api.EventCode]entry),
		done:        make(chan struct{}),
	}
	p.deps = deps{inspector: o.inspector, log: log, onError: o.onError}
	p.registerProbes()

	p.setState(StateRunning)
	go p.run()
	log.Debug().Msg("pump started")
	return p, nil
}

func (p *Pump) registerProbes() {
	if p.probes == nil {
		return
	}
	control.RegisterPlatformProbes(p.probes)
	p.probes.RegisterProbe("pump.queue", func() any {
		if k, ok := p.queue.(completion.Kind); ok {
			return string(k.Backend())
		}
		return fmt.Sprintf("%T", p.queue)
	})
	p.probes.RegisterProbe("pump.state", func() any { return p.State().String() })
	p.probes.RegisterProbe("pump.registries", func() any {
		out := make(map[string]int)
		p.mu.RLock()
		defer p.mu.RUnlock()
		for code, e := range p.registries {
			out[code.String()] = e.len()
		}
		return out
	})
	p.probes.RegisterProbe("pump.err", func() any {
		if err := p.Err(); err != nil {
			return err.Error()
		}
		return nil
	})
}

func (p *Pump) run() {
	runtime.LockOSThread()
	p.loopThread.Store(currentThreadID())
	defer close(p.done)
	defer func() {
		if p.selfClose {
			p.releaseQueue()
		}
	}()
	// A pinned thread stays locked and exits with the goroutine.
	if p.cpu < 0 {
		defer runtime.UnlockOSThread()
	} else if err := affinity.SetAffinity(p.cpu); err != nil {
		p.log.Warn().Err(err).Int("cpu", p.cpu).Msg("pump thread left unpinned")
	}

	for {
		pkt, err := p.queue.Wait()
		if err != nil {
			if p.closing.Load() {
				p.setState(StateTerminated)
				return
			}
			p.fail(api.Wrap(api.ErrCodeQueueWait, "completion queue wait failed", err))
			return
		}
		if pkt.Key == completion.ExitKey {
			p.setState(StateTerminated)
			p.log.Debug().Msg("exit request received")
			return
		}
		p.deliver(pkt)
	}
}

func (p *Pump) deliver(pkt api.Packet) {
	p.count(MetricReceived, 1)
	p.mu.RLock()
	e, ok := p.registries[pkt.Code]
	p.mu.RUnlock()
	if !ok {
		p.count(MetricIgnored, 1)
		p.log.Debug().Stringer("code", pkt.Code).Uint32("value", pkt.Value).Msg("no registry for notification")
		return
	}
	invoked, failed := e.dispatch(p.job, pkt.Value)
	p.count(MetricDispatched, 1)
	p.count(MetricInvoked, int64(invoked))
	p.count(MetricFailed, int64(failed))
}

func (p *Pump) fail(err error) {
	p.errMu.Lock()
	p.err = err
	p.errMu.Unlock()
	p.setState(StateTerminated)
	p.log.Error().Err(err).Msg("pump stopped")
	if p.onFatal == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error().Interface("panic", rec).Msg("fatal handler panicked")
		}
	}()
	p.onFatal(err)
}

func (p *Pump) count(key string, delta int64) {
	if p.metrics != nil && delta != 0 {
		p.metrics.Add(key, delta)
	}
}

func (p *Pump) setState(s State) {
	p.state.Store(int32(s))
	if p.metrics != nil {
		p.metrics.Set(MetricState, s.String())
	}
}

// State returns the current lifecycle stage.
func (p *Pump) State() State { return State(p.state.Load()) }

// Done is closed once the pump goroutine has returned.
func (p *Pump) Done() <-chan struct{} { return p.done }

// Err returns the error that stopped the loop, or nil after a requested shutdown.
func (p *Pump) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.err
}

// Job returns the job the pump is attached to.
func (p *Pump) Job() api.Job { return p.job }

// Close requests the loop to exit, waits for it up to the join timeout and
// releases the completion queue. If the goroutine does not stop in time it is
// abandoned: it stays in its current listener and ends at its next queue wait,
// which fails once the queue is released. Called from a listener, Close does
// not wait: the loop stops after the current dispatch and releases the queue
// itself. Failures are logged; Close always returns nil and is safe to call
// more than once.
func (p *Pump) Close() error {
	p.closeOnce.Do(p.shutdown)
	return nil
}

func (p *Pump) shutdown() {
	p.closing.Store(true)
	if p.state.CompareAndSwap(int32(StateRunning), int32(StateExitRequested)) {
		if p.metrics != nil {
			p.metrics.Set(MetricState, StateExitRequested.String())
		}
		if err := p.queue.Post(api.Packet{Key: completion.ExitKey}); err != nil {
			err = api.Wrap(api.ErrCodeTeardown, "post exit request", err)
			p.log.Error().Err(err).Msg("teardown")
		}
	}

	// Closing from a listener: the loop cannot be joined from inside itself.
	// It observes the exit request after the current dispatch and releases
	// the queue on its way out.
	if tid := currentThreadID(); tid != 0 && tid == p.loopThread.Load() {
		p.selfClose = true
		p.log.Debug().Msg("close requested from the pump goroutine")
		return
	}

	timer := time.NewTimer(p.joinTimeout)
	defer timer.Stop()
	select {
	case <-p.done:
	case <-timer.C:
		p.log.Warn().Dur("timeout", p.joinTimeout).Msg("pump goroutine did not stop in time; abandoning it")
		p.setState(StateTerminated)
	}
	p.releaseQueue()
}

func (p *Pump) releaseQueue() {
	if err := p.queue.Close(); err != nil {
		err = api.Wrap(api.ErrCodeTeardown, "release completion queue", err)
		p.log.Error().Err(err).Msg("teardown")
	}
	p.log.Debug().Msg("pump closed")
}

// registry returns the entry for code, creating it on first use.
func (p *Pump) registry(code api.EventCode) (entry, error) {
	p.mu.RLock()
	e, ok := p.registries[code]
	p.mu.RUnlock()
	if ok {
		return e, nil
	}
	mk, ok := kinds[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", api.ErrUnknownEvent, code)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok = p.registries[code]; !ok {
		e = mk(p.deps)
		p.registries[code] = e
	}
	return e, nil
}

// Subscribe registers fn for the event code of P.
func Subscribe[P event.Payload](p *Pump, fn func(P) error) (Subscription, error) {
	var zero P
	e, err := p.registry(zero.Code())
	if err != nil {
		return Subscription{}, err
	}
	r, ok := e.(*Registry[P])
	if !ok {
		return Subscription{}, fmt.Errorf("subscribe %s: registry holds %T: %w", zero.Code(), e, api.ErrListenerType)
	}
	return r.Subscribe(fn)
}

// SubscribeCode registers fn for code. fn must be func(P) error or func(P) where
// P is the payload type of code; anything else fails with api.ErrListenerType.
func (p *Pump) SubscribeCode(code api.EventCode, fn any) (Subscription, error) {
	e, err := p.registry(code)
	if err != nil {
		return Subscription{}, err
	}
	return e.subscribeAny(fn)
}

// Unsubscribe removes the listener behind sub. Subscriptions issued by another
// pump, or already removed, are ignored.
func (p *Pump) Unsubscribe(sub Subscription) {
	if !sub.Valid() {
		return
	}
	p.mu.RLock()
	e, ok := p.registries[sub.code]
	p.mu.RUnlock()
	if ok && e == sub.owner {
		e.unsubscribe(sub.id)
	}
}

// Subscribers reports the number of listeners for code.
func (p *Pump) Subscribers(code api.EventCode) int {
	p.mu.RLock()
	e, ok := p.registries[code]
	p.mu.RUnlock()
	if !ok {
		return 0
	}
	return e.len()
}

// Stats returns a metrics snapshot, or nil without a metrics registry.
func (p *Pump) Stats() map[string]any {
	if p.metrics == nil {
		return nil
	}
	return p.metrics.GetSnapshot()
}

// DumpState evaluates the debug probes, or returns nil without them.
func (p *Pump) DumpState() map[string]any {
	if p.probes == nil {
		return nil
	}
	return p.probes.DumpState()
}
