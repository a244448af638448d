// File: notify/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package notify

import (
	"time"

	"github.com/momentics/jobnotify/api"
	"github.com/momentics/jobnotify/completion"
	"github.com/momentics/jobnotify/control"
	"github.com/momentics/jobnotify/procinfo"
	"github.com/rs/zerolog"
)

// DefaultJoinTimeout bounds the wait for the pump goroutine during Close.
const DefaultJoinTimeout = 2 * time.Second

type options struct {
	log         zerolog.Logger
	level       *zerolog.Level
	queue       completion.Queue
	backend     completion.Backend
	inspector   procinfo.Inspector
	arenaMax    int
	joinTimeout time.Duration
	onError     ErrorHandler
	onFatal     FatalHandler
	metrics     api.Metrics
	probes      api.Debug
	cpu         int
	err         error
}

// Option configures a Pump.
type Option func(*options)

func defaultOptions() options {
	return options{
		log:         zerolog.Nop(),
		backend:     completion.BackendAuto,
		joinTimeout: DefaultJoinTimeout,
		cpu:         -1,
	}
}

// WithLogger sets the pump logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithQueue supplies a ready completion queue. The pump takes ownership and closes it.
func WithQueue(q completion.Queue) Option {
	return func(o *options) { o.queue = q }
}

// WithInspector sets the process inspector used to enrich payloads.
func WithInspector(in procinfo.Inspector) Option {
	return func(o *options) { o.inspector = in }
}

// WithJoinTimeout bounds how long Close waits for the pump goroutine.
func WithJoinTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.joinTimeout = d
		}
	}
}

// WithErrorHandler receives every listener failure instead of the default log line.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) { o.onError = h }
}

// WithFatalHandler is called once if the pump loop stops on a queue failure.
func WithFatalHandler(h FatalHandler) Option {
	return func(o *options) { o.onFatal = h }
}

// WithMetrics records pump counters into mr.
func WithMetrics(mr api.Metrics) Option {
	return func(o *options) { o.metrics = mr }
}

// WithDebugProbes registers pump probes into dp.
func WithDebugProbes(dp api.Debug) Option {
	return func(o *options) { o.probes = dp }
}

// WithCPU pins the pump thread to a logical CPU. A negative cpu leaves it unpinned.
func WithCPU(cpu int) Option {
	return func(o *options) { o.cpu = cpu }
}

// WithConfig applies cfg. Options given after it override its values.
// An invalid cfg makes New fail.
func WithConfig(cfg *control.Config) Option {
	return func(o *options) {
		if cfg == nil {
			return
		}
		if err := cfg.Validate(); err != nil {
			o.err = err
			return
		}
		o.joinTimeout = cfg.JoinTimeout
		if lvl, err := cfg.Level(); err == nil {
			o.level = &lvl
		}
		if cfg.QueueBackend != "" {
			o.backend = completion.Backend(cfg.QueueBackend)
		}
		o.arenaMax = cfg.ArenaMaxBytes
		if cfg.PinCPU != nil {
			o.cpu = *cfg.PinCPU
		}
		if cfg.Metrics && o.metrics == nil {
			o.metrics = control.NewMetricsRegistry()
		}
		if cfg.Debug && o.probes == nil {
			o.probes = control.NewDebugProbes()
		}
	}
}
