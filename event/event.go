// File: event/event.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package event

import (
	"fmt"
	"sort"

	"github.com/momentics/jobnotify/api"
	"github.com/momentics/jobnotify/procinfo"
	"github.com/rs/zerolog"
)

// Payload is implemented by every event payload type.
// Code must not dereference its receiver: it is called on nil pointers.
type Payload interface {
	Code() api.EventCode
}

// Env carries everything needed to build one payload.
type Env struct {
	Job       api.Job
	Value     uint32
	Inspector procinfo.Inspector
	Log       zerolog.Logger
}

// Base holds the attributes shared by all payloads.
type Base struct {
	job   api.Job
	value uint32
	log   zerolog.Logger
}

func (b *Base) init(env Env) {
	b.job = env.Job
	b.value = env.Value
	b.log = env.Log
}

// Job returns the job that raised the notification.
func (b *Base) Job() api.Job { return b.job }

// Value returns the raw message-specific value.
func (b *Base) Value() uint32 { return b.value }

var builders = map[api.EventCode]func(Env) Payload{
	api.EventEndOfJobTime: func(env Env) Payload {
		e := &EndOfJobTime{}
		e.init(env)
		return e
	},
	api.EventEndOfProcessTime: func(env Env) Payload {
		e := &EndOfProcessTime{}
		e.init(env)
		return e
	},
	api.EventActiveProcessLimit: func(env Env) Payload {
		e := &ActiveProcessLimit{}
		e.init(env)
		return e
	},
	api.EventActiveProcessZero: func(env Env) Payload {
		e := &ActiveProcessZero{}
		e.init(env)
		return e
	},
	api.EventNewProcess: func(env Env) Payload {
		e := &NewProcess{}
		e.init(env)
		return e
	},
	api.EventExitProcess: func(env Env) Payload {
		e := &ExitProcess{}
		e.init(env)
		return e
	},
	api.EventAbnormalExitProcess: func(env Env) Payload {
		e := &AbnormalExitProcess{}
		e.init(env)
		return e
	},
	api.EventProcessMemoryLimit: func(env Env) Payload {
		e := &ProcessMemoryLimit{}
		e.init(env)
		return e
	},
	api.EventJobMemoryLimit: func(env Env) Payload {
		e := &JobMemoryLimit{}
		e.init(env)
		return e
	},
	api.EventNotificationLimit: func(env Env) Payload {
		e := &NotificationLimit{}
		e.init(env)
		return e
	},
}

// Build constructs the payload registered for code.
func Build(code api.EventCode, env Env) (Payload, error) {
	b, ok := builders[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", api.ErrUnknownEvent, code)
	}
	return b(env), nil
}

// New constructs the payload of type P.
func New[P Payload](env Env) (P, error) {
	var zero P
	v, err := Build(zero.Code(), env)
	if err != nil {
		return zero, err
	}
	p, ok := v.(P)
	if !ok {
		return zero, fmt.Errorf("%w: code %s builds %T, not %T", api.ErrListenerType, zero.Code(), v, zero)
	}
	return p, nil
}

// Codes lists every event code with a payload type, in ascending order.
func Codes() []api.EventCode {
	out := make([]api.EventCode, 0, len(builders))
	for c := range builders {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Releaser is implemented by payloads holding OS resources; the dispatcher
// calls Release once all listeners have run.
type Releaser interface {
	Release()
}
