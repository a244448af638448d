// File: event/kinds.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package event

import "github.com/momentics/jobnotify/api"

// EndOfJobTime reports that the job's end-of-job time limit has been exceeded.
type EndOfJobTime struct{ Base }

// ActiveProcessLimit reports that the active process limit has been exceeded.
type ActiveProcessLimit struct{ Base }

// ActiveProcessZero reports that the job has no active processes left.
type ActiveProcessZero struct{ Base }

// EndOfProcessTime reports that a process exceeded its per-process time limit.
type EndOfProcessTime struct{ ProcessBase }

// NewProcess reports a process added to the job.
type NewProcess struct{ ProcessBase }

// ExitProcess reports a process that exited normally.
type ExitProcess struct{ ProcessBase }

// ProcessMemoryLimit reports a process that exceeded its memory limit.
type ProcessMemoryLimit struct{ ProcessBase }

// JobMemoryLimit reports that the job memory limit was exceeded; the value is
// the id of the process whose allocation triggered it.
type JobMemoryLimit struct{ ProcessBase }

// NotificationLimit reports that a notification limit was exceeded; the value
// is the id of the process that caused it.
type NotificationLimit struct{ ProcessBase }

func (*EndOfJobTime) Code() api.EventCode        { return api.EventEndOfJobTime }
func (*ActiveProcessLimit) Code() api.EventCode  { return api.EventActiveProcessLimit }
func (*ActiveProcessZero) Code() api.EventCode   { return api.EventActiveProcessZero }
func (*EndOfProcessTime) Code() api.EventCode    { return api.EventEndOfProcessTime }
func (*NewProcess) Code() api.EventCode          { return api.EventNewProcess }
func (*ExitProcess) Code() api.EventCode         { return api.EventExitProcess }
func (*AbnormalExitProcess) Code() api.EventCode { return api.EventAbnormalExitProcess }
func (*ProcessMemoryLimit) Code() api.EventCode  { return api.EventProcessMemoryLimit }
func (*JobMemoryLimit) Code() api.EventCode      { return api.EventJobMemoryLimit }
func (*NotificationLimit) Code() api.EventCode   { return api.EventNotificationLimit }

// ExitCode returns the exit code of the process, if it can still be resolved.
func (e *ExitProcess) ExitCode() (uint32, bool) { return e.exitCode() }
