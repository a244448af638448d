// File: notify/listeners.go
// Author: momentics <momentics@gmail.com>

package notify

import "github.com/momentics/jobnotify/event"

// OnEndOfJobTime subscribes to the job exceeding its per-job user-mode time limit.
func (p *Pump) OnEndOfJobTime(fn func(*event.EndOfJobTime) error) (Subscription, error) {
	return Subscribe(p, fn)
}

// OnEndOfProcessTime subscribes to a process exceeding its per-process user-mode time limit.
func (p *Pump) OnEndOfProcessTime(fn func(*event.EndOfProcessTime) error) (Subscription, error) {
	return Subscribe(p, fn)
}

// OnActiveProcessLimit subscribes to the job refusing a process over its active process limit.
func (p *Pump) OnActiveProcessLimit(fn func(*event.ActiveProcessLimit) error) (Subscription, error) {
	return Subscribe(p, fn)
}

// OnActiveProcessZero subscribes to the job becoming empty.
func (p *Pump) OnActiveProcessZero(fn func(*event.ActiveProcessZero) error) (Subscription, error) {
	return Subscribe(p, fn)
}

// OnNewProcess subscribes to processes joining the job.
func (p *Pump) OnNewProcess(fn func(*event.NewProcess) error) (Subscription, error) {
	return Subscribe(p, fn)
}

// OnExitProcess subscribes to normal process exits.
func (p *Pump) OnExitProcess(fn func(*event.ExitProcess) error) (Subscription, error) {
	return Subscribe(p, fn)
}

// OnAbnormalExit subscribes to processes ending with an exception status.
func (p *Pump) OnAbnormalExit(fn func(*event.AbnormalExitProcess) error) (Subscription, error) {
	return Subscribe(p, fn)
}

// OnProcessMemoryLimit subscribes to a process exceeding its committed memory limit.
func (p *Pump) OnProcessMemoryLimit(fn func(*event.ProcessMemoryLimit) error) (Subscription, error) {
	return Subscribe(p, fn)
}

// OnJobMemoryLimit subscribes to the job exceeding its committed memory limit.
func (p *Pump) OnJobMemoryLimit(fn func(*event.JobMemoryLimit) error) (Subscription, error) {
	return Subscribe(p, fn)
}

// OnNotificationLimit subscribes to notification limits set on the job being exceeded.
func (p *Pump) OnNotificationLimit(fn func(*event.NotificationLimit) error) (Subscription, error) {
	return Subscribe(p, fn)
}
