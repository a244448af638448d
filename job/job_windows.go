//go:build windows
// +build windows

// File: job/job_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package job

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/momentics/jobnotify/api"
	"github.com/momentics/jobnotify/arena"
	"golang.org/x/sys/windows"
)

// Job is an owned Windows job object handle.
type Job struct {
	name string

	mu     sync.Mutex
	handle windows.Handle
}

var _ api.Job = (*Job)(nil)

// Create creates a job object. An empty name creates an anonymous job.
func Create(name string, opts ...Option) (*Job, error) {
	o := options{arenaMax: arena.DefaultMaxBytes}
	for _, opt := range opts {
		opt(&o)
	}

	var h windows.Handle
	err := arena.Scoped(arena.NewStack(arena.WithMaxBytes(o.arenaMax)), func(a *arena.Arena) error {
		var native *uint16
		if name != "" {
			p, err := a.ConvertToNativeString(name)
			if err != nil {
				return err
			}
			native = (*uint16)(p)
		}
		var err error
		h, err = windows.CreateJobObject(nil, native)
		return err
	})
	if err != nil {
		return nil, api.Wrap(api.ErrCodeSetup, "create job object", err).WithContext("name", name)
	}

	j := &Job{name: name, handle: h}
	if err := j.setLimits(o); err != nil {
		windows.CloseHandle(h)
		return nil, err
	}
	return j, nil
}

func (j *Job) setLimits(o options) error {
	if !o.killOnClose && o.processLimit == 0 {
		return nil
	}
	var info windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION
	if o.killOnClose {
		info.BasicLimitInformation.LimitFlags |= windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE
	}
	if o.processLimit > 0 {
		info.BasicLimitInformation.LimitFlags |= windows.JOB_OBJECT_LIMIT_ACTIVE_PROCESS
		info.BasicLimitInformation.ActiveProcessLimit = o.processLimit
	}
	_, err := windows.SetInformationJobObject(j.handle, windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)), uint32(unsafe.Sizeof(info)))
	if err != nil {
		return api.Wrap(api.ErrCodeSetup, "set job limits", err).WithContext("name", j.name)
	}
	return nil
}

// NativeHandle returns the job object handle, 0 once closed.
func (j *Job) NativeHandle() uintptr {
	j.mu.Lock()
	defer j.mu.Unlock()
	return uintptr(j.handle)
}

func (j *Job) Name() string { return j.name }

// Assign adds the process pid to the job.
func (j *Job) Assign(pid uint32) error {
	h, err := j.live()
	if err != nil {
		return err
	}
	ph, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, pid)
	if err != nil {
		return fmt.Errorf("assign %d to job %q: %v: %w", pid, j.name, err, api.ErrNoProcess)
	}
	defer windows.CloseHandle(ph)
	if err := windows.AssignProcessToJobObject(h, ph); err != nil {
		return fmt.Errorf("assign %d to job %q: %w", pid, j.name, err)
	}
	return nil
}

// Terminate ends every process in the job with exitCode.
func (j *Job) Terminate(exitCode uint32) error {
	h, err := j.live()
	if err != nil {
		return err
	}
	if err := windows.TerminateJobObject(h, exitCode); err != nil {
		return fmt.Errorf("terminate job %q: %w", j.name, err)
	}
	return nil
}

// Close releases the handle. It is idempotent.
func (j *Job) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.handle == 0 {
		return nil
	}
	err := windows.CloseHandle(j.handle)
	j.handle = 0
	return err
}

func (j *Job) live() (windows.Handle, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.handle == 0 {
		return 0, fmt.Errorf("job %q: %w", j.name, api.ErrClosed)
	}
	return j.handle, nil
}
