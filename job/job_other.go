//go:build !windows

// File: job/job_other.go
// Author: momentics <momentics@gmail.com>

package job

import (
	"fmt"

	"github.com/momentics/jobnotify/api"
)

// Job is unavailable off Windows; Create always fails.
type Job struct {
	name string
}

var _ api.Job = (*Job)(nil)

// Create returns api.ErrNotSupported.
func Create(name string, opts ...Option) (*Job, error) {
	return nil, fmt.Errorf("create job %q: %w", name, api.ErrNotSupported)
}

func (j *Job) NativeHandle() uintptr  { return 0 }
func (j *Job) Name() string           { return j.name }
func (j *Job) Assign(uint32) error    { return api.ErrNotSupported }
func (j *Job) Terminate(uint32) error { return api.ErrNotSupported }
func (j *Job) Close() error           { return nil }
