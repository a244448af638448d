// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the job and process collaborators.

package fake

import (
	"sync"

	"github.com/momentics/jobnotify/api"
	"github.com/momentics/jobnotify/completion"
)

// Job is a fake job that delivers notifications in-process.
type Job struct {
	mu        sync.Mutex
	name      string
	handle    uintptr
	posters   []completion.Poster
	attachErr error
}

var (
	_ api.Job           = (*Job)(nil)
	_ completion.Source = (*Job)(nil)
)

// NewJob creates a fake job.
func NewJob(name string) *Job {
	return &Job{name: name, handle: 1}
}

func (j *Job) NativeHandle() uintptr { return j.handle }
func (j *Job) Name() string          { return j.name }

// SetAttachError makes the next Attach calls fail with err.
func (j *Job) SetAttachError(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attachErr = err
}

// Attach implements completion.Source.
func (j *Job) Attach(p completion.Poster) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.attachErr != nil {
		return j.attachErr
	}
	j.posters = append(j.posters, p)
	return nil
}

// Emit delivers one notification to every attached queue.
func (j *Job) Emit(code api.EventCode, value uint32) error {
	j.mu.Lock()
	posters := append([]completion.Poster(nil), j.posters...)
	j.mu.Unlock()
	for _, p := range posters {
		if err := p.Post(api.Packet{Code: code, Value: value}); err != nil {
			return err
		}
	}
	return nil
}
