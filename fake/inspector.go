// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/momentics/jobnotify/api"
	"github.com/momentics/jobnotify/procinfo"
)

// ProcessInfo describes a fake process.
type ProcessInfo struct {
	Path     string
	PathErr  error
	ExitCode uint32
	Running  bool
}

// Inspector resolves processes from an in-memory table.
type Inspector struct {
	mu     sync.Mutex
	procs  map[uint32]ProcessInfo
	opens  atomic.Int64
	closes atomic.Int64
}

var _ procinfo.Inspector = (*Inspector)(nil)

// NewInspector creates an empty process table.
func NewInspector() *Inspector {
	return &Inspector{procs: make(map[uint32]ProcessInfo)}
}

// Add registers or replaces a process.
func (i *Inspector) Add(pid uint32, info ProcessInfo) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.procs[pid] = info
}

// Remove forgets a process, as if it had been reaped.
func (i *Inspector) Remove(pid uint32) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.procs, pid)
}

// Opens reports how many Open calls were made.
func (i *Inspector) Opens() int { return int(i.opens.Load()) }

// Closes reports how many resolved processes were closed.
func (i *Inspector) Closes() int { return int(i.closes.Load()) }

// Open implements procinfo.Inspector.
func (i *Inspector) Open(pid uint32) (procinfo.Process, error) {
	i.opens.Add(1)
	i.mu.Lock()
	info, ok := i.procs[pid]
	i.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("open process %d: %w", pid, api.ErrNoProcess)
	}
	return &process{pid: pid, info: info, owner: i}, nil
}

type process struct {
	pid    uint32
	info   ProcessInfo
	owner  *Inspector
	closed bool
}

func (p *process) Pid() uint32 { return p.pid }

func (p *process) ExitCode() (uint32, error) {
	if p.info.Running {
		return 0, fmt.Errorf("process %d still active", p.pid)
	}
	return p.info.ExitCode, nil
}

func (p *process) ImagePath() (string, error) {
	if p.info.PathErr != nil {
		return "", p.info.PathErr
	}
	return p.info.Path, nil
}

func (p *process) Close() error {
	if !p.closed {
		p.closed = true
		p.owner.closes.Add(1)
	}
	return nil
}
