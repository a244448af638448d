// File: event/process.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package event

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/momentics/jobnotify/api"
	"github.com/momentics/jobnotify/procinfo"
)

// ProcessBase is embedded by payloads whose value is a process id.
// Resolution happens on first use and is attempted at most once per payload.
type ProcessBase struct {
	Base
	inspector procinfo.Inspector

	mu       sync.Mutex
	resolved bool
	proc     procinfo.Process
	pathDone bool
	path     string
	pathErr  error
}

func (p *ProcessBase) init(env Env) {
	p.Base.init(env)
	p.inspector = env.Inspector
}

// ProcessID returns the id of the process the notification refers to.
func (p *ProcessBase) ProcessID() uint32 { return p.value }

// Process returns the resolved process, or nil when it has already exited or
// cannot be opened. A nil result is expected, not exceptional.
func (p *ProcessBase) Process() procinfo.Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processLocked()
}

func (p *ProcessBase) processLocked() procinfo.Process {
	if p.resolved {
		return p.proc
	}
	p.resolved = true
	if p.inspector == nil {
		return nil
	}
	proc, err := p.inspector.Open(p.value)
	if err != nil {
		p.log.Debug().Uint32("pid", p.value).Err(err).Msg("process not resolved")
		return nil
	}
	p.proc = proc
	return proc
}

// Path returns the image path or module base name of the process.
// Failures are surfaced to the caller.
func (p *ProcessBase) Path() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pathDone {
		return p.path, p.pathErr
	}
	p.pathDone = true
	proc := p.processLocked()
	if proc == nil {
		p.pathErr = fmt.Errorf("process %d: %w", p.value, api.ErrNoProcess)
		return "", p.pathErr
	}
	p.path, p.pathErr = proc.ImagePath()
	return p.path, p.pathErr
}

// Name returns the image name without extension, or the decimal process id when
// the image cannot be determined.
func (p *ProcessBase) Name() string {
	path, err := p.Path()
	if err != nil || path == "" {
		return strconv.FormatUint(uint64(p.value), 10)
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Release closes the resolved process handle, if any.
func (p *ProcessBase) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.proc != nil {
		_ = p.proc.Close()
		p.proc = nil
	}
}

// exitCode returns the recorded exit code of the resolved process.
func (p *ProcessBase) exitCode() (uint32, bool) {
	proc := p.Process()
	if proc == nil {
		return 0, false
	}
	code, err := proc.ExitCode()
	if err != nil {
		p.log.Debug().Uint32("pid", p.value).Err(err).Msg("exit code not available")
		return 0, false
	}
	return code, true
}
