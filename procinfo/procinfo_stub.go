//go:build !linux && !windows
// +build !linux,!windows

// File: procinfo/procinfo_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package procinfo

import (
	"fmt"

	"github.com/momentics/jobnotify/api"
)

type stubInspector struct{}

// New returns an inspector that resolves nothing on this platform.
func New(int) Inspector { return stubInspector{} }

func (stubInspector) Open(pid uint32) (Process, error) {
	return nil, fmt.Errorf("open process %d: %w: %w", pid, api.ErrNotSupported, api.ErrNoProcess)
}
