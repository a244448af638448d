//go:build !windows
// +build !windows

// File: completion/native_other.go
// Author: momentics <momentics@gmail.com>

package completion

import (
	"fmt"

	"github.com/momentics/jobnotify/api"
)

// NewNative is only available on Windows.
func NewNative() (Queue, error) {
	return nil, fmt.Errorf("completion: native queue: %w", api.ErrNotSupported)
}

func newPlatform() (Queue, error) { return NewMemory(), nil }
