//go:build windows
// +build windows

// File: procinfo/procinfo_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// OpenProcess / EnumProcessModules / GetModuleBaseName based inspector.

package procinfo

import (
	"fmt"
	"unsafe"

	"github.com/momentics/jobnotify/api"
	"github.com/momentics/jobnotify/arena"
	"golang.org/x/sys/windows"
)

// moduleNameChars is the size of the module base-name buffer, in UTF-16 units.
const moduleNameChars = 1024

type windowsInspector struct {
	arenaMax int
}

// New returns the Windows inspector. arenaMax bounds the scratch arena used per query.
func New(arenaMax int) Inspector {
	return &windowsInspector{arenaMax: arenaMax}
}

func (w *windowsInspector) Open(pid uint32) (Process, error) {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION|windows.PROCESS_VM_READ, false, pid)
	if err != nil {
		return nil, fmt.Errorf("open process %d: %v: %w", pid, err, api.ErrNoProcess)
	}
	return &windowsProcess{pid: pid, h: h, arenaMax: w.arenaMax}, nil
}

type windowsProcess struct {
	pid      uint32
	h        windows.Handle
	arenaMax int
}

func (p *windowsProcess) Pid() uint32 { return p.pid }

func (p *windowsProcess) ExitCode() (uint32, error) {
	var code uint32
	if err := windows.GetExitCodeProcess(p.h, &code); err != nil {
		return 0, fmt.Errorf("GetExitCodeProcess %d: %w", p.pid, err)
	}
	return code, nil
}

func (p *windowsProcess) ImagePath() (string, error) {
	var name string
	err := arena.Scoped(arena.NewStack(arena.WithMaxBytes(p.arenaMax)), func(a *arena.Arena) error {
		var mod windows.Handle
		var needed uint32
		if err := windows.EnumProcessModules(p.h, &mod, uint32(unsafe.Sizeof(mod)), &needed); err != nil {
			return fmt.Errorf("EnumProcessModules %d: %w", p.pid, err)
		}
		buf, err := a.Allocate(moduleNameChars * 2)
		if err != nil {
			return err
		}
		ptr := (*uint16)(unsafe.Pointer(&buf[0]))
		if err := windows.GetModuleBaseName(p.h, mod, ptr, moduleNameChars); err != nil {
			return fmt.Errorf("GetModuleBaseName %d: %w", p.pid, err)
		}
		name = windows.UTF16PtrToString(ptr)
		return nil
	})
	return name, err
}

func (p *windowsProcess) Close() error {
	if p.h == 0 {
		return nil
	}
	err := windows.CloseHandle(p.h)
	p.h = 0
	return err
}
