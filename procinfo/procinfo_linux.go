//go:build linux
// +build linux

// File: procinfo/procinfo_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// procfs based inspector. The image path is read with a raw readlinkat(2) whose
// path and result buffer both live in a scratch arena.

package procinfo

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"github.com/momentics/jobnotify/api"
	"github.com/momentics/jobnotify/arena"
	"golang.org/x/sys/unix"
)

const procRoot = "/proc"

// statExitCodeField is the 1-based index of exit_code in /proc/<pid>/stat.
const statExitCodeField = 52

// errStillActive is returned by ExitCode for a process that has not terminated.
var errStillActive = errors.New("process still active")

type linuxInspector struct {
	arenaMax int
}

// New returns the Linux inspector. arenaMax bounds the scratch arena used per query.
func New(arenaMax int) Inspector {
	return &linuxInspector{arenaMax: arenaMax}
}

func (l *linuxInspector) Open(pid uint32) (Process, error) {
	if pid == 0 {
		return nil, fmt.Errorf("open process 0: %w", api.ErrNoProcess)
	}
	var st unix.Stat_t
	dir := procRoot + "/" + strconv.FormatUint(uint64(pid), 10)
	if err := unix.Stat(dir, &st); err != nil {
		return nil, fmt.Errorf("open process %d: %v: %w", pid, err, api.ErrNoProcess)
	}
	return &linuxProcess{pid: pid, dir: dir, arenaMax: l.arenaMax}, nil
}

type linuxProcess struct {
	pid      uint32
	dir      string
	arenaMax int
}

func (p *linuxProcess) Pid() uint32 { return p.pid }

// ExitCode reads exit_code from the stat record of a zombie. Termination by signal
// is reported in the NTSTATUS space so classification is platform independent.
func (p *linuxProcess) ExitCode() (uint32, error) {
	raw, err := os.ReadFile(p.dir + "/stat")
	if err != nil {
		return 0, fmt.Errorf("read stat %d: %w", p.pid, err)
	}
	s := string(raw)
	end := strings.LastIndexByte(s, ')')
	if end < 0 {
		return 0, fmt.Errorf("parse stat %d: malformed record", p.pid)
	}
	fields := strings.Fields(s[end+1:])
	// fields[0] is field 3 (state)
	if len(fields) == 0 {
		return 0, fmt.Errorf("parse stat %d: missing state", p.pid)
	}
	if fields[0] != "Z" && fields[0] != "X" {
		return 0, errStillActive
	}
	idx := statExitCodeField - 3
	if len(fields) <= idx {
		return 0, fmt.Errorf("parse stat %d: no exit_code field", p.pid)
	}
	status, err := strconv.ParseUint(fields[idx], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse stat %d: %w", p.pid, err)
	}
	ws := unix.WaitStatus(status)
	if ws.Signaled() {
		return signalStatus(ws.Signal()), nil
	}
	return uint32(ws.ExitStatus()), nil
}

func (p *linuxProcess) ImagePath() (string, error) {
	var path string
	err := arena.Scoped(arena.NewStack(arena.WithMaxBytes(p.arenaMax)), func(a *arena.Arena) error {
		var err error
		path, err = readlink(a, p.dir+"/exe", unix.PathMax)
		return err
	})
	return path, err
}

// readlink resolves link into a size-byte arena buffer. A result filling the
// whole buffer may be truncated and is rejected.
func readlink(a *arena.Arena, link string, size int) (string, error) {
	native, err := a.ConvertToNativeString(link)
	if err != nil {
		return "", err
	}
	buf, err := a.Allocate(size)
	if err != nil {
		return "", err
	}
	dirfd := unix.AT_FDCWD
	n, _, errno := unix.Syscall6(unix.SYS_READLINKAT,
		uintptr(dirfd),
		uintptr(native),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
		0, 0)
	if errno != 0 {
		return "", fmt.Errorf("readlink %s: %w", link, errno)
	}
	if int(n) >= len(buf) {
		return "", fmt.Errorf("readlink %s: %w", link, unix.ENAMETOOLONG)
	}
	return string(buf[:n]), nil
}

func (p *linuxProcess) Close() error { return nil }

func signalStatus(sig unix.Signal) uint32 {
	switch sig {
	case unix.SIGSEGV:
		return 0xC0000005 // access violation
	case unix.SIGBUS:
		return 0x80000002 // datatype misalignment
	case unix.SIGFPE:
		return 0xC0000094 // integer divide by zero
	case unix.SIGILL:
		return 0xC000001D // illegal instruction
	case unix.SIGTRAP:
		return 0x80000003 // breakpoint
	case unix.SIGINT:
		return 0xC000013A // control-c exit
	case unix.SIGABRT:
		return 0xC0000409 // stack buffer overrun / fail-fast
	default:
		return 0xC0000000 | uint32(sig)
	}
}
