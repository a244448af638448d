//go:build windows
// +build windows

// File: completion/native_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows IOCP (I/O Completion Port) queue associated with a job object.

package completion

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/momentics/jobnotify/api"
	"golang.org/x/sys/windows"
)

var (
	kern32                         = windows.NewLazySystemDLL("kernel32.dll")
	procPostQueuedCompletionStatus = kern32.NewProc("PostQueuedCompletionStatus")
)

// jobAssociateCompletionPort mirrors JOBOBJECT_ASSOCIATE_COMPLETION_PORT.
type jobAssociateCompletionPort struct {
	CompletionKey  uintptr
	CompletionPort windows.Handle
}

// iocpQueue is a completion port with one concurrent consumer.
type iocpQueue struct {
	port   windows.Handle
	closed atomic.Bool
}

// NewNative creates an IOCP-backed queue.
func NewNative() (Queue, error) {
	port, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("iocp create: %w", err)
	}
	return &iocpQueue{port: port}, nil
}

func newPlatform() (Queue, error) { return NewNative() }

func (q *iocpQueue) Backend() Backend { return BackendNative }

func (q *iocpQueue) Associate(job api.Job) error {
	info := jobAssociateCompletionPort{
		CompletionKey:  0,
		CompletionPort: q.port,
	}
	_, err := windows.SetInformationJobObject(
		windows.Handle(job.NativeHandle()),
		windows.JobObjectAssociateCompletionPortInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	)
	if err != nil {
		return fmt.Errorf("iocp associate job %q: %w", job.Name(), err)
	}
	return nil
}

func (q *iocpQueue) Wait() (api.Packet, error) {
	var code uint32
	var key uintptr
	// Job objects store the message-specific value in the overlapped slot; it is
	// not a pointer, so it is received into an integer.
	var value uintptr
	err := windows.GetQueuedCompletionStatus(q.port, &code, &key,
		(**windows.Overlapped)(unsafe.Pointer(&value)), windows.INFINITE)
	if err != nil {
		return api.Packet{}, fmt.Errorf("iocp wait: %w", err)
	}
	return api.Packet{Code: api.EventCode(code), Value: uint32(value), Key: key}, nil
}

func (q *iocpQueue) Post(p api.Packet) error {
	r, _, err := procPostQueuedCompletionStatus.Call(
		uintptr(q.port),
		uintptr(p.Code),
		p.Key,
		uintptr(p.Value),
	)
	if r == 0 {
		return fmt.Errorf("iocp post: %w", err)
	}
	return nil
}

// Close releases the port. A consumer blocked in Wait wakes with ERROR_ABANDONED_WAIT_0.
func (q *iocpQueue) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return nil
	}
	return windows.CloseHandle(q.port)
}
