// File: api/job.go
// Author: momentics <momentics@gmail.com>
//
// Job handle contract and the native event codes it delivers.

package api

import "fmt"

// Job is an opaque reference to an OS resource-control group.
// The notification engine only reads the handle; it never creates or destroys it.
type Job interface {
	// NativeHandle returns the OS handle of the job object.
	NativeHandle() uintptr
	// Name returns a human-readable job name, possibly empty.
	Name() string
}

// EventCode classifies a job notification.
// Values match the JOB_OBJECT_MSG_* constants delivered through the completion port.
type EventCode uint32

const (
	EventEndOfJobTime        EventCode = 1
	EventEndOfProcessTime    EventCode = 2
	EventActiveProcessLimit  EventCode = 3
	EventActiveProcessZero   EventCode = 4
	EventNewProcess          EventCode = 6
	EventExitProcess         EventCode = 7
	EventAbnormalExitProcess EventCode = 8
	EventProcessMemoryLimit  EventCode = 9
	EventJobMemoryLimit      EventCode = 10
	EventNotificationLimit   EventCode = 11
)

func (c EventCode) String() string {
	switch c {
	case EventEndOfJobTime:
		return "end-of-job-time"
	case EventEndOfProcessTime:
		return "end-of-process-time"
	case EventActiveProcessLimit:
		return "active-process-limit"
	case EventActiveProcessZero:
		return "active-process-zero"
	case EventNewProcess:
		return "new-process"
	case EventExitProcess:
		return "exit-process"
	case EventAbnormalExitProcess:
		return "abnormal-exit-process"
	case EventProcessMemoryLimit:
		return "process-memory-limit"
	case EventJobMemoryLimit:
		return "job-memory-limit"
	case EventNotificationLimit:
		return "notification-limit"
	default:
		return fmt.Sprintf("event(%d)", uint32(c))
	}
}

// Packet is one entry dequeued from a completion queue.
type Packet struct {
	Code  EventCode // native event code (bytes-transferred slot)
	Value uint32    // message-specific value (overlapped slot)
	Key   uintptr   // completion key
}
