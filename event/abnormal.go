// File: event/abnormal.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package event

import (
	"fmt"
	"sync"
)

// AbnormalExitProcess reports a process that terminated abnormally.
type AbnormalExitProcess struct {
	ProcessBase

	reasonOnce sync.Once
	reason     ExitReason
}

// ExitReason classifies the exit. It is ExitReasonUnknown when the process can
// no longer be resolved. An exit code outside the abnormal-exit set is logged and
// returned as-is; Known reports false for it.
func (e *AbnormalExitProcess) ExitReason() ExitReason {
	e.reasonOnce.Do(func() {
		code, ok := e.exitCode()
		if !ok {
			e.reason = ExitReasonUnknown
			return
		}
		e.reason = ExitReason(code)
		if !e.reason.Known() {
			e.log.Warn().
				Uint32("pid", e.value).
				Str("exit_code", fmt.Sprintf("0x%08X", code)).
				Msg("abnormal exit code outside the known reason set")
		}
	})
	return e.reason
}

// ExitReasonMessage describes the exit for humans.
func (e *AbnormalExitProcess) ExitReasonMessage() string {
	if e.Process() == nil {
		return fmt.Sprintf("Process id %d has abnormal terminated", e.value)
	}
	return fmt.Sprintf("Process %s (id: %d) has abnormal terminated. The exit reason is: %s",
		e.Name(), e.value, e.ExitReason())
}
