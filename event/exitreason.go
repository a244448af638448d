// File: event/exitreason.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package event

import "fmt"

// ExitReason classifies an abnormal process exit by its NTSTATUS exit code.
type ExitReason uint32

const (
	ExitReasonUnknown                 ExitReason = 0
	ExitReasonGuardPageViolation      ExitReason = 0x80000001
	ExitReasonDatatypeMisalignment    ExitReason = 0x80000002
	ExitReasonBreakpoint              ExitReason = 0x80000003
	ExitReasonSingleStep              ExitReason = 0x80000004
	ExitReasonAccessViolation         ExitReason = 0xC0000005
	ExitReasonInPageError             ExitReason = 0xC0000006
	ExitReasonInvalidHandle           ExitReason = 0xC0000008
	ExitReasonNoMemory                ExitReason = 0xC0000017
	ExitReasonIllegalInstruction      ExitReason = 0xC000001D
	ExitReasonNoncontinuableException ExitReason = 0xC0000025
	ExitReasonInvalidDisposition      ExitReason = 0xC0000026
	ExitReasonArrayBoundsExceeded     ExitReason = 0xC000008C
	ExitReasonFloatDenormalOperand    ExitReason = 0xC000008D
	ExitReasonFloatDivideByZero       ExitReason = 0xC000008E
	ExitReasonFloatInexactResult      ExitReason = 0xC000008F
	ExitReasonFloatInvalidOperation   ExitReason = 0xC0000090
	ExitReasonFloatOverflow           ExitReason = 0xC0000091
	ExitReasonFloatStackCheck         ExitReason = 0xC0000092
	ExitReasonFloatUnderflow          ExitReason = 0xC0000093
	ExitReasonIntegerDivideByZero     ExitReason = 0xC0000094
	ExitReasonIntegerOverflow         ExitReason = 0xC0000095
	ExitReasonPrivilegedInstruction   ExitReason = 0xC0000096
	ExitReasonStackOverflow           ExitReason = 0xC00000FD
	ExitReasonControlCExit            ExitReason = 0xC000013A
	ExitReasonDllInitFailed           ExitReason = 0xC0000142
	ExitReasonStackBufferOverrun      ExitReason = 0xC0000409
)

var exitReasonNames = map[ExitReason]string{
	ExitReasonUnknown:                 "Unknown",
	ExitReasonGuardPageViolation:      "GuardPageViolation",
	ExitReasonDatatypeMisalignment:    "DatatypeMisalignment",
	ExitReasonBreakpoint:              "Breakpoint",
	ExitReasonSingleStep:              "SingleStep",
	ExitReasonAccessViolation:         "AccessViolation",
	ExitReasonInPageError:             "InPageError",
	ExitReasonInvalidHandle:           "InvalidHandle",
	ExitReasonNoMemory:                "NoMemory",
	ExitReasonIllegalInstruction:      "IllegalInstruction",
	ExitReasonNoncontinuableException: "NoncontinuableException",
	ExitReasonInvalidDisposition:      "InvalidDisposition",
	ExitReasonArrayBoundsExceeded:     "ArrayBoundsExceeded",
	ExitReasonFloatDenormalOperand:    "FloatDenormalOperand",
	ExitReasonFloatDivideByZero:       "FloatDivideByZero",
	ExitReasonFloatInexactResult:      "FloatInexactResult",
	ExitReasonFloatInvalidOperation:   "FloatInvalidOperation",
	ExitReasonFloatOverflow:           "FloatOverflow",
	ExitReasonFloatStackCheck:         "FloatStackCheck",
	ExitReasonFloatUnderflow:          "FloatUnderflow",
	ExitReasonIntegerDivideByZero:     "IntegerDivideByZero",
	ExitReasonIntegerOverflow:         "IntegerOverflow",
	ExitReasonPrivilegedInstruction:   "PrivilegedInstruction",
	ExitReasonStackOverflow:           "StackOverflow",
	ExitReasonControlCExit:            "ControlCExit",
	ExitReasonDllInitFailed:           "DllInitFailed",
	ExitReasonStackBufferOverrun:      "StackBufferOverrun",
}

// Known reports whether r is a member of the abnormal-exit reason set.
func (r ExitReason) Known() bool {
	_, ok := exitReasonNames[r]
	return ok
}

func (r ExitReason) String() string {
	if name, ok := exitReasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Unrecognized(0x%08X)", uint32(r))
}
