//go:build windows

package arena_test

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func nativeToString(p unsafe.Pointer) string {
	return windows.UTF16PtrToString((*uint16)(p))
}
