// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package event defines the typed payloads built from raw job notifications.
//
// A payload carries the owning job and the message-specific value of one
// notification. Process-scoped payloads resolve the process lazily and fail soft:
// a process that exited before resolution yields absent values or documented
// fallbacks, never an error from the accessor that defines a default.
package event
