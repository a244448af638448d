// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package completion provides the completion queue a job delivers its notifications
// through: an IOCP backend on Windows and an in-memory backend usable everywhere.
package completion
