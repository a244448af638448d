// File: api/control.go
// Package api defines the Metrics sink.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Metrics records pump counters and gauges.
type Metrics interface {
	Set(key string, value any)
	Add(key string, delta int64)
	GetSnapshot() map[string]any
}
