// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics and debug introspection for jobnotify.
//
// Provides concurrent-safe state handling primitives including:
//   - YAML configuration with defaults and validation
//   - Metrics counters updated by the notification pump
//   - Debug probe registration and state export
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
