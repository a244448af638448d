// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package notify implements the job notification pump.
//
// A Pump owns a completion queue associated with a job and one dedicated goroutine
// that blocks on it. Every dequeued notification is looked up by event code in the
// registry map and dispatched synchronously, in registration order, to the listeners
// subscribed for that code. Listener errors and panics are isolated and reported
// through an ErrorHandler; they never stop the remaining listeners or the loop.
//
// Listeners run on the pump goroutine: a slow listener delays every later
// notification. Listeners needing isolation must hand work off themselves.
package notify
