package notify_test

import (
	"errors"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/jobnotify/api"
	"github.com/momentics/jobnotify/completion"
	"github.com/momentics/jobnotify/control"
	"github.com/momentics/jobnotify/event"
	"github.com/momentics/jobnotify/fake"
	"github.com/momentics/jobnotify/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type harness struct {
	pump      *notify.Pump
	job       *fake.Job
	inspector *fake.Inspector
	queue     *completion.MemoryQueue
}

func newHarness(t *testing.T, opts ...notify.Option) *harness {
	t.Helper()
	h := &harness{
		job:       fake.NewJob("test-job"),
		inspector: fake.NewInspector(),
		queue:     completion.NewMemory(),
	}
	all := append([]notify.Option{
		notify.WithQueue(h.queue),
		notify.WithInspector(h.inspector),
	}, opts...)
	p, err := notify.New(h.job, all...)
	require.NoError(t, err)
	h.pump = p
	t.Cleanup(func() { _ = p.Close() })
	return h
}

// flush blocks until every notification emitted before it has been dispatched.
func (h *harness) flush(t *testing.T) {
	t.Helper()
	reached := make(chan struct{})
	sub, err := h.pump.OnNotificationLimit(func(*event.NotificationLimit) error {
		close(reached)
		return nil
	})
	require.NoError(t, err)
	defer h.pump.Unsubscribe(sub)
	require.NoError(t, h.job.Emit(api.EventNotificationLimit, 0))
	select {
	case <-reached:
	case <-time.After(waitFor):
		t.Fatal("pump did not drain in time")
	}
}

func TestPumpStartsRunning(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, notify.StateRunning, h.pump.State())
	assert.Equal(t, "test-job", h.pump.Job().Name())
	assert.NoError(t, h.pump.Err())
}

func TestNoSubscriberIsNoop(t *testing.T) {
	errs := 0
	h := newHarness(t, notify.WithErrorHandler(func(*notify.ListenerError) { errs++ }))
	h.inspector.Add(10, fake.ProcessInfo{Path: "/bin/a", Running: true})

	for _, code := range event.Codes() {
		if code == api.EventNotificationLimit {
			continue
		}
		require.NoError(t, h.job.Emit(code, 10))
	}
	// Unknown codes are ignored as well.
	require.NoError(t, h.job.Emit(api.EventCode(5), 10))
	h.flush(t)

	assert.Zero(t, h.inspector.Opens(), "no payload may be built without listeners")
	assert.Zero(t, errs)
	assert.Zero(t, h.pump.Subscribers(api.EventNewProcess))
	assert.Equal(t, notify.StateRunning, h.pump.State())
}

func TestEmptyRegistryAfterUnsubscribeIsNoop(t *testing.T) {
	h := newHarness(t)
	h.inspector.Add(10, fake.ProcessInfo{Path: "/bin/a", Running: true})

	sub, err := h.pump.OnNewProcess(func(e *event.NewProcess) error {
		_ = e.Process()
		return nil
	})
	require.NoError(t, err)
	h.pump.Unsubscribe(sub)

	require.NoError(t, h.job.Emit(api.EventNewProcess, 10))
	h.flush(t)
	assert.Zero(t, h.inspector.Opens())
}

func TestListenersRunInRegistrationOrder(t *testing.T) {
	h := newHarness(t)
	const n = 5
	var (
		mu    sync.Mutex
		order []int
	)
	for i := 0; i < n; i++ {
		i := i
		_, err := h.pump.OnNewProcess(func(e *event.NewProcess) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, i)
			assert.Equal(t, uint32(42), e.ProcessID())
			return nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, n, h.pump.Subscribers(api.EventNewProcess))

	require.NoError(t, h.job.Emit(api.EventNewProcess, 42))
	h.flush(t)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFailingListenerIsIsolated(t *testing.T) {
	var (
		mu       sync.Mutex
		failures []*notify.ListenerError
	)
	h := newHarness(t, notify.WithErrorHandler(func(le *notify.ListenerError) {
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, le)
	}))

	boom := errors.New("boom")
	var calls atomic.Int32
	_, err := h.pump.OnExitProcess(func(*event.ExitProcess) error {
		calls.Add(1)
		return boom
	})
	require.NoError(t, err)
	_, err = h.pump.OnExitProcess(func(*event.ExitProcess) error {
		calls.Add(1)
		panic("listener exploded")
	})
	require.NoError(t, err)
	_, err = h.pump.OnExitProcess(func(*event.ExitProcess) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, h.job.Emit(api.EventExitProcess, 7))
	require.NoError(t, h.job.Emit(api.EventExitProcess, 8))
	h.flush(t)

	assert.Equal(t, int32(6), calls.Load(), "every listener runs for both notifications")
	assert.Equal(t, notify.StateRunning, h.pump.State())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failures, 4)
	assert.ErrorIs(t, failures[0], boom)
	assert.Equal(t, 0, failures[0].Index)
	assert.Equal(t, uint32(7), failures[0].Value)
	assert.Equal(t, api.EventExitProcess, failures[0].Code)
	assert.Equal(t, 1, failures[1].Index)
	assert.Equal(t, "listener exploded", failures[1].Panic)
	assert.Contains(t, failures[1].Error(), "panicked")
	assert.Equal(t, uint32(8), failures[3].Value)
}

func TestPanickingErrorHandlerDoesNotStopLoop(t *testing.T) {
	h := newHarness(t, notify.WithErrorHandler(func(*notify.ListenerError) { panic("handler") }))
	var calls atomic.Int32
	_, err := h.pump.OnActiveProcessZero(func(*event.ActiveProcessZero) error {
		calls.Add(1)
		return errors.New("fail")
	})
	require.NoError(t, err)

	require.NoError(t, h.job.Emit(api.EventActiveProcessZero, 0))
	require.NoError(t, h.job.Emit(api.EventActiveProcessZero, 0))
	h.flush(t)
	assert.Equal(t, int32(2), calls.Load())
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	h := newHarness(t)
	var calls atomic.Int32
	sub, err := h.pump.OnEndOfJobTime(func(*event.EndOfJobTime) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, sub.Valid())
	assert.Equal(t, api.EventEndOfJobTime, sub.Code())

	h.pump.Unsubscribe(sub)
	h.pump.Unsubscribe(sub)
	h.pump.Unsubscribe(notify.Subscription{})
	assert.Zero(t, h.pump.Subscribers(api.EventEndOfJobTime))
	assert.Zero(t, h.pump.Subscribers(api.EventJobMemoryLimit))

	require.NoError(t, h.job.Emit(api.EventEndOfJobTime, 0))
	h.flush(t)
	assert.Zero(t, calls.Load())
}

func TestUnsubscribeKeepsOtherListeners(t *testing.T) {
	h := newHarness(t)
	var got []string
	var mu sync.Mutex
	record := func(tag string) func(*event.JobMemoryLimit) error {
		return func(*event.JobMemoryLimit) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, tag)
			return nil
		}
	}
	_, err := h.pump.OnJobMemoryLimit(record("a"))
	require.NoError(t, err)
	b, err := h.pump.OnJobMemoryLimit(record("b"))
	require.NoError(t, err)
	_, err = h.pump.OnJobMemoryLimit(record("c"))
	require.NoError(t, err)
	h.pump.Unsubscribe(b)

	require.NoError(t, h.job.Emit(api.EventJobMemoryLimit, 1))
	h.flush(t)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "c"}, got)
}

func TestSubscribeCodeChecksListenerType(t *testing.T) {
	h := newHarness(t)

	_, err := h.pump.SubscribeCode(api.EventNewProcess, func(*event.ExitProcess) error { return nil })
	assert.ErrorIs(t, err, api.ErrListenerType)
	_, err = h.pump.SubscribeCode(api.EventNewProcess, "not a func")
	assert.ErrorIs(t, err, api.ErrListenerType)
	_, err = h.pump.SubscribeCode(api.EventCode(99), func(*event.NewProcess) error { return nil })
	assert.ErrorIs(t, err, api.ErrUnknownEvent)
	_, err = h.pump.OnNewProcess(nil)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	seen := make(chan uint32, 2)
	_, err = h.pump.SubscribeCode(api.EventNewProcess, func(e *event.NewProcess) { seen <- e.ProcessID() })
	require.NoError(t, err)
	_, err = h.pump.SubscribeCode(api.EventNewProcess, func(e *event.NewProcess) error {
		seen <- e.ProcessID() + 1
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, h.job.Emit(api.EventNewProcess, 3))
	h.flush(t)
	require.Len(t, seen, 2)
	assert.Equal(t, uint32(3), <-seen)
	assert.Equal(t, uint32(4), <-seen)
}

func TestPayloadIsReleasedAfterDispatch(t *testing.T) {
	h := newHarness(t)
	h.inspector.Add(9, fake.ProcessInfo{Path: "/bin/worker", Running: true})

	names := make(chan string, 2)
	for i := 0; i < 2; i++ {
		_, err := h.pump.OnNewProcess(func(e *event.NewProcess) error {
			names <- e.Name()
			return nil
		})
		require.NoError(t, err)
	}
	require.NoError(t, h.job.Emit(api.EventNewProcess, 9))
	h.flush(t)

	assert.Equal(t, "worker", <-names)
	assert.Equal(t, "worker", <-names)
	assert.Equal(t, 1, h.inspector.Opens(), "one resolution shared by all listeners")
	assert.Equal(t, 1, h.inspector.Closes())
}

func TestEndToEndAddedThenAbnormalExit(t *testing.T) {
	h := newHarness(t)
	const pid1, pid2 = 1200, 1300
	h.inspector.Add(pid1, fake.ProcessInfo{Path: "/opt/app/server.exe", Running: true})
	h.inspector.Add(pid2, fake.ProcessInfo{Path: "/opt/app/helper.exe", ExitCode: 0xC0000005})
	h.inspector.Remove(pid2)

	added := make(chan *event.NewProcess, 4)
	crashed := make(chan string, 4)
	reasons := make(chan event.ExitReason, 4)

	_, err := h.pump.OnNewProcess(func(e *event.NewProcess) error {
		added <- e
		assert.Equal(t, "server", e.Name())
		return nil
	})
	require.NoError(t, err)
	_, err = h.pump.OnAbnormalExit(func(e *event.AbnormalExitProcess) error {
		assert.Nil(t, e.Process())
		reasons <- e.ExitReason()
		crashed <- e.ExitReasonMessage()
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, h.job.Emit(api.EventNewProcess, pid1))
	require.NoError(t, h.job.Emit(api.EventAbnormalExitProcess, pid2))
	h.flush(t)

	require.Len(t, added, 1)
	assert.Equal(t, uint32(pid1), (<-added).ProcessID())
	require.Len(t, crashed, 1)
	assert.Equal(t, event.ExitReasonUnknown, <-reasons)
	assert.Contains(t, <-crashed, strconv.Itoa(pid2))
}

func TestCloseJoinsAndReleasesQueue(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.pump.Close())

	select {
	case <-h.pump.Done():
	default:
		t.Fatal("Close returned before the pump goroutine finished")
	}
	assert.Equal(t, notify.StateTerminated, h.pump.State())
	assert.NoError(t, h.pump.Err())
	assert.ErrorIs(t, h.queue.Post(api.Packet{}), api.ErrClosed)
	assert.NoError(t, h.pump.Close(), "second Close is a no-op")
}

func TestCloseAbandonsBlockedListener(t *testing.T) {
	h := newHarness(t, notify.WithJoinTimeout(50*time.Millisecond))

	entered := make(chan struct{})
	release := make(chan struct{})
	_, err := h.pump.OnNewProcess(func(*event.NewProcess) error {
		close(entered)
		<-release
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, h.job.Emit(api.EventNewProcess, 1))
	<-entered

	start := time.Now()
	require.NoError(t, h.pump.Close())
	assert.Less(t, time.Since(start), waitFor)
	assert.Equal(t, notify.StateTerminated, h.pump.State())
	assert.ErrorIs(t, h.queue.Post(api.Packet{}), api.ErrClosed, "queue released despite the timeout")

	close(release)
	select {
	case <-h.pump.Done():
	case <-time.After(waitFor):
		t.Fatal("abandoned goroutine did not end after the queue was released")
	}
	assert.NoError(t, h.pump.Err())
}

// brokenQueue fails its first Wait.
type brokenQueue struct {
	*completion.MemoryQueue
	err error
}

func (q *brokenQueue) Wait() (api.Packet, error) { return api.Packet{}, q.err }

func TestQueueWaitFailureIsFatal(t *testing.T) {
	cause := errors.New("port gone")
	q := &brokenQueue{MemoryQueue: completion.NewMemory(), err: cause}
	fatal := make(chan error, 1)
	job := fake.NewJob("broken")

	p, err := notify.New(job,
		notify.WithQueue(q),
		notify.WithInspector(fake.NewInspector()),
		notify.WithFatalHandler(func(err error) { fatal <- err }),
	)
	require.NoError(t, err)
	defer p.Close()

	select {
	case <-p.Done():
	case <-time.After(waitFor):
		t.Fatal("pump kept running after a wait failure")
	}
	assert.Equal(t, notify.StateTerminated, p.State())
	require.Error(t, p.Err())
	assert.ErrorIs(t, p.Err(), cause)
	assert.True(t, api.IsCode(p.Err(), api.ErrCodeQueueWait))
	require.Len(t, fatal, 1)
	assert.ErrorIs(t, <-fatal, cause)
	assert.NoError(t, p.Close())
}

func TestSetupFailure(t *testing.T) {
	job := fake.NewJob("unattachable")
	cause := errors.New("association refused")
	job.SetAttachError(cause)
	q := completion.NewMemory()

	p, err := notify.New(job, notify.WithQueue(q), notify.WithInspector(fake.NewInspector()))
	require.Error(t, err)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, cause)
	assert.True(t, api.IsCode(err, api.ErrCodeSetup))
	assert.ErrorIs(t, q.Post(api.Packet{}), api.ErrClosed, "queue released on failed setup")

	_, err = notify.New(nil)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestInvalidConfigFailsSetup(t *testing.T) {
	cfg := control.DefaultConfig()
	cfg.QueueBackend = "carrier-pigeon"
	for name, c := range map[string]*control.Config{
		"unknown backend": cfg,
		"zero value":      {},
	} {
		t.Run(name, func(t *testing.T) {
			q := completion.NewMemory()
			p, err := notify.New(fake.NewJob("j"), notify.WithQueue(q), notify.WithConfig(c),
				notify.WithInspector(fake.NewInspector()))
			assert.Nil(t, p)
			assert.ErrorIs(t, err, api.ErrInvalidArgument)
			assert.True(t, api.IsCode(err, api.ErrCodeInvalidArgument))
		})
	}
}

func TestMetricsAndProbes(t *testing.T) {
	mr := control.NewMetricsRegistry()
	dp := control.NewDebugProbes()
	h := newHarness(t, notify.WithMetrics(mr), notify.WithDebugProbes(dp),
		notify.WithErrorHandler(func(*notify.ListenerError) {}))

	_, err := h.pump.OnExitProcess(func(*event.ExitProcess) error { return errors.New("x") })
	require.NoError(t, err)
	_, err = h.pump.OnExitProcess(func(*event.ExitProcess) error { return nil })
	require.NoError(t, err)

	require.NoError(t, h.job.Emit(api.EventExitProcess, 1))
	require.NoError(t, h.job.Emit(api.EventEndOfJobTime, 0))
	h.flush(t)

	// flush itself adds one received and one dispatched notification with one listener.
	assert.Equal(t, int64(3), mr.Counter(notify.MetricReceived))
	assert.Equal(t, int64(2), mr.Counter(notify.MetricDispatched))
	assert.Equal(t, int64(1), mr.Counter(notify.MetricIgnored))
	assert.Equal(t, int64(3), mr.Counter(notify.MetricInvoked))
	assert.Equal(t, int64(1), mr.Counter(notify.MetricFailed))
	assert.Equal(t, "running", h.pump.Stats()[notify.MetricState])

	state := h.pump.DumpState()
	assert.Equal(t, "running", state["pump.state"])
	regs, ok := state["pump.registries"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 2, regs[api.EventExitProcess.String()])
	assert.Nil(t, state["pump.err"])
	assert.Contains(t, state, "platform.cpus")
	assert.Equal(t, "memory", state["pump.queue"])

	require.NoError(t, h.pump.Close())
	assert.Equal(t, "terminated", h.pump.Stats()[notify.MetricState])
}

func TestWithConfigEnablesMetrics(t *testing.T) {
	cfg := control.DefaultConfig()
	cfg.QueueBackend = "memory"
	cfg.JoinTimeout = 100 * time.Millisecond
	p, err := notify.New(fake.NewJob("cfg"), notify.WithConfig(cfg), notify.WithInspector(fake.NewInspector()))
	require.NoError(t, err)
	defer p.Close()

	assert.NotNil(t, p.Stats())
	assert.NotNil(t, p.DumpState())

	plain := newHarness(t)
	assert.Nil(t, plain.pump.Stats())
	assert.Nil(t, plain.pump.DumpState())
}

func TestPinnedPumpDelivers(t *testing.T) {
	h := newHarness(t, notify.WithCPU(0))
	got := make(chan uint32, 1)
	_, err := h.pump.OnProcessMemoryLimit(func(e *event.ProcessMemoryLimit) error {
		got <- e.ProcessID()
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, h.job.Emit(api.EventProcessMemoryLimit, 77))
	h.flush(t)
	assert.Equal(t, uint32(77), <-got)
}

func TestUnsubscribeIgnoresOtherPumpsSubscription(t *testing.T) {
	a := newHarness(t)
	b := newHarness(t)
	fn := func(*event.NewProcess) error { return nil }

	subA, err := a.pump.OnNewProcess(fn)
	require.NoError(t, err)
	_, err = b.pump.OnNewProcess(fn)
	require.NoError(t, err)

	b.pump.Unsubscribe(subA)
	assert.Equal(t, 1, b.pump.Subscribers(api.EventNewProcess))
	assert.Equal(t, 1, a.pump.Subscribers(api.EventNewProcess))

	a.pump.Unsubscribe(subA)
	assert.Zero(t, a.pump.Subscribers(api.EventNewProcess))
}

func TestCloseFromListener(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "windows" {
		t.Skip("pump thread identity unavailable")
	}
	h := newHarness(t)
	took := make(chan time.Duration, 1)
	_, err := h.pump.OnActiveProcessZero(func(*event.ActiveProcessZero) error {
		start := time.Now()
		err := h.pump.Close()
		took <- time.Since(start)
		assert.Equal(t, notify.StateExitRequested, h.pump.State())
		return err
	})
	require.NoError(t, err)
	require.NoError(t, h.job.Emit(api.EventActiveProcessZero, 0))

	select {
	case d := <-took:
		assert.Less(t, d, notify.DefaultJoinTimeout/4)
	case <-time.After(waitFor):
		t.Fatal("listener never ran")
	}
	select {
	case <-h.pump.Done():
	case <-time.After(waitFor):
		t.Fatal("pump did not stop after Close from a listener")
	}
	assert.Equal(t, notify.StateTerminated, h.pump.State())
	assert.NoError(t, h.pump.Err())
	assert.ErrorIs(t, h.queue.Post(api.Packet{}), api.ErrClosed, "queue released by the exiting loop")
}
