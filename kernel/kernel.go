package kernel

import "time"

// Task is one continuation scheduled on the kernel.
type Task = func()

// Kernel is a minimal single-threaded cooperative scheduler.
//
// Tasks queued with Defer are runnable right away; tasks queued with OnFrame
// stay parked until the next Tick. The host calls Tick once per display
// refresh and then RunUntil for the slice of the refresh it can spare, so
// deferred tasks run as often as time allows while frame tasks run at most
// once per refresh.
//
// A Kernel is not safe for concurrent use: every method must be called from
// the goroutine that drives the host loop. No two tasks ever run at the same
// time.
type Kernel struct {
	runnable []Task
	tickWait []Task

	tick uint64
	seq  uint64

	panicked bool
	onPanic  func(PanicInfo)
}

// New creates a kernel instance.
func New() *Kernel {
	return &Kernel{}
}

// Defer queues t to run at the next idle scheduling slot.
func (k *Kernel) Defer(t Task) {
	if t == nil || k.panicked {
		return
	}
	k.runnable = append(k.runnable, t)
}

// OnFrame parks t until the next Tick.
func (k *Kernel) OnFrame(t Task) {
	if t == nil || k.panicked {
		return
	}
	k.tickWait = append(k.tickWait, t)
}

// Step runs at most one runnable task and reports whether it ran one.
func (k *Kernel) Step() bool {
	if k.panicked || len(k.runnable) == 0 {
		return false
	}

	t := k.runnable[0]
	k.runnable[0] = nil
	k.runnable = k.runnable[1:]
	k.seq++
	k.run(t)
	return true
}

func (k *Kernel) run(t Task) {
	defer func() {
		if r := recover(); r != nil {
			k.triggerPanic(PanicInfo{Task: k.seq, Tick: k.tick, Value: r, Stack: captureStack()})
		}
	}()
	t()
}

// Tick wakes every task parked with OnFrame.
//
// Woken tasks are queued behind tasks that were already runnable.
func (k *Kernel) Tick() {
	k.tick++
	if len(k.tickWait) == 0 {
		return
	}
	k.runnable = append(k.runnable, k.tickWait...)
	clear(k.tickWait)
	k.tickWait = k.tickWait[:0]
}

// NowTick returns the number of Tick calls so far.
func (k *Kernel) NowTick() uint64 { return k.tick }

// RunUntil runs runnable tasks until none are left or now reports a time at
// or past deadline. It returns the number of tasks run.
func (k *Kernel) RunUntil(deadline time.Time, now func() time.Time) int {
	n := 0
	for now().Before(deadline) {
		if !k.Step() {
			break
		}
		n++
	}
	return n
}

// Drain runs runnable tasks, including ones they queue with Defer, until
// none are left or limit tasks have run. A limit of 0 means no limit.
func (k *Kernel) Drain(limit int) int {
	n := 0
	for limit == 0 || n < limit {
		if !k.Step() {
			break
		}
		n++
	}
	return n
}

// Pending returns the number of runnable and parked tasks.
func (k *Kernel) Pending() (runnable, parked int) {
	return len(k.runnable), len(k.tickWait)
}
