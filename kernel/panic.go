package kernel

// PanicInfo contains details about a recovered task panic.
type PanicInfo struct {
	Task  uint64
	Tick  uint64
	Value any
	Stack []byte
}

// InPanicMode reports whether a task has panicked.
//
// In panic mode the kernel drops all queued tasks and refuses new ones.
func (k *Kernel) InPanicMode() bool {
	return k.panicked
}

// SetPanicHandler installs the kernel's panic handler.
//
// The handler is invoked at most once (on the first panic). It must not panic.
func (k *Kernel) SetPanicHandler(fn func(PanicInfo)) {
	k.onPanic = fn
}

func (k *Kernel) triggerPanic(info PanicInfo) {
	if k.panicked {
		return
	}
	k.panicked = true
	clear(k.runnable)
	k.runnable = nil
	clear(k.tickWait)
	k.tickWait = nil
	if k.onPanic != nil {
		k.onPanic(info)
	}
}
