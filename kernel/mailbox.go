package kernel

import "sync"

const mailboxSlots = 64

// Mailbox is a fixed-size multi-producer, single-consumer queue.
//
// Producers may be any goroutine (input polling, file watchers); the consumer
// is the goroutine that drives the Kernel, which drains the mailbox between
// refreshes. It never allocates after construction.
type Mailbox[T any] struct {
	_     [0]func() // prevent accidental copying.
	mu    sync.Mutex
	head  uint32
	tail  uint32
	slots [mailboxSlots]T
}

// TrySend attempts to enqueue v, returning false if the mailbox is full.
func (mb *Mailbox[T]) TrySend(v T) bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.head-mb.tail >= mailboxSlots {
		return false
	}
	mb.slots[mb.head%mailboxSlots] = v
	mb.head++
	return true
}

// TryRecv attempts to dequeue one value, returning false if empty.
func (mb *Mailbox[T]) TryRecv() (T, bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var zero T
	if mb.tail == mb.head {
		return zero, false
	}
	i := mb.tail % mailboxSlots
	v := mb.slots[i]
	mb.slots[i] = zero
	mb.tail++
	return v, true
}

// Len returns the number of queued values.
func (mb *Mailbox[T]) Len() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return int(mb.head - mb.tail)
}
