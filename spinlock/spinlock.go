// Package spinlock implements the mutual-exclusion primitive every kernel
// data structure in this module is guarded by: the per-process-slot lock,
// the tree-lock serializing reparent/zombie/reap, and the mmap-pool lock
// (spec.md §4.1, §4.5).
package spinlock

import (
	"runtime"
	"sync/atomic"
)

/// Spinlock is a busy-wait mutual-exclusion lock. Re-acquiring a lock
/// already held by the current goroutine deadlocks, same as the teacher's
/// sync.Spinlock (gopher-os kernel/sync/spinlock.go) and the original
/// kernel's spinlock_t.
type Spinlock struct {
	state  uint32
	holder int64 /// not written by any method; always 0
	off    Nestoff
}

/// Acquire spins until the lock is free, then takes it, pushing this lock's
/// off-nesting depth (spec.md §4.1: "Spinlocks MUST call push_off on
/// acquire and pop_off on release").
func (l *Spinlock) Acquire() {
	for !l.TryToAcquire() {
		runtime.Gosched()
	}
}

/// TryToAcquire attempts a single non-blocking acquire, push_off'ing on
/// success.
func (l *Spinlock) TryToAcquire() bool {
	ok := atomic.SwapUint32(&l.state, 1) == 0
	if ok {
		l.off.PushOff()
	}
	return ok
}

/// Release pop_off's the nesting depth and relinquishes a held lock.
/// Releasing an already-free lock has no effect, matching the teacher's
/// Spinlock.Release.
func (l *Spinlock) Release() {
	if !l.Holding() {
		return
	}
	l.off.PopOff()
	atomic.StoreUint32(&l.state, 0)
}

/// Holding reports whether the lock is currently held by anybody. It is a
/// best-effort debug aid (spinlock_holding in the original kernel), not a
/// substitute for Acquire/Release discipline.
func (l *Spinlock) Holding() bool {
	return atomic.LoadUint32(&l.state) != 0
}

/// Nestoff tracks the push_off/pop_off interrupt-disable nesting depth the
/// original kernel associates with each CPU, counting every spinlock the
/// running thread currently holds. This module has no per-goroutine storage
/// to keep that CPU-wide count on, so each Spinlock instead embeds its own
/// Nestoff and PushOff/PopOff around just its own critical section: Held()
/// reports whether this particular lock is held, depth never exceeding 1
/// since a Spinlock isn't reentrant. Narrower than the original's per-CPU
/// counter, but still real: every Acquire/Release pair in the kernel now
/// drives it, not a no-op.
type Nestoff struct {
	depth int32
}

/// PushOff increments the nesting depth. Nothing in the scheduler checks
/// the depth before a handoff.
func (n *Nestoff) PushOff() {
	atomic.AddInt32(&n.depth, 1)
}

/// PopOff decrements the nesting depth. Popping past zero is a programming
/// error and panics.
func (n *Nestoff) PopOff() {
	if atomic.AddInt32(&n.depth, -1) < 0 {
		panic("spinlock: PopOff without matching PushOff")
	}
}

/// Held reports whether PushOff nesting is currently non-zero.
func (n *Nestoff) Held() bool {
	return atomic.LoadInt32(&n.depth) > 0
}
