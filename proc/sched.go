package proc

import (
	"time"
	"unsafe"

	"github.com/gubingren0409/biglab4/spinlock"
)

/// RunCPU runs one CPU's scheduler loop forever, scanning every slot for a
/// Runnable process and switching into it (spec.md §4.4 "Per-CPU scheduler
/// loop"). The channel send/receive pair stands in for `swtch`: sending on
/// p.toProc is the scheduler switching into the process; receiving from
/// p.toSched is the process switching back out, exactly the rendezvous
/// spec.md §9 suggests modeling as "a tagged operation (return to
/// scheduler)" instead of raw context-switch assembly.
func (t *Table) RunCPU(idx int) {
	cpu := &CPU{idx: idx}
	for {
		for i := range t.slots {
			p := &t.slots[i]
			p.Lk.Acquire()
			if p.State != Runnable {
				p.Lk.Release()
				continue
			}
			p.State = Running
			cpu.Proc = p

			/// p.Lk is released the instant the rendezvous completes, not
			/// held across it: the process's own goroutine re-acquires it
			/// fresh (in startGoroutine's first resume, or in Sleep/Yield/
			/// Exit before calling sched) and this scheduler releases it
			/// again the instant that acquire's matching sched() call hands
			/// control back here. Holding it across the whole run would
			/// deadlock the first Sleep/Yield/Exit call, since those run on
			/// a different goroutine than this loop.
			start := time.Now()
			p.toProc <- struct{}{}
			<-p.toSched
			p.Lk.Release()
			p.Accnt.Systadd(int(time.Since(start).Nanoseconds()))
			t.Ctxswitch.Inc()

			cpu.Proc = nil
		}
	}
}

/// sched switches from the calling process back to its CPU's scheduler.
/// Caller must hold p.Lk and must not be Running (spec.md §4.4 "proc_sched
/// preconditions"); real interrupt-nesting/CPU-affinity checks the original
/// kernel makes here have no counterpart in this goroutine-per-process
/// simulation and are therefore not reproduced (documented in DESIGN.md).
func (p *Proc) sched() {
	if !p.Lk.Holding() {
		panic("proc: sched: lock not held")
	}
	if p.State == Running {
		panic("proc: sched: proc is running")
	}
	p.toSched <- struct{}{}
	<-p.toProc
}

/// Yield voluntarily gives up the CPU, transitioning Running -> Runnable.
func (p *Proc) Yield() {
	p.Lk.Acquire()
	p.State = Runnable
	p.sched()
	p.Lk.Release()
}

/// Sleep puts the calling process to sleep on chan, atomically releasing
/// external (spec.md §4.4/§4.5 "two-lock sleep"): p.Lk is acquired before
/// external is released, so a wakeup racing the transition can never be
/// lost. On wake, state is restored to Running and sleep_space cleared
/// before external is re-acquired, matching the original kernel's
/// proc_sleep exactly.
func (p *Proc) Sleep(chan_ unsafe.Pointer, external *spinlock.Spinlock) {
	p.Lk.Acquire()
	external.Release()

	p.SleepSpace = chan_
	p.State = Sleeping

	p.sched()

	p.SleepSpace = nil
	p.State = Running

	p.Lk.Release()
	external.Acquire()
}

/// StartTimer runs, in the background, the simulated clock tick sys_sleep
/// waits on: every interval it bumps the shared tick counter and wakes every
/// process sleeping on it, exactly the external timer collaborator
/// fs.Disk_i/mem.FrameAllocator stand in for on the disk/memory side (spec.md
/// §4.6; original kernel's timer_wait(ticks)). It returns at once; the
/// ticking goroutine it starts runs forever.
func (t *Table) StartTimer(interval time.Duration) {
	go func() {
		for range time.Tick(interval) {
			t.ticksLk.Acquire()
			t.ticks++
			t.ticksLk.Release()
			t.Wakeup(unsafe.Pointer(&t.ticks), nil)
		}
	}()
}

/// SleepTicks blocks the calling process for at least n simulated timer
/// ticks (spec.md §4.6 "sys_sleep"), re-checking the counter after every
/// wakeup in case of a spurious one — the same loop-around-sleep the
/// original kernel's sys_sleep/timer_wait pairing and xv6's sys_sleep both
/// use against a shared tick counter.
func (p *Proc) SleepTicks(n int) {
	since := p.Accnt.Now()
	t := p.table
	t.ticksLk.Acquire()
	target := t.ticks + uint64(n)
	for t.ticks < target {
		p.Sleep(unsafe.Pointer(&t.ticks), &t.ticksLk)
	}
	t.ticksLk.Release()
	p.Accnt.Sleep_time(since)
}

/// Wakeup marks every process sleeping on chan (other than caller) Runnable
/// (spec.md §4.4 "sleep/wakeup on addresses"). caller may be nil when called
/// from a context with no current process, as StartTimer's background
/// goroutine does.
func (t *Table) Wakeup(chan_ unsafe.Pointer, caller *Proc) {
	for i := range t.slots {
		p := &t.slots[i]
		if p == caller {
			continue
		}
		p.Lk.Acquire()
		if p.State == Sleeping && p.SleepSpace == chan_ {
			p.State = Runnable
		}
		p.Lk.Release()
	}
}
