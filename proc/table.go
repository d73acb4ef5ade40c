package proc

import (
	"github.com/gubingren0409/biglab4/accnt"
	"github.com/gubingren0409/biglab4/defs"
	"github.com/gubingren0409/biglab4/limits"
	"github.com/gubingren0409/biglab4/mem"
	"github.com/gubingren0409/biglab4/spinlock"
	"github.com/gubingren0409/biglab4/stats"
	"github.com/gubingren0409/biglab4/uvm"
)

/// Table owns the fixed-size process table and every piece of cross-process
/// state the original kernel kept as file-scope static globals: the PID
/// generator, the orphan/tree lock, and a pointer to the init process
/// (spec.md §4.4, §9 design note: "a Kernel struct owns this state" rather
/// than package-level globals, so multiple Tables — e.g. one per test —
/// never interfere with each other).
type Table struct {
	slots [limits.NPROC]Proc

	pidLk   spinlock.Spinlock
	nextPid defs.Pid_t

	/// orphanLk serializes reparenting, zombie transitions, and reaping; it
	/// must be acquired before any per-process lock (spec.md §4.4 "tree
	/// lock"). Its own address also serves as the wait channel Wait sleeps
	/// on, so exit and wait rendezvous without a second lock.
	orphanLk spinlock.Spinlock

	initProc *Proc

	alloc      *mem.FrameAllocator
	trampoline *mem.Frame
	pool       *uvm.RegionPool

	/// ticksLk guards ticks, the simulated timer-tick counter sys_sleep
	/// blocks on (spec.md §4.6 sys_sleep; original kernel's timer_wait).
	ticksLk spinlock.Spinlock
	ticks   uint64

	/// Ctxswitch counts completed scheduler<->process rendezvous, wired for
	/// parity with the teacher's Stats/Counter_t instrumentation; a no-op
	/// when stats.Stats is false.
	Ctxswitch stats.Counter_t
}

/// NewTable builds an empty process table backed by the given frame
/// allocator, with trampoline as the one shared kernel-code page every
/// address space maps read+execute (spec.md §4.3's TRAMPOLINE entry; never
/// freed on unmap since every process shares it), and pool as the shared
/// mmap-region descriptor pool every address space this table builds draws
/// from (spec.md §9's "Kernel value owning all four" process-wide-state
/// design note — the table is that owner when there is no enclosing
/// kernel.Kernel, e.g. in this package's own tests).
func NewTable(alloc *mem.FrameAllocator, trampoline *mem.Frame, pool *uvm.RegionPool) *Table {
	t := &Table{
		nextPid:    1,
		alloc:      alloc,
		trampoline: trampoline,
		pool:       pool,
	}
	for i := range t.slots {
		t.slots[i].table = t
		t.slots[i].Kstack = uintptr(i+1) * 0x100000
	}
	return t
}

func (t *Table) allocatePid() defs.Pid_t {
	t.pidLk.Acquire()
	defer t.pidLk.Release()
	pid := t.nextPid
	t.nextPid++
	return pid
}

/// Alloc scans the table for an Unused slot, reserves it with a fresh PID
/// and address space, and returns it Runnable with its lock still held
/// (spec.md §4.5 "Allocation"). Callers finish initialising the slot (body,
/// name, parent) before releasing the lock.
func (t *Table) Alloc() (*Proc, defs.Err_t) {
	var p *Proc
	for i := range t.slots {
		cand := &t.slots[i]
		cand.Lk.Acquire()
		if cand.State == Unused {
			p = cand
			break
		}
		cand.Lk.Release()
	}
	if p == nil {
		return nil, defs.ENOMEM
	}

	p.Pid = t.allocatePid()

	as, tf, err := uvm.New(t.alloc, t.trampoline, t.pool)
	if err != 0 {
		p.Pid = 0
		p.Lk.Release()
		return nil, err
	}

	p.AS = as
	p.TF = &TrapFrame{}
	_ = tf /// the mapped trapframe page reserves a real frame/address-space
	/// slot at uvm.TRAPFRAME; its typed fields live in p.TF (see TrapFrame).

	p.Parent = nil
	p.ExitCode = 0
	p.Accnt = accnt.Accnt_t{}
	p.SleepSpace = nil
	p.Name = [16]byte{}
	p.body = nil
	p.toProc = make(chan struct{})
	p.toSched = make(chan struct{})

	p.State = Runnable
	return p, 0
}

/// Free releases a zombie's resources and returns its slot to Unused.
/// Caller must hold p.Lk and release it itself afterward: unlike the
/// original kernel's proc_free, Free does not release the lock. Free clears
/// Pid, so Wait reads the reaped PID and exit code before calling it.
func (t *Table) Free(p *Proc) {
	p.AS.Destroy(t.trampoline)
	p.AS = nil
	p.TF = nil
	p.Pid = 0
	p.Parent = nil
	p.Name = [16]byte{}
	p.State = Unused
}

/// startGoroutine spawns the backing goroutine for a freshly (re)initialised
/// slot. It blocks for the scheduler's first resume signal, runs body once,
/// and — if body returns instead of calling Exit itself — exits with code 0,
/// matching a user program that falls off the end of main.
func (p *Proc) startGoroutine() {
	go func() {
		<-p.toProc
		/// matches the original kernel's forkret: the first instruction a
		/// freshly dispatched process runs is releasing the lock the
		/// scheduler acquired to dispatch it (Alloc/Fork already released
		/// their own setup-time acquire before the scheduler ever saw this
		/// slot, so this release closes the scheduler's, not theirs).
		p.Lk.Release()
		p.body(p)
		p.Exit(0)
	}()
}

/// MakeFirst creates the first user process (PID 1, named "init"), mapping
/// body's simulated program at USER_BASE's text page is implicit (uvm.New
/// already mapped a zeroed text page; the Body closure stands in for the
/// user program that would otherwise have been loaded there) and releasing
/// the slot's lock so the scheduler can pick it up (spec.md §4.5's boot
/// scenario).
func (t *Table) MakeFirst(body Body) *Proc {
	p, err := t.Alloc()
	if err != 0 {
		panic("proc: MakeFirst: Alloc failed")
	}
	t.initProc = p

	p.SetName("init")
	p.body = body

	p.TF.Epc = uvm.USER_BASE
	p.TF.Sp = uvm.TRAPFRAME
	p.TF.UserToKernSp = p.Kstack

	p.startGoroutine()
	p.Lk.Release()
	return p
}
