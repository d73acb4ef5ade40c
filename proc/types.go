// Package proc implements the process table, per-CPU cooperative scheduler,
// and fork/exit/wait lifecycle (spec.md §4.4, §4.5). It is grounded
// function-for-function on the original kernel's proc.c, translated from a
// per-CPU register/stack model into a goroutine-per-process model: spec.md
// §9 calls out that `swtch` is "ideal to express in a typed language as a
// tagged operation (return to scheduler)" rather than raw assembly, so here
// it is a pair of unbuffered channels rendezvousing a process goroutine
// with its CPU's scheduler goroutine.
package proc

import (
	"unsafe"

	"github.com/gubingren0409/biglab4/accnt"
	"github.com/gubingren0409/biglab4/defs"
	"github.com/gubingren0409/biglab4/spinlock"
	"github.com/gubingren0409/biglab4/uvm"
)

/// State is a process-table slot's lifecycle state (spec.md §4.4).
type State int

const (
	Unused State = iota
	Runnable
	Running
	Sleeping
	Zombie
)

func (s State) String() string {
	switch s {
	case Unused:
		return "unused"
	case Runnable:
		return "runnable"
	case Running:
		return "running"
	case Sleeping:
		return "sleeping"
	case Zombie:
		return "zombie"
	default:
		return "invalid"
	}
}

/// TrapFrame holds the minimum fields spec.md §6 names for the consumed
/// trampoline/trap assembly contract: the user program counter and stack
/// pointer, the syscall return-value register, and the three fields the
/// trap entry/exit path needs to get back into the kernel. A real trap
/// frame is a page of raw memory the trampoline assembly reads and writes
/// directly; since that assembly is an external collaborator this module
/// only simulates (spec.md §6), TrapFrame is a plain typed struct rather
/// than a byte-packed page layout — nothing in this module re-reads it as
/// raw bytes the way fs/super.go's on-disk Superblock is.
type TrapFrame struct {
	Epc uintptr
	Sp  uintptr

	/// Args holds the a0..a5 argument registers; Args[0] doubles as the
	/// syscall return-value register, matching the RISC-V calling
	/// convention the original kernel's trap frame follows.
	Args [6]uint64

	UserToKernSatp       uintptr
	UserToKernSp         uintptr
	UserToKernTrapvector uintptr
}

/// Body is the simulated user/kernel-thread entry point a process runs once
/// the scheduler first switches into it, standing in for "jump to the
/// trampoline with the mapped user program" (spec.md's `init` payload is
/// itself a Body; forked children run the same Body value their parent was
/// given, which is how this module represents resuming at the common
/// fork-return point without a literal copied call stack).
type Body func(p *Proc)

/// Proc is one process-table slot (spec.md §4.4 "Process descriptor").
/// The slot struct is reused across allocations exactly like the original
/// kernel's static process_pool array entries; channels and the backing
/// goroutine are recreated fresh on every Alloc.
type Proc struct {
	Lk spinlock.Spinlock

	Pid        defs.Pid_t
	State      State
	Parent     *Proc
	AS         *uvm.AddressSpace
	TF         *TrapFrame
	Name       [16]byte
	ExitCode   int
	Accnt      accnt.Accnt_t /// cumulative runtime, reported on reap
	SleepSpace unsafe.Pointer /// wait-channel identity; nil when not Sleeping
	Kstack     uintptr        /// precomputed per slot index, never reallocated

	body    Body
	toProc  chan struct{} /// scheduler -> proc: "you're up" (swtch into p)
	toSched chan struct{} /// proc -> scheduler: "returning control" (swtch out of p)

	table *Table
}

/// SetName copies up to 15 bytes of s into the fixed-size name field,
/// matching the original kernel's char name[16] (no ustr package: spec.md
/// has no path/VFS surface for process names to interact with).
func (p *Proc) SetName(s string) {
	p.Name = [16]byte{}
	n := len(s)
	if n > 15 {
		n = 15
	}
	copy(p.Name[:n], s[:n])
}

/// CPU represents one of the kernel's NCPU independent scheduler loops
/// (spec.md §4.4 "Per-CPU structure").
type CPU struct {
	idx  int
	Proc *Proc
}
