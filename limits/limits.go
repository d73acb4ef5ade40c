// Package limits collects the compile-time tunables shared by proc, uvm,
// and syscall. Unlike the teacher's Syslimit_t (a runtime-adjustable,
// atomically-given/taken resource-limit table for a networked multi-user
// kernel), this core has a fixed-size process table and a fixed-size mmap
// region pool, so every tunable here is a plain untyped constant.
package limits

/// NPROC is the number of slots in the process table.
const NPROC = 64

/// NMMAP_REGIONS is the number of descriptors in the mmap-region pool,
/// shared across all processes.
const NMMAP_REGIONS = NPROC * 16

/// USTACK_MAX_PAGES bounds how far a user stack may grow downward from
/// TRAPFRAME. spec.md leaves this unspecified (§9 Open Questions); 32 pages
/// (128KiB on a 4096-byte page) is chosen to match a typical teaching-kernel
/// stack ceiling, generous enough for recursive test programs without
/// letting a runaway stack consume the whole mmap address window.
const USTACK_MAX_PAGES = 32

/// STR_MAXLEN is the longest string a syscall argument may name, matching
/// the wire-stable syscall ABI (spec.md §6).
const STR_MAXLEN = 127

/// Syscall numbers. 1-6 are wire-stable per spec.md §6; 7 and up cover the
/// trivial process/console bindings §4.6 names but does not number, so
/// their values may grow without disturbing the stable prefix.
const (
	SYS_copyin    = 1
	SYS_copyout   = 2
	SYS_copyinstr = 3
	SYS_brk       = 4
	SYS_mmap      = 5
	SYS_munmap    = 6
	SYS_fork      = 7
	SYS_exit      = 8
	SYS_wait      = 9
	SYS_getpid    = 10
	SYS_sleep     = 11
	SYS_print_str = 12
	SYS_print_int = 13
	SYS_getrusage = 14
)

/// NCPU is the number of simulated per-CPU scheduler loops the kernel
/// starts at boot.
const NCPU = 2

/// TICK_MS is the period, in milliseconds, of the simulated timer tick that
/// backs sys_sleep (spec.md §4.6; original kernel's timer_wait(ticks)). There
/// is no real clock interrupt in this simulation, so a tick is just a
/// goroutine waking up on a wall-clock interval and incrementing a counter
/// every process sleeping in sys_sleep waits on.
const TICK_MS = 10
