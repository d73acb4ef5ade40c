package uvm

import "github.com/gubingren0409/biglab4/mem"

/// Address-map constants (spec.md §4.3). USER_BASE is the first mapped user
/// page; page zero is deliberately left unmapped so a null-pointer
/// dereference faults instead of silently succeeding, matching the
/// teacher's convention (vm/as.go USERMIN-style reasoning).
///
///	USER_BASE ........... text page (1 page, R|W|X|U)
///	USER_BASE + PGSIZE .. heap grows up to heap_top
///	... free VA hole used by mmap_find ...
///	TRAPFRAME - ustack_npage*PGSIZE .. user stack (U) grows down
///	TRAPFRAME ........... trap frame page (R|W, no U)
///	TRAMPOLINE .......... shared trampoline (R|X, no U)
const (
	USER_BASE  uintptr = uintptr(mem.PGSIZE)
	TRAPFRAME  uintptr = uintptr(1) << 38
	TRAMPOLINE uintptr = TRAPFRAME + uintptr(mem.PGSIZE)
)
