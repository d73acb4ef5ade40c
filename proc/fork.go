package proc

import "github.com/gubingren0409/biglab4/uvm"

/// Fork duplicates curr's address space into a freshly allocated child,
/// which begins life Runnable and runs the same Body curr was given (spec.md
/// §4.5 "Fork": clone the address space, clone the mmap list, copy the trap
/// frame, fix up the child's return value and kernel-stack pointer, and link
/// parent/child). Returns the child's PID to the caller, which — per the
/// fork contract — is the only return value a parent ever observes; the
/// child observes tf.a0 == 0 once the scheduler switches into it.
func (curr *Proc) Fork() (*Proc, int) {
	child, err := curr.table.Alloc()
	if err != 0 {
		return nil, -1
	}

	if e := uvm.Clone(curr.AS, child.AS); e != 0 {
		child.table.Free(child)
		child.Lk.Release()
		return nil, -1
	}

	*child.TF = *curr.TF
	child.TF.Args[0] = 0
	/// critical: must not inherit the parent's kernel-stack pointer, or the
	/// child will trap onto the parent's stack (spec.md §4.5 Fork, flagged
	/// "critical" in the original kernel's proc_fork comment).
	child.TF.UserToKernSp = child.Kstack

	child.Parent = curr
	child.Name = curr.Name
	child.body = curr.body

	child.startGoroutine()
	childPid := child.Pid
	child.Lk.Release()

	return child, int(childPid)
}
