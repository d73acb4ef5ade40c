package proc

import (
	"unsafe"

	"github.com/gubingren0409/biglab4/stat"
)

func (t *Table) orphanChan() unsafe.Pointer {
	return unsafe.Pointer(&t.orphanLk)
}

/// wakeupParentLocked wakes p's parent if it is sleeping on the orphan
/// channel inside Wait, matching the original kernel's
/// wakeup_parent_locked. Caller must hold p.Lk; p.Parent must be non-nil.
func wakeupParentLocked(p *Proc) {
	parent := p.Parent
	parent.Lk.Acquire()
	if parent.State == Sleeping && parent.SleepSpace == parent.table.orphanChan() {
		parent.State = Runnable
	}
	parent.Lk.Release()
}

/// reparentChildren hands every child of dying to the table's init process,
/// waking init if an already-zombie child needs reaping (spec.md §4.5
/// "orphan reparenting"). Caller must hold t.orphanLk.
func (t *Table) reparentChildren(dying *Proc) {
	for i := range t.slots {
		p := &t.slots[i]
		p.Lk.Acquire()
		if p.Parent == dying {
			p.Parent = t.initProc
			if p.State == Zombie {
				wakeupParentLocked(p)
			}
		}
		p.Lk.Release()
	}
}

/// Exit transitions the calling process to Zombie, reparents its children to
/// init, and wakes its parent, then switches to the scheduler forever (spec.md
/// §4.5 "Exit"). It never returns; calling Exit on the init process is a
/// fatal invariant violation.
func (p *Proc) Exit(exitCode int) {
	t := p.table
	if p == t.initProc {
		panic("proc: init process cannot exit")
	}

	t.orphanLk.Acquire()
	t.reparentChildren(p)

	p.Lk.Acquire()
	p.ExitCode = exitCode
	p.State = Zombie
	wakeupParentLocked(p)
	p.Lk.Release()

	/// released before switching to the scheduler: swtch never returns here,
	/// so holding a lock the scheduler doesn't know to release would
	/// deadlock any later Wait that needs t.orphanLk.
	t.orphanLk.Release()

	p.Lk.Acquire()
	p.sched()

	panic("proc: Exit: zombie resumed")
}

/// Wait blocks curr until one of its children becomes a Zombie, reaps it,
/// and returns its PID and exit code (spec.md §4.5 "Wait"). If curr has no
/// children at all it fails immediately; if exitCodeUVA is non-zero the
/// exit code is also copied out to that user address.
func (curr *Proc) Wait(exitCodeUVA uintptr) (*stat.Stat_t, bool) {
	t := curr.table
	t.orphanLk.Acquire()

	for {
		hasKids := false
		for i := range t.slots {
			target := &t.slots[i]
			if target.Parent != curr {
				continue
			}
			hasKids = true

			target.Lk.Acquire()
			if target.State == Zombie {
				st := &stat.Stat_t{}
				st.Wpid(uint(target.Pid))
				st.Wstate(uint(Zombie))
				st.WheapTop(uint(target.AS.HeapTop))
				st.WexitCode(target.ExitCode)
				st.Waccnt(target.Accnt.Userns, target.Accnt.Sysns)
				code := target.ExitCode

				t.Free(target)
				target.Lk.Release()
				t.orphanLk.Release()

				if exitCodeUVA != 0 {
					buf := [4]byte{byte(code), byte(code >> 8), byte(code >> 16), byte(code >> 24)}
					curr.AS.CopyOut(exitCodeUVA, buf[:], 4)
				}
				return st, true
			}
			target.Lk.Release()
		}

		if !hasKids {
			t.orphanLk.Release()
			return nil, false
		}

		/// proc_sleep releases t.orphanLk atomically with entering Sleeping,
		/// so a child's Exit (which also holds t.orphanLk while waking us)
		/// can never race us into a lost wakeup (spec.md's "lost-wakeup
		/// safety" testable property).
		curr.Sleep(t.orphanChan(), &t.orphanLk)
	}
}
