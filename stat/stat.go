// Package stat is a fixed-layout snapshot of a process's reapable state,
// the way the teacher's Stat_t (stat/stat.go) is a fixed-layout snapshot of
// a file's on-disk inode. spec.md has no filesystem inode layer (fs is only
// the superblock/block-cache external collaborator), so the fields here
// describe a process instead, following the original kernel's proc_wait
// return value (pid, exit_code).
package stat

/// Stat_t is what Wait reports about a reaped child (spec.md §4.5 "Wait").
type Stat_t struct {
	_pid      uint
	_state    uint
	_heapTop  uint
	_exitCode int
	_userns   int64
	_sysns    int64
}

/// Wpid records the reaped process's PID.
func (st *Stat_t) Wpid(v uint) { st._pid = v }

/// Wstate records the process's terminal state.
func (st *Stat_t) Wstate(v uint) { st._state = v }

/// WheapTop records the process's final program break.
func (st *Stat_t) WheapTop(v uint) { st._heapTop = v }

/// WexitCode records the process's exit code.
func (st *Stat_t) WexitCode(v int) { st._exitCode = v }

/// Waccnt records the reaped process's accumulated user/system time.
func (st *Stat_t) Waccnt(userns, sysns int64) {
	st._userns = userns
	st._sysns = sysns
}

/// Pid returns the reaped PID.
func (st *Stat_t) Pid() uint { return st._pid }

/// State returns the recorded terminal state.
func (st *Stat_t) State() uint { return st._state }

/// ExitCode returns the reaped exit code.
func (st *Stat_t) ExitCode() int { return st._exitCode }

/// HeapTop returns the final program break.
func (st *Stat_t) HeapTop() uint { return st._heapTop }

/// Userns returns the accumulated user time in nanoseconds.
func (st *Stat_t) Userns() int64 { return st._userns }

/// Sysns returns the accumulated system time in nanoseconds.
func (st *Stat_t) Sysns() int64 { return st._sysns }
