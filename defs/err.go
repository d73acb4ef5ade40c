// Package defs holds the small cross-cutting types and constants shared by
// every kernel subsystem: the error-code type returned across the
// syscall/uvm/proc boundary and the process identifier type.
package defs

/// Err_t is a kernel error code. Zero means success; a negative value
/// identifies the failure reason. Syscall handlers collapse Err_t into the
/// wire convention of -1 before writing a trap frame's return register.
type Err_t int

/// Error codes returned by uvm, proc, and the syscall layer. Naming follows
/// the POSIX-ish convention the original kernel's C sources use.
const (
	EINVAL      Err_t = -1 /// invalid argument (bad alignment, zero length, ...)
	ENOMEM      Err_t = -2 /// frame allocator exhaustion
	EFAULT      Err_t = -3 /// unmapped or permission-denied user address
	ENAMETOOLONG Err_t = -4 /// string argument exceeds STR_MAXLEN
	ENOHEAP     Err_t = -5 /// resource accounting limit reached
	ESRCH       Err_t = -6 /// no such process / no children to wait for
	EEXIST      Err_t = -7 /// address-space range collides with an existing mapping
)

/// Pid_t identifies a process. Pid zero is never assigned; it marks an
/// Unused process-table slot.
type Pid_t int
