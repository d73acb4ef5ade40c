package syscall

import (
	"testing"

	"github.com/gubingren0409/biglab4/limits"
	"github.com/gubingren0409/biglab4/mem"
	"github.com/gubingren0409/biglab4/proc"
	"github.com/gubingren0409/biglab4/uvm"
)

func newTestProc(t *testing.T) *proc.Proc {
	t.Helper()
	alloc := mem.NewFrameAllocator(1024)
	trampoline, ok := alloc.Alloc(true)
	if !ok {
		t.Fatal("failed to allocate trampoline frame")
	}
	table := proc.NewTable(alloc, trampoline, uvm.NewRegionPool(limits.NMMAP_REGIONS))
	idle := func(p *proc.Proc) {}
	return table.MakeFirst(idle)
}

func TestDispatchGetpid(t *testing.T) {
	p := newTestProc(t)
	ret := Dispatch(p, limits.SYS_getpid)
	if ret != int64(p.Pid) {
		t.Fatalf("Dispatch(SYS_getpid) = %d, want %d", ret, p.Pid)
	}
	if p.TF.Args[0] != uint64(p.Pid) {
		t.Fatalf("a0 after dispatch = %d, want %d", p.TF.Args[0], p.Pid)
	}
}

func TestDispatchUnknownSyscall(t *testing.T) {
	p := newTestProc(t)
	if ret := Dispatch(p, -1); ret != -1 {
		t.Fatalf("Dispatch of an unknown syscall number = %d, want -1", ret)
	}
}

func TestDispatchBrkGrowAndQuery(t *testing.T) {
	p := newTestProc(t)
	before := int64(p.AS.HeapTop)

	p.TF.Args[0] = uint64(before + int64(mem.PGSIZE)*2)
	grown := Dispatch(p, limits.SYS_brk)
	if grown != before+int64(mem.PGSIZE)*2 {
		t.Fatalf("Dispatch(SYS_brk, grow) = %d, want %d", grown, before+int64(mem.PGSIZE)*2)
	}

	p.TF.Args[0] = 0
	queried := Dispatch(p, limits.SYS_brk)
	if queried != grown {
		t.Fatalf("Dispatch(SYS_brk, query) = %d, want %d (unchanged)", queried, grown)
	}
}

func TestDispatchMmapThenMunmap(t *testing.T) {
	p := newTestProc(t)

	p.TF.Args[0] = 0
	p.TF.Args[1] = uint64(mem.PGSIZE) * 2
	base := Dispatch(p, limits.SYS_mmap)
	if base == -1 {
		t.Fatal("Dispatch(SYS_mmap) failed")
	}
	if _, _, ok := p.AS.Pgtbl.Lookup(uintptr(base)); !ok {
		t.Fatal("mmap'd page not mapped after SYS_mmap dispatch")
	}

	p.TF.Args[0] = uint64(base)
	p.TF.Args[1] = uint64(mem.PGSIZE) * 2
	if ret := Dispatch(p, limits.SYS_munmap); ret != 0 {
		t.Fatalf("Dispatch(SYS_munmap) = %d, want 0", ret)
	}
	if _, _, ok := p.AS.Pgtbl.Lookup(uintptr(base)); ok {
		t.Fatal("page still mapped after SYS_munmap dispatch")
	}
}

func TestDispatchMmapRejectsMisalignedLength(t *testing.T) {
	p := newTestProc(t)
	p.TF.Args[0] = 0
	p.TF.Args[1] = 13
	if ret := Dispatch(p, limits.SYS_mmap); ret != -1 {
		t.Fatalf("Dispatch(SYS_mmap) with a misaligned length = %d, want -1", ret)
	}
}

func TestDispatchCopyinCopyoutRoundTrip(t *testing.T) {
	p := newTestProc(t)

	msg := []byte("syscall roundtrip")
	if err := p.AS.CopyOut(uvm.USER_BASE, msg, len(msg)); err != 0 {
		t.Fatalf("seed CopyOut failed: %v", err)
	}

	dst := p.AS.HeapTop
	if _, err := p.AS.HeapGrow(mem.PGSIZE); err != 0 {
		t.Fatalf("HeapGrow failed: %v", err)
	}
	p.TF.Args[0] = uint64(dst)
	p.TF.Args[1] = uint64(uvm.USER_BASE)
	p.TF.Args[2] = uint64(len(msg))
	if ret := Dispatch(p, limits.SYS_copyin); ret != 0 {
		t.Fatalf("Dispatch(SYS_copyin) = %d, want 0", ret)
	}

	got := make([]byte, len(msg))
	if err := p.AS.CopyIn(got, dst, len(msg)); err != 0 {
		t.Fatalf("verifying CopyIn failed: %v", err)
	}
	if string(got) != string(msg) {
		t.Fatalf("copied bytes = %q, want %q", got, msg)
	}
}

func TestDispatchGetrusageCopiesOutRusage(t *testing.T) {
	p := newTestProc(t)
	p.Accnt.Utadd(1_000_000_000)

	dst := p.AS.HeapTop
	if _, err := p.AS.HeapGrow(mem.PGSIZE); err != 0 {
		t.Fatalf("HeapGrow failed: %v", err)
	}
	p.TF.Args[0] = uint64(dst)
	if ret := Dispatch(p, limits.SYS_getrusage); ret != 0 {
		t.Fatalf("Dispatch(SYS_getrusage) = %d, want 0", ret)
	}

	got := make([]byte, 32)
	if err := p.AS.CopyIn(got, dst, len(got)); err != 0 {
		t.Fatalf("verifying CopyIn failed: %v", err)
	}
	want := p.Accnt.Fetch()
	if string(got) != string(want) {
		t.Fatalf("copied rusage bytes = %v, want %v", got, want)
	}
}
