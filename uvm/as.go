package uvm

import (
	"sync"

	"github.com/gubingren0409/biglab4/defs"
	"github.com/gubingren0409/biglab4/limits"
	"github.com/gubingren0409/biglab4/mem"
	"github.com/gubingren0409/biglab4/stats"
	"github.com/gubingren0409/biglab4/util"
)

/// stackFaults counts every UstackGrow call (i.e. every simulated
/// below-the-stack page fault), wired for parity with the teacher's
/// Stats/Counter_t instrumentation; a no-op when stats.Stats is false.
var stackFaults stats.Counter_t

/// AddressSpace is the per-process user virtual-memory manager: a page
/// table plus the heap/stack/mmap bookkeeping needed to grow, shrink, copy
/// and tear it down (spec.md §4.3). The mutex serializes concurrent
/// syscalls against one process's address space, matching the teacher's
/// Vm_t mutex (vm/as.go).
type AddressSpace struct {
	mu sync.Mutex

	Pgtbl        *mem.PageTable
	alloc        *mem.FrameAllocator
	pool         *RegionPool
	HeapTop      uintptr
	UstackNPages int
	mmaps        *Region /// address-sorted, non-overlapping, singly linked
}

/// New builds a fresh address space: maps the text page, the initial
/// one-page user stack immediately below TRAPFRAME, and the trap frame and
/// trampoline pages. Mirrors proc_pgtbl_init's page-table half in the
/// original kernel (proc.c), split out of proc so uvm owns every
/// page-table-shaping decision (spec.md §4.3/§4.4 responsibility split). pool
/// is the owning kernel's (or table's) shared mmap-region descriptor pool;
/// every AddressSpace built off the same pool draws from the same fixed-size
/// freelist (spec.md §9).
func New(alloc *mem.FrameAllocator, trampoline *mem.Frame, pool *RegionPool) (*AddressSpace, *mem.Frame, defs.Err_t) {
	as := &AddressSpace{
		Pgtbl:        mem.NewPageTable(),
		alloc:        alloc,
		pool:         pool,
		HeapTop:      USER_BASE + uintptr(mem.PGSIZE),
		UstackNPages: 1,
	}

	text, ok := alloc.Alloc(true)
	if !ok {
		return nil, nil, defs.ENOMEM
	}
	if err := as.Pgtbl.MapPages(USER_BASE, []*mem.Frame{text}, mem.PTE_R|mem.PTE_W|mem.PTE_X|mem.PTE_U, true); err != 0 {
		alloc.Free(text)
		return nil, nil, err
	}

	ustack, ok := alloc.Alloc(true)
	if !ok {
		as.Destroy(trampoline)
		return nil, nil, defs.ENOMEM
	}
	if err := as.Pgtbl.MapPages(TRAPFRAME-uintptr(mem.PGSIZE), []*mem.Frame{ustack}, mem.PTE_R|mem.PTE_W|mem.PTE_U, true); err != 0 {
		alloc.Free(ustack)
		as.Destroy(trampoline)
		return nil, nil, err
	}

	tf, ok := alloc.Alloc(true)
	if !ok {
		as.Destroy(trampoline)
		return nil, nil, defs.ENOMEM
	}
	if err := as.Pgtbl.MapPages(TRAPFRAME, []*mem.Frame{tf}, mem.PTE_R|mem.PTE_W, true); err != 0 {
		alloc.Free(tf)
		as.Destroy(trampoline)
		return nil, nil, err
	}

	if err := as.Pgtbl.MapPages(TRAMPOLINE, []*mem.Frame{trampoline}, mem.PTE_R|mem.PTE_X, false); err != 0 {
		as.Destroy(trampoline)
		return nil, nil, err
	}

	return as, tf, 0
}

/// lowestMmapBegin returns the lowest Begin among this address space's mmap
/// regions, or the stack-growth floor if there are none. Used by HeapGrow to
/// detect a collision with either obstacle.
func (as *AddressSpace) lowestMmapBegin() uintptr {
	if as.mmaps != nil {
		return as.mmaps.Begin
	}
	return TRAPFRAME - uintptr(limits.USTACK_MAX_PAGES*mem.PGSIZE)
}

/// HeapGrow extends the heap by len bytes (spec.md §4.3 "Heap grow").
func (as *AddressSpace) HeapGrow(length int) (uintptr, defs.Err_t) {
	as.mu.Lock()
	defer as.mu.Unlock()

	npages := util.Pagecount(length, mem.PGSIZE)
	newTop := as.HeapTop + uintptr(length)
	if newTop > as.lowestMmapBegin() || newTop > TRAPFRAME-uintptr(as.UstackNPages*mem.PGSIZE) {
		return 0, defs.ENOHEAP
	}

	base := util.Roundup(as.HeapTop, uintptr(mem.PGSIZE))
	frames := make([]*mem.Frame, 0, npages)
	for i := 0; i < npages; i++ {
		fr, ok := as.alloc.Alloc(true)
		if !ok {
			for _, f := range frames {
				as.alloc.Free(f)
			}
			return 0, defs.ENOMEM
		}
		frames = append(frames, fr)
	}
	if err := as.Pgtbl.MapPages(base, frames, mem.PTE_R|mem.PTE_W|mem.PTE_U, true); err != 0 {
		for _, f := range frames {
			as.alloc.Free(f)
		}
		return 0, err
	}

	as.HeapTop = newTop
	return as.HeapTop, 0
}

/// HeapUngrow shrinks the heap to a new top, freeing whole pages that now
/// lie fully above it (spec.md §4.3 "Heap shrink").
func (as *AddressSpace) HeapUngrow(length int) (uintptr, defs.Err_t) {
	as.mu.Lock()
	defer as.mu.Unlock()

	newTop := as.HeapTop - uintptr(length)
	if newTop < USER_BASE+uintptr(mem.PGSIZE) {
		return 0, defs.EINVAL
	}

	oldPageTop := util.Roundup(as.HeapTop, uintptr(mem.PGSIZE))
	newPageTop := util.Roundup(newTop, uintptr(mem.PGSIZE))
	if newPageTop < oldPageTop {
		npages := int((oldPageTop - newPageTop) / uintptr(mem.PGSIZE))
		as.Pgtbl.UnmapPages(newPageTop, npages, as.alloc, true)
	}
	as.HeapTop = newTop
	return as.HeapTop, 0
}

/// UstackGrow handles a page fault below the mapped stack (spec.md §4.3
/// "Stack grow"). It returns the new page count on success.
func (as *AddressSpace) UstackGrow(faultAddr uintptr) (int, defs.Err_t) {
	as.mu.Lock()
	defer as.mu.Unlock()
	stackFaults.Inc()

	floor := TRAPFRAME - uintptr(limits.USTACK_MAX_PAGES*mem.PGSIZE)
	ceil := TRAPFRAME - uintptr(as.UstackNPages*mem.PGSIZE)
	if faultAddr < floor || faultAddr >= ceil {
		return 0, defs.EFAULT
	}

	newNPages := int(util.Roundup(TRAPFRAME-faultAddr, uintptr(mem.PGSIZE)) / uintptr(mem.PGSIZE))
	grow := newNPages - as.UstackNPages
	base := TRAPFRAME - uintptr(newNPages*mem.PGSIZE)

	frames := make([]*mem.Frame, 0, grow)
	for i := 0; i < grow; i++ {
		fr, ok := as.alloc.Alloc(true)
		if !ok {
			for _, f := range frames {
				as.alloc.Free(f)
			}
			return 0, defs.ENOMEM
		}
		frames = append(frames, fr)
	}
	if err := as.Pgtbl.MapPages(base, frames, mem.PTE_R|mem.PTE_W|mem.PTE_U, true); err != 0 {
		for _, f := range frames {
			as.alloc.Free(f)
		}
		return 0, err
	}
	as.UstackNPages = newNPages
	return as.UstackNPages, 0
}

/// Destroy tears down a page table: unmaps TRAPFRAME (owned, freed) and
/// TRAMPOLINE (shared, not freed), then unmaps and frees the stack, heap,
/// text and every mmap region's pages, returning the region descriptors to
/// the pool (spec.md §4.3 "Page-table destroy"). Interior page-table nodes
/// are Go-heap values, not allocator frames, and are not freed here. The
/// trampoline argument is not used.
func (as *AddressSpace) Destroy(trampoline *mem.Frame) {
	as.mu.Lock()
	defer as.mu.Unlock()

	if e := as.Pgtbl.GetPTE(TRAPFRAME, false); e != nil {
		as.Pgtbl.UnmapPages(TRAPFRAME, 1, as.alloc, true)
	}
	if e := as.Pgtbl.GetPTE(TRAMPOLINE, false); e != nil {
		as.Pgtbl.UnmapPages(TRAMPOLINE, 1, as.alloc, false)
	}

	stackBase := TRAPFRAME - uintptr(as.UstackNPages*mem.PGSIZE)
	as.Pgtbl.UnmapPages(stackBase, as.UstackNPages, as.alloc, true)

	heapPages := int((util.Roundup(as.HeapTop, uintptr(mem.PGSIZE)) - (USER_BASE + uintptr(mem.PGSIZE))) / uintptr(mem.PGSIZE))
	if heapPages > 0 {
		as.Pgtbl.UnmapPages(USER_BASE+uintptr(mem.PGSIZE), heapPages, as.alloc, true)
	}
	as.Pgtbl.UnmapPages(USER_BASE, 1, as.alloc, true)

	for r := as.mmaps; r != nil; {
		next := r.next
		as.Pgtbl.UnmapPages(r.Begin, r.NPages, as.alloc, true)
		as.pool.freeRegion(r)
		r = next
	}
	as.mmaps = nil
}
