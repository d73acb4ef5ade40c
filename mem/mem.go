// Package mem stands up the two external collaborators spec.md §6 names as
// narrow interfaces that the rest of the kernel consumes but never reaches
// past: the physical frame allocator (pmem_alloc/pmem_free) and the
// page-table walker (vm_mappages/vm_unmappages/vm_getpte). On real hardware
// these live behind assembly and a boot-time memory map; here they are
// simulated over a Go-heap-backed arena so that proc/uvm/syscall can be
// exercised and tested without an MMU.
package mem

import "sync"

/// PGSHIFT is the base-2 exponent of the page size.
const PGSHIFT uint = 12

/// PGSIZE is the size of a single page/frame in bytes.
const PGSIZE int = 1 << PGSHIFT

/// PGOFFSET masks the in-page offset of an address.
const PGOFFSET uintptr = uintptr(PGSIZE) - 1

/// Frame is one physical page of memory. The frame allocator hands out
/// *Frame values; the page-table walker installs them as leaf mappings.
type Frame struct {
	Bytes [PGSIZE]byte
}

type freeframe struct {
	fr    *Frame
	nexti int32
}

/// FrameAllocator is the external physical-frame allocator (spec.md §6:
/// pmem_alloc/pmem_free). It hands out whole pages from a fixed-capacity
/// arena via a singly-linked freelist, mirroring the teacher's
/// Physmem_t freelist-of-indices shape (mem/mem.go) but without refcounting:
/// this spec has no copy-on-write (§1 Non-goals), so a frame has exactly one
/// owner at a time and is returned to the freelist directly on unmap.
type FrameAllocator struct {
	mu    sync.Mutex
	slots []freeframe
	freei int32 /// index of first free slot, -1 if none
	nfree int
}

const noNext int32 = -1

/// NewFrameAllocator preallocates an arena of ncap frames and links them
/// into the freelist.
func NewFrameAllocator(ncap int) *FrameAllocator {
	a := &FrameAllocator{
		slots: make([]freeframe, ncap),
		freei: noNext,
	}
	for i := ncap - 1; i >= 0; i-- {
		a.slots[i] = freeframe{fr: &Frame{}, nexti: a.freei}
		a.freei = int32(i)
	}
	a.nfree = ncap
	return a
}

/// Alloc removes a frame from the freelist. When zero is true the frame's
/// contents are cleared before being handed back, matching pmem_alloc(true)
/// in the external contract. Alloc returns ok=false when the arena is
/// exhausted; callers (uvm, proc) translate that into defs.ENOMEM or a
/// rollback, never a panic, since frame exhaustion is a recoverable
/// condition (spec.md §7).
func (a *FrameAllocator) Alloc(zero bool) (*Frame, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.freei == noNext {
		return nil, false
	}
	idx := a.freei
	fr := a.slots[idx].fr
	a.freei = a.slots[idx].nexti
	a.nfree--
	if zero {
		fr.Bytes = [PGSIZE]byte{}
	}
	return fr, true
}

/// Free returns a frame to the freelist. Freeing a frame not obtained from
/// this allocator is a programming error and panics, matching spec.md §7's
/// "unmap of an unmapped region" class of fatal invariant violations.
func (a *FrameAllocator) Free(fr *Frame) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.indexOf(fr)
	if idx < 0 {
		panic("mem: free of frame not owned by this allocator")
	}
	a.slots[idx].nexti = a.freei
	a.freei = int32(idx)
	a.nfree++
}

func (a *FrameAllocator) indexOf(fr *Frame) int {
	for i := range a.slots {
		if a.slots[i].fr == fr {
			return i
		}
	}
	return -1
}

/// NumFree reports the number of frames currently on the freelist. Exercised by
/// tests asserting that uvm_heap_ungrow / munmap actually returned pages
/// (spec.md §8 scenario 5).
func (a *FrameAllocator) NumFree() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nfree
}
