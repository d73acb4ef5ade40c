// Package uvm is the user virtual-memory manager: heap/stack growth, mmap
// region bookkeeping, cross-address-space copy, and page-table
// clone/destroy (spec.md §4.3 "uvm: per-process address space manager").
// It consumes mem's frame allocator and page-table walker but never reaches
// past them.
package uvm

import (
	"github.com/gubingren0409/biglab4/mem"
	"github.com/gubingren0409/biglab4/spinlock"
)

/// Region describes one mmap mapping: a contiguous, page-aligned virtual
/// range with a single permission. Regions for one address space are kept
/// sorted by Begin and singly linked, matching the original kernel's
/// mmap_region_t chain (mem/mmap.c, mem/uvm.c mmap_merge/uvm_mmap_find).
type Region struct {
	Begin  uintptr
	NPages int
	Perm   mem.PTEFlags
	next   *Region
}

func (r *Region) end() uintptr { return r.Begin + uintptr(r.NPages*mem.PGSIZE) }

/// RegionPool is the fixed-capacity freelist backing every Region in one
/// kernel, mirroring the original kernel's static node_list[N_MMAP] plus
/// list_head/list_lk (mem/mmap.c). spec.md §9's design note calls the mmap
/// pool process-wide state that "an implementation should make explicit"
/// rather than a hidden file-scope variable, so a RegionPool is a value a
/// kernel.Kernel (or, in tests, a proc.Table built standalone) owns and
/// hands to every AddressSpace it builds, instead of a package-level global:
/// two kernels — e.g. two tests running in the same process — each get their
/// own pool and never share descriptors.
type RegionPool struct {
	lk    spinlock.Spinlock
	slots []Region
	free  []*Region
}

/// NewRegionPool preallocates n mmap-region descriptors.
func NewRegionPool(n int) *RegionPool {
	p := &RegionPool{slots: make([]Region, n)}
	p.free = make([]*Region, 0, n)
	for i := range p.slots {
		p.free = append(p.free, &p.slots[i])
	}
	return p
}

/// allocRegion takes one descriptor from the pool. The original kernel
/// panics when the pool is exhausted (mmap_region_alloc: "仓库空了则
/// panic"); this is a fixed-resource-pool exhaustion, a fatal condition per
/// spec.md §7, not a recoverable error.
func (p *RegionPool) allocRegion() *Region {
	p.lk.Acquire()
	defer p.lk.Release()
	if len(p.free) == 0 {
		panic("uvm: mmap region pool exhausted")
	}
	n := len(p.free) - 1
	r := p.free[n]
	p.free = p.free[:n]
	*r = Region{}
	return r
}

func (p *RegionPool) freeRegion(r *Region) {
	p.lk.Acquire()
	defer p.lk.Release()
	*r = Region{}
	p.free = append(p.free, r)
}

/// Free reports how many mmap-region descriptors remain unallocated.
func (p *RegionPool) Free() int {
	p.lk.Acquire()
	defer p.lk.Release()
	return len(p.free)
}
