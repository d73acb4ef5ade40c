package uvm

import (
	"github.com/gubingren0409/biglab4/defs"
	"github.com/gubingren0409/biglab4/mem"
)

/// Mmap places an anonymous region of npages pages with the given
/// permission (spec.md §4.3 "mmap"). When begin is zero the manager finds
/// the lowest-address hole between the heap and the stack; otherwise the
/// caller-supplied address is validated for overlap. Returns the chosen
/// base address — spec.md §9 flags the original kernel's "re-walk by size"
/// return convention as ambiguous and requires returning the address
/// directly, which this signature does.
func (as *AddressSpace) Mmap(begin uintptr, npages int, perm mem.PTEFlags) (uintptr, defs.Err_t) {
	as.mu.Lock()
	defer as.mu.Unlock()

	span := uintptr(npages * mem.PGSIZE)
	ceil := TRAPFRAME - uintptr(as.UstackNPages*mem.PGSIZE)

	if begin == 0 {
		found, ok := as.findHole(span, ceil)
		if !ok {
			panic("uvm: no free VA hole fits requested mmap size")
		}
		begin = found
	} else {
		if begin&mem.PGOFFSET != 0 {
			return 0, defs.EINVAL
		}
		if begin < as.HeapTop || begin+span > ceil {
			return 0, defs.EEXIST
		}
		if as.overlapsExisting(begin, begin+span) {
			return 0, defs.EEXIST
		}
	}

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
	if err := as.Pgtbl.MapPages(begin, frames, perm|mem.PTE_U, true); err != 0 {
		for _, f := range frames {
			as.alloc.Free(f)
		}
		return 0, err
	}

	as.insertRegion(begin, npages, perm)
	return begin, 0
}

/// findHole scans the sorted region list and the heap/stack boundaries for
/// the lowest address window of span bytes, matching uvm_mmap_find in the
/// original kernel (mem/uvm.c).
func (as *AddressSpace) findHole(span, ceil uintptr) (uintptr, bool) {
	lo := as.HeapTop
	for r := as.mmaps; r != nil; r = r.next {
		if r.Begin-lo >= span {
			return lo, true
		}
		lo = r.end()
	}
	if ceil-lo >= span {
		return lo, true
	}
	return 0, false
}

func (as *AddressSpace) overlapsExisting(begin, end uintptr) bool {
	for r := as.mmaps; r != nil; r = r.next {
		if begin < r.end() && r.Begin < end {
			return true
		}
	}
	return false
}

/// insertRegion inserts a new [begin, begin+npages*PGSIZE) region into the
/// sorted list, coalescing with an abutting neighbour of identical
/// permission (mmap_merge in the original kernel). The freed descriptor, if
/// any, is returned to the shared pool.
func (as *AddressSpace) insertRegion(begin uintptr, npages int, perm mem.PTEFlags) {
	nr := as.pool.allocRegion()
	nr.Begin, nr.NPages, nr.Perm = begin, npages, perm

	var prev *Region
	cur := as.mmaps
	for cur != nil && cur.Begin < begin {
		prev = cur
		cur = cur.next
	}

	if prev != nil {
		prev.next = nr
	} else {
		as.mmaps = nr
	}
	nr.next = cur

	if cur != nil && nr.end() == cur.Begin && nr.Perm == cur.Perm {
		nr.NPages += cur.NPages
		nr.next = cur.next
		as.pool.freeRegion(cur)
	}
	if prev != nil && prev.end() == nr.Begin && prev.Perm == nr.Perm {
		prev.NPages += nr.NPages
		prev.next = nr.next
		as.pool.freeRegion(nr)
	}
}

/// Munmap removes the mapping for an exact region match (spec.md §4.3
/// "munmap": "the simplest rule is exact-match and is sufficient for the
/// syscall surface here"). Panics if no region covers the range exactly,
/// matching the original kernel's uvm_munmap fatal-on-miss behavior.
func (as *AddressSpace) Munmap(begin uintptr, npages int) defs.Err_t {
	as.mu.Lock()
	defer as.mu.Unlock()

	var prev *Region
	cur := as.mmaps
	for cur != nil {
		if cur.Begin == begin && cur.NPages == npages {
			break
		}
		prev = cur
		cur = cur.next
	}
	if cur == nil {
		panic("uvm: munmap of a non-mapped region")
	}

	as.Pgtbl.UnmapPages(begin, npages, as.alloc, true)
	if prev != nil {
		prev.next = cur.next
	} else {
		as.mmaps = cur.next
	}
	as.pool.freeRegion(cur)
	return 0
}

/// cloneMmaps sets dst.mmaps to a fresh, independently pool-allocated copy
/// of src's region list in the same order, for use by fork (spec.md §5.3 Fork: "clone
/// the mmap descriptor list with a fresh descriptor per region"). dst draws
/// its descriptors from its own pool, which New already set to the same
/// kernel-owned pool src uses.
func cloneMmaps(src *AddressSpace, dst *AddressSpace) {
	var tail *Region
	for r := src.mmaps; r != nil; r = r.next {
		nr := dst.pool.allocRegion()
		nr.Begin, nr.NPages, nr.Perm = r.Begin, r.NPages, r.Perm
		if tail != nil {
			tail.next = nr
		} else {
			dst.mmaps = nr
		}
		tail = nr
	}
}
