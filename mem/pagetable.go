package mem

import "github.com/gubingren0409/biglab4/defs"

/// PTEFlags are the permission/validity bits carried by a page-table entry.
/// The teacher's x86-64 table uses P/W/U/PS/PCD/COW; this spec targets a
/// RISC-style MMU (spec.md §6) so the bit set is V/R/W/X/U instead, and there
/// is no COW bit since copy-on-write is an explicit Non-goal.
type PTEFlags uint

const (
	PTE_V PTEFlags = 1 << iota /// entry is valid
	PTE_R                      /// readable
	PTE_W                      /// writable
	PTE_X                      /// executable
	PTE_U                      /// accessible from user mode
)

/// levelbits is the number of VPN bits consumed per page-table level.
const levelbits uint = 9

/// nlevels is the depth of the page-table tree. The teacher walks a 4-level
/// x86-64 tree (PML4/PDPT/PD/PT); spec.md §3 describes a 3-level tree, so
/// the walk here stops one level sooner.
const nlevels = 3

/// entsPerTable is the fan-out of one page-table node.
const entsPerTable = 1 << levelbits

/// PTE is one slot in a PageTable. A valid entry is either a leaf, pointing
/// at a physical Frame, or an interior node, pointing at the next-level
/// PageTable. freeOnUnmap marks frames this mapping owns exclusively and
/// that UnmapPages should return to the FrameAllocator; it replaces the
/// teacher's refcounted Physmem_t/COW bookkeeping, which this spec has no
/// use for (no COW, no shared anonymous memory: Non-goals).
type PTE struct {
	frame       *Frame
	child       *PageTable
	flags       PTEFlags
	freeOnUnmap bool
}

func (p *PTE) valid() bool { return p.flags&PTE_V != 0 }
func (p *PTE) leaf() bool  { return p.valid() && p.flags&(PTE_R|PTE_W|PTE_X) != 0 }

/// PageTable is the root or an interior node of the 3-level address-space
/// tree (spec.md §3 "Page-table tree"). The zero value is an empty,
/// all-invalid table, matching a freshly allocated table in the teacher's
/// Pmap_new.
type PageTable struct {
	ents [entsPerTable]PTE
}

/// NewPageTable allocates an empty root table, mirroring the teacher's
/// Pmap_new (vm/as.go) which zero-fills a fresh top-level table.
func NewPageTable() *PageTable {
	return &PageTable{}
}

func vpn(va uintptr, level int) uintptr {
	shift := PGSHIFT + levelbits*uint(nlevels-1-level)
	return (va >> shift) & (entsPerTable - 1)
}

/// GetPTE walks the tree for va, allocating interior tables along the way
/// when create is true (matching the teacher's pgdir_walk "alloc" flag).
/// It returns nil when the entry doesn't exist and create is false.
func (t *PageTable) GetPTE(va uintptr, create bool) *PTE {
	cur := t
	for level := 0; level < nlevels-1; level++ {
		idx := vpn(va, level)
		e := &cur.ents[idx]
		if !e.valid() {
			if !create {
				return nil
			}
			e.child = NewPageTable()
			e.flags = PTE_V
		}
		if e.child == nil {
			/// a leaf sits where an interior node was expected: caller asked
			/// for a larger mapping that overlaps a smaller one already there.
			return nil
		}
		cur = e.child
	}
	idx := vpn(va, nlevels-1)
	return &cur.ents[idx]
}

/// MapPages installs one leaf mapping per frame, covering
/// [va, va+len(frames)*PGSIZE) (spec.md §6 vm_mappages). freeOnUnmap marks
/// whether UnmapPages should hand the frames back to alloc; alloc may be
/// nil when freeOnUnmap is false (e.g. mapping a frame another address space
/// still owns is not supported by this spec, but a borrowed kernel frame
/// used read-only could be in principle). MapPages refuses to overwrite an
/// already-valid leaf, matching the teacher's "p9 already mapped" panic
/// (spec.md §7: "double-map of an already-mapped page is a fatal
/// invariant violation, not a recoverable error").
func (t *PageTable) MapPages(va uintptr, frames []*Frame, flags PTEFlags, freeOnUnmap bool) defs.Err_t {
	if va&PGOFFSET != 0 {
		return defs.EINVAL
	}
	for i, fr := range frames {
		a := va + uintptr(i*PGSIZE)
		e := t.GetPTE(a, true)
		if e == nil {
			return defs.EINVAL
		}
		if e.valid() {
			panic("mem: MapPages over an already-valid PTE")
		}
		e.frame = fr
		e.flags = flags | PTE_V
		e.freeOnUnmap = freeOnUnmap
	}
	return 0
}

/// UnmapPages clears npages leaf entries starting at va. When freeFrames is
/// true, frames owned by this mapping (freeOnUnmap) are returned to alloc.
/// Unmapping an address with no valid leaf panics (spec.md §7: "unmap of an
/// unmapped region" is a fatal invariant violation), matching the teacher's
/// vm_unmappages behavior in vm/as.go.
func (t *PageTable) UnmapPages(va uintptr, npages int, alloc *FrameAllocator, freeFrames bool) {
	for i := 0; i < npages; i++ {
		a := va + uintptr(i*PGSIZE)
		e := t.GetPTE(a, false)
		if e == nil || !e.leaf() {
			panic("mem: UnmapPages of an unmapped page")
		}
		if freeFrames && e.freeOnUnmap && e.frame != nil {
			alloc.Free(e.frame)
		}
		*e = PTE{}
	}
}

/// Lookup returns the frame mapped at va and whether it is present, without
/// allocating interior tables. Used by copyin/copyout (uvm) to translate a
/// user virtual address one page at a time.
func (t *PageTable) Lookup(va uintptr) (*Frame, PTEFlags, bool) {
	e := t.GetPTE(va, false)
	if e == nil || !e.leaf() {
		return nil, 0, false
	}
	return e.frame, e.flags, true
}
