package uvm

import (
	"github.com/gubingren0409/biglab4/defs"
	"github.com/gubingren0409/biglab4/mem"
)

/// CopyIn copies len bytes from this address space's user VA src into the
/// kernel-side slice dst (spec.md §4.3 "Cross-space copy"). It walks the
/// page table one page at a time and fails if any page is unmapped.
func (as *AddressSpace) CopyIn(dst []byte, src uintptr, length int) defs.Err_t {
	as.mu.Lock()
	defer as.mu.Unlock()

	n := 0
	for n < length {
		va := src + uintptr(n)
		off := int(va & mem.PGOFFSET)
		fr, _, ok := as.Pgtbl.Lookup(va - uintptr(off))
		if !ok {
			return defs.EFAULT
		}
		chunk := min(length-n, mem.PGSIZE-off)
		copy(dst[n:n+chunk], fr.Bytes[off:off+chunk])
		n += chunk
	}
	return 0
}

/// CopyOut copies len bytes from the kernel-side slice src into this
/// address space's user VA dst, requiring write permission on every page
/// touched.
func (as *AddressSpace) CopyOut(dst uintptr, src []byte, length int) defs.Err_t {
	as.mu.Lock()
	defer as.mu.Unlock()

	n := 0
	for n < length {
		va := dst + uintptr(n)
		off := int(va & mem.PGOFFSET)
		fr, flags, ok := as.Pgtbl.Lookup(va - uintptr(off))
		if !ok || flags&mem.PTE_W == 0 {
			return defs.EFAULT
		}
		chunk := min(length-n, mem.PGSIZE-off)
		copy(fr.Bytes[off:off+chunk], src[n:n+chunk])
		n += chunk
	}
	return 0
}

/// CopyInStr copies a NUL-terminated user string at src into dst, copying
/// at most maxlen bytes and failing if no terminator is found before then
/// (spec.md §4.3 "Cross-space copy"). Returns the copied length excluding
/// the terminator.
func (as *AddressSpace) CopyInStr(dst []byte, src uintptr, maxlen int) (int, defs.Err_t) {
	as.mu.Lock()
	defer as.mu.Unlock()

	n := 0
	for n < maxlen {
		va := src + uintptr(n)
		off := int(va & mem.PGOFFSET)
		fr, _, ok := as.Pgtbl.Lookup(va - uintptr(off))
		if !ok {
			return 0, defs.EFAULT
		}
		chunk := min(maxlen-n, mem.PGSIZE-off)
		for i := 0; i < chunk; i++ {
			b := fr.Bytes[off+i]
			if n >= len(dst) {
				return 0, defs.ENAMETOOLONG
			}
			dst[n] = b
			n++
			if b == 0 {
				return n - 1, 0
			}
		}
	}
	return 0, defs.ENAMETOOLONG
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

/// mappedRanges enumerates every [va, va+PGSIZE) range currently owning user
/// data: the text page, the mapped heap pages, the mapped stack pages, and
/// every mmap region. Used by Clone to walk exactly the ranges spec.md
/// §4.3's "Page-table clone" names.
func (as *AddressSpace) mappedRanges() [][2]uintptr {
	ranges := [][2]uintptr{{USER_BASE, USER_BASE + uintptr(mem.PGSIZE)}}

	heapPages := int((as.HeapTop - (USER_BASE + uintptr(mem.PGSIZE))) / uintptr(mem.PGSIZE))
	if heapPages > 0 {
		lo := USER_BASE + uintptr(mem.PGSIZE)
		ranges = append(ranges, [2]uintptr{lo, lo + uintptr(heapPages*mem.PGSIZE)})
	}

	stackLo := TRAPFRAME - uintptr(as.UstackNPages*mem.PGSIZE)
	ranges = append(ranges, [2]uintptr{stackLo, TRAPFRAME})

	for r := as.mmaps; r != nil; r = r.next {
		ranges = append(ranges, [2]uintptr{r.Begin, r.end()})
	}
	return ranges
}

/// Clone deep-copies src into a freshly built dst: every user data page
/// named by mappedRanges is walked, a new frame is allocated in dst with
/// identical permission bits, and the bytes are copied (spec.md §4.3
/// "Page-table clone"). A page dst already maps at a cloned address (the
/// text and initial stack pages New installs) is unmapped and freed before
/// the copy is mapped in its place. Trampoline and trap frame are not
/// copied; the caller maps those separately, and the mmap descriptor list
/// is cloned here to keep region bookkeeping and page-table contents
/// consistent.
func Clone(src, dst *AddressSpace) defs.Err_t {
	src.mu.Lock()
	defer src.mu.Unlock()

	for _, rg := range src.mappedRanges() {
		for va := rg[0]; va < rg[1]; va += uintptr(mem.PGSIZE) {
			srcFrame, flags, ok := src.Pgtbl.Lookup(va)
			if !ok {
				panic("uvm: Clone: expected mapping missing")
			}
			newFrame, ok := dst.alloc.Alloc(false)
			if !ok {
				return defs.ENOMEM
			}
			newFrame.Bytes = srcFrame.Bytes
			if _, _, mapped := dst.Pgtbl.Lookup(va); mapped {
				dst.Pgtbl.UnmapPages(va, 1, dst.alloc, true)
			}
			if err := dst.Pgtbl.MapPages(va, []*mem.Frame{newFrame}, flags, true); err != 0 {
				dst.alloc.Free(newFrame)
				return err
			}
		}
	}

	dst.HeapTop = src.HeapTop
	dst.UstackNPages = src.UstackNPages
	cloneMmaps(src, dst)
	return 0
}
