package mem

import "testing"

func TestMapLookupUnmap(t *testing.T) {
	a := NewFrameAllocator(4)
	pt := NewPageTable()

	fr, ok := a.Alloc(true)
	if !ok {
		t.Fatal("alloc failed")
	}
	fr.Bytes[0] = 42

	const va = uintptr(PGSIZE) * 3
	if err := pt.MapPages(va, []*Frame{fr}, PTE_R|PTE_W|PTE_U, true); err != 0 {
		t.Fatalf("MapPages failed: %v", err)
	}

	got, flags, ok := pt.Lookup(va)
	if !ok {
		t.Fatal("Lookup of a mapped page failed")
	}
	if got != fr {
		t.Fatal("Lookup returned the wrong frame")
	}
	if flags&PTE_W == 0 {
		t.Fatal("Lookup lost the writable flag")
	}
	if got.Bytes[0] != 42 {
		t.Fatal("Lookup returned a frame with the wrong contents")
	}

	if _, _, ok := pt.Lookup(va + uintptr(PGSIZE)); ok {
		t.Fatal("Lookup succeeded on an unmapped page")
	}

	pt.UnmapPages(va, 1, a, true)
	if _, _, ok := pt.Lookup(va); ok {
		t.Fatal("Lookup still succeeds after UnmapPages")
	}
	if n := a.NumFree(); n != 4 {
		t.Fatalf("NumFree() after unmap = %d, want 4 (frame returned)", n)
	}
}

func TestDoubleMapPanics(t *testing.T) {
	a := NewFrameAllocator(2)
	pt := NewPageTable()
	f1, _ := a.Alloc(true)
	f2, _ := a.Alloc(true)

	if err := pt.MapPages(0, []*Frame{f1}, PTE_R|PTE_U, true); err != 0 {
		t.Fatalf("first MapPages failed: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("mapping over an already-valid PTE should panic")
		}
	}()
	pt.MapPages(0, []*Frame{f2}, PTE_R|PTE_U, true)
}

func TestUnmapOfUnmappedPanics(t *testing.T) {
	pt := NewPageTable()
	defer func() {
		if recover() == nil {
			t.Fatal("unmapping an unmapped page should panic")
		}
	}()
	pt.UnmapPages(uintptr(PGSIZE), 1, nil, false)
}
