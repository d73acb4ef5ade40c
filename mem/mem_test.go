package mem

import "testing"

func TestFrameAllocatorRoundTrip(t *testing.T) {
	a := NewFrameAllocator(4)
	if n := a.NumFree(); n != 4 {
		t.Fatalf("NumFree() = %d, want 4", n)
	}

	f1, ok := a.Alloc(true)
	if !ok {
		t.Fatal("Alloc failed on non-empty arena")
	}
	if a.NumFree() != 3 {
		t.Fatalf("NumFree() after one alloc = %d, want 3", a.NumFree())
	}

	f1.Bytes[0] = 0xff
	a.Free(f1)
	if a.NumFree() != 4 {
		t.Fatalf("NumFree() after free = %d, want 4", a.NumFree())
	}

	f2, ok := a.Alloc(true)
	if !ok {
		t.Fatal("Alloc failed after free")
	}
	if f2.Bytes[0] != 0 {
		t.Fatal("Alloc(true) did not zero a reused frame")
	}
}

func TestFrameAllocatorExhaustion(t *testing.T) {
	a := NewFrameAllocator(1)
	if _, ok := a.Alloc(false); !ok {
		t.Fatal("first Alloc should succeed")
	}
	if _, ok := a.Alloc(false); ok {
		t.Fatal("second Alloc on a 1-frame arena should fail")
	}
}

func TestFrameAllocatorFreeOfForeignFramePanics(t *testing.T) {
	a := NewFrameAllocator(1)
	defer func() {
		if recover() == nil {
			t.Fatal("Free of a frame not owned by this allocator should panic")
		}
	}()
	a.Free(&Frame{})
}
