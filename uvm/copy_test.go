package uvm

import (
	"bytes"
	"testing"

	"github.com/gubingren0409/biglab4/defs"
)

func TestCopyOutCopyInRoundTrip(t *testing.T) {
	_, _, as := newTestAS(t)

	msg := []byte("hello kernel")
	if err := as.CopyOut(USER_BASE, msg, len(msg)); err != 0 {
		t.Fatalf("CopyOut failed: %v", err)
	}

	got := make([]byte, len(msg))
	if err := as.CopyIn(got, USER_BASE, len(msg)); err != 0 {
		t.Fatalf("CopyIn failed: %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Fatalf("CopyIn returned %q, want %q", got, msg)
	}
}

func TestCopyInOfUnmappedFaults(t *testing.T) {
	_, _, as := newTestAS(t)
	buf := make([]byte, 8)
	if err := as.CopyIn(buf, as.HeapTop, 8); err != defs.EFAULT {
		t.Fatalf("CopyIn of unmapped VA = %v, want EFAULT", err)
	}
}

func TestCopyInStrStopsAtNUL(t *testing.T) {
	_, _, as := newTestAS(t)

	raw := append([]byte("hi\x00garbage"), 0)
	if err := as.CopyOut(USER_BASE, raw, len(raw)); err != 0 {
		t.Fatalf("CopyOut failed: %v", err)
	}

	dst := make([]byte, 16)
	n, err := as.CopyInStr(dst, USER_BASE, 16)
	if err != 0 {
		t.Fatalf("CopyInStr failed: %v", err)
	}
	if n != 2 || string(dst[:n]) != "hi" {
		t.Fatalf("CopyInStr returned (%q, %d), want (\"hi\", 2)", dst[:n], n)
	}
}

func TestCopyInStrTooLong(t *testing.T) {
	_, _, as := newTestAS(t)

	raw := bytes.Repeat([]byte{'a'}, 32)
	if err := as.CopyOut(USER_BASE, raw, len(raw)); err != 0 {
		t.Fatalf("CopyOut failed: %v", err)
	}
	dst := make([]byte, 4)
	if _, err := as.CopyInStr(dst, USER_BASE, 4); err != defs.ENAMETOOLONG {
		t.Fatalf("CopyInStr of an unterminated string = %v, want ENAMETOOLONG", err)
	}
}

func TestCloneProducesIndependentFramesSameContents(t *testing.T) {
	alloc, trampoline, src := newTestAS(t)
	dst, _, err := New(alloc, trampoline, src.pool)
	if err != 0 {
		t.Fatalf("New(dst) failed: %v", err)
	}

	msg := []byte("clone me")
	if err := src.CopyOut(USER_BASE, msg, len(msg)); err != 0 {
		t.Fatalf("CopyOut failed: %v", err)
	}

	if err := Clone(src, dst); err != 0 {
		t.Fatalf("Clone failed: %v", err)
	}

	got := make([]byte, len(msg))
	if err := dst.CopyIn(got, USER_BASE, len(msg)); err != 0 {
		t.Fatalf("CopyIn from clone failed: %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Fatalf("cloned contents = %q, want %q", got, msg)
	}

	srcFrame, srcFlags, _ := src.Pgtbl.Lookup(USER_BASE)
	dstFrame, dstFlags, _ := dst.Pgtbl.Lookup(USER_BASE)
	if srcFrame == dstFrame {
		t.Fatal("Clone should allocate a distinct frame, not share the source's")
	}
	if srcFlags != dstFlags {
		t.Fatalf("cloned permission flags = %v, want %v", dstFlags, srcFlags)
	}

	if err := dst.CopyOut(USER_BASE, []byte("mutated!"), 8); err != 0 {
		t.Fatalf("CopyOut to clone failed: %v", err)
	}
	srcAfter := make([]byte, len(msg))
	src.CopyIn(srcAfter, USER_BASE, len(msg))
	if !bytes.Equal(srcAfter, msg) {
		t.Fatal("mutating the clone's frame mutated the source's frame too")
	}
}
