package util

import "testing"

func TestMin(t *testing.T) {
	if Min(3, 5) != 3 {
		t.Fatal("Min(3, 5) should be 3")
	}
	if Min(uintptr(9), uintptr(2)) != 2 {
		t.Fatal("Min(9, 2) should be 2")
	}
}

func TestRoundupRounddown(t *testing.T) {
	if Rounddown(13, 4) != 12 {
		t.Fatalf("Rounddown(13, 4) = %d, want 12", Rounddown(13, 4))
	}
	if Roundup(13, 4) != 16 {
		t.Fatalf("Roundup(13, 4) = %d, want 16", Roundup(13, 4))
	}
	if Roundup(12, 4) != 12 {
		t.Fatalf("Roundup(12, 4) = %d, want 12 (already aligned)", Roundup(12, 4))
	}
}

func TestPagecount(t *testing.T) {
	if Pagecount(1, 4096) != 1 {
		t.Fatalf("Pagecount(1, 4096) = %d, want 1", Pagecount(1, 4096))
	}
	if Pagecount(4096, 4096) != 1 {
		t.Fatalf("Pagecount(4096, 4096) = %d, want 1", Pagecount(4096, 4096))
	}
	if Pagecount(4097, 4096) != 2 {
		t.Fatalf("Pagecount(4097, 4096) = %d, want 2", Pagecount(4097, 4096))
	}
	if Pagecount(0, 4096) != 0 {
		t.Fatalf("Pagecount(0, 4096) = %d, want 0", Pagecount(0, 4096))
	}
}

func TestReadnWritenRoundTrip(t *testing.T) {
	buf := make([]byte, 16)
	Writen(buf, 4, 0, 0x1234abcd)
	if got := Readn(buf, 4, 0); got != 0x1234abcd {
		t.Fatalf("Readn(4) after Writen(4) = %#x, want 0x1234abcd", got)
	}

	Writen(buf, 1, 8, 200)
	if got := Readn(buf, 1, 8); got != 200 {
		t.Fatalf("Readn(1) after Writen(1) = %d, want 200", got)
	}
}

func TestReadnOutOfBoundsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Readn past the end of the buffer should panic")
		}
	}()
	Readn(make([]byte, 4), 8, 0)
}

func TestWritenUnsupportedSizePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Writen with an unsupported size should panic")
		}
	}()
	Writen(make([]byte, 4), 3, 0, 0)
}
