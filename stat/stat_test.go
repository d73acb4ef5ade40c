package stat

import "testing"

func TestStatRoundTrip(t *testing.T) {
	var st Stat_t
	st.Wpid(7)
	st.Wstate(3)
	st.WheapTop(0x1000)
	st.WexitCode(-1)
	st.Waccnt(100, 200)

	if st.Pid() != 7 {
		t.Fatalf("Pid() = %d, want 7", st.Pid())
	}
	if st.State() != 3 {
		t.Fatalf("State() = %d, want 3", st.State())
	}
	if st.HeapTop() != 0x1000 {
		t.Fatalf("HeapTop() = %#x, want 0x1000", st.HeapTop())
	}
	if st.ExitCode() != -1 {
		t.Fatalf("ExitCode() = %d, want -1", st.ExitCode())
	}
	if st.Userns() != 100 || st.Sysns() != 200 {
		t.Fatalf("Userns()/Sysns() = %d/%d, want 100/200", st.Userns(), st.Sysns())
	}
}

func TestStatZeroValue(t *testing.T) {
	var st Stat_t
	if st.Pid() != 0 || st.State() != 0 || st.HeapTop() != 0 || st.ExitCode() != 0 {
		t.Fatal("zero-value Stat_t should report all-zero fields")
	}
}
