package fanout

import "testing"

func TestLogRingAppendCapsAtCapacity(t *testing.T) {
	r := newLogRing(3)
	r.append("a")
	r.append("b")
	r.append("c")
	r.append("d")

	got := r.snapshot()
	want := []string{"b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestLogRingReplaceKeepsTrailingCapacityLines(t *testing.T) {
	r := newLogRing(2)
	r.replace([]string{"x", "y", "z"})

	got := r.snapshot()
	want := []string{"y", "z"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSplitNonEmptyLinesDropsBlankLines(t *testing.T) {
	got := splitNonEmptyLines("a\n\nb\nc\n")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
