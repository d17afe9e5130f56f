package img

import (
	"testing"
)

func TestNameMatcher(t *testing.T) {
	t.Parallel()

	m, err := newNameMatcher([]string{"*.dff", "player*"})
	if err != nil {
		t.Fatalf("newNameMatcher: %v", err)
	}

	testCases := []struct {
		name string
		want bool
	}{
		{name: "car.dff", want: true},
		{name: "player.txd", want: true},
		{name: "scene.col", want: false},
		{name: "car.DFF", want: false},
		{name: "", want: false},
	}

	for _, tc := range testCases {
		if got := m.Match(tc.name); got != tc.want {
			t.Fatalf("Match(%q)=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNameMatcher_EmptyPatterns(t *testing.T) {
	t.Parallel()

	m, err := newNameMatcher([]string{"", "   "})
	if err != nil {
		t.Fatalf("newNameMatcher: %v", err)
	}

	if m != nil {
		t.Fatal("blank patterns must yield a nil matcher")
	}

	if m.Match("anything.dff") {
		t.Fatal("nil matcher must match nothing")
	}
}

func TestFilterEntriesByPattern(t *testing.T) {
	t.Parallel()

	entries := []EntryInfo{
		{Name: "a.dff", StartSector: 1, Size: 10},
		{Name: "b.txd", StartSector: 2, Size: 20},
		{Name: "c.dff", StartSector: 3, Size: 30},
	}

	all, err := filterEntriesByPattern(entries, "")
	if err != nil {
		t.Fatalf("filterEntriesByPattern: %v", err)
	}

	if len(all) != 3 {
		t.Fatalf("empty pattern kept %d entries, want 3", len(all))
	}

	dff, err := filterEntriesByPattern(entries, "*.dff")
	if err != nil {
		t.Fatalf("filterEntriesByPattern: %v", err)
	}

	if len(dff) != 2 || dff[0].Name != "a.dff" || dff[1].Name != "c.dff" {
		t.Fatalf("dff=%+v", dff)
	}

	none, err := filterEntriesByPattern(entries, "*.ipl")
	if err != nil {
		t.Fatalf("filterEntriesByPattern: %v", err)
	}

	if len(none) != 0 {
		t.Fatalf("none=%+v, want empty", none)
	}
}
