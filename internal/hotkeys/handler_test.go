package hotkeys

import (
	"errors"
	"sort"
	"testing"
)

func TestNewHandlerRequiresX11(t *testing.T) {
	if _, err := NewHandler(struct{}{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("NewHandler() error = %v, want ErrUnsupported", err)
	}
}

func TestMaskSubsets(t *testing.T) {
	got := maskSubsets([]uint16{2, 16, 128})
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	want := []uint16{0, 2, 16, 18, 128, 130, 144, 146}
	if len(got) != len(want) {
		t.Fatalf("maskSubsets() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("maskSubsets() = %v, want %v", got, want)
		}
	}

	if got := maskSubsets(nil); len(got) != 1 || got[0] != 0 {
		t.Fatalf("maskSubsets(nil) = %v", got)
	}
}

func TestContainsMask(t *testing.T) {
	if !containsMask([]uint16{2, 16}, 16) || containsMask([]uint16{2}, 16) {
		t.Fatal("containsMask")
	}
}
