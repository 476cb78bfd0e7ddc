package hydraulic

import (
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

func TestGenerateForUsesLowestFreeIndex(t *testing.T) {
	m := NewLabelManager()
	if got := m.GenerateFor(TypeJunction, 1); got != "J1" {
		t.Errorf("GenerateFor() = %q, want J1", got)
	}
	m.Register("J2", TypeJunction, 7)
	if got := m.GenerateFor(TypeJunction, 2); got != "J3" {
		t.Errorf("GenerateFor() = %q, want J3 (J2 taken)", got)
	}
	m.Remove("J1", TypeJunction, 1)
	if got := m.GenerateFor(TypeJunction, 3); got != "J1" {
		t.Errorf("GenerateFor() after Remove = %q, want J1", got)
	}
	// labels are scoped per type
	if got := m.GenerateFor(TypePipe, 4); got != "P1" {
		t.Errorf("GenerateFor(pipe) = %q, want P1", got)
	}
}

func TestRegisterCountsOwners(t *testing.T) {
	m := NewLabelManager()
	m.Register("MAIN", TypePipe, 1)
	m.Register("MAIN", TypePipe, 1)
	m.Register("MAIN", TypeValve, 2)
	if got := m.Count("MAIN"); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
	m.Remove("MAIN", TypePipe, 1)
	if got := m.Count("MAIN"); got != 1 {
		t.Errorf("Count() after Remove = %d, want 1", got)
	}
}

func TestGenerateNextLabel(t *testing.T) {
	tests := []struct {
		name       string
		registered []string
		label      string
		want       string
	}{
		{"plain", nil, "MainPipe", "MainPipe_1"},
		{"skips used", []string{"TestPipe_1"}, "TestPipe", "TestPipe_2"},
		{"continues counter", nil, "MYLABEL_1", "MYLABEL_2"},
		{"truncates base", nil, strings.Repeat("a", 31), strings.Repeat("a", 29) + "_1"},
		{"truncates on rune boundary", nil, strings.Repeat("é", 16), strings.Repeat("é", 14) + "_1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewLabelManager()
			for i, l := range tt.registered {
				m.Register(l, TypePipe, AssetID(i+1))
			}
			got, err := m.GenerateNextLabel(tt.label)
			if err != nil {
				t.Fatalf("GenerateNextLabel() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GenerateNextLabel(%q) = %q, want %q", tt.label, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("GenerateNextLabel(%q) = %q, want valid UTF-8", tt.label, got)
			}
			if m.Count(got) != 0 {
				t.Error("GenerateNextLabel() must not register the label")
			}
		})
	}
}

func TestGenerateForConcurrent(t *testing.T) {
	m := NewLabelManager()
	var wg sync.WaitGroup
	labels := make([]string, 50)
	for i := range labels {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			labels[i] = m.GenerateFor(TypePipe, AssetID(i+1))
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, l := range labels {
		if seen[l] {
			t.Fatalf("duplicate label %q", l)
		}
		seen[l] = true
	}
}

func TestConsecutiveIDGenerator(t *testing.T) {
	g := NewConsecutiveIDGenerator(0)
	if g.NewID() != 1 || g.NewID() != 2 {
		t.Fatal("ids should start at 1 and increase")
	}
	g.Advance(10)
	g.Advance(4)
	if got := g.NewID(); got != 11 {
		t.Errorf("NewID() after Advance(10) = %d, want 11", got)
	}
	if got := g.TotalGenerated(); got != 11 {
		t.Errorf("TotalGenerated() = %d, want 11", got)
	}
}
