package palette

import "testing"

func TestGenerateProducesEnoughDistinctColors(t *testing.T) {
	for _, n := range []int{1, 2, 5, 50, 51, 200} {
		p := New()
		p.Generate(n)
		if p.Len() < n {
			t.Fatalf("n=%d: generated %d colors", n, p.Len())
		}
		seen := make(map[RGB]int, p.Len())
		for i := 0; i < p.Len(); i++ {
			c := p.Color(i)
			if prev, dup := seen[c]; dup {
				t.Fatalf("n=%d: color %d duplicates color %d (%s)", n, i, prev, c.Hex())
			}
			seen[c] = i
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := New()
	b := New()
	a.Generate(120)
	b.Generate(120)
	if a.Len() != b.Len() {
		t.Fatalf("lengths differ: %d vs %d", a.Len(), b.Len())
	}
	for i := 0; i < a.Len(); i++ {
		if a.Color(i) != b.Color(i) {
			t.Fatalf("color %d differs: %s vs %s", i, a.Color(i).Hex(), b.Color(i).Hex())
		}
	}
}

func TestGenerateLevelCounts(t *testing.T) {
	// One hue ring suffices up to 50; 51 needs a second value level.
	p := New()
	p.Generate(50)
	if p.Len() != 50 {
		t.Fatalf("n=50: got %d colors, want 50", p.Len())
	}
	p.Generate(51)
	if p.Len() != 100 {
		t.Fatalf("n=51: got %d colors, want 100", p.Len())
	}
	p.Generate(200)
	if p.Len() != 200 {
		t.Fatalf("n=200: got %d colors, want 200", p.Len())
	}
}

func TestAssignIsStable(t *testing.T) {
	p := New()
	p.Generate(10)

	first, err := p.Assign("crate_01")
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	second, err := p.Assign("wall")
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if first == second {
		t.Fatal("distinct names share an index")
	}

	again, err := p.Assign("crate_01")
	if err != nil {
		t.Fatalf("repeat Assign failed: %v", err)
	}
	if again != first {
		t.Fatalf("repeat Assign moved crate_01 from %d to %d", first, again)
	}
}

func TestAssignSurvivesRegenerate(t *testing.T) {
	p := New()
	p.Generate(10)
	idx, err := p.Assign("floor")
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	p.Generate(100)
	again, err := p.Assign("floor")
	if err != nil {
		t.Fatalf("Assign after Generate failed: %v", err)
	}
	if again != idx {
		t.Fatalf("regenerate moved floor from %d to %d", idx, again)
	}
}

func TestAssignExhaustion(t *testing.T) {
	p := New()
	if _, err := p.Assign("anything"); err == nil {
		t.Fatal("expected error assigning against an empty palette")
	}

	p.Generate(1)
	// Generate(1) still yields a full hue ring; fill it completely.
	for i := 0; i < p.Len(); i++ {
		if _, err := p.Assign(string(rune('a'+i%26)) + string(rune('0'+i/26))); err != nil {
			t.Fatalf("Assign %d failed: %v", i, err)
		}
	}
	if _, err := p.Assign("one-too-many"); err == nil {
		t.Fatal("expected exhaustion error")
	}
}

func TestEntriesFollowAssignmentOrder(t *testing.T) {
	p := New()
	p.Generate(10)
	names := []string{"floor", "wall", "crate_01"}
	for _, name := range names {
		if _, err := p.Assign(name); err != nil {
			t.Fatalf("Assign %q failed: %v", name, err)
		}
	}

	entries := p.Entries()
	if len(entries) != len(names) {
		t.Fatalf("got %d entries, want %d", len(entries), len(names))
	}
	for i, name := range names {
		if entries[i].Name != name || entries[i].ColorIndex != uint32(i) {
			t.Fatalf("entry %d = %+v, want {%s %d}", i, entries[i], name, i)
		}
	}
}

func TestHex(t *testing.T) {
	if got := (RGB{R: 255, G: 0, B: 16}).Hex(); got != "#ff0010" {
		t.Fatalf("Hex = %q, want #ff0010", got)
	}
}
