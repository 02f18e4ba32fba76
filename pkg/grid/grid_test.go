package grid

import (
	"math/rand"
	"testing"
)

func TestPackUnpackIndexRoundTrip(t *testing.T) {
	g, err := New(3, 3)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for cell := 0; cell < g.Size(); cell++ {
		coords := g.UnpackIndex(cell)
		if len(coords) != 3 {
			t.Fatalf("UnpackIndex(%d) has %d coords, want 3", cell, len(coords))
		}
		for _, c := range coords {
			if c < 0 || c >= 3 {
				t.Fatalf("UnpackIndex(%d) coordinate %d out of [0,3)", cell, c)
			}
		}
		if back := g.PackIndex(coords); back != cell {
			t.Fatalf("PackIndex(UnpackIndex(%d)) = %d, want %d", cell, back, cell)
		}
	}
}

func TestSizeIsMPowN(t *testing.T) {
	g, err := New(4, 3)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if g.Size() != 81 {
		t.Fatalf("Size() = %d, want 3^4 = 81", g.Size())
	}
}

func TestNewRejectsOutOfRangeDimension(t *testing.T) {
	if _, err := New(0, 3); err == nil {
		t.Fatal("New(0, ...) should fail")
	}
	if _, err := New(16, 3); err == nil {
		t.Fatal("New(16, ...) should fail: exceeds MaxDim")
	}
}

func TestSampleInCellStaysWithinCellBounds(t *testing.T) {
	g, err := New(2, 3)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	rng := rand.New(rand.NewSource(1))
	cell := 4 // coords (1,1) in a 3x3 grid
	coords := g.UnpackIndex(cell)
	for trial := 0; trial < 50; trial++ {
		point := g.SampleInCell(cell, rng)
		for i, c := range coords {
			lo := float64(c) / 3.0
			hi := float64(c+1) / 3.0
			if point[i] < lo || point[i] > hi {
				t.Fatalf("SampleInCell(%d) produced %v outside cell bounds [%v,%v] on dim %d", cell, point, lo, hi, i)
			}
		}
	}
}

func TestPrepareSetsPreparedAndFMaxGlobal(t *testing.T) {
	g, err := New(2, 3)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	rng := rand.New(rand.NewSource(42))
	g.Prepare(func(coords []float64) float64 {
		return coords[0] + coords[1]
	}, 100, rng)

	if !g.Prepared() {
		t.Fatal("Prepare should set Prepared() to true")
	}
	maxObserved := 0.0
	for cell := 0; cell < g.Size(); cell++ {
		if g.FMax(cell) > maxObserved {
			maxObserved = g.FMax(cell)
		}
	}
	if g.FMaxGlobal() != maxObserved {
		t.Fatalf("FMaxGlobal() = %v, want max over all cells = %v", g.FMaxGlobal(), maxObserved)
	}
	if g.FMaxGlobal() <= 0 {
		t.Fatal("FMaxGlobal() should be positive for a non-trivial function")
	}
}

func TestIncrementVisits(t *testing.T) {
	g, err := New(2, 3)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if g.NumVisits(0) != 0 {
		t.Fatalf("NumVisits(0) = %d, want 0", g.NumVisits(0))
	}
	g.IncrementVisits(0)
	g.IncrementVisits(0)
	if g.NumVisits(0) != 2 {
		t.Fatalf("NumVisits(0) = %d, want 2", g.NumVisits(0))
	}
}
