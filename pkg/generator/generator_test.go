package generator

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/cepgen/cepgen-go/pkg/grid"
	"github.com/cepgen/cepgen-go/pkg/integrand"
	"github.com/cepgen/cepgen-go/pkg/process"
)

func newUnitAdapter() *integrand.Adapter {
	p, err := process.Registry.Build("unit", nil)
	if err != nil {
		panic(err)
	}
	if err := p.PrepareKinematics(nil); err != nil {
		panic(err)
	}
	return integrand.New(p, nil, nil)
}

func prepareUnitGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g, err := grid.New(3, grid.DefaultCellsPerDim)
	if err != nil {
		t.Fatalf("grid.New failed: %v", err)
	}
	rng := rand.New(rand.NewSource(42))
	a := newUnitAdapter()
	g.Prepare(a.Eval, grid.MinWarmupVisitsPerCell, rng)
	return g
}

func TestNewRejectsUnpreparedGrid(t *testing.T) {
	g, err := grid.New(3, grid.DefaultCellsPerDim)
	if err != nil {
		t.Fatalf("grid.New failed: %v", err)
	}
	if _, err := New(g, 0); err == nil {
		t.Fatal("New should reject a grid that has not been prepared")
	}
}

func TestRunGeneratesRequestedCount(t *testing.T) {
	g := prepareUnitGrid(t)
	gen, err := New(g, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	const target = 25
	ctx := context.Background()
	n, err := gen.Run(ctx, target, 4, newUnitAdapter, func(workerID int) *rand.Rand {
		return rand.New(rand.NewSource(int64(100 + workerID)))
	}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n != target {
		t.Fatalf("Run generated %d events, want %d", n, target)
	}
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	g := prepareUnitGrid(t)
	gen, err := New(g, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := gen.Run(ctx, 1000000, 2, newUnitAdapter, func(workerID int) *rand.Rand {
		return rand.New(rand.NewSource(int64(workerID)))
	}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n >= 1000000 {
		t.Fatalf("Run should have stopped early after context cancellation, got %d", n)
	}
}

type fakeAbort struct {
	ch chan struct{}
}

func (f *fakeAbort) StopChannel() <-chan struct{} { return f.ch }

func TestRunStopsOnAbortSignal(t *testing.T) {
	g := prepareUnitGrid(t)
	gen, err := New(g, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	abort := &fakeAbort{ch: make(chan struct{})}
	close(abort.ch)

	n, err := gen.Run(context.Background(), 1000000, 2, newUnitAdapter, func(workerID int) *rand.Rand {
		return rand.New(rand.NewSource(int64(workerID)))
	}, abort)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n >= 1000000 {
		t.Fatalf("Run should have stopped early after abort signal, got %d", n)
	}
}

func TestGenerateOneEventAcceptsAgainstConstantWeight(t *testing.T) {
	g := prepareUnitGrid(t)
	gen, err := New(g, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	adapter := newUnitAdapter()
	rng := rand.New(rand.NewSource(7))

	accepted := 0
	for i := 0; i < 50; i++ {
		ok, err := gen.generateOneEvent(adapter, rng)
		if err != nil {
			t.Fatalf("generateOneEvent failed: %v", err)
		}
		if ok {
			accepted++
		}
	}
	if accepted == 0 {
		t.Fatal("expected at least one accepted event against a constant weight-1 process")
	}
}

func TestConcurrentWorkersShareGridStateSafely(t *testing.T) {
	g := prepareUnitGrid(t)
	gen, err := New(g, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			adapter := newUnitAdapter()
			rng := rand.New(rand.NewSource(int64(id)))
			for i := 0; i < 20; i++ {
				_, _ = gen.generateOneEvent(adapter, rng)
			}
		}(w)
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent generation did not complete in time")
	}
}
