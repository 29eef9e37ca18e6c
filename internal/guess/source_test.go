package guess

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctrlkit/pushopt/internal/layout"
	"github.com/ctrlkit/pushopt/internal/model"
)

func testParams(steps int) model.Params {
	p := model.Default()
	p.Steps = steps
	return p
}

func TestGenerateLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	p := testParams(5)
	lay, _ := layout.New(p.Steps)
	target := []float64{0, 0, 0, 0}

	cfg := GenerateConfig{Dir: dir, Experiments: 3, Seed: 1, Spread: 0.3}
	if err := Generate(cfg, p, target); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	src := NewFileSource(dir, lay.Size())
	for i := 1; i <= cfg.Experiments; i++ {
		g, err := src.Load(i)
		if err != nil {
			t.Fatalf("load %d failed: %v", i, err)
		}
		if len(g) != lay.Size() {
			t.Fatalf("guess %d has %d values, want %d", i, len(g), lay.Size())
		}

		first := lay.Block(g, 0)
		if math.Abs(first.Theta()-math.Pi) > cfg.Spread+1e-6 {
			t.Errorf("guess %d starts at theta %g, want near pi", i, first.Theta())
		}
		if first.XDot() != 0 || first.ThetaDot() != 0 {
			t.Errorf("guess %d starts with nonzero velocity", i)
		}

		last := lay.Block(g, lay.Horizon-1)
		for j := 0; j < layout.NumState; j++ {
			if math.Abs(last.Get(layout.Field(j))-target[j]) > 1e-6 {
				t.Errorf("guess %d final state[%d] = %g, want %g", i, j, last.Get(layout.Field(j)), target[j])
			}
		}

		// no pre-seeded actuation or contact forces
		for step := 0; step < lay.Horizon; step++ {
			b := lay.Block(g, step)
			if b.U() != 0 || b.Lambda1() != 0 || b.Lambda2() != 0 {
				t.Errorf("guess %d block %d has nonzero controls", i, step)
			}
		}
	}
}

func TestGenerateIsSeedDeterministic(t *testing.T) {
	p := testParams(4)
	lay, _ := layout.New(p.Steps)
	target := []float64{0, 0, 0, 0}

	load := func(seed int64) []float64 {
		dir := t.TempDir()
		cfg := GenerateConfig{Dir: dir, Experiments: 1, Seed: seed, Spread: 0.5}
		if err := Generate(cfg, p, target); err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		g, err := NewFileSource(dir, lay.Size()).Load(1)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		return g
	}

	a, b := load(7), load(7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at %d: %g vs %g", i, a[i], b[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	src := NewFileSource(t.TempDir(), 7)
	_, err := src.Load(1)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v, want fs.ErrNotExist", err)
	}
}

func TestLoadHeaderAndShape(t *testing.T) {
	dir := t.TempDir()
	src := NewFileSource(dir, 6)

	write := func(t *testing.T, content string) {
		t.Helper()
		if err := os.WriteFile(src.Path(1), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("header skipped", func(t *testing.T) {
		write(t, "x,theta,x_dot\n1,2,3\n4,5,6\n")
		g, err := src.Load(1)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		want := []float64{1, 2, 3, 4, 5, 6}
		for i := range want {
			if g[i] != want[i] {
				t.Errorf("value %d = %g, want %g", i, g[i], want[i])
			}
		}
	})

	// a first row that is only partly numeric is still a header: none of its
	// values may leak into the guess
	t.Run("mixed first row skipped whole", func(t *testing.T) {
		write(t, "0.5,theta,0.5\n1,2,3\n4,5,6\n")
		g, err := src.Load(1)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		want := []float64{1, 2, 3, 4, 5, 6}
		for i := range want {
			if g[i] != want[i] {
				t.Errorf("value %d = %g, want %g", i, g[i], want[i])
			}
		}
	})

	t.Run("no header", func(t *testing.T) {
		write(t, "1,2,3\n4,5,6\n")
		g, err := src.Load(1)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if g[0] != 1 || g[5] != 6 {
			t.Errorf("unexpected values %v", g)
		}
	})

	t.Run("single column", func(t *testing.T) {
		write(t, "1\n2\n3\n4\n5\n6\n")
		g, err := src.Load(1)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if len(g) != 6 {
			t.Errorf("got %d values, want 6", len(g))
		}
	})

	t.Run("wrong length", func(t *testing.T) {
		write(t, "1,2,3\n")
		if _, err := src.Load(1); !errors.Is(err, ErrLength) {
			t.Errorf("got %v, want ErrLength", err)
		}
	})

	t.Run("malformed interior field", func(t *testing.T) {
		write(t, "1,2,3\n4,bogus,6\n")
		if _, err := src.Load(1); err == nil {
			t.Error("expected error for malformed row")
		} else if errors.Is(err, ErrLength) {
			t.Errorf("got ErrLength, want parse error: %v", err)
		}
	})
}

func TestGenerateValidation(t *testing.T) {
	p := testParams(4)
	dir := filepath.Join(t.TempDir(), "out")

	if err := Generate(GenerateConfig{Dir: dir, Experiments: 0}, p, []float64{0, 0, 0, 0}); err == nil {
		t.Error("expected error for zero experiments")
	}
	if err := Generate(GenerateConfig{Dir: dir, Experiments: 1}, p, []float64{0, 0}); !errors.Is(err, ErrLength) {
		t.Errorf("got %v, want ErrLength for short target", err)
	}
}
