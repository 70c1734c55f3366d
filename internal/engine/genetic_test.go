package engine

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func refineConfigMesh() (*Orienter, OrientationCandidate) {
	cfg := testConfig()
	cfg.OrientationRefineGenerations = 4
	o := NewOrienter(cfg)
	// A wedge-like stack: the best axis-aligned pose still leaves overhangs.
	mesh := testBox(0, 0, 0, 6, 3, 2).Append(testBox(4, 0, 2, 9, 3, 3))
	return o, o.Score(mesh, mgl64.Ident3())
}

func TestGeneticRefinementNeverWorse(t *testing.T) {
	o, start := refineConfigMesh()
	mesh := testBox(0, 0, 0, 6, 3, 2).Append(testBox(4, 0, 2, 9, 3, 3))

	refined, ok := o.refine(context.Background(), mesh, start)
	if ok && refined.Cost >= start.Cost {
		t.Errorf("refinement accepted a cost of %f, starting cost was %f", refined.Cost, start.Cost)
	}
	if !ok && refined.Cost != start.Cost {
		t.Errorf("rejected refinement must return the starting candidate")
	}
}

func TestGeneticRefinementIsDeterministic(t *testing.T) {
	o, start := refineConfigMesh()
	mesh := testBox(0, 0, 0, 6, 3, 2).Append(testBox(4, 0, 2, 9, 3, 3))

	a, okA := o.refine(context.Background(), mesh, start)
	b, okB := o.refine(context.Background(), mesh, start)
	if okA != okB {
		t.Fatalf("acceptance differs between runs: %v vs %v", okA, okB)
	}
	if a.Rotation != b.Rotation || a.Cost != b.Cost {
		t.Errorf("refinement is not deterministic: %v/%f vs %v/%f", a.Rotation, a.Cost, b.Rotation, b.Cost)
	}
}

func TestGeneticMutationStaysWithinTilt(t *testing.T) {
	cfg := DefaultGeneticConfig()
	cfg.MutationRate = 1
	cfg.MutationSigma = 50
	g := &geneticOptimizer{config: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}

	c := chromosome{}
	for i := 0; i < 200; i++ {
		g.mutate(&c)
		if math.Abs(c.tiltX) > cfg.MaxTilt || math.Abs(c.tiltY) > cfg.MaxTilt {
			t.Fatalf("tilt escaped the limit: %f, %f", c.tiltX, c.tiltY)
		}
	}
}

func TestGeneticInitialPopulationKeepsStart(t *testing.T) {
	cfg := DefaultGeneticConfig()
	g := &geneticOptimizer{config: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}

	pop := g.initPopulation()
	if len(pop) != cfg.PopulationSize {
		t.Fatalf("expected %d individuals, got %d", cfg.PopulationSize, len(pop))
	}
	if pop[0].tiltX != 0 || pop[0].tiltY != 0 {
		t.Errorf("first individual should be the untilted start, got %f, %f", pop[0].tiltX, pop[0].tiltY)
	}
}

func TestOptimizeWithRefinementIsDeterministic(t *testing.T) {
	cfg := testConfig()
	cfg.OrientationSampleCount = 6
	cfg.OrientationRefineGenerations = 2
	mesh := testMushroom()

	first, err := NewOrienter(cfg).Optimize(context.Background(), mesh)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewOrienter(cfg).Optimize(context.Background(), mesh)
	if err != nil {
		t.Fatal(err)
	}
	if first.Transform != second.Transform {
		t.Errorf("transforms differ: %v vs %v", first.Transform, second.Transform)
	}
}
