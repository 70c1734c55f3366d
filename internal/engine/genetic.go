package engine

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/SupportGen/internal/model"
)

// DefaultOrientationSeed seeds the refinement so repeated runs agree.
const DefaultOrientationSeed int64 = 42

// GeneticConfig holds parameters for the orientation refinement.
type GeneticConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	MutationSigma  float64 // degrees
	MaxTilt        float64 // degrees either side of the starting rotation
	TournamentSize int
	EliteCount     int
	Seed           int64
}

// DefaultGeneticConfig returns sensible default parameters.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 24,
		Generations:    10,
		MutationRate:   0.3,
		MutationSigma:  3,
		MaxTilt:        15,
		TournamentSize: 3,
		EliteCount:     2,
		Seed:           DefaultOrientationSeed,
	}
}

// chromosome is a tilt about X and Y (degrees) applied after the base rotation.
type chromosome struct {
	tiltX, tiltY float64
	cost         float64
	candidate    OrientationCandidate
}

type geneticOptimizer struct {
	orienter *Orienter
	config   GeneticConfig
	mesh     model.Mesh
	base     mgl64.Mat3
	rng      *rand.Rand
}

func newGeneticOptimizer(o *Orienter, config GeneticConfig, mesh model.Mesh, base mgl64.Mat3) *geneticOptimizer {
	return &geneticOptimizer{
		orienter: o,
		config:   config,
		mesh:     mesh,
		base:     base,
		rng:      rand.New(rand.NewSource(config.Seed)),
	}
}

// refine runs the genetic search around best. The refined candidate is only
// returned when it is strictly cheaper.
func (o *Orienter) refine(ctx context.Context, mesh model.Mesh, best OrientationCandidate) (OrientationCandidate, bool) {
	cfg := DefaultGeneticConfig()
	cfg.Generations = o.Config.OrientationRefineGenerations
	g := newGeneticOptimizer(o, cfg, mesh, best.Rotation)

	winner, err := g.optimize(ctx)
	if err != nil {
		o.Log.Warn("orientation refinement aborted", zap.Error(err))
		return best, false
	}
	if winner.cost >= best.Cost-1e-9*math.Max(1, math.Abs(best.Cost)) {
		return best, false
	}
	c := winner.candidate
	c.Index = best.Index
	c.Down = best.Down
	return c, true
}

func (g *geneticOptimizer) optimize(ctx context.Context) (chromosome, error) {
	population := g.initPopulation()
	if err := g.evaluate(ctx, population); err != nil {
		return chromosome{}, err
	}

	for gen := 0; gen < g.config.Generations; gen++ {
		g.sortPopulation(population)

		newPop := make([]chromosome, 0, g.config.PopulationSize)

		eliteCount := g.config.EliteCount
		if eliteCount > len(population) {
			eliteCount = len(population)
		}
		newPop = append(newPop, population[:eliteCount]...)

		// Offspring are bred sequentially so the random stream is fixed,
		// then scored in parallel.
		offspring := make([]chromosome, 0, g.config.PopulationSize-eliteCount)
		for len(newPop)+len(offspring) < g.config.PopulationSize {
			parent1 := g.tournamentSelect(population)
			parent2 := g.tournamentSelect(population)
			child := g.crossover(parent1, parent2)
			g.mutate(&child)
			offspring = append(offspring, child)
		}
		if err := g.evaluate(ctx, offspring); err != nil {
			return chromosome{}, err
		}

		population = append(newPop, offspring...)
	}

	g.sortPopulation(population)
	return population[0], nil
}

// initPopulation seeds the untilted rotation plus random tilts.
func (g *geneticOptimizer) initPopulation() []chromosome {
	population := make([]chromosome, g.config.PopulationSize)
	for i := 1; i < len(population); i++ {
		population[i] = chromosome{
			tiltX: (g.rng.Float64()*2 - 1) * g.config.MaxTilt,
			tiltY: (g.rng.Float64()*2 - 1) * g.config.MaxTilt,
		}
	}
	return population
}

func (g *geneticOptimizer) rotation(c chromosome) mgl64.Mat3 {
	tilt := mgl64.Rotate3DY(mgl64.DegToRad(c.tiltY)).Mul3(mgl64.Rotate3DX(mgl64.DegToRad(c.tiltX)))
	return tilt.Mul3(g.base)
}

// evaluate scores every chromosome in place.
func (g *geneticOptimizer) evaluate(ctx context.Context, pop []chromosome) error {
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.orienter.Config.WorkerCount())
	for i := range pop {
		i := i
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			c := g.orienter.Score(g.mesh, g.rotation(pop[i]))
			pop[i].candidate = c
			pop[i].cost = c.Cost
			return nil
		})
	}
	return eg.Wait()
}

// sortPopulation orders by cost ascending; equal costs keep the smaller tilt.
func (g *geneticOptimizer) sortPopulation(pop []chromosome) {
	sort.SliceStable(pop, func(i, j int) bool {
		if pop[i].cost != pop[j].cost {
			return pop[i].cost < pop[j].cost
		}
		return math.Hypot(pop[i].tiltX, pop[i].tiltY) < math.Hypot(pop[j].tiltX, pop[j].tiltY)
	})
}

// tournamentSelect picks the best individual from a random tournament.
func (g *geneticOptimizer) tournamentSelect(population []chromosome) chromosome {
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < g.config.TournamentSize; i++ {
		candidate := population[g.rng.Intn(len(population))]
		if candidate.cost < best.cost {
			best = candidate
		}
	}
	return best
}

// crossover blends the tilts of both parents.
func (g *geneticOptimizer) crossover(parent1, parent2 chromosome) chromosome {
	w := g.rng.Float64()
	return chromosome{
		tiltX: w*parent1.tiltX + (1-w)*parent2.tiltX,
		tiltY: w*parent1.tiltY + (1-w)*parent2.tiltY,
	}
}

// mutate nudges each tilt with gaussian noise and clamps it to MaxTilt.
func (g *geneticOptimizer) mutate(c *chromosome) {
	if g.rng.Float64() < g.config.MutationRate {
		c.tiltX += g.rng.NormFloat64() * g.config.MutationSigma
	}
	if g.rng.Float64() < g.config.MutationRate {
		c.tiltY += g.rng.NormFloat64() * g.config.MutationSigma
	}
	c.tiltX = mgl64.Clamp(c.tiltX, -g.config.MaxTilt, g.config.MaxTilt)
	c.tiltY = mgl64.Clamp(c.tiltY, -g.config.MaxTilt, g.config.MaxTilt)
}
