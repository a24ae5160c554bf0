package neat

import (
	"fmt"
	"math"

	"github.com/nealis-labs/neat/neat/ffnet"
)

// Population owns a fixed-size, index-addressable vector of genomes and
// drives the per-tick and per-epoch operations: Run, SetFitness,
// IncreaseTimeAlive, GetNetwork, GetSpeciesID, Epoch. The index a caller
// gets back from Create is stable for the lifetime of the population even
// across epoch-time replacement: only the genome occupying that slot
// changes.
type Population struct {
	Config       *Config
	Genomes      []*Genome // Genomes[i] is the genome at index i.
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Stagnation   *Stagnation
	Generation   int
	BestGenome   *Genome
}

// Create allocates config.Neat.PopulationSize freshly randomized genomes
// and, if speciation is enabled, runs a first speciation pass over them.
func Create(config *Config) (*Population, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	reproduction := NewReproduction(&config.Reproduction, 1)
	initial, err := reproduction.CreateInitialPopulation(&config.Genome, config.Neat.PopulationSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial population: %w", err)
	}

	keys := sortedGenomeKeys(initial)
	genomes := make([]*Genome, 0, len(keys))
	for _, k := range keys {
		genomes = append(genomes, initial[k])
	}

	speciesSet := NewSpeciesSet(&config.SpeciesSet)
	if config.Neat.Speciate {
		if err := speciesSet.Speciate(initial, 0); err != nil {
			return nil, fmt.Errorf("failed to speciate initial population: %w", err)
		}
	}

	fmt.Printf("Info: created population of %d genomes across %d species\n", len(genomes), len(speciesSet.Species))

	return &Population{
		Config:       config,
		Genomes:      genomes,
		SpeciesSet:   speciesSet,
		Reproduction: reproduction,
		Stagnation:   NewStagnation(),
	}, nil
}

// Destroy releases the population's state. Go's garbage collector reclaims
// the underlying genomes and networks once p drops out of scope; Destroy
// exists to mirror the population-indexed API's explicit teardown call and
// to make reuse of a destroyed handle fail fast.
func (p *Population) Destroy() {
	p.Genomes = nil
	p.SpeciesSet = nil
	p.Reproduction = nil
	p.Stagnation = nil
}

func (p *Population) checkIndex(i int) error {
	if i < 0 || i >= len(p.Genomes) {
		return fmt.Errorf("neat: index %d out of range [0,%d)", i, len(p.Genomes))
	}
	return nil
}

// Run evaluates genome i's network on inputs.
func (p *Population) Run(i int, inputs []float64) ([]float64, error) {
	if err := p.checkIndex(i); err != nil {
		return nil, err
	}
	return p.Genomes[i].Run(inputs)
}

// SetFitness records fitness f for genome i.
func (p *Population) SetFitness(i int, f float64) error {
	if err := p.checkIndex(i); err != nil {
		return err
	}
	p.Genomes[i].SetFitness(f)
	return nil
}

// GetNetwork returns the network belonging to genome i.
func (p *Population) GetNetwork(i int) (*ffnet.Net, error) {
	if err := p.checkIndex(i); err != nil {
		return nil, err
	}
	return p.Genomes[i].Net, nil
}

// GetSpeciesID returns the species id of genome i.
func (p *Population) GetSpeciesID(i int) (int, error) {
	if err := p.checkIndex(i); err != nil {
		return 0, err
	}
	return p.Genomes[i].SpeciesID, nil
}

// IncreaseTimeAlive bumps genome i's ticks_alive counter by one.
func (p *Population) IncreaseTimeAlive(i int) error {
	if err := p.checkIndex(i); err != nil {
		return err
	}
	p.Genomes[i].IncreaseTimeAlive()
	return nil
}

// Epoch performs one replacement cycle: re-speciate, refresh per-species
// fitness statistics, find the worst eligible genome, and — if one exists —
// synthesize a replacement child and install it in place. worstIdx and
// replaced report which slot (if any) was overwritten.
func (p *Population) Epoch() (worstIdx int, replaced bool, err error) {
	p.Generation++

	populationMap := p.asMap()

	if p.Config.Neat.Speciate {
		if err := p.SpeciesSet.Speciate(populationMap, p.Generation); err != nil {
			return -1, false, fmt.Errorf("speciation failed at epoch %d: %w", p.Generation, err)
		}
	}

	p.Stagnation.Update(p.SpeciesSet, p.Generation)
	p.SpeciesSet.RemoveEmpty()
	p.updateBestGenome()

	idx, ok := p.findWorstEligibleGenome()
	if !ok {
		return -1, false, nil
	}

	replacedGenome := p.Genomes[idx]
	p.removeFromSpecies(replacedGenome)
	p.SpeciesSet.RemoveEmpty()

	child := p.Reproduction.ReproduceOne(p.SpeciesSet, populationMap)
	if p.Config.Neat.Speciate {
		p.SpeciesSet.AssignGenome(child, p.Generation)
	}
	p.Genomes[idx] = child

	fmt.Printf("Info: epoch %d replaced genome at index %d (was key %d fitness %.4f) with genome key %d\n",
		p.Generation, idx, replacedGenome.Key, replacedGenome.Fitness, child.Key)

	return idx, true, nil
}

// findWorstEligibleGenome returns the genome with the lowest fitness among
// those with ticks_alive >= the configured minimum whose species (when
// speciation is enabled) is not still within its just-created replacement
// shelter. Ties break toward the lowest index.
func (p *Population) findWorstEligibleGenome() (int, bool) {
	worstIdx := -1
	worstFitness := math.Inf(1)

	for i, g := range p.Genomes {
		if g.TicksAlive < p.Config.Genome.GenomeMinimumTicksAlive {
			continue
		}
		if p.Config.Neat.Speciate {
			sp, ok := p.SpeciesSet.GetSpecies(g.Key)
			if ok && sp.Age(p.Generation) < p.Config.SpeciesSet.MinimumTimeBeforeReplacement {
				continue
			}
		}
		if g.Fitness < worstFitness {
			worstFitness = g.Fitness
			worstIdx = i
		}
	}

	return worstIdx, worstIdx != -1
}

func (p *Population) updateBestGenome() {
	for _, g := range p.Genomes {
		if p.BestGenome == nil || g.Fitness > p.BestGenome.Fitness {
			p.BestGenome = g
		}
	}
}

func (p *Population) asMap() map[int]*Genome {
	m := make(map[int]*Genome, len(p.Genomes))
	for _, g := range p.Genomes {
		m[g.Key] = g
	}
	return m
}

func (p *Population) removeFromSpecies(g *Genome) {
	if sp, ok := p.SpeciesSet.GetSpecies(g.Key); ok {
		delete(sp.Members, g.Key)
	}
	delete(p.SpeciesSet.GenomeToSpecies, g.Key)
}
