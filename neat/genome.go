package neat

import "github.com/nealis-labs/neat/neat/ffnet"

// Genome is a candidate solution: one FFNet plus the evolutionary
// bookkeeping the species registry and reproduction need. Genomes never
// self-mutate or self-speciate; they are bookkeeping around one FFNet,
// mutated only by Reproduction and reassigned a species only by SpeciesSet.
type Genome struct {
	Key          int // unique identifier of this genome; a replacement child installed in a slot gets a fresh key
	Net          *ffnet.Net
	Fitness      float64
	SpeciesID    int
	TicksAlive   int
	TimesMutated int
}

// NewGenome creates a genome wrapping a freshly randomized FFNet of the
// given topology.
func NewGenome(key int, gc *GenomeConfig) (*Genome, error) {
	net, err := ffnet.New(gc.NetworkInputs, gc.NetworkHiddenNodes, gc.NetworkOutputs, gc.NetworkHiddenLayers)
	if err != nil {
		return nil, err
	}
	net.Randomize()
	return &Genome{
		Key: key,
		Net: net,
	}, nil
}

// Run delegates evaluation to the genome's FFNet.
func (g *Genome) Run(inputs []float64) ([]float64, error) {
	return g.Net.Run(inputs)
}

// SetFitness records the caller-supplied fitness for this tick.
func (g *Genome) SetFitness(f float64) {
	g.Fitness = f
}

// IncreaseTimeAlive bumps ticks_alive by one.
func (g *Genome) IncreaseTimeAlive() {
	g.TicksAlive++
}

// Copy returns a genome with an independent copy of the FFNet, keyed by
// key and carrying over SpeciesID, but resetting Fitness/TicksAlive/
// TimesMutated to zero, matching how a species representative snapshot or
// a freshly-reproduced child starts life.
func (g *Genome) Copy(key int) *Genome {
	return &Genome{
		Key:       key,
		Net:       g.Net.Copy(),
		SpeciesID: g.SpeciesID,
	}
}
