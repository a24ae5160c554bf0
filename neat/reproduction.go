package neat

import (
	"math/rand"
	"sort"

	"github.com/nealis-labs/neat/neat/ffnet"
)

// Reproduction synthesizes new genomes: the initial population, and (one at
// a time) the replacement child an epoch installs into the worst eligible
// slot.
type Reproduction struct {
	Config        *ReproductionConfig
	NextGenomeKey int
	Ancestors     map[int][]int // genome key -> parent keys; empty for founders
}

// NewReproduction creates a reproduction manager whose genome keys start at
// startKey (1 for a fresh population).
func NewReproduction(config *ReproductionConfig, startKey int) *Reproduction {
	return &Reproduction{
		Config:        config,
		NextGenomeKey: startKey,
		Ancestors:     make(map[int][]int),
	}
}

func (r *Reproduction) nextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// CreateInitialPopulation allocates popSize freshly randomized genomes.
func (r *Reproduction) CreateInitialPopulation(gc *GenomeConfig, popSize int) (map[int]*Genome, error) {
	population := make(map[int]*Genome, popSize)
	for i := 0; i < popSize; i++ {
		key := r.nextKey()
		g, err := NewGenome(key, gc)
		if err != nil {
			return nil, err
		}
		population[key] = g
		r.Ancestors[key] = nil
	}
	return population, nil
}

// ReproduceOne synthesizes a single replacement child: parent selection,
// crossover, weight mutation, and structural mutation, in that order. The
// crossover gates are checked sequentially rather than independently: the
// interspecies draw is checked first, then the same-species draw, and only
// if both fail does the result degrade to a single-parent clone.
func (r *Reproduction) ReproduceOne(speciesSet *SpeciesSet, population map[int]*Genome) *Genome {
	parent1, parent2, fromCrossover := r.selectParents(speciesSet, population)

	childKey := r.nextKey()
	var child *Genome
	if fromCrossover {
		child = &Genome{Key: childKey, Net: r.crossover(parent1.Net, parent2.Net)}
		r.Ancestors[childKey] = []int{parent1.Key, parent2.Key}
	} else {
		child = parent1.Copy(childKey)
		r.Ancestors[childKey] = []int{parent1.Key}
	}

	r.mutateWeights(child)

	// Structural mutation is skipped entirely for a non-crossover clone; a
	// crossover child additionally has to clear MutateSpeciesCrossoverProbability.
	applyStructural := fromCrossover && rand.Float64() < r.Config.MutateSpeciesCrossoverProbability
	if applyStructural {
		r.mutateStructure(child)
	}

	return child
}

// selectParents runs the three-way gate: interspecies crossover, same-species
// crossover weighted by mean species fitness, or a single-parent clone chosen
// fitness-proportionally within one species. With speciation disabled (or no
// species currently populated) the same-species gate is not drawn: the result
// is a single-parent clone picked fitness-proportionally from the whole
// population.
func (r *Reproduction) selectParents(speciesSet *SpeciesSet, population map[int]*Genome) (p1, p2 *Genome, fromCrossover bool) {
	if rand.Float64() < r.Config.InterspeciesCrossoverProbability {
		return randomGenome(population), randomGenome(population), true
	}
	if len(speciesSet.Species) == 0 {
		return selectGenomeFitnessProportional(population), nil, false
	}
	if rand.Float64() < r.Config.SpeciesCrossoverProbability {
		sp := speciesSet.speciesWeightedByMeanFitness()
		return selectMemberFitnessProportional(sp), selectMemberFitnessProportional(sp), true
	}
	sp := speciesSet.randomSpecies()
	return selectMemberFitnessProportional(sp), nil, false
}

// crossover builds a child network from two parent networks. When the
// parents' weight counts match, every slot is an independent 0.5 coin-flip
// between them. When they differ (a prior add-neuron mutation diverged one
// lineage), the larger parent is used as the backbone and every homologous
// slot is still coin-flipped; the extra trailing slots keep the backbone's
// values unchanged.
func (r *Reproduction) crossover(netA, netB *ffnet.Net) *ffnet.Net {
	backbone, other := netA, netB
	if len(netB.Weights) > len(netA.Weights) {
		backbone, other = netB, netA
	}

	child := backbone.Copy()
	for i := 0; i < len(other.Weights); i++ {
		if rand.Float64() < 0.5 {
			child.Weights[i] = other.Weights[i]
		}
	}
	for i := 0; i < len(other.Activations); i++ {
		if rand.Float64() < 0.5 {
			child.Activations[i] = other.Activations[i]
		}
	}
	return child
}

// mutateWeights applies the wholesale-vs-single-slot weight mutation. The
// two gates are mutually exclusive: a wholesale re-randomization makes a
// further single-weight perturb pointless.
func (r *Reproduction) mutateWeights(g *Genome) {
	if rand.Float64() < r.Config.GenomeAllWeightsMutationProbability {
		g.Net.Randomize()
		return
	}
	if rand.Float64() < r.Config.GenomeWeightMutationProbability {
		idx := rand.Intn(len(g.Net.Weights))
		g.Net.Weights[idx] = rand.Float64()*2 - 1
	}
}

// mutateStructure applies the add-link and add-neuron mutations. Both gates
// are evaluated independently; either, both, or neither may fire.
func (r *Reproduction) mutateStructure(g *Genome) {
	if rand.Float64() < r.Config.GenomeAddLinkMutationProbability {
		if idxs := g.Net.ZeroNonBiasWeightIndices(); len(idxs) > 0 {
			idx := idxs[rand.Intn(len(idxs))]
			g.Net.Weights[idx] = rand.Float64()*2 - 1
			g.TimesMutated++
		}
	}
	if rand.Float64() < r.Config.GenomeAddNeuronMutationProbability {
		if err := g.Net.InsertHiddenLayer(1.0); err == nil {
			g.TimesMutated++
		}
	}
}

// --------------------------- selection helpers ---------------------------

func sortedGenomeKeys(population map[int]*Genome) []int {
	keys := make([]int, 0, len(population))
	for k := range population {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func randomGenome(population map[int]*Genome) *Genome {
	keys := sortedGenomeKeys(population)
	return population[keys[rand.Intn(len(keys))]]
}

func (ss *SpeciesSet) sortedSpeciesKeys() []int {
	keys := make([]int, 0, len(ss.Species))
	for k := range ss.Species {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// randomSpecies picks uniformly among all species.
func (ss *SpeciesSet) randomSpecies() *Species {
	keys := ss.sortedSpeciesKeys()
	return ss.Species[keys[rand.Intn(len(keys))]]
}

// speciesWeightedByMeanFitness picks a species with probability proportional
// to its mean fitness, falling back to a uniform pick when every species'
// fitness is non-positive (e.g. the first epoch, before any ticks land).
func (ss *SpeciesSet) speciesWeightedByMeanFitness() *Species {
	keys := ss.sortedSpeciesKeys()
	total := 0.0
	for _, k := range keys {
		if f := ss.Species[k].Fitness; f > 0 {
			total += f
		}
	}
	if total <= 0 {
		return ss.Species[keys[rand.Intn(len(keys))]]
	}

	pick := rand.Float64() * total
	cum := 0.0
	for _, k := range keys {
		if f := ss.Species[k].Fitness; f > 0 {
			cum += f
			if pick <= cum {
				return ss.Species[k]
			}
		}
	}
	return ss.Species[keys[len(keys)-1]]
}

// selectGenomeFitnessProportional picks a genome from population with
// probability proportional to its fitness, falling back to a uniform pick
// when no genome has positive fitness yet. Used when speciation is
// disabled, in place of a species-scoped selection.
func selectGenomeFitnessProportional(population map[int]*Genome) *Genome {
	keys := sortedGenomeKeys(population)

	total := 0.0
	for _, k := range keys {
		if f := population[k].Fitness; f > 0 {
			total += f
		}
	}
	if total <= 0 {
		return population[keys[rand.Intn(len(keys))]]
	}

	pick := rand.Float64() * total
	cum := 0.0
	for _, k := range keys {
		if f := population[k].Fitness; f > 0 {
			cum += f
			if pick <= cum {
				return population[k]
			}
		}
	}
	return population[keys[len(keys)-1]]
}

// selectMemberFitnessProportional picks a member of sp with probability
// proportional to its fitness, falling back to a uniform pick when no
// member has positive fitness yet.
func selectMemberFitnessProportional(sp *Species) *Genome {
	keys := make([]int, 0, len(sp.Members))
	for k := range sp.Members {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	total := 0.0
	for _, k := range keys {
		if f := sp.Members[k].Fitness; f > 0 {
			total += f
		}
	}
	if total <= 0 {
		return sp.Members[keys[rand.Intn(len(keys))]]
	}

	pick := rand.Float64() * total
	cum := 0.0
	for _, k := range keys {
		if f := sp.Members[k].Fitness; f > 0 {
			cum += f
			if pick <= cum {
				return sp.Members[k]
			}
		}
	}
	return sp.Members[keys[len(keys)-1]]
}
