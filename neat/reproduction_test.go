package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReproductionConfig() *ReproductionConfig {
	return &ReproductionConfig{
		SpeciesCrossoverProbability:         0.2,
		InterspeciesCrossoverProbability:    0.05,
		MutateSpeciesCrossoverProbability:   0.5,
		GenomeAddNeuronMutationProbability:  0.1,
		GenomeAddLinkMutationProbability:    0.12,
		GenomeWeightMutationProbability:     0.5,
		GenomeAllWeightsMutationProbability: 0.21,
	}
}

func TestCreateInitialPopulationAssignsSequentialKeys(t *testing.T) {
	r := NewReproduction(testReproductionConfig(), 1)
	pop, err := r.CreateInitialPopulation(testGenomeConfig(), 10)
	require.NoError(t, err)
	assert.Len(t, pop, 10)

	for key := 1; key <= 10; key++ {
		g, ok := pop[key]
		require.True(t, ok)
		assert.Equal(t, key, g.Key)
	}
	assert.Equal(t, 11, r.NextGenomeKey)
}

func TestCrossoverEqualSizeMixesBothParents(t *testing.T) {
	r := NewReproduction(testReproductionConfig(), 1)
	g1 := mustGenome(t, 1)
	g2 := mustGenome(t, 2)

	child := r.crossover(g1.Net, g2.Net)
	assert.Len(t, child.Weights, len(g1.Net.Weights))

	for i, w := range child.Weights {
		assert.True(t, w == g1.Net.Weights[i] || w == g2.Net.Weights[i])
	}
}

func TestCrossoverDifferentSizeUsesLargerAsBackbone(t *testing.T) {
	r := NewReproduction(testReproductionConfig(), 1)
	g1 := mustGenome(t, 1)
	g2 := mustGenome(t, 2)
	require.NoError(t, g2.Net.InsertHiddenLayer(1.0))
	require.Greater(t, len(g2.Net.Weights), len(g1.Net.Weights))

	child := r.crossover(g1.Net, g2.Net)
	assert.Equal(t, len(g2.Net.Weights), len(child.Weights))

	// Slots beyond the smaller parent's weight count must be untouched from the backbone.
	for i := len(g1.Net.Weights); i < len(child.Weights); i++ {
		assert.Equal(t, g2.Net.Weights[i], child.Weights[i])
	}
}

func TestMutateWeightsAllWeightsGateReplacesEverything(t *testing.T) {
	r := NewReproduction(&ReproductionConfig{GenomeAllWeightsMutationProbability: 1.0}, 1)
	g := mustGenome(t, 1)
	g.Net.SetWeights(0.0)

	r.mutateWeights(g)

	changed := false
	for _, w := range g.Net.Weights {
		if w != 0 {
			changed = true
			break
		}
	}
	assert.True(t, changed)
}

func TestMutateStructureAddLinkOnlyTouchesZeroSlots(t *testing.T) {
	r := NewReproduction(&ReproductionConfig{GenomeAddLinkMutationProbability: 1.0}, 1)
	g := mustGenome(t, 1)
	g.Net.SetWeights(0.0)

	r.mutateStructure(g)

	nonZero := 0
	for _, w := range g.Net.Weights {
		if w != 0 {
			nonZero++
		}
	}
	assert.Equal(t, 1, nonZero)
	assert.Equal(t, 1, g.TimesMutated)
}

func TestMutateStructureAddNeuronInsertsHiddenLayer(t *testing.T) {
	r := NewReproduction(&ReproductionConfig{GenomeAddNeuronMutationProbability: 1.0}, 1)
	g := mustGenome(t, 1)
	before := g.Net.NHiddenLayers

	r.mutateStructure(g)

	assert.Equal(t, before+1, g.Net.NHiddenLayers)
	assert.Equal(t, 1, g.TimesMutated)
}

func TestReproduceOneProducesNewGenomeWithNextKey(t *testing.T) {
	r := NewReproduction(testReproductionConfig(), 1)
	pop, err := r.CreateInitialPopulation(testGenomeConfig(), 5)
	require.NoError(t, err)
	for _, g := range pop {
		g.SetFitness(1.0)
	}

	ss := NewSpeciesSet(&SpeciesSetConfig{GenomeCompatibilityThreshold: 0.2})
	require.NoError(t, ss.Speciate(pop, 0))

	child := r.ReproduceOne(ss, pop)
	assert.Equal(t, 6, child.Key)
	assert.Contains(t, r.Ancestors, child.Key)
}
