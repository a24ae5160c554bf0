package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGenomeConfig() *GenomeConfig {
	return &GenomeConfig{
		NetworkInputs:       2,
		NetworkOutputs:      1,
		NetworkHiddenNodes:  3,
		NetworkHiddenLayers: 1,
	}
}

func TestNewGenomeWrapsRandomizedNet(t *testing.T) {
	g, err := NewGenome(1, testGenomeConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, g.Key)
	assert.NotNil(t, g.Net)
	assert.Zero(t, g.Fitness)
	assert.Zero(t, g.TicksAlive)

	nonZero := false
	for _, w := range g.Net.Weights {
		if w != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero, "Randomize should have produced at least one nonzero weight")
}

func TestNewGenomeRejectsInvalidTopology(t *testing.T) {
	gc := testGenomeConfig()
	gc.NetworkInputs = 0
	_, err := NewGenome(1, gc)
	assert.Error(t, err)
}

func TestGenomeRunDelegatesToNet(t *testing.T) {
	g, err := NewGenome(1, testGenomeConfig())
	require.NoError(t, err)

	out, err := g.Run([]float64{0.5, -0.5})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestGenomeSetFitnessAndIncreaseTimeAlive(t *testing.T) {
	g, err := NewGenome(1, testGenomeConfig())
	require.NoError(t, err)

	g.SetFitness(0.75)
	assert.Equal(t, 0.75, g.Fitness)

	g.IncreaseTimeAlive()
	g.IncreaseTimeAlive()
	assert.Equal(t, 2, g.TicksAlive)
}

func TestGenomeCopyIsIndependentAndResetsBookkeeping(t *testing.T) {
	g, err := NewGenome(1, testGenomeConfig())
	require.NoError(t, err)
	g.SetFitness(0.9)
	g.IncreaseTimeAlive()
	g.SpeciesID = 3
	g.TimesMutated = 2

	cp := g.Copy(2)
	assert.Equal(t, 2, cp.Key)
	assert.Equal(t, 3, cp.SpeciesID)
	assert.Zero(t, cp.Fitness)
	assert.Zero(t, cp.TicksAlive)
	assert.Zero(t, cp.TimesMutated)
	assert.Equal(t, g.Net.Weights, cp.Net.Weights)

	cp.Net.Weights[0] = 99.0
	assert.NotEqual(t, g.Net.Weights[0], cp.Net.Weights[0])
}
