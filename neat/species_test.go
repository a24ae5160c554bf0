package neat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGenome(t *testing.T, key int) *Genome {
	t.Helper()
	g, err := NewGenome(key, testGenomeConfig())
	require.NoError(t, err)
	return g
}

func TestGenomeDistanceIsMeanAbsoluteWeightDifference(t *testing.T) {
	g1 := mustGenome(t, 1)
	g2 := g1.Copy(2)

	assert.Equal(t, 0.0, g1.Distance(g2))

	for i := range g2.Net.Weights {
		g2.Net.Weights[i] += 1.0
	}
	assert.InDelta(t, 1.0, g1.Distance(g2), 1e-9)
}

func TestGenomeDistanceIsInfiniteAcrossTopologies(t *testing.T) {
	g1 := mustGenome(t, 1)
	g2 := mustGenome(t, 2)
	require.NoError(t, g2.Net.InsertHiddenLayer(1.0))

	assert.True(t, math.IsInf(g1.Distance(g2), 1))
}

func TestGenomeDistanceCacheMemoizes(t *testing.T) {
	g1 := mustGenome(t, 1)
	g2 := mustGenome(t, 2)

	cache := NewGenomeDistanceCache()
	d1 := cache.Distance(g1, g2)
	assert.Equal(t, 1, cache.Misses)

	d2 := cache.Distance(g2, g1)
	assert.Equal(t, d1, d2)
	assert.Equal(t, 1, cache.Hits)
}

func TestSpeciateEveryGenomeGetsASpecies(t *testing.T) {
	population := make(map[int]*Genome, 20)
	for i := 1; i <= 20; i++ {
		population[i] = mustGenome(t, i)
	}

	ss := NewSpeciesSet(&SpeciesSetConfig{GenomeCompatibilityThreshold: 0.2})
	require.NoError(t, ss.Speciate(population, 0))

	memberCount := 0
	for _, sp := range ss.Species {
		memberCount += len(sp.Members)
	}
	assert.Equal(t, len(population), memberCount)

	for key := range population {
		sid, ok := ss.GetSpeciesID(key)
		assert.True(t, ok)
		_, ok = ss.GetSpecies(key)
		_ = sid
		assert.True(t, ok)
	}
}

func TestSpeciateIsStableAcrossReruns(t *testing.T) {
	population := make(map[int]*Genome, 10)
	for i := 1; i <= 10; i++ {
		population[i] = mustGenome(t, i)
	}

	ss := NewSpeciesSet(&SpeciesSetConfig{GenomeCompatibilityThreshold: 0.2})
	require.NoError(t, ss.Speciate(population, 0))
	firstSpeciesCount := len(ss.Species)

	require.NoError(t, ss.Speciate(population, 1))
	assert.Equal(t, firstSpeciesCount, len(ss.Species))
}

func TestRemoveEmptyDropsSpeciesWithNoMembers(t *testing.T) {
	ss := NewSpeciesSet(&SpeciesSetConfig{GenomeCompatibilityThreshold: 0.2})
	sp := NewSpecies(1, 0)
	ss.Species[1] = sp

	ss.RemoveEmpty()
	assert.Empty(t, ss.Species)
}

func TestAssignGenomeFoundsNewSpeciesWhenNoneMatch(t *testing.T) {
	ss := NewSpeciesSet(&SpeciesSetConfig{GenomeCompatibilityThreshold: 0.0001})
	g := mustGenome(t, 1)

	ss.AssignGenome(g, 0)
	assert.Len(t, ss.Species, 1)
	assert.Equal(t, g.SpeciesID, ss.GenomeToSpecies[g.Key])
}
