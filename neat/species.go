package neat

import (
	"fmt"
	"math"
	"sort"
)

// Species represents a group of topologically-identical, weight-similar
// genomes clustered around a representative.
type Species struct {
	Key            int             // Unique identifier for the species.
	Created        int             // Epoch number when the species was created.
	LastImproved   int             // Last epoch where mean fitness improved.
	Representative *Genome         // The representative genome for this species.
	Members        map[int]*Genome // Genomes belonging to this species (maps genome key -> genome).
	Fitness        float64         // Mean fitness of members, refreshed every epoch.
	FitnessHistory []float64       // History of fitness values for stagnation detection.
}

// NewSpecies creates a new species.
func NewSpecies(key, epoch int) *Species {
	return &Species{
		Key:            key,
		Created:        epoch,
		LastImproved:   epoch,
		Members:        make(map[int]*Genome),
		FitnessHistory: []float64{},
	}
}

// Update replaces the species' representative and member set.
func (s *Species) Update(representative *Genome, members map[int]*Genome) {
	s.Representative = representative
	s.Members = members
}

// GetFitnesses returns a slice containing the fitness values of all members.
func (s *Species) GetFitnesses() []float64 {
	fitnesses := make([]float64, 0, len(s.Members))
	for _, g := range s.Members {
		fitnesses = append(fitnesses, g.Fitness)
	}
	return fitnesses
}

// Age reports how many epochs have passed since this species was created,
// which SpeciesSetConfig.MinimumTimeBeforeReplacement gates replacement on.
func (s *Species) Age(currentEpoch int) int {
	return currentEpoch - s.Created
}

// --------------------------- genome distance ---------------------------

// genomePairKey orders a pair of genome keys so (a, b) and (b, a) cache to
// the same entry.
type genomePairKey struct {
	a, b int
}

func newGenomePairKey(g1, g2 int) genomePairKey {
	if g1 > g2 {
		g1, g2 = g2, g1
	}
	return genomePairKey{a: g1, b: g2}
}

// Distance reports the compatibility distance between two genomes' networks:
// the mean absolute difference between corresponding weights. Every genome
// in a run shares the same fixed topology (Nin, Nhid, Nout, NHiddenLayers)
// unless a structural mutation (InsertHiddenLayer) has diverged one of them,
// in which case the two networks are not directly comparable and distance
// is reported as +Inf so they can never be forced into the same species.
func (g1 *Genome) Distance(g2 *Genome) float64 {
	n1, n2 := g1.Net, g2.Net
	if len(n1.Weights) != len(n2.Weights) {
		return math.Inf(1)
	}
	if len(n1.Weights) == 0 {
		return 0.0
	}
	sum := 0.0
	for i := range n1.Weights {
		sum += math.Abs(n1.Weights[i] - n2.Weights[i])
	}
	return sum / float64(len(n1.Weights))
}

// --------------------------- GenomeDistanceCache ---------------------------

// GenomeDistanceCache memoizes pairwise genome distances within a single
// speciation pass to avoid recomputing O(n^2) mean-absolute-weight-diffs
// every time a genome is compared against multiple representatives.
type GenomeDistanceCache struct {
	Distances map[genomePairKey]float64
	Hits      int
	Misses    int
}

// NewGenomeDistanceCache creates a new distance cache.
func NewGenomeDistanceCache() *GenomeDistanceCache {
	return &GenomeDistanceCache{
		Distances: make(map[genomePairKey]float64),
	}
}

// Distance calculates or retrieves the distance between two genomes.
func (dc *GenomeDistanceCache) Distance(genome1, genome2 *Genome) float64 {
	cacheKey := newGenomePairKey(genome1.Key, genome2.Key)

	d, exists := dc.Distances[cacheKey]
	if exists {
		dc.Hits++
		return d
	}

	dc.Misses++
	d = genome1.Distance(genome2)
	dc.Distances[cacheKey] = d
	return d
}

// --------------------------- SpeciesSet ---------------------------

// SpeciesSet manages the collection of species within a population.
type SpeciesSet struct {
	Species         map[int]*Species // Map species key -> Species
	GenomeToSpecies map[int]int      // Map genome key -> species key
	Indexer         int              // Counter for assigning new species keys (start at 1)
	Config          *SpeciesSetConfig
}

// NewSpeciesSet creates a new species set manager.
func NewSpeciesSet(config *SpeciesSetConfig) *SpeciesSet {
	return &SpeciesSet{
		Species:         make(map[int]*Species),
		GenomeToSpecies: make(map[int]int),
		Indexer:         1, // Start species IDs at 1
		Config:          config,
	}
}

// Speciate partitions the population into species based on weight distance.
// A genome not within GenomeCompatibilityThreshold of any existing species'
// representative founds a brand-new species of its own.
func (ss *SpeciesSet) Speciate(population map[int]*Genome, epoch int) error {
	if len(population) == 0 {
		ss.Species = make(map[int]*Species)
		ss.GenomeToSpecies = make(map[int]int)
		return nil
	}

	compatibilityThreshold := ss.Config.GenomeCompatibilityThreshold
	distanceCache := NewGenomeDistanceCache()

	unspeciated := make(map[int]*Genome, len(population))
	for k, v := range population {
		unspeciated[k] = v
	}
	newRepresentatives := make(map[int]*Genome)
	newMembers := make(map[int][]int)

	// Existing species keep their key by re-adopting whichever unspeciated
	// genome now sits closest to their old representative.
	existingSpeciesKeys := make([]int, 0, len(ss.Species))
	for sid := range ss.Species {
		existingSpeciesKeys = append(existingSpeciesKeys, sid)
	}
	sort.Ints(existingSpeciesKeys)

	for _, sid := range existingSpeciesKeys {
		if len(unspeciated) == 0 {
			break
		}
		s := ss.Species[sid]
		if s.Representative == nil {
			fmt.Printf("Warning: species %d has no representative, skipping\n", sid)
			continue
		}

		var bestGenome *Genome
		bestDist := math.Inf(1)
		candidateKeys := make([]int, 0, len(unspeciated))
		for k := range unspeciated {
			candidateKeys = append(candidateKeys, k)
		}
		sort.Ints(candidateKeys)
		for _, k := range candidateKeys {
			g := unspeciated[k]
			d := distanceCache.Distance(s.Representative, g)
			if d < bestDist {
				bestDist = d
				bestGenome = g
			}
		}
		if bestGenome == nil {
			continue
		}

		newRepresentatives[sid] = bestGenome
		newMembers[sid] = []int{bestGenome.Key}
		delete(unspeciated, bestGenome.Key)
	}

	remainingGenomes := make([]*Genome, 0, len(unspeciated))
	for _, g := range unspeciated {
		remainingGenomes = append(remainingGenomes, g)
	}
	sort.Slice(remainingGenomes, func(i, j int) bool {
		return remainingGenomes[i].Key < remainingGenomes[j].Key
	})

	repSpeciesKeys := make([]int, 0, len(newRepresentatives))
	for sid := range newRepresentatives {
		repSpeciesKeys = append(repSpeciesKeys, sid)
	}
	sort.Ints(repSpeciesKeys)

	for _, g := range remainingGenomes {
		gid := g.Key

		bestSpecies := -1
		for _, sid := range repSpeciesKeys {
			d := distanceCache.Distance(newRepresentatives[sid], g)
			if d < compatibilityThreshold {
				bestSpecies = sid
				break
			}
		}

		if bestSpecies != -1 {
			newMembers[bestSpecies] = append(newMembers[bestSpecies], gid)
		} else {
			newSID := ss.Indexer
			ss.Indexer++
			newRepresentatives[newSID] = g
			newMembers[newSID] = []int{gid}
			// ss.Indexer only grows, so appending keeps repSpeciesKeys sorted
			// without a re-sort.
			repSpeciesKeys = append(repSpeciesKeys, newSID)
		}
	}

	newSpeciesMap := make(map[int]*Species)
	newGenomeToSpeciesMap := make(map[int]int)

	newSIDs := make([]int, 0, len(newRepresentatives))
	for sid := range newRepresentatives {
		newSIDs = append(newSIDs, sid)
	}
	sort.Ints(newSIDs)

	for _, sid := range newSIDs {
		representative := newRepresentatives[sid]
		membersList := newMembers[sid]
		if len(membersList) == 0 {
			continue
		}

		s := ss.Species[sid]
		if s == nil {
			s = NewSpecies(sid, epoch)
			fmt.Printf("Info: created new species %d represented by genome %d\n", sid, representative.Key)
		}

		memberMap := make(map[int]*Genome)
		for _, gid := range membersList {
			memberMap[gid] = population[gid]
			newGenomeToSpeciesMap[gid] = sid
			population[gid].SpeciesID = sid
		}

		s.Update(representative, memberMap)
		newSpeciesMap[sid] = s
	}

	ss.Species = newSpeciesMap
	ss.GenomeToSpecies = newGenomeToSpeciesMap

	if len(distanceCache.Distances) > 0 {
		allDistances := make([]float64, 0, len(distanceCache.Distances))
		for _, d := range distanceCache.Distances {
			if !math.IsInf(d, 1) {
				allDistances = append(allDistances, d)
			}
		}
		fmt.Printf("Info: mean genetic distance %.3f, stdev %.3f (cache hits=%d misses=%d)\n",
			meanOf(allDistances), stdevOf(allDistances), distanceCache.Hits, distanceCache.Misses)
	}

	return nil
}

// AssignGenome assigns a single genome to the first species (in ascending
// species-id order) whose representative is within
// GenomeCompatibilityThreshold, or founds a new species if none matches.
// Used at epoch-time right after a replacement child is synthesized, so it
// does not need a full re-speciation pass to get a species id.
func (ss *SpeciesSet) AssignGenome(g *Genome, epoch int) {
	bestSID := -1
	for _, sid := range ss.sortedSpeciesKeys() {
		sp := ss.Species[sid]
		if sp.Representative == nil {
			continue
		}
		d := sp.Representative.Distance(g)
		if d < ss.Config.GenomeCompatibilityThreshold {
			bestSID = sid
			break
		}
	}

	if bestSID == -1 {
		bestSID = ss.Indexer
		ss.Indexer++
		sp := NewSpecies(bestSID, epoch)
		sp.Representative = g
		ss.Species[bestSID] = sp
	}

	ss.Species[bestSID].Members[g.Key] = g
	ss.GenomeToSpecies[g.Key] = bestSID
	g.SpeciesID = bestSID
}

// RemoveEmpty drops every species that currently has no members. A species
// is dropped on the first call that finds it empty; there is no grace period
// of an epoch before it is removed.
func (ss *SpeciesSet) RemoveEmpty() {
	for sid, s := range ss.Species {
		if len(s.Members) == 0 {
			delete(ss.Species, sid)
			fmt.Printf("Info: species %d garbage-collected, no members remain\n", sid)
		}
	}
}

// GetSpeciesID returns the species ID for a given genome ID.
func (ss *SpeciesSet) GetSpeciesID(genomeID int) (int, bool) {
	sid, exists := ss.GenomeToSpecies[genomeID]
	return sid, exists
}

// GetSpecies returns the Species object for a given genome ID.
func (ss *SpeciesSet) GetSpecies(genomeID int) (*Species, bool) {
	sid, exists := ss.GenomeToSpecies[genomeID]
	if !exists {
		return nil, false
	}
	s, exists := ss.Species[sid]
	return s, exists
}
