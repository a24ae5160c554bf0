package neat

// Stagnation refreshes each species' mean-fitness statistic every epoch,
// which reproduction consults when weighting a species for parent selection,
// and tracks the last epoch at which that statistic improved.
type Stagnation struct{}

// NewStagnation creates a stagnation tracker. It takes no configuration: the
// structural "species elitism" / "max stagnation generations" scheme the
// population-level NEAT reference implementations use has no equivalent
// here, since species here are garbage-collected by SpeciesSet.RemoveEmpty
// the epoch they go empty rather than by a stagnation counter.
func NewStagnation() *Stagnation {
	return &Stagnation{}
}

// Update recomputes Fitness (mean of member fitnesses) for every species in
// the set and bumps LastImproved whenever that mean strictly increases over
// its previous value.
func (s *Stagnation) Update(speciesSet *SpeciesSet, epoch int) {
	for _, sp := range speciesSet.Species {
		previous := sp.Fitness
		memberFitnesses := sp.GetFitnesses()
		sp.Fitness = meanOf(memberFitnesses)
		sp.FitnessHistory = append(sp.FitnessHistory, sp.Fitness)

		if sp.Fitness > previous {
			sp.LastImproved = epoch
		}
	}
}
