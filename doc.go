// Package neat evolves fixed-topology, dense feed-forward networks with
// NeuroEvolution of Augmenting Topologies: a population of genomes, each
// wrapping one ffnet.Net, is speciated by weight-distance similarity and
// advanced one genome at a time — every epoch replaces the single worst
// eligible genome with a child synthesized by crossover and mutation,
// rather than regenerating a whole generation at once.
//
// Basic usage:
//
//	config := neat.DefaultConfig()
//	config.Genome.NetworkInputs = 2
//	config.Genome.NetworkOutputs = 1
//
//	pop, err := neat.Create(config)
//	if err != nil {
//		log.Fatalf("error creating population: %v", err)
//	}
//	defer pop.Destroy()
//
//	for epoch := 0; epoch < 10000; epoch++ {
//		for i := range pop.Genomes {
//			out, err := pop.Run(i, []float64{0, 1})
//			if err != nil {
//				log.Fatalf("run failed: %v", err)
//			}
//			pop.SetFitness(i, scoreFitness(out))
//			pop.IncreaseTimeAlive(i)
//		}
//		if _, _, err := pop.Epoch(); err != nil {
//			log.Fatalf("epoch failed: %v", err)
//		}
//		if pop.BestGenome != nil && pop.BestGenome.Fitness >= 0.9 {
//			break
//		}
//	}
package neat
