package neat

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters for the NEAT algorithm,
// sectioned the way the original C library's struct neat_config groups
// them: population sizing under [NEAT], network topology and the
// replacement-eligibility threshold under [Genome], mutation and crossover
// probabilities under [Reproduction], and speciation parameters under
// [SpeciesSet].
type Config struct {
	Neat         NeatConfig
	Genome       GenomeConfig
	Reproduction ReproductionConfig
	SpeciesSet   SpeciesSetConfig
}

// NeatConfig holds top-level population parameters.
type NeatConfig struct {
	PopulationSize int  `ini:"population_size"`
	Speciate       bool `ini:"speciate"`
}

// GenomeConfig holds the fixed FFNet topology shared by every genome and
// the replacement-eligibility threshold.
type GenomeConfig struct {
	NetworkInputs           int `ini:"network_inputs"`
	NetworkOutputs          int `ini:"network_outputs"`
	NetworkHiddenNodes      int `ini:"network_hidden_nodes"`
	NetworkHiddenLayers     int `ini:"network_hidden_layers"`
	GenomeMinimumTicksAlive int `ini:"genome_minimum_ticks_alive"`
}

// ReproductionConfig holds the crossover and mutation probability gates.
type ReproductionConfig struct {
	SpeciesCrossoverProbability         float64 `ini:"species_crossover_probability"`
	InterspeciesCrossoverProbability    float64 `ini:"interspecies_crossover_probability"`
	MutateSpeciesCrossoverProbability   float64 `ini:"mutate_species_crossover_probability"`
	GenomeAddNeuronMutationProbability  float64 `ini:"genome_add_neuron_mutation_probability"`
	GenomeAddLinkMutationProbability    float64 `ini:"genome_add_link_mutation_probability"`
	GenomeWeightMutationProbability     float64 `ini:"genome_weight_mutation_probability"`
	GenomeAllWeightsMutationProbability float64 `ini:"genome_all_weights_mutation_probability"`
}

// SpeciesSetConfig holds the speciation radius and the age shelter that
// protects freshly created species from immediate replacement pressure.
type SpeciesSetConfig struct {
	GenomeCompatibilityThreshold float64 `ini:"genome_compatibility_threshold"`
	MinimumTimeBeforeReplacement int     `ini:"minimum_time_before_replacement"`
}

// DefaultConfig returns the same baseline the original C library's
// neat_get_default_config() shipped (see example/drawing.c for the
// hand-tuned values it used), letting callers who don't want an INI file
// get going immediately.
func DefaultConfig() *Config {
	return &Config{
		Neat: NeatConfig{
			PopulationSize: 150,
			Speciate:       true,
		},
		Genome: GenomeConfig{
			NetworkInputs:           2,
			NetworkOutputs:          1,
			NetworkHiddenNodes:      3,
			NetworkHiddenLayers:     1,
			GenomeMinimumTicksAlive: 100,
		},
		Reproduction: ReproductionConfig{
			SpeciesCrossoverProbability:         0.2,
			InterspeciesCrossoverProbability:    0.05,
			MutateSpeciesCrossoverProbability:   0.5,
			GenomeAddNeuronMutationProbability:  0.1,
			GenomeAddLinkMutationProbability:    0.12,
			GenomeWeightMutationProbability:     0.5,
			GenomeAllWeightsMutationProbability: 0.21,
		},
		SpeciesSet: SpeciesSetConfig{
			GenomeCompatibilityThreshold: 0.2,
			MinimumTimeBeforeReplacement: 10,
		},
	}
}

// LoadConfig loads configuration parameters from an INI file, starting
// from DefaultConfig and overwriting whichever sections/keys the file
// specifies.
func LoadConfig(filePath string) (*Config, error) {
	src, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := DefaultConfig()

	if err := src.Section("NEAT").MapTo(&config.Neat); err != nil {
		return nil, fmt.Errorf("failed to map [NEAT] section: %w", err)
	}
	if err := src.Section("Genome").MapTo(&config.Genome); err != nil {
		return nil, fmt.Errorf("failed to map [Genome] section: %w", err)
	}
	if err := src.Section("Reproduction").MapTo(&config.Reproduction); err != nil {
		return nil, fmt.Errorf("failed to map [Reproduction] section: %w", err)
	}
	if err := src.Section("SpeciesSet").MapTo(&config.SpeciesSet); err != nil {
		return nil, fmt.Errorf("failed to map [SpeciesSet] section: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects zero/negative inputs, outputs, population size, and
// compatibility threshold, plus any probability outside [0, 1].
func (c *Config) Validate() error {
	if c.Genome.NetworkInputs <= 0 {
		return fmt.Errorf("config error: network_inputs must be positive")
	}
	if c.Genome.NetworkOutputs <= 0 {
		return fmt.Errorf("config error: network_outputs must be positive")
	}
	if c.Genome.NetworkHiddenLayers < 0 {
		return fmt.Errorf("config error: network_hidden_layers must not be negative")
	}
	if c.Genome.NetworkHiddenLayers > 0 && c.Genome.NetworkHiddenNodes <= 0 {
		return fmt.Errorf("config error: network_hidden_nodes must be positive when network_hidden_layers > 0")
	}
	if c.Neat.PopulationSize <= 0 {
		return fmt.Errorf("config error: population_size must be positive")
	}
	if c.SpeciesSet.GenomeCompatibilityThreshold <= 0 {
		return fmt.Errorf("config error: genome_compatibility_threshold must be positive")
	}
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"species_crossover_probability", c.Reproduction.SpeciesCrossoverProbability},
		{"interspecies_crossover_probability", c.Reproduction.InterspeciesCrossoverProbability},
		{"mutate_species_crossover_probability", c.Reproduction.MutateSpeciesCrossoverProbability},
		{"genome_add_neuron_mutation_probability", c.Reproduction.GenomeAddNeuronMutationProbability},
		{"genome_add_link_mutation_probability", c.Reproduction.GenomeAddLinkMutationProbability},
		{"genome_weight_mutation_probability", c.Reproduction.GenomeWeightMutationProbability},
		{"genome_all_weights_mutation_probability", c.Reproduction.GenomeAllWeightsMutationProbability},
	} {
		if p.value < 0 || p.value > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", p.name)
		}
	}
	return nil
}
