// Package ffnet implements the dense, layered feed-forward network that
// forms the evolvable substrate of a NEAT genome: fixed topology, a flat
// positionally-addressed weight array, and a per-neuron activation mask.
//
// The layout is grounded directly in the afcarl/neat-o C library's
// nn_ffnet: three contiguous arrays (weights, outputs, activations) laid
// out layer-major, then receiving-neuron-major, then source-slot-major
// (bias first). Structural growth (InsertHiddenLayer) and homologous
// crossover both depend on that ordering staying stable.
package ffnet

import (
	"fmt"
	"math/rand"
)

// Net is a fixed-topology, mutable-weight feed-forward network.
type Net struct {
	Nin, Nhid, Nout, NHiddenLayers int

	// Weights holds every connection weight including bias slots, laid out
	// layer-major / receiving-neuron-major / source-slot-major (bias
	// first). Its length is always WeightCount(Nin, Nhid, Nout, NHiddenLayers).
	Weights []float64

	// Outputs holds the last-computed activation of every neuron,
	// including inputs. Its length is always NeuronCount(...).
	Outputs []float64

	// Activations holds one activation tag per non-input neuron. Its
	// length is always ActivationCount(...).
	Activations []Activation

	// Bias is the single shared value multiplied into every bias slot.
	Bias float64

	// DefaultHiddenActivation and DefaultOutputActivation stamp newly
	// created neurons (at construction and on InsertHiddenLayer).
	DefaultHiddenActivation Activation
	DefaultOutputActivation Activation
}

// layer describes one downstream layer of neurons during Run/mutation.
type layer struct {
	width       int // number of receiving neurons in this layer
	fanin       int // bias slot + number of source neurons
	neuronStart int // index into Outputs/global neuron numbering
	weightStart int // index into Weights where this layer's block begins
}

// NeuronCount returns nin + nhlayers*nhid + nout.
func NeuronCount(nin, nhid, nout, nhlayers int) int {
	return nin + nhlayers*nhid + nout
}

// WeightCount returns the total number of weight slots (including bias
// slots) for the given topology.
func WeightCount(nin, nhid, nout, nhlayers int) int {
	if nhlayers == 0 {
		return (nin + 1) * nout
	}
	return (nin+1)*nhid + (nhlayers-1)*(nhid+1)*nhid + (nhid+1)*nout
}

// ActivationCount returns nhlayers*nhid + nout, one tag per non-input neuron.
func ActivationCount(nin, nhid, nout, nhlayers int) int {
	return nhlayers*nhid + nout
}

// layerSpecs returns the downstream layers of the network in evaluation
// order. For nhlayers == 0 there is a single layer wired directly from the
// inputs to the outputs.
func layerSpecs(nin, nhid, nout, nhlayers int) []layer {
	if nhlayers == 0 {
		return []layer{{width: nout, fanin: nin + 1, neuronStart: nin, weightStart: 0}}
	}

	layers := make([]layer, 0, nhlayers+1)
	neuronStart := nin
	weightStart := 0

	// First hidden layer sources from the inputs.
	layers = append(layers, layer{width: nhid, fanin: nin + 1, neuronStart: neuronStart, weightStart: weightStart})
	neuronStart += nhid
	weightStart += (nin + 1) * nhid

	// Remaining hidden layers source from the previous hidden layer.
	for l := 1; l < nhlayers; l++ {
		layers = append(layers, layer{width: nhid, fanin: nhid + 1, neuronStart: neuronStart, weightStart: weightStart})
		neuronStart += nhid
		weightStart += (nhid + 1) * nhid
	}

	// Output layer sources from the last hidden layer.
	layers = append(layers, layer{width: nout, fanin: nhid + 1, neuronStart: neuronStart, weightStart: weightStart})

	return layers
}

// New allocates a zeroed network of the given topology. All activation
// tags default to Sigmoid and the bias defaults to 1.0, matching the
// original nn_ffnet_create convention.
func New(nin, nhid, nout, nhlayers int) (*Net, error) {
	if nin <= 0 || nout <= 0 {
		return nil, fmt.Errorf("ffnet: nin and nout must be positive (got nin=%d, nout=%d)", nin, nout)
	}
	if nhlayers > 0 && nhid <= 0 {
		return nil, fmt.Errorf("ffnet: nhid must be positive when nhlayers > 0 (got nhid=%d)", nhid)
	}

	n := &Net{
		Nin:                     nin,
		Nhid:                    nhid,
		Nout:                    nout,
		NHiddenLayers:           nhlayers,
		Weights:                 make([]float64, WeightCount(nin, nhid, nout, nhlayers)),
		Outputs:                 make([]float64, NeuronCount(nin, nhid, nout, nhlayers)),
		Activations:             make([]Activation, ActivationCount(nin, nhid, nout, nhlayers)),
		Bias:                    1.0,
		DefaultHiddenActivation: Sigmoid,
		DefaultOutputActivation: Sigmoid,
	}
	for i := range n.Activations {
		n.Activations[i] = Sigmoid
	}
	return n, nil
}

// Randomize draws every weight independently from the uniform distribution
// on [-1, +1].
func (n *Net) Randomize() {
	for i := range n.Weights {
		n.Weights[i] = rand.Float64()*2 - 1
	}
}

// SetWeights bulk-assigns every weight to v.
func (n *Net) SetWeights(v float64) {
	for i := range n.Weights {
		n.Weights[i] = v
	}
}

// SetWeightsFrom copies v into the weight array positionally. len(v) must
// equal len(n.Weights).
func (n *Net) SetWeightsFrom(v []float64) error {
	if len(v) != len(n.Weights) {
		return fmt.Errorf("ffnet: SetWeightsFrom expects %d weights, got %d", len(n.Weights), len(v))
	}
	copy(n.Weights, v)
	return nil
}

// SetBias sets the single shared bias value applied at every bias slot.
func (n *Net) SetBias(v float64) {
	n.Bias = v
}

// SetActivations uniformly stamps every hidden-layer neuron with hidden and
// every output neuron with output, mirroring nn_ffnet_set_activations.
func (n *Net) SetActivations(hidden, output Activation) {
	n.DefaultHiddenActivation = hidden
	n.DefaultOutputActivation = output
	nHiddenTags := n.NHiddenLayers * n.Nhid
	for i := 0; i < nHiddenTags; i++ {
		n.Activations[i] = hidden
	}
	for i := nHiddenTags; i < len(n.Activations); i++ {
		n.Activations[i] = output
	}
}

// Run evaluates the network on inputs and returns its output. The returned
// slice is a borrowed view into the network's internal Outputs array: it
// remains valid only until the next call to Run, InsertHiddenLayer, or any
// other mutating method on this Net.
func (n *Net) Run(inputs []float64) ([]float64, error) {
	if len(inputs) != n.Nin {
		return nil, fmt.Errorf("ffnet: Run expects %d inputs, got %d", n.Nin, len(inputs))
	}

	copy(n.Outputs[:n.Nin], inputs)

	layers := layerSpecs(n.Nin, n.Nhid, n.Nout, n.NHiddenLayers)
	for _, l := range layers {
		sourceStart := l.neuronStart - (l.fanin - 1)
		for j := 0; j < l.width; j++ {
			receiving := l.neuronStart + j
			block := l.weightStart + j*l.fanin

			pre := n.Weights[block] * n.Bias
			for k := 0; k < l.fanin-1; k++ {
				pre += n.Weights[block+1+k] * n.Outputs[sourceStart+k]
			}

			tag := n.Activations[receiving-n.Nin]
			n.Outputs[receiving] = apply(tag, pre)
		}
	}

	return n.Outputs[len(n.Outputs)-n.Nout:], nil
}

// NeuronIsConnected reports whether neuron i (input neurons included) is
// connected: inputs are trivially connected; any other neuron is connected
// iff at least one of its incoming non-bias weights is non-zero and its
// activation tag is not Passthrough.
func (n *Net) NeuronIsConnected(i int) bool {
	if i < n.Nin {
		return true
	}

	if n.Activations[i-n.Nin] == Passthrough {
		return false
	}

	layers := layerSpecs(n.Nin, n.Nhid, n.Nout, n.NHiddenLayers)
	for _, l := range layers {
		if i < l.neuronStart || i >= l.neuronStart+l.width {
			continue
		}
		j := i - l.neuronStart
		block := l.weightStart + j*l.fanin
		for k := 0; k < l.fanin-1; k++ {
			if n.Weights[block+1+k] != 0 {
				return true
			}
		}
		return false
	}
	return false
}

// ZeroNonBiasWeightIndices returns the flat index of every currently-zero,
// non-bias weight slot, in layer-major/receiving-neuron-major order. Used by
// the add-link structural mutation, which must pick uniformly among exactly
// these slots.
func (n *Net) ZeroNonBiasWeightIndices() []int {
	var idxs []int
	layers := layerSpecs(n.Nin, n.Nhid, n.Nout, n.NHiddenLayers)
	for _, l := range layers {
		for j := 0; j < l.width; j++ {
			block := l.weightStart + j*l.fanin
			for k := 0; k < l.fanin-1; k++ {
				idx := block + 1 + k
				if n.Weights[idx] == 0 {
					idxs = append(idxs, idx)
				}
			}
		}
	}
	return idxs
}

// Copy returns a deep copy of n, independent of any subsequent mutation.
func (n *Net) Copy() *Net {
	cp := &Net{
		Nin:                     n.Nin,
		Nhid:                    n.Nhid,
		Nout:                    n.Nout,
		NHiddenLayers:           n.NHiddenLayers,
		Weights:                 make([]float64, len(n.Weights)),
		Outputs:                 make([]float64, len(n.Outputs)),
		Activations:             make([]Activation, len(n.Activations)),
		Bias:                    n.Bias,
		DefaultHiddenActivation: n.DefaultHiddenActivation,
		DefaultOutputActivation: n.DefaultOutputActivation,
	}
	copy(cp.Weights, n.Weights)
	copy(cp.Outputs, n.Outputs)
	copy(cp.Activations, n.Activations)
	return cp
}

// InsertHiddenLayer grows the network by one hidden layer, inserted
// immediately before the output layer (after every existing hidden layer,
// or directly after the inputs when there are none yet). The new layer has
// Nhid neurons, each wired so that exactly one source neuron (its
// positional counterpart in the layer it is spliced after, when one
// exists) contributes w and every other incoming weight including bias is
// zero. Every existing hidden layer is left completely untouched. The
// output layer keeps its weight values positionally, now sourced from the
// new layer instead of from whatever it was sourced from before.
//
// Any slice previously returned by Run is invalidated by this call.
func (n *Net) InsertHiddenLayer(w float64) error {
	oldLayers := layerSpecs(n.Nin, n.Nhid, n.Nout, n.NHiddenLayers)
	output := oldLayers[len(oldLayers)-1]
	oldHidden := oldLayers[:len(oldLayers)-1]

	sourceWidth := n.Nin
	if len(oldHidden) > 0 {
		sourceWidth = n.Nhid
	}

	newNHiddenLayers := n.NHiddenLayers + 1
	newWeights := make([]float64, WeightCount(n.Nin, n.Nhid, n.Nout, newNHiddenLayers))
	newActivations := make([]Activation, ActivationCount(n.Nin, n.Nhid, n.Nout, newNHiddenLayers))
	newOutputs := make([]float64, NeuronCount(n.Nin, n.Nhid, n.Nout, newNHiddenLayers))

	// Every old hidden layer sits at the front of both arrays already and
	// is left entirely untouched by the splice.
	oldHiddenWeightLen := output.weightStart
	oldHiddenActLen := output.neuronStart - n.Nin
	copy(newWeights[:oldHiddenWeightLen], n.Weights[:oldHiddenWeightLen])
	copy(newActivations[:oldHiddenActLen], n.Activations[:oldHiddenActLen])

	// New layer: identity-ish pass-through of whatever it is spliced after.
	newLayerFanin := sourceWidth + 1
	newLayerWeightStart := oldHiddenWeightLen
	for j := 0; j < n.Nhid; j++ {
		block := newLayerWeightStart + j*newLayerFanin
		if j < sourceWidth {
			newWeights[block+1+j] = w
		}
		newActivations[oldHiddenActLen+j] = n.DefaultHiddenActivation
	}

	// The output layer shifts after the new layer, now sourced from it
	// (width Nhid) instead of from its old source (width sourceWidth):
	// copy weights positionally, zero-padding or truncating at the overlap.
	newOutputFanin := n.Nhid + 1
	newOutputWeightStart := newLayerWeightStart + n.Nhid*newLayerFanin
	overlap := output.fanin - 1
	if n.Nhid < overlap {
		overlap = n.Nhid
	}
	for j := 0; j < output.width; j++ {
		oldBlock := output.weightStart + j*output.fanin
		newBlock := newOutputWeightStart + j*newOutputFanin
		newWeights[newBlock] = n.Weights[oldBlock] // bias slot preserved
		for k := 0; k < overlap; k++ {
			newWeights[newBlock+1+k] = n.Weights[oldBlock+1+k]
		}
	}
	copy(newActivations[oldHiddenActLen+n.Nhid:], n.Activations[oldHiddenActLen:])

	n.NHiddenLayers = newNHiddenLayers
	n.Weights = newWeights
	n.Activations = newActivations
	n.Outputs = newOutputs
	return nil
}

// TrainStep performs a single supervised backpropagation update: given
// inputs and desired outputs, it computes Run's forward pass, then updates
// every weight by learningRate * delta * sourceOutput. It is a retained
// utility and is never invoked by the NEAT evolutionary engine.
func (n *Net) TrainStep(inputs, wantedOutputs []float64, learningRate float64) error {
	if len(wantedOutputs) != n.Nout {
		return fmt.Errorf("ffnet: TrainStep expects %d wanted outputs, got %d", n.Nout, len(wantedOutputs))
	}
	if _, err := n.Run(inputs); err != nil {
		return err
	}

	layers := layerSpecs(n.Nin, n.Nhid, n.Nout, n.NHiddenLayers)
	deltas := make([]float64, len(n.Activations))

	for li := len(layers) - 1; li >= 0; li-- {
		l := layers[li]
		for j := 0; j < l.width; j++ {
			receiving := l.neuronStart + j
			y := n.Outputs[receiving]
			tag := n.Activations[receiving-n.Nin]

			var errTerm float64
			if li == len(layers)-1 {
				errTerm = wantedOutputs[j] - y
			} else {
				next := layers[li+1]
				for nj := 0; nj < next.width; nj++ {
					nextReceiving := next.neuronStart + nj
					nextBlock := next.weightStart + nj*next.fanin
					errTerm += deltas[nextReceiving-n.Nin] * n.Weights[nextBlock+1+j]
				}
			}
			deltas[receiving-n.Nin] = errTerm * derivative(tag, y)
		}
	}

	sourceForLayer := func(l layer) int { return l.neuronStart - (l.fanin - 1) }
	for _, l := range layers {
		sourceStart := sourceForLayer(l)
		for j := 0; j < l.width; j++ {
			receiving := l.neuronStart + j
			block := l.weightStart + j*l.fanin
			delta := deltas[receiving-n.Nin]

			n.Weights[block] += learningRate * delta * n.Bias
			for k := 0; k < l.fanin-1; k++ {
				n.Weights[block+1+k] += learningRate * delta * n.Outputs[sourceStart+k]
			}
		}
	}

	return nil
}

