package ffnet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplySigmoidNeverOverflows(t *testing.T) {
	assert.InDelta(t, 1.0, apply(Sigmoid, 1e9), 1e-6)
	assert.InDelta(t, 0.0, apply(Sigmoid, -1e9), 1e-6)
	assert.False(t, math.IsNaN(apply(Sigmoid, 1e9)))
}

func TestApplyFastSigmoidBounded(t *testing.T) {
	y := apply(FastSigmoid, 1e9)
	assert.InDelta(t, 1.0, y, 1e-6)
	assert.Less(t, apply(FastSigmoid, -5), 0.0)
}

func TestApplyReLU(t *testing.T) {
	assert.Equal(t, 0.0, apply(ReLU, -3.0))
	assert.Equal(t, 2.5, apply(ReLU, 2.5))
}

func TestApplyPassthrough(t *testing.T) {
	assert.Equal(t, -4.5, apply(Passthrough, -4.5))
}

func TestDerivativeSigmoid(t *testing.T) {
	assert.InDelta(t, 0.25, derivative(Sigmoid, 0.5), 1e-9)
	assert.InDelta(t, 0.0, derivative(Sigmoid, 1.0), 1e-9)
}

func TestDerivativeReLU(t *testing.T) {
	assert.Equal(t, 1.0, derivative(ReLU, 3.0))
	assert.Equal(t, 0.0, derivative(ReLU, 0.0))
}
