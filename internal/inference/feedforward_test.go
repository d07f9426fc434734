package inference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyModel = `
name: tiny
labels: [a, b]
input_size: 2
layers:
  - activation: relu
    bias: [0, -1]
    weights:
      - [1, 0]
      - [0, 1]
  - activation: linear
    bias: [0.5, 0]
    weights:
      - [1, 0]
      - [1, 2]
`

func TestFeedForwardPredict(t *testing.T) {
	ff, err := ParseFeedForward([]byte(tinyModel))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ff.Labels())

	// hidden = relu([2, 3-1]) = [2, 2]; out = [2+0.5, 2+4]
	out, err := ff.Predict(context.Background(), []float64{2, 3})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.5, 6}, out, 1e-9)

	// hidden = relu([-1, -1]) = [0, 0]
	out, err = ff.Predict(context.Background(), []float64{-1, 0})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0}, out, 1e-9)
}

func TestFeedForwardRejectsWrongInput(t *testing.T) {
	ff, err := ParseFeedForward([]byte(tinyModel))
	require.NoError(t, err)

	_, err = ff.Predict(context.Background(), []float64{1})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ff.Predict(ctx, []float64{1, 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseFeedForwardValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not yaml", data: "labels: [a"},
		{name: "no layers", data: "labels: [a]\ninput_size: 1\n"},
		{name: "zero input", data: "labels: [a]\nlayers:\n  - bias: [0]\n    weights: [[1]]\n"},
		{name: "bias mismatch", data: "labels: [a]\ninput_size: 1\nlayers:\n  - bias: [0, 1]\n    weights: [[1]]\n"},
		{name: "row mismatch", data: "labels: [a]\ninput_size: 2\nlayers:\n  - bias: [0]\n    weights: [[1]]\n"},
		{name: "label mismatch", data: "labels: [a, b]\ninput_size: 1\nlayers:\n  - bias: [0]\n    weights: [[1]]\n"},
		{name: "bad activation", data: "labels: [a]\ninput_size: 1\nlayers:\n  - bias: [0]\n    weights: [[1]]\n    activation: tanh\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFeedForward([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidModel)
		})
	}
}

func TestLoadFeedForwardMissingFile(t *testing.T) {
	_, err := LoadFeedForward("does/not/exist.yaml")
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestBundledModelProducesDistribution(t *testing.T) {
	ff, err := LoadFeedForward("../../models/symptom_model.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"cold", "flu", "allergy"}, ff.Labels())

	features := make([]float64, ff.InputSize())
	features[0] = 0.8 // fever
	features[1] = 0.6 // cough
	out, err := ff.Predict(context.Background(), features)
	require.NoError(t, err)

	sum := 0.0
	for _, v := range out {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, out[1], out[2])
}
