package inference

import (
	"context"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

type Activation string

const (
	ActivationLinear  Activation = "linear"
	ActivationReLU    Activation = "relu"
	ActivationSigmoid Activation = "sigmoid"
	ActivationSoftmax Activation = "softmax"
)

// Layer is a dense layer; Weights is indexed [output][input].
type Layer struct {
	Weights    [][]float64 `yaml:"weights" json:"weights"`
	Bias       []float64   `yaml:"bias" json:"bias"`
	Activation Activation  `yaml:"activation" json:"activation"`
}

// FeedForward is a small dense network evaluated in process.
type FeedForward struct {
	Name        string   `yaml:"name" json:"name"`
	LabelNames  []string `yaml:"labels" json:"labels"`
	InputLength int      `yaml:"input_size" json:"input_size"`
	Layers      []Layer  `yaml:"layers" json:"layers"`
}

// LoadFeedForward reads a weights file. JSON files are accepted as well since
// YAML is a superset.
func LoadFeedForward(path string) (*FeedForward, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return ParseFeedForward(data)
}

func ParseFeedForward(data []byte) (*FeedForward, error) {
	var ff FeedForward
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if err := ff.validate(); err != nil {
		return nil, err
	}
	return &ff, nil
}

func (ff *FeedForward) validate() error {
	if ff.InputLength <= 0 {
		return fmt.Errorf("%w: input_size must be positive", ErrInvalidModel)
	}
	if len(ff.Layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrInvalidModel)
	}
	in := ff.InputLength
	for i, l := range ff.Layers {
		if len(l.Weights) == 0 {
			return fmt.Errorf("%w: layer %d has no units", ErrInvalidModel, i)
		}
		if len(l.Bias) != len(l.Weights) {
			return fmt.Errorf("%w: layer %d has %d biases for %d units", ErrInvalidModel, i, len(l.Bias), len(l.Weights))
		}
		for j, row := range l.Weights {
			if len(row) != in {
				return fmt.Errorf("%w: layer %d unit %d expects %d inputs, got %d", ErrInvalidModel, i, j, in, len(row))
			}
		}
		switch l.Activation {
		case "", ActivationLinear, ActivationReLU, ActivationSigmoid, ActivationSoftmax:
		default:
			return fmt.Errorf("%w: layer %d has unknown activation %q", ErrInvalidModel, i, l.Activation)
		}
		in = len(l.Weights)
	}
	if len(ff.LabelNames) != in {
		return fmt.Errorf("%w: %d labels for %d outputs", ErrInvalidModel, len(ff.LabelNames), in)
	}
	return nil
}

func (ff *FeedForward) InputSize() int { return ff.InputLength }

func (ff *FeedForward) Labels() []string {
	return append([]string{}, ff.LabelNames...)
}

// Predict evaluates the network. It never mutates the receiver and is safe
// for concurrent use.
func (ff *FeedForward) Predict(ctx context.Context, features []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(features) != ff.InputLength {
		return nil, fmt.Errorf("%w: got %d features, model expects %d", ErrShapeMismatch, len(features), ff.InputLength)
	}

	x := features
	for _, l := range ff.Layers {
		out := make([]float64, len(l.Weights))
		for j, row := range l.Weights {
			sum := l.Bias[j]
			for k, w := range row {
				sum += w * x[k]
			}
			out[j] = sum
		}
		activate(l.Activation, out)
		x = out
	}
	return x, nil
}

func activate(a Activation, v []float64) {
	switch a {
	case ActivationReLU:
		for i := range v {
			if v[i] < 0 {
				v[i] = 0
			}
		}
	case ActivationSigmoid:
		for i := range v {
			v[i] = 1 / (1 + math.Exp(-v[i]))
		}
	case ActivationSoftmax:
		max := math.Inf(-1)
		for _, x := range v {
			if x > max {
				max = x
			}
		}
		sum := 0.0
		for i := range v {
			v[i] = math.Exp(v[i] - max)
			sum += v[i]
		}
		for i := range v {
			v[i] /= sum
		}
	}
}
