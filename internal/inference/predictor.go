// Package inference runs the bundled numeric classifier and degrades to the
// deterministic bucket scorer whenever the model cannot produce a result.
package inference

import (
	"context"
	"errors"
)

var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrShapeMismatch    = errors.New("model shape mismatch")
	ErrInvalidOutput    = errors.New("invalid model output")
	ErrInvalidModel     = errors.New("invalid model file")
)

// Predictor is the opaque model boundary: a feature vector in, one raw
// score per label out.
type Predictor interface {
	Predict(ctx context.Context, features []float64) ([]float64, error)
}

// Shaped is implemented by predictors that know their input and output sizes,
// letting the engine reject a mismatched model at start-up.
type Shaped interface {
	InputSize() int
	Labels() []string
}
