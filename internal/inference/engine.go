package inference

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"symptom-checker/internal/profile"
	"symptom-checker/internal/scoring"
	"symptom-checker/internal/symptom"
)

// Result sources.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// Fallback reasons reported to the observer.
const (
	ReasonUnavailable   = "unavailable"
	ReasonBreakerOpen   = "breaker_open"
	ReasonPanic         = "panic"
	ReasonShapeMismatch = "shape_mismatch"
	ReasonInvalidOutput = "invalid_output"
	ReasonCanceled      = "canceled"
	ReasonError         = "error"
)

type Prediction struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

type Result struct {
	Predictions []Prediction `json:"predictions"`
	Source      string       `json:"source"`
}

// BreakerConfig controls when repeated model failures stop reaching the model.
type BreakerConfig struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Config wires an Engine. A nil Predictor is valid and means every request
// is served by the fallback scorer.
type Config struct {
	Predictor  Predictor
	Labels     []string
	Encoder    *Encoder
	Breaker    BreakerConfig
	Logger     *zap.Logger
	OnFallback func(reason string)
}

// Engine runs the model and masks every model failure with the bucket scorer.
type Engine struct {
	predictor  Predictor
	labels     []string
	encoder    *Encoder
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
	onFallback func(reason string)
}

// NewEngine fails only on wiring mistakes: labels or input size that
// disagree with what the predictor declares.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Encoder == nil {
		cfg.Encoder = NewEncoder(DefaultVocabulary)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Breaker.MaxFailures == 0 {
		cfg.Breaker.MaxFailures = 5
	}
	if cfg.Breaker.OpenTimeout <= 0 {
		cfg.Breaker.OpenTimeout = 30 * time.Second
	}

	labels := cfg.Labels
	if shaped, ok := cfg.Predictor.(Shaped); ok {
		if shaped.InputSize() != cfg.Encoder.Len() {
			return nil, fmt.Errorf("%w: model expects %d features, encoder produces %d", ErrShapeMismatch, shaped.InputSize(), cfg.Encoder.Len())
		}
		if len(labels) == 0 {
			labels = shaped.Labels()
		}
	}
	if cfg.Predictor != nil && len(labels) == 0 {
		return nil, fmt.Errorf("%w: no labels for predictor", ErrInvalidModel)
	}

	logger := cfg.Logger.With(zap.String("component", "inference"))
	maxFailures := cfg.Breaker.MaxFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "symptom-model",
		MaxRequests: 1,
		Timeout:     cfg.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// a caller giving up says nothing about model health
		IsSuccessful: func(err error) bool {
			return err == nil || isContextError(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Engine{
		predictor:  cfg.Predictor,
		labels:     append([]string{}, labels...),
		encoder:    cfg.Encoder,
		breaker:    breaker,
		logger:     logger,
		onFallback: cfg.OnFallback,
	}, nil
}

// Infer never returns an error: model failures are logged and answered by
// scoring.Score.
func (e *Engine) Infer(ctx context.Context, selections []symptom.Selection, p profile.UserProfile) Result {
	if e.predictor == nil {
		return e.fallback(selections, p, ReasonUnavailable, ErrModelUnavailable)
	}

	features := e.encoder.Encode(selections, p)
	out, err := e.breaker.Execute(func() (interface{}, error) {
		return e.predictSafely(ctx, features)
	})
	if err != nil {
		return e.fallback(selections, p, reasonFor(err), err)
	}

	probs := out.([]float64)
	preds := make([]Prediction, len(probs))
	for i, prob := range probs {
		preds[i] = Prediction{Label: e.labels[i], Probability: prob}
	}
	return Result{Predictions: preds, Source: SourceModel}
}

// Fallback exposes the deterministic path directly.
func Fallback(selections []symptom.Selection, p profile.UserProfile) Result {
	scores := scoring.Score(selections, p)
	preds := make([]Prediction, len(scores))
	for i, s := range scores {
		preds[i] = Prediction{Label: string(s.Bucket), Probability: s.Probability}
	}
	return Result{Predictions: preds, Source: SourceFallback}
}

func (e *Engine) predictSafely(ctx context.Context, features []float64) (out []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	out, err = e.predictor.Predict(ctx, features)
	if err != nil {
		return nil, err
	}
	if len(out) != len(e.labels) {
		return nil, fmt.Errorf("%w: got %d scores for %d labels", ErrShapeMismatch, len(out), len(e.labels))
	}
	return normalize(out)
}

// normalize divides by the sum; malformed outputs count as model failures.
func normalize(raw []float64) ([]float64, error) {
	sum := 0.0
	for _, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("%w: score %v", ErrInvalidOutput, v)
		}
		sum += v
	}
	if sum <= 0 {
		return nil, fmt.Errorf("%w: scores sum to %v", ErrInvalidOutput, sum)
	}
	probs := make([]float64, len(raw))
	for i, v := range raw {
		probs[i] = v / sum
	}
	return probs, nil
}

func (e *Engine) fallback(selections []symptom.Selection, p profile.UserProfile, reason string, cause error) Result {
	if e.predictor == nil {
		e.logger.Debug("no model configured, using fallback scorer")
	} else {
		e.logger.Warn("model inference failed, using fallback scorer",
			zap.String("reason", reason),
			zap.Error(cause))
	}
	if e.onFallback != nil {
		e.onFallback(reason)
	}
	return Fallback(selections, p)
}

type panicError struct {
	value interface{}
}

func (p *panicError) Error() string {
	return fmt.Sprintf("model panicked: %v", p.value)
}

func reasonFor(err error) string {
	var pe *panicError
	switch {
	case errors.As(err, &pe):
		return ReasonPanic
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return ReasonBreakerOpen
	case isContextError(err):
		return ReasonCanceled
	case errors.Is(err, ErrShapeMismatch):
		return ReasonShapeMismatch
	case errors.Is(err, ErrInvalidOutput):
		return ReasonInvalidOutput
	case errors.Is(err, ErrModelUnavailable):
		return ReasonUnavailable
	default:
		return ReasonError
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
