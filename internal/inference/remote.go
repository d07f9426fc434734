package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// remotePredictor calls a model-serving sidecar that accepts
// {"features": [...]} and answers {"scores": [...]}.
type remotePredictor struct {
	url        string
	labels     []string
	inputSize  int
	httpClient *http.Client
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

type predictResponse struct {
	Scores []float64 `json:"scores"`
}

// NewRemotePredictor builds a Predictor backed by an HTTP model server.
func NewRemotePredictor(url string, labels []string, inputSize int, timeout time.Duration) Predictor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &remotePredictor{
		url:       url,
		labels:    append([]string{}, labels...),
		inputSize: inputSize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *remotePredictor) InputSize() int { return c.inputSize }

func (c *remotePredictor) Labels() []string { return append([]string{}, c.labels...) }

func (c *remotePredictor) Predict(ctx context.Context, features []float64) ([]float64, error) {
	body, err := json.Marshal(predictRequest{Features: features})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("call model: %w", ctxErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: model server returned %s - %s", ErrModelUnavailable, resp.Status, string(respBody))
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return result.Scores, nil
}
