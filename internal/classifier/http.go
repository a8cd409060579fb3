package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	httpMaxResponseBytes = 1 << 20 // 1MB
	defaultHTTPTimeout   = 30 * time.Second
)

// HTTPBackend 调用 Hugging Face text-classification 协议的推理服务
type HTTPBackend struct {
	endpoint string
	token    string
	http     *http.Client
	limiter  *rate.Limiter
}

var _ Backend = (*HTTPBackend)(nil)

// NewHTTPBackend rps <= 0 时不限流
func NewHTTPBackend(endpoint, token string, timeout time.Duration, rps float64) *HTTPBackend {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	b := &HTTPBackend{
		endpoint: endpoint,
		token:    token,
		http:     &http.Client{Timeout: timeout},
	}
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return b
}

func (b *HTTPBackend) Predict(ctx context.Context, text string) ([]Prediction, error) {
	if b.endpoint == "" {
		return nil, fmt.Errorf("inference endpoint not configured")
	}
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(map[string]any{
		"inputs":  text,
		"options": map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, httpMaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := strings.TrimSpace(string(raw))
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, snippet)
	}

	return decodePredictions(raw)
}

// decodePredictions 兼容 [[{label,score}]] 与 [{label,score}] 两种返回格式
func decodePredictions(raw []byte) ([]Prediction, error) {
	var nested [][]Prediction
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}

	var flat []Prediction
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return flat, nil
}
