package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/providers"
	"github.com/zatekoja/Trialeligibilityscreening/backend/pkg/config"
	apperrors "github.com/zatekoja/Trialeligibilityscreening/backend/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrUnauthorized is returned when the API rejects our credentials.
var ErrUnauthorized = errors.New("gemini: unauthorized")

// Client implements the Gemini explanation provider.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *tokenBucket
}

var _ providers.ExplanationProvider = (*Client)(nil)

// NewClient creates a new Gemini client.
func NewClient(cfg *config.GeminiConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limiter := newTokenBucket(cfg.RateLimitRPM, cfg.RateLimitBurst)

	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
	}, nil
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
	Role  string         `json:"role,omitempty"`
}

type generateCandidate struct {
	Content generateContent `json:"content"`
}

type generateEnvelope struct {
	Candidates []generateCandidate `json:"candidates"`
}

// Explain asks the model to explain a rule-based screening result. The
// returned explanation is advisory; callers must not let it override the
// rule-based status.
func (c *Client) Explain(ctx context.Context, req providers.ExplanationRequest) (*entities.Explanation, error) {
	if req.Patient == nil || req.Trial == nil || req.Result == nil {
		return nil, errors.New("patient, trial and result are required")
	}

	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			recordGeminiMetric(ctx, c.model, 0, 0, err)
			return nil, err
		}
		recordGeminiRateLimitWait(ctx, c.model, time.Since(waitStart))
	}

	prompt, err := buildExplanationPrompt(req)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": prompt}},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":      0.2,
			"responseMimeType": "application/json",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("x-goog-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		recordGeminiMetric(ctx, c.model, 0, time.Since(start), err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		recordGeminiMetric(ctx, c.model, resp.StatusCode, time.Since(start), fmt.Errorf("status %d", resp.StatusCode))
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("%w: request failed with status %d", ErrUnauthorized, resp.StatusCode)
		}
		return nil, apperrors.NewExternalError(fmt.Sprintf("gemini request failed with status %d", resp.StatusCode), nil)
	}

	var envelope generateEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordGeminiMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return nil, err
	}

	var text string
	for _, candidate := range envelope.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				text = part.Text
				break
			}
		}
		if text != "" {
			break
		}
	}

	if text == "" {
		recordGeminiMetric(ctx, c.model, resp.StatusCode, time.Since(start), errors.New("missing candidate text"))
		return nil, errors.New("gemini response missing candidate text")
	}

	explanation, err := parseExplanation(text)
	if err != nil {
		recordGeminiMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return nil, fmt.Errorf("failed to parse gemini response: %w", err)
	}

	recordGeminiMetric(ctx, c.model, resp.StatusCode, time.Since(start), nil)
	return explanation, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

func newTokenBucket(rpm int, burst int) *tokenBucket {
	if rpm == 0 {
		rpm = 60
	}
	if rpm < 0 {
		return nil
	}
	if burst <= 0 {
		burst = 5
	}
	return newTokenBucketWithRate(rpm, burst)
}

type tokenBucket struct {
	tokens chan struct{}
}

func newTokenBucketWithRate(rpm int, burst int) *tokenBucket {
	bucket := &tokenBucket{
		tokens: make(chan struct{}, burst),
	}

	for i := 0; i < burst; i++ {
		bucket.tokens <- struct{}{}
	}

	interval := time.Minute / time.Duration(rpm)
	if interval <= 0 {
		interval = time.Millisecond
	}

	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			select {
			case bucket.tokens <- struct{}{}:
			default:
			}
		}
	}()

	return bucket
}

func (b *tokenBucket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.tokens:
		return nil
	}
}

type geminiMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	rateLimitWait   metric.Float64Histogram
}

var geminiMetricsInit = false
var geminiMetricsState geminiMetrics

func ensureGeminiMetrics() {
	if geminiMetricsInit {
		return
	}
	meter := otel.Meter("github.com/zatekoja/Trialeligibilityscreening/backend/gemini")

	requestCount, err := meter.Int64Counter(
		"ai.gemini.request.count",
		metric.WithDescription("Number of Gemini requests"),
	)
	if err != nil {
		return
	}
	requestDuration, err := meter.Float64Histogram(
		"ai.gemini.request.duration",
		metric.WithDescription("Gemini request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}
	requestErrors, err := meter.Int64Counter(
		"ai.gemini.request.errors",
		metric.WithDescription("Number of Gemini request errors"),
	)
	if err != nil {
		return
	}
	rateLimitWait, err := meter.Float64Histogram(
		"ai.gemini.rate_limit.wait",
		metric.WithDescription("Time spent waiting for Gemini rate limiter in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}

	geminiMetricsState = geminiMetrics{
		requestCount:    requestCount,
		requestDuration: requestDuration,
		requestErrors:   requestErrors,
		rateLimitWait:   rateLimitWait,
	}
	geminiMetricsInit = true
}

func recordGeminiMetric(ctx context.Context, model string, statusCode int, duration time.Duration, err error) {
	ensureGeminiMetrics()
	if !geminiMetricsInit {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", model),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	geminiMetricsState.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	geminiMetricsState.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		geminiMetricsState.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func recordGeminiRateLimitWait(ctx context.Context, model string, wait time.Duration) {
	ensureGeminiMetrics()
	if !geminiMetricsInit {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", model),
	}
	geminiMetricsState.rateLimitWait.Record(ctx, float64(wait.Milliseconds()), metric.WithAttributes(attrs...))
}
