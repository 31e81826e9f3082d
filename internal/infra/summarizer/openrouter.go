// Package summarizer turns extracted article text into a team-specific
// briefing through OpenRouter's OpenAI-compatible chat completions API.
package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"isdnews/internal/domain/entity"
	"isdnews/internal/observability/metrics"
	"isdnews/internal/pkg/secret"
	"isdnews/internal/repository"
	"isdnews/internal/resilience/circuitbreaker"
	"isdnews/internal/resilience/retry"
	"isdnews/internal/utils/text"
)

const apiKeyPrefix = "sk-or-"

var (
	// ErrInvalidAPIKey is reported when the configured key is missing or
	// does not look like an OpenRouter key.
	ErrInvalidAPIKey = errors.New("openrouter api key missing or invalid")

	// ErrEmptyResponse is reported when the completion has no usable text.
	ErrEmptyResponse = errors.New("openrouter returned no content")
)

// ConfigLookup resolves configuration keys such as the API key.
type ConfigLookup interface {
	Lookup(ctx context.Context, key, teamCode string) (string, bool, error)
}

// Limiter spaces out AI calls. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

type Config struct {
	Model          string
	BaseURL        string
	AttemptTimeout time.Duration
	// MaxInputChars bounds the article text sent to the model, in runes.
	MaxInputChars int
	Retry         retry.Config
}

func DefaultConfig() Config {
	return Config{
		Model:          "openai/gpt-4o-mini",
		BaseURL:        "https://openrouter.ai/api/v1",
		AttemptTimeout: 60 * time.Second,
		MaxInputChars:  12000,
		Retry:          retry.AIAPIConfig(),
	}
}

// OpenRouter enriches article text. It never fails: on any error the input
// text is returned unchanged.
type OpenRouter struct {
	config          ConfigLookup
	logs            repository.AILogRepository
	limiter         Limiter
	httpClient      *http.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	cfg             Config
	metricsRecorder MetricsRecorder
}

// NewOpenRouter wires the client. Zero fields of cfg take their defaults;
// a nil limiter disables pacing.
func NewOpenRouter(config ConfigLookup, logs repository.AILogRepository, limiter Limiter, cfg Config) *OpenRouter {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = def.AttemptTimeout
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = def.MaxInputChars
	}
	if cfg.Retry == (retry.Config{}) {
		cfg.Retry = def.Retry
	}

	slog.Info("Initialized OpenRouter summarizer",
		slog.String("model", cfg.Model),
		slog.String("base_url", cfg.BaseURL),
		slog.Int("max_attempts", cfg.Retry.MaxAttempts))

	return &OpenRouter{
		config:          config,
		logs:            logs,
		limiter:         limiter,
		httpClient:      &http.Client{},
		circuitBreaker:  circuitbreaker.New(circuitbreaker.OpenRouterConfig()),
		cfg:             cfg,
		metricsRecorder: NewPrometheusMetrics(),
	}
}

// attemptResult is what one call produced, for the audit row.
type attemptResult struct {
	raw    string
	result string
}

// Summarize returns the team briefing for text, or text itself when the
// call cannot be made or does not succeed.
func (o *OpenRouter) Summarize(ctx context.Context, input, sourceURL, teamCode string) string {
	logger := slog.Default().With(slog.String("url", sourceURL), slog.String("team", teamCode))
	prompt := buildPrompt(text.TruncateRunes(input, o.cfg.MaxInputChars), sourceURL)

	apiKey, err := o.apiKey(ctx)
	if err != nil {
		o.audit(ctx, sourceURL, teamCode, prompt, attemptResult{}, err)
		o.metricsRecorder.RecordFallback(reasonNoKey)
		logger.Error("ai enrichment skipped", slog.String("error", secret.MaskError(err)))
		return input
	}
	client := o.newClient(apiKey)
	persona := Persona(teamCode)

	var enriched string
	err = retry.WithBackoff(ctx, o.cfg.Retry, func() error {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		start := time.Now()
		res, callErr := circuitbreaker.Do(o.circuitBreaker, func() (attemptResult, error) {
			return o.attempt(ctx, client, persona, prompt)
		})
		status := entity.AISuccess
		if callErr != nil {
			status = entity.AIError
		}
		metrics.RecordAICall(string(status), time.Since(start))
		o.audit(ctx, sourceURL, teamCode, prompt, res, callErr)

		if callErr != nil {
			if circuitbreaker.IsRejected(callErr) {
				logger.Warn("openrouter circuit breaker open, request rejected",
					slog.String("service", "openrouter-api"),
					slog.String("state", o.circuitBreaker.State().String()))
			}
			return callErr
		}
		enriched = res.result
		return nil
	})

	if err != nil {
		reason := reasonFailed
		switch {
		case circuitbreaker.IsRejected(err):
			reason = reasonRejected
		case errors.Is(err, ErrEmptyResponse):
			reason = reasonEmpty
		}
		o.metricsRecorder.RecordFallback(reason)
		logger.Warn("ai enrichment failed, keeping original text",
			slog.String("reason", reason),
			slog.String("error", secret.MaskError(err)))
		return input
	}

	o.metricsRecorder.RecordLength(text.CountRunes(enriched))
	return enriched
}

func (o *OpenRouter) apiKey(ctx context.Context) (string, error) {
	key, found, err := o.config.Lookup(ctx, entity.ConfigOpenRouterAPIKey, "")
	if err != nil {
		return "", fmt.Errorf("%w: lookup: %v", ErrInvalidAPIKey, err)
	}
	key = strings.TrimSpace(key)
	if !found || !strings.HasPrefix(key, apiKeyPrefix) {
		return "", ErrInvalidAPIKey
	}
	return key, nil
}

func (o *OpenRouter) newClient(apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = o.cfg.BaseURL
	cfg.HTTPClient = o.httpClient
	return openai.NewClientWithConfig(cfg)
}

// attempt runs one completion under its own deadline. Transport failures
// come back as retry.HTTPError so the retry policy can classify them.
func (o *OpenRouter) attempt(ctx context.Context, client *openai.Client, persona, prompt string) (attemptResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.AttemptTimeout)
	defer cancel()

	resp, err := client.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
		Model: o.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: persona},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return attemptResult{raw: err.Error()}, classify(ctx, attemptCtx, err)
	}

	raw, _ := json.Marshal(resp)
	res := attemptResult{raw: string(raw)}
	if len(resp.Choices) == 0 {
		return res, ErrEmptyResponse
	}
	res.result = strings.TrimSpace(resp.Choices[0].Message.Content)
	if res.result == "" {
		return res, ErrEmptyResponse
	}
	return res, nil
}

func classify(parent, attemptCtx context.Context, err error) error {
	// The attempt deadline passed while the caller is still waiting.
	if parent.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return &retry.HTTPError{StatusCode: http.StatusRequestTimeout, Message: "attempt timed out"}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &retry.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &retry.HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return err
}

// audit writes the AILog row of one attempt. A failed write is only logged.
func (o *OpenRouter) audit(ctx context.Context, sourceURL, teamCode, prompt string, res attemptResult, callErr error) {
	row := &entity.AILog{
		URL:         sourceURL,
		TeamCode:    teamCode,
		Model:       o.cfg.Model,
		Prompt:      prompt,
		RawResponse: secret.Mask(res.raw),
		Result:      res.result,
		Status:      entity.AISuccess,
	}
	if callErr != nil {
		row.Status = entity.AIError
		row.ErrorMessage = secret.MaskError(callErr)
	}
	if err := o.logs.Create(context.WithoutCancel(ctx), row); err != nil {
		slog.Error("failed to write ai log",
			slog.String("url", sourceURL),
			slog.Any("error", err))
	}
}
