// Package wordsource fetches vocabulary words for an ID range.
package wordsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/at-ishikawa/spellingtrainer/internal/spelling"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultCacheTTL      = 30 * time.Minute
	DefaultCacheCapacity = 64
	wordsPath            = "/"
)

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	CacheTTL      time.Duration
	CacheCapacity int
	RetryAttempts uint
}

type Client struct {
	httpClient       *resty.Client
	cache            *Cache
	maxRetryAttempts uint
	retryDelay       time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(cfg.BaseURL)
	httpClient.SetTimeout(timeout)
	httpClient.SetHeader("Accept", "application/json")

	return &Client{
		httpClient:       httpClient,
		cache:            NewCache(cfg.CacheTTL, cfg.CacheCapacity),
		maxRetryAttempts: cfg.RetryAttempts,
		retryDelay:       200 * time.Millisecond,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// ClearCache forgets every cached range.
func (client *Client) ClearCache() {
	client.cache.Clear()
}

// FetchWords returns the words whose IDs are within [start, end].
// The range is validated before any request is sent.
func (client *Client) FetchWords(ctx context.Context, start, end int) ([]spelling.Word, error) {
	if err := spelling.ValidateRange(start, end); err != nil {
		return nil, err
	}
	if words, ok := client.cache.Get(start, end); ok {
		slog.Debug("words cache hit", "start", start, "end", end, "count", len(words))
		return words, nil
	}

	var words []spelling.Word
	if err := retry.Do(
		func() error {
			result, err := client.fetchWords(ctx, start, end)
			if err != nil {
				return err
			}
			words = result
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.Delay(client.retryDelay),
		retry.RetryIf(isRetryableError),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Info("Retrying words API call", "attempt", n+1, "error", err)
		}),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	); err != nil {
		return nil, classifyTransportError(err)
	}

	client.cache.Set(start, end, words)
	return words, nil
}

func (client *Client) fetchWords(ctx context.Context, start, end int) ([]spelling.Word, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"start": strconv.Itoa(start),
			"end":   strconv.Itoa(end),
		}).
		Get(wordsPath)
	if err != nil {
		return nil, classifyTransportError(fmt.Errorf("httpClient.Get > %w", err))
	}
	if response.IsError() {
		return nil, &FetchError{
			Kind:       FetchErrorServer,
			StatusCode: response.StatusCode(),
			Err:        fmt.Errorf("response error %d: %s", response.StatusCode(), response.String()),
		}
	}
	return decodeWords([]byte(response.String()))
}

func decodeWords(body []byte) ([]spelling.Word, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &FetchError{Kind: FetchErrorMalformed, Err: fmt.Errorf("response body is not a JSON array")}
	}

	var words []spelling.Word
	if err := json.Unmarshal(trimmed, &words); err != nil {
		return nil, &FetchError{Kind: FetchErrorMalformed, Err: fmt.Errorf("json.Unmarshal > %w", err)}
	}
	return words, nil
}
