// Package tts fetches spoken pronunciations from a Google-Translate
// compatible text-to-speech endpoint and coordinates bulk fetches
// through a worker pool backed by the audio cache.
package tts

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	zlog "github.com/ManuGH/zi2anki/internal/log"
)

const (
	// DefaultBaseURL is the public translate host. Deployments behind a
	// mirror override it in the tts config section.
	DefaultBaseURL = "https://translate.google.com"

	// DefaultLang is Mandarin Chinese.
	DefaultLang = "zh"

	defaultTimeout = 30 * time.Second
	defaultRate    = 5.0
	defaultBurst   = 2
	defaultRetries = 3

	// maxClipSize caps a single clip read. Clips for vocabulary words
	// run a few tens of KB; anything larger is a misbehaving endpoint.
	maxClipSize = 5 << 20

	// The endpoint serves HTML error pages to nondescript clients.
	userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/118.0"
)

// ClientOptions configures a Client. Zero fields fall back to defaults.
type ClientOptions struct {
	BaseURL string
	Lang    string
	Timeout time.Duration
	Rate    float64 // requests per second against the endpoint
	Burst   int
	Retries int // total attempts per word
}

// Client fetches MP3 clips for single words. It rate-limits and retries
// so a bulk deck build degrades politely instead of hammering the
// endpoint.
type Client struct {
	baseURL string
	lang    string
	client  *http.Client
	limiter *rate.Limiter
	retries uint
	logger  zerolog.Logger
}

// NewClient builds a client with the given options. The base URL is
// validated and normalized; a malformed endpoint is a config error.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Lang == "" {
		opts.Lang = DefaultLang
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Rate <= 0 {
		opts.Rate = defaultRate
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if opts.Retries <= 0 {
		opts.Retries = defaultRetries
	}

	base, err := NormalizeEndpoint(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: base,
		lang:    opts.Lang,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Limit(opts.Rate), opts.Burst),
		retries: uint(opts.Retries),
		logger:  zlog.WithComponent("tts"),
	}, nil
}

// SpeechURL returns the request URL for a word.
func (c *Client) SpeechURL(word string) string {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", c.lang)
	q.Set("q", word)
	return c.baseURL + "/translate_tts?" + q.Encode()
}

// Fetch returns the MP3 clip for word. Transient failures are retried
// with backoff; 4xx responses other than 429 fail immediately.
func (c *Client) Fetch(ctx context.Context, word string) ([]byte, error) {
	var data []byte
	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
			var ferr error
			data, ferr = c.fetchOnce(ctx, word)
			return ferr
		},
		retry.Context(ctx),
		retry.Attempts(c.retries),
		retry.LastErrorOnly(true),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn().
				Err(err).
				Uint("attempt", n+1).
				Str(zlog.FieldWord, word).
				Msg("retrying clip fetch")
		}),
	)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) fetchOnce(ctx context.Context, word string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SpeechURL(word), nil)
	if err != nil {
		return nil, &Error{Sentinel: ErrUnavailable, Op: "fetch", Word: word, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Sentinel: ErrUnavailable, Op: "fetch", Word: word, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &Error{Sentinel: ErrRateLimited, Op: "fetch", Word: word, Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, &Error{Sentinel: ErrStatus, Op: "fetch", Word: word, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxClipSize))
	if err != nil {
		return nil, &Error{Sentinel: ErrUnavailable, Op: "read", Word: word, Err: err}
	}
	if len(data) == 0 {
		return nil, &Error{Sentinel: ErrEmptyAudio, Op: "fetch", Word: word}
	}
	return data, nil
}

// retryable reports whether a fetch error is worth another attempt.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrRateLimited) {
		return true
	}
	var te *Error
	if errors.As(err, &te) && errors.Is(te.Sentinel, ErrStatus) {
		return te.Status >= 500
	}
	return false
}
