// Package spam looks email addresses up in the StopForumSpam database.
package spam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/deppfellow/contentfilter/internal/config"
	"github.com/rs/zerolog"
)

// Client is a StopForumSpam lookup client. It satisfies filter.SpamChecker.
type Client struct {
	cfg    *config.SpamConfig
	http   *http.Client
	logger *zerolog.Logger
	delay  time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetryDelay sets the base delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

func NewClient(cfg *config.SpamConfig, logger *zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: logger,
		delay:  200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type lookupResponse struct {
	Success int    `json:"success"`
	Error   string `json:"error"`
	Email   struct {
		Value     string `json:"value"`
		Appears   int    `json:"appears"`
		Frequency int    `json:"frequency"`
	} `json:"email"`
}

// statusError is a non-200 answer from the API.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("stopforumspam: unexpected status %d", e.code)
}

// BadEmail reports whether email has been reported at least MinFrequency
// times. A disabled client never reports anything. Server errors and
// network failures are retried; client errors are not.
func (c *Client) BadEmail(ctx context.Context, email string) (bool, error) {
	if !c.cfg.Enabled {
		return false, nil
	}

	start := time.Now()
	res, err := retry.DoWithData(
		func() (*lookupResponse, error) {
			return c.lookup(ctx, email)
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.Attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			c.logger.Warn().
				Err(err).
				Uint("attempt", attempt+1).
				Uint("attempts", c.cfg.Attempts).
				Msg("stopforumspam lookup failed, retrying")
		}),
	)
	if err != nil {
		return false, fmt.Errorf("spam lookup: %w", err)
	}

	bad := res.Email.Appears == 1 && res.Email.Frequency >= c.cfg.MinFrequency
	c.logger.Debug().
		Bool("spam", bad).
		Int("frequency", res.Email.Frequency).
		Dur("duration", time.Since(start)).
		Msg("stopforumspam lookup")

	return bad, nil
}

func (c *Client) lookup(ctx context.Context, email string) (*lookupResponse, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	q := url.Values{}
	q.Set("email", email)
	q.Set("json", "")
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/api?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := &statusError{code: resp.StatusCode}
		if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}

	var out lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
	}
	if out.Success != 1 {
		return nil, retry.Unrecoverable(errors.New("stopforumspam: " + out.Error))
	}
	return &out, nil
}
