package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tastemate/tastemate-go/credentials"
	interrors "github.com/tastemate/tastemate-go/internal/errors"
	"github.com/tastemate/tastemate-go/metrics"
)

const (
	authorizationHeader = "Authorization"
	requestIDHeader     = "X-Request-Id"
)

// Refresher exchanges a refresh token for a new identity token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Doer issues one API call, decoding the response body into out when
// out is non-nil. Implemented by *Client; feature slices depend on this
// interface so tests can substitute fakes.
type Doer interface {
	Do(ctx context.Context, req Request, out any) error
}

// Client is the authenticated request pipeline. The request phase reads
// the identity token from the credential store at send time (never
// cached across calls) and attaches it; the response phase passes 2xx
// through, maps other statuses to *Error, and absorbs exactly one class
// of failure: a 401 on a first attempt triggers a refresh through the
// identity provider and a single resend.
type Client struct {
	base       string
	httpClient *http.Client
	creds      credentials.Store
	refresher  Refresher
	limiter    *rate.Limiter
	recorder   *metrics.Recorder
	log        zerolog.Logger
}

var _ Doer = (*Client)(nil)

// Option modifies a Client.
type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithRateLimit caps outbound requests client-side.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// New creates a Client for the given API base URL.
func New(baseURL string, creds credentials.Store, refresher Refresher, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[rest.New] base URL is required")
	}
	if creds == nil {
		return nil, errors.New("[rest.New] credential store is required")
	}
	if refresher == nil {
		return nil, errors.New("[rest.New] refresher is required")
	}

	client := &Client{
		base:       strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		creds:      creds,
		refresher:  refresher,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// Do runs the pipeline for one request. On a 401 first attempt it
// refreshes the identity token, persists it, and resends the call once;
// the resend's outcome, whatever it is, becomes the outcome of the
// original call. Every other failure is returned unchanged.
//
// Concurrent 401s are not coalesced: each in-flight request carries its
// own one-shot refresh allowance. Redundant refreshes are harmless
// because any successfully minted token is usable.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	err := c.roundTrip(ctx, req, out)
	if err == nil {
		return nil
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) || !apiErr.AuthExpired() {
		return err
	}
	if req.Attempt >= 1 {
		// The one refresh allowance is spent; terminate here.
		return err
	}

	refreshToken, credErr := c.creds.Get(ctx, credentials.RefreshToken)
	if credErr != nil || refreshToken == "" {
		if credErr == nil {
			credErr = interrors.ErrNoRefreshToken
		}
		c.log.Debug().Err(credErr).Msg("no refresh token available for retry")
		return err
	}

	fresh, refreshErr := c.refresher.Refresh(ctx, refreshToken)
	if refreshErr != nil {
		// The refresh failure itself is not surfaced; the caller sees
		// the original 401.
		c.recorder.Refresh(metrics.RefreshFailed)
		c.log.Warn().Err(refreshErr).Msg("token refresh failed")
		return err
	}

	if setErr := c.creds.Set(ctx, credentials.IdentityToken, fresh); setErr != nil {
		c.recorder.Refresh(metrics.RefreshFailed)
		c.log.Error().Err(setErr).Msg("failed to persist refreshed identity token")
		return err
	}
	c.recorder.Refresh(metrics.RefreshSucceeded)
	c.log.Debug().Str("method", req.Method).Msg("identity token refreshed, resending request")

	return c.roundTrip(ctx, req.retry(), out)
}

func (c *Client) roundTrip(ctx context.Context, req Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "[Client.roundTrip] rate limiter")
		}
	}

	target, err := c.resolveURL(req)
	if err != nil {
		return err
	}

	var bodyReader io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return errors.Wrap(err, "[Client.roundTrip] marshal body")
		}
		bodyReader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return errors.Wrap(err, "[Client.roundTrip] build request")
	}
	for k, vs := range req.Header {
		httpReq.Header[k] = append([]string(nil), vs...)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(requestIDHeader, uuid.New().String())

	// Attach the most recently stored identity token. Reading the store
	// here, on every attempt, is what makes the post-refresh resend pick
	// up the new token.
	token, err := c.creds.Get(ctx, credentials.IdentityToken)
	if err != nil {
		return errors.Wrap(err, "[Client.roundTrip] read identity token")
	}
	if token != "" {
		httpReq.Header.Set(authorizationHeader, token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.recorder.Request(req.Method, 0, time.Since(start))
		return errors.Wrap(err, "[Client.roundTrip] send")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.recorder.Request(req.Method, resp.StatusCode, time.Since(start))
	if err != nil {
		return errors.Wrap(err, "[Client.roundTrip] read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrap(err, "[Client.roundTrip] decode response")
	}
	return nil
}

func (c *Client) resolveURL(req Request) (string, error) {
	raw := req.URL
	if raw == "" {
		raw = c.base + "/" + strings.TrimLeft(req.Path, "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrapf(err, "[Client.resolveURL] parse %q", raw)
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
