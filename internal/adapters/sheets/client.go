// internal/adapters/sheets/client.go
package sheets

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
	"golang.org/x/time/rate"

	"playgroup_finder/internal/adapters/observability"
	"playgroup_finder/internal/domain"
)

const (
	DefaultBaseURL  = "https://sheets.googleapis.com/v4"
	DefaultTokenURL = "https://oauth2.googleapis.com/token"
	ReadOnlyScope   = "https://www.googleapis.com/auth/spreadsheets.readonly"
)

type Options struct {
	BaseURL string
	SheetID string
	Range   string // read by FetchRows, e.g. "MainSheet!A:AL"

	// Service account credentials take precedence over APIKey.
	ClientEmail string
	PrivateKey  string
	TokenURL    string
	APIKey      string

	RPS     int
	Timeout time.Duration
}

type Client struct {
	base    string
	sheetID string
	rng     string
	key     string
	hc      *http.Client
	rl      *rate.Limiter
}

func New(o Options) (*Client, error) {
	if o.SheetID == "" {
		return nil, fmt.Errorf("sheet ID is required")
	}
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.RPS <= 0 {
		o.RPS = 5
	}
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}

	var transport http.RoundTripper = http.DefaultTransport
	switch {
	case o.ClientEmail != "" && o.PrivateKey != "":
		tokenURL := o.TokenURL
		if tokenURL == "" {
			tokenURL = DefaultTokenURL
		}
		conf := &jwt.Config{
			Email:      o.ClientEmail,
			PrivateKey: []byte(o.PrivateKey),
			Scopes:     []string{ReadOnlyScope},
			TokenURL:   tokenURL,
		}
		transport = &oauth2.Transport{Source: conf.TokenSource(context.Background()), Base: http.DefaultTransport}
		o.APIKey = ""
	case o.APIKey != "":
	default:
		return nil, fmt.Errorf("service account or API key is required")
	}

	return &Client{
		base:    strings.TrimRight(o.BaseURL, "/"),
		sheetID: o.SheetID,
		rng:     o.Range,
		key:     o.APIKey,
		hc:      &http.Client{Timeout: o.Timeout, Transport: transport},
		rl:      rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
	}, nil
}

// ---- Public API ----

// FetchRows reads the configured range.
func (c *Client) FetchRows(ctx context.Context) (domain.Table, error) {
	if c.rng == "" {
		return nil, fmt.Errorf("sheets: no range configured")
	}
	return c.FetchRange(ctx, c.rng)
}

// FetchRange reads one A1 range as formatted cell text, header row first.
func (c *Client) FetchRange(ctx context.Context, rng string) (domain.Table, error) {
	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s", c.base, url.PathEscape(c.sheetID), url.PathEscape(rng))
	if c.key != "" {
		u += "?key=" + url.QueryEscape(c.key)
	}
	var out valueRange
	if err := c.get(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("fetch range %q: %w", rng, err)
	}
	return out.table(), nil
}

type valueRange struct {
	Range          string  `json:"range"`
	MajorDimension string  `json:"majorDimension"`
	Values         [][]any `json:"values"`
}

func (v valueRange) table() domain.Table {
	t := make(domain.Table, len(v.Values))
	for i, row := range v.Values {
		t[i] = make([]string, len(row))
		for j, cell := range row {
			t[i][j] = cellText(cell)
		}
	}
	return t
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strings.ToUpper(strconv.FormatBool(x))
	default:
		return fmt.Sprint(x)
	}
}

// ---- Internals ----

var (
	ErrNotFound     = fmt.Errorf("sheets: %w", domain.ErrNotFound)
	ErrUnauthorized = fmt.Errorf("sheets: %w", domain.ErrUnauthorized)
	ErrForbidden    = fmt.Errorf("sheets: %w", domain.ErrForbidden)
)

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, u string, out any) error {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "playgroup-finder/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("sheets", "values.get", 0, time.Since(start))
			// network error or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrUpstream, err)
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("sheets", "values.get", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode values: %w", err)
			}
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%w: remote %d", domain.ErrUpstream, resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	if lastErr == nil {
		lastErr = errors.New("sheets: retries exhausted")
	}
	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
