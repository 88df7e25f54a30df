// Package apiclient is a typed client for the business/review HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"bizreviews/internal/adapters/observability"
	"bizreviews/internal/domain"
)

type Client struct {
	base    string
	hc      *http.Client
	rl      *rate.Limiter
	retries uint64
}

func New(base string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("API base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: 20 * time.Second},
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
		retries: 3,
	}, nil
}

type businessBody struct {
	ID            int64  `json:"id"`
	OwnerID       int64  `json:"owner_id"`
	Name          string `json:"name"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
}

func (b businessBody) toDomain() domain.Business {
	return domain.Business{
		ID:            b.ID,
		OwnerID:       b.OwnerID,
		Name:          b.Name,
		StreetAddress: b.StreetAddress,
		City:          b.City,
		State:         b.State,
		ZipCode:       b.ZipCode,
	}
}

type reviewBody struct {
	ID         int64   `json:"id"`
	UserID     int64   `json:"user_id"`
	BusinessID int64   `json:"business_id"`
	Stars      float64 `json:"stars"`
	ReviewText *string `json:"review_text"`
}

type errorBody struct {
	Error string `json:"Error"`
}

// ---- Public API ----

func (c *Client) CreateBusiness(ctx context.Context, in domain.BusinessInput) (domain.Business, error) {
	var out businessBody
	if err := c.do(ctx, http.MethodPost, "/businesses", "businesses", in, &out); err != nil {
		return domain.Business{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) ListOwnerBusinesses(ctx context.Context, ownerID int64) ([]domain.Business, error) {
	var out []businessBody
	path := fmt.Sprintf("/owners/%d/businesses", ownerID)
	if err := c.do(ctx, http.MethodGet, path, "owner_businesses", nil, &out); err != nil {
		return nil, err
	}
	bs := make([]domain.Business, 0, len(out))
	for _, b := range out {
		bs = append(bs, b.toDomain())
	}
	return bs, nil
}

func (c *Client) CreateReview(ctx context.Context, in domain.ReviewInput) (domain.Review, error) {
	var out reviewBody
	if err := c.do(ctx, http.MethodPost, "/reviews", "reviews", in, &out); err != nil {
		return domain.Review{}, err
	}
	return domain.Review{
		ID:         out.ID,
		UserID:     out.UserID,
		BusinessID: out.BusinessID,
		Stars:      out.Stars,
		ReviewText: out.ReviewText,
	}, nil
}

// ---- Internals ----

// retryable marks responses worth another attempt (throttling, overload).
type retryable struct{ status int }

func (e retryable) Error() string { return fmt.Sprintf("remote %d", e.status) }

// do sends one JSON request with client-side rate limiting, retrying 429 and
// gateway/unavailable answers with exponential backoff.
func (c *Client) do(ctx context.Context, method, path, endpoint string, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		payload = b
	}

	op := func() error {
		if err := c.rl.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
		if err != nil {
			return backoff.Permanent(err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "bizreviews-seeder/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("api", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err // network error: retry
		}
		defer resp.Body.Close()
		observability.ObserveExternal("api", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return backoff.Permanent(err)
			}
			return nil
		case http.StatusTooManyRequests, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			_, _ = io.Copy(io.Discard, resp.Body)
			return retryable{status: resp.StatusCode}
		default:
			return backoff.Permanent(statusErr(resp))
		}
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 200 * time.Millisecond
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(eb, c.retries), ctx))
}

// statusErr maps API error statuses back onto domain errors.
func statusErr(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var eb errorBody
	msg := strings.TrimSpace(string(b))
	if json.Unmarshal(b, &eb) == nil && eb.Error != "" {
		msg = eb.Error
	}
	var kind error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		kind = domain.ErrMissingField
	case http.StatusNotFound:
		kind = domain.ErrNotFound
	case http.StatusConflict:
		kind = domain.ErrConflict
	default:
		return fmt.Errorf("bad status %d: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("%w: %s", kind, msg)
}

// IsRetryable reports whether err came from a throttled or unavailable API.
func IsRetryable(err error) bool {
	var r retryable
	return errors.As(err, &r)
}
