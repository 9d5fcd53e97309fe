package client

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// RateLimitTransport retries the requests rejected with a 429 status, waiting
// for the delay advertised by the server.
type RateLimitTransport struct {
	Base        http.RoundTripper
	MaxRetries  int
	DefaultWait time.Duration
	MaxWait     time.Duration
}

// RoundTrip implements [http.RoundTripper].
func (t *RateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	transport := t.Base
	if transport == nil {
		transport = http.DefaultTransport
	}

	for attempt := 0; ; attempt++ {
		res, err := transport.RoundTrip(req)
		if err != nil {
			return nil, err
		}

		if res.StatusCode != http.StatusTooManyRequests || attempt >= t.MaxRetries {
			return res, nil
		}

		if req.Body != nil && req.GetBody == nil {
			return res, nil
		}

		wait := t.waitTime(res)

		io.Copy(io.Discard, res.Body)
		res.Body.Close()

		slog.WarnContext(req.Context(), "rate limited, retrying", slog.Duration("wait", wait), slog.Int("attempt", attempt+1), slog.Int("maxRetries", t.MaxRetries))

		timer := time.NewTimer(wait)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, errors.Wrap(err, "could not rewind request body")
			}
			req.Body = body
		}
	}
}

func (t *RateLimitTransport) waitTime(res *http.Response) time.Duration {
	wait := t.DefaultWait

	if retryAfter := res.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			wait = time.Duration(seconds) * time.Second
			wait += time.Duration(rand.Float64() * float64(wait) / 2)
		} else if date, err := http.ParseTime(retryAfter); err == nil {
			wait = time.Until(date)
		}
	}

	if wait <= 0 {
		wait = t.DefaultWait
	}

	if t.MaxWait > 0 && wait > t.MaxWait {
		wait = t.MaxWait
	}

	return wait
}
