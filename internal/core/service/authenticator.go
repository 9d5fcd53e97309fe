package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/archivelabs/lenny/internal/metrics"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type AuthenticatorOptions struct {
	SendLimit      int
	SendWindow     time.Duration
	AttemptLimit   int
	AttemptWindow  time.Duration
	LimiterEntries int
}

type AuthenticatorOptionFunc func(opts *AuthenticatorOptions)

func WithSendLimit(limit int, window time.Duration) AuthenticatorOptionFunc {
	return func(opts *AuthenticatorOptions) {
		opts.SendLimit = limit
		opts.SendWindow = window
	}
}

func WithAttemptLimit(limit int, window time.Duration) AuthenticatorOptionFunc {
	return func(opts *AuthenticatorOptions) {
		opts.AttemptLimit = limit
		opts.AttemptWindow = window
	}
}

func NewAuthenticatorOptions(funcs ...AuthenticatorOptionFunc) *AuthenticatorOptions {
	opts := &AuthenticatorOptions{
		SendLimit:      5,
		SendWindow:     5 * time.Minute,
		AttemptLimit:   5,
		AttemptWindow:  time.Minute,
		LimiterEntries: 10000,
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

// Authenticator authenticates patrons with one time passwords sent to their
// email address.
type Authenticator struct {
	issuer   port.OTPIssuer
	sends    *limiter
	attempts *limiter
}

func (a *Authenticator) Issue(ctx context.Context, email string, ip string) error {
	email = model.NormalizeEmail(email)

	if !a.sends.Allow(email) {
		otpRequest("issue", "rate_limited")
		return errors.WithStack(ErrRateLimited)
	}

	if err := a.issuer.Issue(ctx, email, ip); err != nil {
		otpRequest("issue", "error")
		return errors.WithStack(err)
	}

	otpRequest("issue", "success")

	return nil
}

// Authenticate redeems the one time password and returns the normalized
// email of the authenticated patron.
func (a *Authenticator) Authenticate(ctx context.Context, email string, otp string, ip string) (string, error) {
	email = model.NormalizeEmail(email)

	if !a.attempts.Allow(email) {
		otpRequest("redeem", "rate_limited")
		return "", errors.WithStack(ErrRateLimited)
	}

	redeemed, err := a.issuer.Redeem(ctx, email, ip, otp)
	if err != nil {
		otpRequest("redeem", "error")
		return "", errors.WithStack(err)
	}

	if !redeemed {
		otpRequest("redeem", "invalid")
		slog.InfoContext(ctx, "invalid one time password")
		return "", errors.WithStack(ErrInvalidOTP)
	}

	otpRequest("redeem", "success")

	return email, nil
}

func otpRequest(kind string, outcome string) {
	metrics.OTPRequests.With(prometheus.Labels{
		metrics.LabelKind:    kind,
		metrics.LabelOutcome: outcome,
	}).Inc()
}

func NewAuthenticator(issuer port.OTPIssuer, funcs ...AuthenticatorOptionFunc) *Authenticator {
	opts := NewAuthenticatorOptions(funcs...)

	return &Authenticator{
		issuer:   issuer,
		sends:    newLimiter(opts.SendLimit, opts.SendWindow, opts.LimiterEntries),
		attempts: newLimiter(opts.AttemptLimit, opts.AttemptWindow, opts.LimiterEntries),
	}
}

// limiter records the calls made for each key and denies a call once limit
// calls were recorded during the last window. Denied calls are recorded too.
type limiter struct {
	mutex  sync.Mutex
	cache  *expirable.LRU[string, []time.Time]
	limit  int
	window time.Duration
	now    func() time.Time
}

func (l *limiter) Allow(key string) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()

	calls, _ := l.cache.Get(key)

	recent := make([]time.Time, 0, len(calls)+1)
	for _, c := range calls {
		if now.Sub(c) < l.window {
			recent = append(recent, c)
		}
	}

	allowed := len(recent) < l.limit

	l.cache.Add(key, append(recent, now))

	return allowed
}

func newLimiter(limit int, window time.Duration, size int) *limiter {
	return &limiter{
		cache:  expirable.NewLRU[string, []time.Time](size, nil, window),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}
