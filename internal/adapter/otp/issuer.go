package otp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
)

// Issuer delegates the delivery and the verification of one time passwords
// to a remote account server.
type Issuer struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Issue implements port.OTPIssuer.
func (i *Issuer) Issue(ctx context.Context, email string, ip string) error {
	payload, err := i.post(ctx, "/account/otp/issue", url.Values{
		"email": []string{email},
		"ip":    []string{ip},
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if rawErr, exists := payload["error"]; exists {
		return errors.Errorf("otp server refused to issue a password: %v", rawErr)
	}

	return nil
}

// Redeem implements port.OTPIssuer.
func (i *Issuer) Redeem(ctx context.Context, email string, ip string, otp string) (bool, error) {
	payload, err := i.post(ctx, "/account/otp/redeem", url.Values{
		"email": []string{email},
		"ip":    []string{ip},
		"otp":   []string{otp},
	})
	if err != nil {
		return false, errors.WithStack(err)
	}

	_, success := payload["success"]

	return success, nil
}

func (i *Issuer) post(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	endpoint := i.baseURL.JoinPath(path)
	endpoint.RawQuery = params.Encode()

	slog.DebugContext(ctx, "calling otp server", slog.String("path", endpoint.Path))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	req.Header.Set("Accept", "application/json")

	res, err := i.httpClient.Do(req)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	defer res.Body.Close()

	if res.StatusCode >= http.StatusInternalServerError {
		return nil, errors.Errorf("unexpected response code %d (%s)", res.StatusCode, res.Status)
	}

	payload := map[string]any{}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "could not decode otp server response")
	}

	return payload, nil
}

func NewIssuer(baseURL *url.URL, timeout time.Duration) *Issuer {
	return &Issuer{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

var _ port.OTPIssuer = &Issuer{}
