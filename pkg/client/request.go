package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/pkg/errors"
)

const apiPrefix = "/v1/api"

func (c *Client) request(ctx context.Context, method string, path string, header http.Header, body io.Reader, result io.Writer) error {
	url, err := url.Parse(path)
	if err != nil {
		return errors.WithStack(err)
	}

	url.Scheme = c.baseURL.Scheme
	url.Host = c.baseURL.Host
	url.Path = c.baseURL.JoinPath(apiPrefix, url.Path).Path

	slog.DebugContext(ctx, "new client request",
		slog.String("method", method),
		slog.String("path", url.Path),
		slog.String("host", url.Host),
	)

	req, err := http.NewRequestWithContext(ctx, method, url.String(), body)
	if err != nil {
		return errors.WithStack(err)
	}

	for k, v := range header {
		req.Header[k] = v
	}

	if c.accessKey != "" {
		req.SetBasicAuth(c.accessKey, c.secretKey)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}

	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusBadRequest {
		return errors.WithStack(decodeError(res))
	}

	if result == nil {
		result = io.Discard
	}

	if _, err := io.Copy(result, res.Body); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func decodeError(res *http.Response) *Error {
	clientErr := &Error{
		StatusCode: res.StatusCode,
		Code:       http.StatusText(res.StatusCode),
	}

	var errRes common.ErrorResponse
	if err := json.NewDecoder(res.Body).Decode(&errRes); err == nil && errRes.Error != "" {
		clientErr.Code = errRes.Error
		clientErr.Reasons = errRes.Reasons
	}

	return clientErr
}

func (c *Client) jsonRequest(ctx context.Context, method string, path string, header http.Header, body io.Reader, result any) error {
	var buff bytes.Buffer

	if err := c.request(ctx, method, path, header, body, &buff); err != nil {
		return errors.WithStack(err)
	}

	if err := json.Unmarshal(buff.Bytes(), result); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
