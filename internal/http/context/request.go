package context

import (
	"context"
	"net/url"
)

const (
	keyBaseURL  contextKey = "baseURL"
	keyClientIP contextKey = "clientIP"
)

func BaseURL(ctx context.Context) *url.URL {
	baseURL, ok := ctx.Value(keyBaseURL).(*url.URL)
	if !ok {
		return &url.URL{Path: "/"}
	}

	return baseURL
}

func SetBaseURL(ctx context.Context, baseURL *url.URL) context.Context {
	return context.WithValue(ctx, keyBaseURL, baseURL)
}

// ClientIP returns the address of the client which issued the request.
func ClientIP(ctx context.Context) string {
	ip, ok := ctx.Value(keyClientIP).(string)
	if !ok {
		return ""
	}

	return ip
}

func SetClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, keyClientIP, ip)
}
