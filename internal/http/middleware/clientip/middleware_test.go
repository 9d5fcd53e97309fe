package clientip

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolve(t *testing.T) {
	type testCase struct {
		Name         string
		RemoteAddr   string
		Headers      map[string]string
		TrustHeaders bool
		Expected     string
	}

	testCases := []testCase{
		{Name: "RemoteAddr", RemoteAddr: "10.0.0.1:1234", Expected: "10.0.0.1"},
		{
			Name:         "ForwardedFor",
			RemoteAddr:   "10.0.0.1:1234",
			Headers:      map[string]string{"X-Forwarded-For": "192.0.2.1, 10.0.0.1", "X-Real-Ip": "192.0.2.9"},
			TrustHeaders: true,
			Expected:     "192.0.2.1",
		},
		{
			Name:         "RealIP",
			RemoteAddr:   "10.0.0.1:1234",
			Headers:      map[string]string{"X-Real-Ip": "192.0.2.9"},
			TrustHeaders: true,
			Expected:     "192.0.2.9",
		},
		{
			Name:       "UntrustedHeaders",
			RemoteAddr: "10.0.0.1:1234",
			Headers:    map[string]string{"X-Forwarded-For": "192.0.2.1"},
			Expected:   "10.0.0.1",
		},
		{Name: "NoPort", RemoteAddr: "10.0.0.1", Expected: "10.0.0.1"},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.RemoteAddr
			for k, v := range tc.Headers {
				req.Header.Set(k, v)
			}

			if e, g := tc.Expected, Resolve(req, tc.TrustHeaders); e != g {
				t.Errorf("Resolve(): expected '%s', got '%s'", e, g)
			}
		})
	}
}
