package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameOTPRequests  = "otp_requests"
	NameIssuedTokens = "issued_tokens"
	LabelKind        = "kind"
	LabelGrant       = "grant"
)

var OTPRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameOTPRequests,
		Help:      "One time password requests by kind and outcome",
		Namespace: Namespace,
	},
	[]string{LabelKind, LabelOutcome},
)

var IssuedTokens = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameIssuedTokens,
		Help:      "OAuth tokens issued by grant type",
		Namespace: Namespace,
	},
	[]string{LabelGrant},
)
