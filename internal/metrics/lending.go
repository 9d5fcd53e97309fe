package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameBorrows      = "borrows"
	NameReturns      = "returns"
	NameExpiredLoans = "expired_loans"
	NameUploads      = "uploads"
	NameUploadedSize = "uploaded_bytes"
)

var Borrows = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameBorrows,
		Help:      "Borrow requests by outcome",
		Namespace: Namespace,
	},
	[]string{LabelOutcome},
)

var Returns = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameReturns,
		Help:      "Returned loans",
		Namespace: Namespace,
	},
)

var ExpiredLoans = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameExpiredLoans,
		Help:      "Loans closed by expiration",
		Namespace: Namespace,
	},
)

var Uploads = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameUploads,
		Help:      "Librarian uploads by outcome",
		Namespace: Namespace,
	},
	[]string{LabelOutcome},
)

var UploadedSize = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameUploadedSize,
		Help:      "Total size of the uploaded files",
		Namespace: Namespace,
	},
)
