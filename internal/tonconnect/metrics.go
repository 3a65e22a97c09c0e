package tonconnect

import (
	"errors"

	"ton_mining_miniapp/pkg/ton"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transfersSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "miniapp",
		Subsystem: "tonconnect",
		Name:      "transfers_signed_total",
		Help:      "Transfers signed by the user's wallet.",
	})

	transfersFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "miniapp",
		Subsystem: "tonconnect",
		Name:      "transfers_failed_total",
		Help:      "Transfers that were rejected before or during signing.",
	}, []string{"reason"})
)

func reason(err error) string {
	switch {
	case errors.Is(err, ton.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ton.ErrBelowMinimum):
		return "below_minimum"
	case errors.Is(err, ton.ErrAboveMaximum):
		return "above_maximum"
	case errors.Is(err, ton.ErrCancelled):
		return "cancelled"
	case errors.Is(err, ton.ErrConversionMismatch):
		return "conversion_mismatch"
	case errors.Is(err, ton.ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, ErrWalletNotConnected):
		return "not_connected"
	default:
		return "other"
	}
}
