package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketIssuanceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boxoffice",
			Name:      "ticket_issuance_total",
			Help:      "Ticket issuance requests by outcome.",
		},
		[]string{"outcome"},
	)

	ticketValidationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boxoffice",
			Name:      "ticket_validation_total",
			Help:      "Ticket validations by outcome and reason.",
		},
		[]string{"outcome", "reason"},
	)

	ticketRedemptionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boxoffice",
			Name:      "ticket_redemption_total",
			Help:      "Ticket redemption requests by outcome.",
		},
		[]string{"outcome"},
	)
)

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	_, code := statusAndCode(err)
	return code
}
