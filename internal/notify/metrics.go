package notify

import "github.com/prometheus/client_golang/prometheus"

// notifications counts dispatch attempts per message kind
// (operator, applicant, contact) and outcome (delivered, failed, logged).
var notifications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Total number of notification e-mails attempted.",
	},
	[]string{"kind", "outcome"},
)

func init() {
	prometheus.MustRegister(notifications)
}
