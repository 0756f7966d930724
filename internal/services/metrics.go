package services

import "github.com/prometheus/client_golang/prometheus"

// submissions counts accepted submissions by kind (application, contact)
// and category. Contacts use the category "none".
var submissions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "submissions_total",
		Help: "Total number of accepted form submissions.",
	},
	[]string{"kind", "category"},
)

func init() {
	prometheus.MustRegister(submissions)
}
