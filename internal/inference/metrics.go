// ABOUTME: Prometheus counters for classification outcomes.
// ABOUTME: Exposed through the server's /metrics endpoint.
package inference

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var classificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "realtechee_auth_classifications_total",
		Help: "Role classifications by winning rule and confidence.",
	},
	[]string{"rule", "role", "confidence"},
)

func observeClassification(rule string, rec Recommendation) {
	classificationsTotal.WithLabelValues(rule, rec.Role.String(), string(rec.Confidence)).Inc()
}
