// ABOUTME: Prometheus counters for role-mutation decisions.
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/doron007/realtechee-auth/internal/authz"
)

var mutationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "realtechee_auth_role_mutation_decisions_total",
		Help: "Role-mutation policy decisions by outcome.",
	},
	[]string{"allowed"},
)

func observeMutationDecision(d authz.Decision) {
	if d.Allowed {
		mutationDecisionsTotal.WithLabelValues("true").Inc()
	} else {
		mutationDecisionsTotal.WithLabelValues("false").Inc()
	}
}
