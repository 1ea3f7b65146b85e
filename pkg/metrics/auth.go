package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AuthMetrics counts authentication events.
type AuthMetrics struct {
	logins        *prometheus.CounterVec
	registrations *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
	mail          *prometheus.CounterVec
}

// NewAuthMetrics registers the auth counters on reg. A nil registerer yields a no-op recorder.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	factory := promauto.With(reg)
	return &AuthMetrics{
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Completed registrations by user type.",
		}, []string{"user_type"}),
		rateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_rate_limited_total",
			Help: "Requests rejected by the auth rate limiter.",
		}, []string{"scope"}),
		mail: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_messages_total",
			Help: "Outgoing mail by kind and result.",
		}, []string{"kind", "result"}),
	}
}

// IncLogin counts a login outcome ("success" or a failure reason).
func (a *AuthMetrics) IncLogin(result string) {
	if a == nil || a.logins == nil {
		return
	}
	a.logins.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncRegistration counts a committed registration.
func (a *AuthMetrics) IncRegistration(userType string) {
	if a == nil || a.registrations == nil {
		return
	}
	a.registrations.WithLabelValues(normalizeLabel(userType)).Inc()
}

// IncRateLimited counts a limiter rejection.
func (a *AuthMetrics) IncRateLimited(scope string) {
	if a == nil || a.rateLimited == nil {
		return
	}
	a.rateLimited.WithLabelValues(normalizeLabel(scope)).Inc()
}

// IncMail counts an outgoing message attempt.
func (a *AuthMetrics) IncMail(kind string, ok bool) {
	if a == nil || a.mail == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	a.mail.WithLabelValues(normalizeLabel(kind), result).Inc()
}
