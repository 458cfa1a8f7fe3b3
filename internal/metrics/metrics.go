package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the metrics surface the rest of the application records
// against. The prometheus implementation and the noop implementation both
// satisfy it, so callers never branch on whether metrics are enabled.
type Recorder interface {
	RecordLoginURLIssued(mode string)
	RecordCallback(mode, result string)
	RecordTempTokenExchange(result string)
	RecordUnbind(success bool)
	RecordWebhook(valid bool, events int)
	RecordTokenIssued(tokenType string)
	RecordLineMessage(direction string, success bool)
	SetLinkCounts(active, unbound int64)
}

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// LINE login flow
	LoginURLsIssuedTotal   *prometheus.CounterVec
	CallbacksTotal         *prometheus.CounterVec
	TempTokenExchangeTotal *prometheus.CounterVec
	UnbindTotal            *prometheus.CounterVec

	// Webhook
	WebhookDeliveriesTotal *prometheus.CounterVec
	WebhookEventsTotal     prometheus.Counter

	// Sessions and messaging
	TokensIssuedTotal *prometheus.CounterVec
	LineMessagesTotal *prometheus.CounterVec

	// Link rows
	LinksActive  prometheus.Gauge
	LinksUnbound prometheus.Gauge

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init returns the metrics recorder for the process. Disabled metrics get a
// zero-overhead noop recorder. Prometheus metrics register exactly once.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}
	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

func initMetrics() *Metrics {
	return &Metrics{
		LoginURLsIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "line_login_urls_issued_total",
				Help: "Total number of authorization URLs issued",
			},
			[]string{"mode"}, // login, binding
		),
		CallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "line_login_callbacks_total",
				Help: "Total number of provider callbacks handled",
			},
			[]string{"mode", "result"}, // result: success or an error code
		),
		TempTokenExchangeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "line_temp_token_exchanges_total",
				Help: "Total number of temp token exchange attempts",
			},
			[]string{"result"}, // success, invalid, missing
		),
		UnbindTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "line_unbind_total",
				Help: "Total number of unbind attempts",
			},
			[]string{"result"},
		),
		WebhookDeliveriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "line_webhook_deliveries_total",
				Help: "Total number of webhook deliveries received",
			},
			[]string{"signature"}, // valid, invalid
		),
		WebhookEventsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "line_webhook_events_total",
				Help: "Total number of webhook events processed",
			},
		),
		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_tokens_issued_total",
				Help: "Total number of session tokens issued",
			},
			[]string{"type"}, // access, refresh
		),
		LineMessagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "line_messages_total",
				Help: "Total number of LINE messages recorded",
			},
			[]string{"direction", "result"}, // inbound/outbound, success/failure
		),
		LinksActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "line_links_active",
				Help: "Number of active bound LINE account links",
			},
		),
		LinksUnbound: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "line_links_unbound",
				Help: "Number of active unbound placeholder links",
			},
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being served",
			},
		),
	}
}

// RecordLoginURLIssued records an authorization URL issuance.
func (m *Metrics) RecordLoginURLIssued(mode string) {
	m.LoginURLsIssuedTotal.WithLabelValues(mode).Inc()
}

// RecordCallback records a handled provider callback.
func (m *Metrics) RecordCallback(mode, result string) {
	m.CallbacksTotal.WithLabelValues(mode, result).Inc()
}

// RecordTempTokenExchange records a temp token exchange attempt.
func (m *Metrics) RecordTempTokenExchange(result string) {
	m.TempTokenExchangeTotal.WithLabelValues(result).Inc()
}

// RecordUnbind records an unbind attempt.
func (m *Metrics) RecordUnbind(success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.UnbindTotal.WithLabelValues(result).Inc()
}

// RecordWebhook records a webhook delivery and its event count.
func (m *Metrics) RecordWebhook(valid bool, events int) {
	signature := "valid"
	if !valid {
		signature = "invalid"
	}
	m.WebhookDeliveriesTotal.WithLabelValues(signature).Inc()
	m.WebhookEventsTotal.Add(float64(events))
}

// RecordTokenIssued records an issued session token.
func (m *Metrics) RecordTokenIssued(tokenType string) {
	m.TokensIssuedTotal.WithLabelValues(tokenType).Inc()
}

// RecordLineMessage records a stored LINE message.
func (m *Metrics) RecordLineMessage(direction string, success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.LineMessagesTotal.WithLabelValues(direction, result).Inc()
}

// SetLinkCounts updates the link-row gauges.
func (m *Metrics) SetLinkCounts(active, unbound int64) {
	m.LinksActive.Set(float64(active))
	m.LinksUnbound.Set(float64(unbound))
}
