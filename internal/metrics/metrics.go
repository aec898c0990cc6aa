package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 捐赠生命周期指标，方法对 nil 接收者安全
type Metrics struct {
	gatherer prometheus.Gatherer

	DonationsCreated    prometheus.Counter
	StatusTransitions   *prometheus.CounterVec
	TransitionRejected  *prometheus.CounterVec
	OtpIssued           prometheus.Counter
	OtpVerifications    *prometheus.CounterVec
	ReceiptCollisions   prometheus.Counter
	TransitionLatency   prometheus.Histogram
	NotificationFailure *prometheus.CounterVec
}

// New 在指定注册表上创建指标，reg 为 nil 时使用独立注册表
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		DonationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "donatehub_donations_created_total",
			Help: "Donations submitted",
		}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "donatehub_status_transitions_total",
			Help: "Committed lifecycle transitions by source and target status",
		}, []string{"from", "to"}),
		TransitionRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "donatehub_transition_rejected_total",
			Help: "Rejected lifecycle transitions by reason",
		}, []string{"reason"}),
		OtpIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "donatehub_otp_issued_total",
			Help: "Pickup OTP challenges issued",
		}),
		OtpVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "donatehub_otp_verifications_total",
			Help: "Pickup OTP verification outcomes",
		}, []string{"outcome"}),
		ReceiptCollisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "donatehub_receipt_collisions_total",
			Help: "Receipt number uniqueness collisions retried",
		}),
		TransitionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "donatehub_transition_duration_seconds",
			Help:    "Duration of the locked transition unit of work",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		NotificationFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "donatehub_notification_failures_total",
			Help: "Best-effort notification failures by kind",
		}, []string{"kind"}),
	}
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// IncCreated 记录新建捐赠
func (m *Metrics) IncCreated() {
	if m != nil {
		m.DonationsCreated.Inc()
	}
}

// IncTransition 记录成功的状态流转
func (m *Metrics) IncTransition(from, to string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(from, to).Inc()
	}
}

// IncRejected 记录被拒绝的状态流转
func (m *Metrics) IncRejected(reason string) {
	if m != nil {
		m.TransitionRejected.WithLabelValues(reason).Inc()
	}
}

// IncOtpIssued 记录验证码签发
func (m *Metrics) IncOtpIssued() {
	if m != nil {
		m.OtpIssued.Inc()
	}
}

// IncOtpVerification 记录验证结果（ok/mismatch/expired/missing/locked）
func (m *Metrics) IncOtpVerification(outcome string) {
	if m != nil {
		m.OtpVerifications.WithLabelValues(outcome).Inc()
	}
}

// IncReceiptCollision 记录收据编号冲突
func (m *Metrics) IncReceiptCollision() {
	if m != nil {
		m.ReceiptCollisions.Inc()
	}
}

// ObserveTransition 记录流转事务耗时
func (m *Metrics) ObserveTransition(d time.Duration) {
	if m != nil {
		m.TransitionLatency.Observe(d.Seconds())
	}
}

// IncNotificationFailure 记录通知投递失败
func (m *Metrics) IncNotificationFailure(kind string) {
	if m != nil {
		m.NotificationFailure.WithLabelValues(kind).Inc()
	}
}
