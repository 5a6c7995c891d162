package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 轉帳結果標籤
const (
	StatusSuccess           = "success"
	StatusNegativeAmount    = "negative_amount"
	StatusAccountNotFound   = "account_not_found"
	StatusInsufficientFunds = "insufficient_funds"
	StatusRejected          = "rejected"
	StatusFailed            = "failed"
)

var (
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transfers_total",
			Help: "Total number of transfer attempts by outcome",
		},
		[]string{"status"},
	)

	TransferDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_transfer_duration_seconds",
			Help:    "Time spent inside the transfer coordinator, lock wait included",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_notifications_total",
			Help: "Post-transfer notifications by outcome",
		},
		[]string{"status"}, // sent, failed
	)

	AccountsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_accounts_created_total",
			Help: "Total number of accounts created",
		},
	)

	SchedulerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_scheduler_queue_depth",
			Help: "Transfers waiting in the scheduler queue",
		},
	)

	SchedulerRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_scheduler_rejected_total",
			Help: "Transfers rejected because the scheduler was saturated",
		},
	)

	SchedulerPanicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_scheduler_panics_total",
			Help: "Panics recovered inside scheduler workers",
		},
		[]string{"operation"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// SchedulerObserver 把 workerpool 事件轉成 Prometheus 指標
type SchedulerObserver struct{}

func (SchedulerObserver) QueueDepth(depth int) { SchedulerQueueDepth.Set(float64(depth)) }
func (SchedulerObserver) Rejected()            { SchedulerRejectedTotal.Inc() }
func (SchedulerObserver) Panicked(operation string) {
	SchedulerPanicsTotal.WithLabelValues(operation).Inc()
}

// LedgerSnapshot 回傳帳戶數與總餘額
type LedgerSnapshot func() (accounts int, total float64)

// RegisterLedgerGauges 註冊在抓取時才計算的帳戶數與總餘額 gauge
func RegisterLedgerGauges(reg prometheus.Registerer, snapshot LedgerSnapshot) error {
	accounts := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ledger_accounts",
			Help: "Number of accounts in the store",
		},
		func() float64 {
			n, _ := snapshot()
			return float64(n)
		},
	)
	total := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ledger_total_balance",
			Help: "Sum of all account balances",
		},
		func() float64 {
			_, sum := snapshot()
			return sum
		},
	)
	if err := reg.Register(accounts); err != nil {
		return err
	}
	return reg.Register(total)
}
