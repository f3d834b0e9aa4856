package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mailstore-bot/internal/domain"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot updates handled labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	purchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Total number of completed purchases labeled by service",
		},
		[]string{"service"},
	)
	purchasedItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchased_items_total",
			Help: "Total number of credentials sold labeled by service",
		},
		[]string{"service"},
	)
	revenueMinorTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "revenue_minor_units_total",
			Help: "Total revenue from purchases in minor currency units",
		},
	)
	depositsSettledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deposits_settled_total",
			Help: "Total number of settled deposits labeled by decision",
		},
		[]string{"decision"},
	)
	broadcastDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_deliveries_total",
			Help: "Total number of broadcast delivery attempts labeled by outcome",
		},
		[]string{"status"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	usersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "users_total",
			Help: "Total number of registered users",
		},
	)
	usersOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "users_online",
			Help: "Number of users active within the last 5 minutes",
		},
	)
)

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordPurchase tracks a completed purchase of quantity credentials.
func RecordPurchase(service string, quantity int, totalPrice int64) {
	if service == "" {
		service = "unknown"
	}

	purchasesTotal.WithLabelValues(service).Inc()
	purchasedItemsTotal.WithLabelValues(service).Add(float64(quantity))
	revenueMinorTotal.Add(float64(totalPrice))
}

// RecordDepositSettled tracks an admin decision on a pending deposit.
func RecordDepositSettled(decision string) {
	if decision == "" {
		decision = "unknown"
	}

	depositsSettledTotal.WithLabelValues(decision).Inc()
}

// RecordBroadcastDelivery tracks a single broadcast delivery attempt.
func RecordBroadcastDelivery(status string) {
	if status == "" {
		status = "unknown"
	}

	broadcastDeliveriesTotal.WithLabelValues(status).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// ActivitySource reports aggregate user activity.
type ActivitySource interface {
	ActivityStats(ctx context.Context, now time.Time) (*domain.ActivityStats, error)
}

// ActivityCollector periodically gathers user activity counts and emits gauge metrics.
type ActivityCollector struct {
	source   ActivitySource
	interval time.Duration
}

// NewActivityCollector builds a collector bound to the provided source.
func NewActivityCollector(source ActivitySource, interval time.Duration) *ActivityCollector {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &ActivityCollector{source: source, interval: interval}
}

// Run polls the source on the configured interval, updating user gauges until
// ctx is cancelled.
func (c *ActivityCollector) Run(ctx context.Context) {
	if c == nil || c.source == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *ActivityCollector) collect(ctx context.Context) error {
	stats, err := c.source.ActivityStats(ctx, time.Now().UTC())
	if err != nil || stats == nil {
		return err
	}

	usersTotal.Set(float64(stats.Total))
	usersOnline.Set(float64(stats.Online))

	return nil
}
