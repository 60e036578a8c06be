package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Метки результата для cart_operations_total.
const (
	ResultSuccess       = "success"
	ResultStockExceeded = "stock_exceeded"
	ResultValidation    = "validation_error"
	ResultNotFound      = "not_found"
	ResultError         = "error"
)

// Виды ремонтов, которые выполняет Verify.
const (
	RepairUnavailable  = "unavailable"
	RepairPriceChanged = "price_changed"
	RepairAdjusted     = "adjusted"
)

// CartMetrics содержит метрики операций над корзиной.
type CartMetrics struct {
	// Счётчик операций по имени и результату.
	operations *prometheus.CounterVec
	// Гистограмма времени выполнения операций.
	operationDuration *prometheus.HistogramVec
	// Счётчик срезаний количества по стоку.
	stockClamps prometheus.Counter
	// Счётчик ремонтов, выполненных Verify, по виду.
	verifyRepairs *prometheus.CounterVec
	// Счётчик повторов из-за конфликтов версий.
	versionConflictRetries prometheus.Counter
}

// NewCartMetrics создаёт и регистрирует метрики корзины.
func NewCartMetrics() *CartMetrics {
	return newCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CartMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Total number of cart operations grouped by operation and result.",
		}, []string{"operation", "result"}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "cart_operation_duration_seconds",
			Help:    "Duration of cart operations in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"operation"}),
		stockClamps: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cart_stock_clamps_total",
			Help: "Total number of quantities clamped to catalog stock.",
		}),
		verifyRepairs: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cart_verify_repairs_total",
			Help: "Total number of repairs applied by cart verification grouped by kind.",
		}, []string{"kind"}),
		versionConflictRetries: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cart_version_conflict_retries_total",
			Help: "Total number of retried cart saves after optimistic version conflicts.",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOperation увеличивает счётчик операции с меткой результата.
func (m *CartMetrics) RecordOperation(operation, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

// RecordDuration записывает время выполнения операции.
func (m *CartMetrics) RecordDuration(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordStockClamp увеличивает счётчик срезаний по стоку.
func (m *CartMetrics) RecordStockClamp() {
	if m == nil {
		return
	}
	m.stockClamps.Inc()
}

// RecordVerifyRepairs увеличивает счётчик ремонтов данного вида на count.
func (m *CartMetrics) RecordVerifyRepairs(kind string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.verifyRepairs.WithLabelValues(kind).Add(float64(count))
}

// RecordVersionConflictRetry увеличивает счётчик повторов сохранения.
func (m *CartMetrics) RecordVersionConflictRetry() {
	if m == nil {
		return
	}
	m.versionConflictRetries.Inc()
}
