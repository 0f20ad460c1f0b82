package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Значения метки result.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultCreated = "created"
	ResultSkipped = "skipped"
)

// CRMMetrics содержит метрики операций CRM API.
type CRMMetrics struct {
	// Счётчик вызовов по операции и результату
	operations *prometheus.CounterVec
	// Время выполнения операций
	duration *prometheus.HistogramVec
	// Результаты обработки элементов пакетного создания клиентов
	bulkItems *prometheus.CounterVec
	// Публикации доменных событий
	events *prometheus.CounterVec
}

// NewCRMMetrics регистрирует метрики в глобальном registry Prometheus.
func NewCRMMetrics() *CRMMetrics {
	return NewCRMMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCRMMetricsWithRegisterer регистрирует метрики в переданном registry (используется в тестах).
func NewCRMMetricsWithRegisterer(registerer prometheus.Registerer) *CRMMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CRMMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "crm_operations_total",
			Help: "Total number of CRM queries and mutations grouped by result",
		}, []string{"operation", "result"}),
		duration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "crm_operation_duration_seconds",
			Help:    "Duration of CRM queries and mutations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"operation"}),
		bulkItems: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "crm_bulk_customer_items_total",
			Help: "Bulk customer items grouped by outcome",
		}, []string{"result"}),
		events: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "crm_events_published_total",
			Help: "Domain events handed to the publisher grouped by result",
		}, []string{"event_type", "result"}),
	}
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

// ObserveOperation фиксирует результат и длительность операции. Безопасен для nil.
func (m *CRMMetrics) ObserveOperation(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBulkItems добавляет число созданных и пропущенных элементов пакета.
func (m *CRMMetrics) RecordBulkItems(created, skipped int) {
	if m == nil {
		return
	}
	m.bulkItems.WithLabelValues(ResultCreated).Add(float64(created))
	m.bulkItems.WithLabelValues(ResultSkipped).Add(float64(skipped))
}

// RecordEventPublished учитывает попытку публикации доменного события.
func (m *CRMMetrics) RecordEventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.events.WithLabelValues(eventType, result).Inc()
}
