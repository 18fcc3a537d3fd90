// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "velocraft"

var (
	// ConfigurationsCreated 按校验结果统计已持久化的配置数。
	ConfigurationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "configurations_created_total",
		Help:      "Persisted product configurations, labelled by validity.",
	}, []string{"valid"})

	ValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validations_total",
		Help:      "Configuration validations, labelled by result.",
	}, []string{"result"})

	// PriceComputed 记录已持久化配置的总价分布（欧元），无效配置按 0 计入。
	// 只读的定价请求不计入。
	PriceComputed = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "computed_price_euros",
		Help:      "Total prices of persisted configurations.",
		Buckets:   []float64{100, 250, 500, 750, 1000, 1250, 1500, 2000, 3000, 5000},
	})

	EventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_publish_failures_total",
		Help:      "Domain events that could not be published.",
	})

	PromoValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "promo_validations_total",
		Help:      "Promo code validations, labelled by result.",
	}, []string{"result"})
)

// BoolLabel 把布尔值转换为标签值。
func BoolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
