package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if !matchLabels(metric, labels) {
				continue
			}
			if metric.GetCounter() != nil {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(metric *dto.Metric, labels map[string]string) bool {
	if len(labels) == 0 {
		return true
	}
	got := make(map[string]string, len(metric.GetLabel()))
	for _, pair := range metric.GetLabel() {
		got[pair.GetName()] = pair.GetValue()
	}
	for name, value := range labels {
		if got[name] != value {
			return false
		}
	}
	return true
}

func TestCartMetrics_RecordOperation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCartMetricsWithRegisterer(registry)

	m.RecordOperation("add", ResultSuccess)
	m.RecordOperation("add", ResultSuccess)
	m.RecordOperation("add", ResultStockExceeded)
	m.RecordOperation("remove", ResultNotFound)

	if got := counterValue(t, registry, "cart_operations_total", map[string]string{"operation": "add", "result": ResultSuccess}); got != 2 {
		t.Fatalf("expected 2 successful adds, got %f", got)
	}
	if got := counterValue(t, registry, "cart_operations_total", map[string]string{"operation": "add", "result": ResultStockExceeded}); got != 1 {
		t.Fatalf("expected 1 stock-exceeded add, got %f", got)
	}
	if got := counterValue(t, registry, "cart_operations_total", map[string]string{"operation": "remove", "result": ResultNotFound}); got != 1 {
		t.Fatalf("expected 1 not-found remove, got %f", got)
	}
}

func TestCartMetrics_RecordRepairsAndClamps(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCartMetricsWithRegisterer(registry)

	m.RecordStockClamp()
	m.RecordVerifyRepairs(RepairUnavailable, 1)
	m.RecordVerifyRepairs(RepairAdjusted, 2)
	m.RecordVerifyRepairs(RepairPriceChanged, 0)
	m.RecordVersionConflictRetry()

	if got := counterValue(t, registry, "cart_stock_clamps_total", nil); got != 1 {
		t.Fatalf("expected 1 clamp, got %f", got)
	}
	if got := counterValue(t, registry, "cart_verify_repairs_total", map[string]string{"kind": RepairAdjusted}); got != 2 {
		t.Fatalf("expected 2 adjusted repairs, got %f", got)
	}
	if got := counterValue(t, registry, "cart_verify_repairs_total", map[string]string{"kind": RepairPriceChanged}); got != 0 {
		t.Fatalf("expected zero-count repair to be ignored, got %f", got)
	}
	if got := counterValue(t, registry, "cart_version_conflict_retries_total", nil); got != 1 {
		t.Fatalf("expected 1 retry, got %f", got)
	}
}

func TestCartMetrics_DoubleRegistrationReusesCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := newCartMetricsWithRegisterer(registry)
	second := newCartMetricsWithRegisterer(registry)

	first.RecordOperation("clear", ResultSuccess)
	second.RecordOperation("clear", ResultSuccess)

	if got := counterValue(t, registry, "cart_operations_total", map[string]string{"operation": "clear", "result": ResultSuccess}); got != 2 {
		t.Fatalf("expected shared collector with value 2, got %f", got)
	}
}

func TestCartMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *CartMetrics
	m.RecordOperation("add", ResultSuccess)
	m.RecordDuration("add", time.Millisecond)
	m.RecordStockClamp()
	m.RecordVerifyRepairs(RepairPriceChanged, 1)
	m.RecordVersionConflictRetry()
}
