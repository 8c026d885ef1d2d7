package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollectorsRegisteredUnderNamespace(t *testing.T) {
	AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	StockOperationsTotal.WithLabelValues("purchase", "success").Inc()
	UnitsSoldTotal.Add(3)
	CatalogWritesTotal.WithLabelValues("create").Inc()
	MediaUploadsTotal.WithLabelValues("s3", "success").Inc()
	MediaUploadDuration.WithLabelValues("s3").Observe(0.1)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	seen := make(map[string]bool, len(families))
	for _, mf := range families {
		seen[mf.GetName()] = true
	}
	for _, name := range []string{
		"sweetshop_auth_attempts_total",
		"sweetshop_stock_operations_total",
		"sweetshop_units_sold_total",
		"sweetshop_catalog_writes_total",
		"sweetshop_media_uploads_total",
		"sweetshop_media_upload_duration_seconds",
	} {
		if !seen[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}
