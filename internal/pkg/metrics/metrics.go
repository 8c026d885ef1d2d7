// Package metrics defines and registers the custom Prometheus metrics of the
// sweets API. It is the single source of truth for metric names, labels, and
// help strings. HTTP request metrics come from echoprometheus; these cover
// the business operations behind the handlers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sweetshop"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts registration and login outcomes.
// Labels:
//   - action: "register" or "login"
//   - result: "success", "invalid", "conflict" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of registration and login attempts, by outcome.",
	},
	[]string{"action", "result"},
)

// ── Stock metrics ─────────────────────────────────────────────────────────────

// StockOperationsTotal counts purchase and restock outcomes.
// Labels:
//   - operation: "purchase" or "restock"
//   - result: "success", "insufficient_stock", "invalid", "not_found", "replayed" or "error"
var StockOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_operations_total",
		Help:      "Total number of stock mutations, by operation and outcome.",
	},
	[]string{"operation", "result"},
)

// UnitsSoldTotal counts units removed from stock by successful purchases.
var UnitsSoldTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "units_sold_total",
		Help:      "Total number of units sold.",
	},
)

// ── Catalog metrics ───────────────────────────────────────────────────────────

// CatalogWritesTotal counts catalog mutations other than stock changes.
// Label:
//   - operation: "create", "update" or "delete"
var CatalogWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_writes_total",
		Help:      "Total number of successful catalog writes, by operation.",
	},
	[]string{"operation"},
)

// ── Media metrics ─────────────────────────────────────────────────────────────

// MediaUploadsTotal counts individual image uploads.
// Labels:
//   - driver: "s3" or "minio"
//   - result: "success" or "error"
var MediaUploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_uploads_total",
		Help:      "Total number of image uploads to the media host.",
	},
	[]string{"driver", "result"},
)

// MediaUploadDuration measures a single upload round trip.
var MediaUploadDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "media_upload_duration_seconds",
		Help:      "Duration of a single image upload to the media host.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"driver"},
)
