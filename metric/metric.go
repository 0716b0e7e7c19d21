package metric

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	uploaderNS       = "s3_uploader"
	serverSubsys     = "server"
	uploadSubsys     = "upload"
	fileStoreSubsys  = "file_store"
	componentLabel   = "component"
	methodLabel      = "method"
	statusCodeLabel  = "status_code"
	errorTypeLabel   = "error_type"
	providerLabel    = "provider"
	contentTypeLabel = "content_type"
)

var (
	defaultBuckets = prometheus.ExponentialBuckets(0.002, 2, 16)
	// 1KiB .. 64MiB
	sizeBuckets = prometheus.ExponentialBuckets(1024, 4, 9)

	// server metrics
	ServerRequestReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: uploaderNS,
		Subsystem: serverSubsys,
		Name:      "requests_received_total",
		Help:      "",
	}, []string{componentLabel, methodLabel})
	ServerRequestHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: uploaderNS,
		Subsystem: serverSubsys,
		Name:      "requests_handled_total",
		Help:      "",
	}, []string{componentLabel, methodLabel, statusCodeLabel})
	ServerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: uploaderNS,
		Subsystem: serverSubsys,
		Name:      "requests_duration_seconds",
		Help:      "",
		Buckets:   defaultBuckets,
	}, []string{componentLabel, methodLabel, statusCodeLabel})
	ServerRequestPanics = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: uploaderNS,
		Subsystem: serverSubsys,
		Name:      "requests_panics_total",
		Help:      "",
	})
	ServerRateLimits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: uploaderNS,
		Subsystem: serverSubsys,
		Name:      "requests_rate_limits_total",
		Help:      "",
	})
	ServerInflightLimits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: uploaderNS,
		Subsystem: serverSubsys,
		Name:      "requests_inflight_limits_total",
		Help:      "",
	})

	// upload metrics
	UploadExtractErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: uploaderNS,
		Subsystem: uploadSubsys,
		Name:      "extract_errors_total",
		Help:      "Multipart extraction failures by error kind",
	}, []string{errorTypeLabel})
	UploadFileSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: uploaderNS,
		Subsystem: uploadSubsys,
		Name:      "file_size_bytes",
		Help:      "Size of extracted files",
		Buckets:   sizeBuckets,
	}, []string{contentTypeLabel})
	UploadSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: uploaderNS,
		Subsystem: uploadSubsys,
		Name:      "succeeded_total",
		Help:      "",
	})

	// file store metrics
	FileStorePutDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: uploaderNS,
		Subsystem: fileStoreSubsys,
		Name:      "put_duration_seconds",
		Help:      "",
		Buckets:   defaultBuckets,
	}, []string{providerLabel})
	FileStorePutErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: uploaderNS,
		Subsystem: fileStoreSubsys,
		Name:      "put_errors_total",
		Help:      "",
	}, []string{providerLabel, errorTypeLabel})
)

// HandledIncomingRequest handles metrics for processed incoming request.
func HandledIncomingRequest(ctx context.Context, component, method, statusCode string, took time.Duration) {
	ctxErr := ctx.Err()
	if errors.Is(ctxErr, context.Canceled) {
		statusCode = context.Canceled.Error()
	} else if errors.Is(ctxErr, context.DeadlineExceeded) {
		statusCode = context.DeadlineExceeded.Error()
	}
	ServerRequestDuration.WithLabelValues(component, method, statusCode).Observe(took.Seconds())
	ServerRequestHandled.WithLabelValues(component, method, statusCode).Inc()
}
