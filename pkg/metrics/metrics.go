// Package metrics 提供 Prometheus 监控指标.
// 除 HTTP 请求指标外还记录练习题写入行数、资源写入字节与上传拒绝次数.
//
// Example:
//
//	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.WorksheetRowsCreated.WithLabelValues("single").Add(3)
package metrics

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/worksheethub/pkg/configs"
)

const namespace = "worksheethub"

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 正在处理的请求数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_requests",
			Help:      "Number of in-flight HTTP requests",
		},
	)

	// WorksheetRowsCreated 写入的练习题行数，mode 为 single 或 bulk.
	WorksheetRowsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worksheet_rows_created_total",
			Help:      "Worksheet rows inserted by the fan-out writer",
		},
		[]string{"mode"},
	)

	// AssetBytesStored 写入资源存储的字节数.
	AssetBytesStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_bytes_stored_total",
			Help:      "Bytes written to the asset store",
		},
		[]string{"kind"},
	)

	// UploadRejected 上传校验失败次数，reason 为 type 或 size.
	UploadRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_rejected_total",
			Help:      "Uploads rejected by the normalizer",
		},
		[]string{"kind", "reason"},
	)

	// OrphanAssets 最近一次对账发现的孤儿文件数.
	OrphanAssets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orphan_assets",
			Help:      "Orphan assets found by the last sweep",
		},
	)

	registry = prometheus.NewRegistry()
	regOnce  sync.Once
)

// InitMetrics 初始化Metrics，重复调用无副作用.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	regOnce.Do(func() {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			RequestCounter, RequestDuration, ActiveConnections,
			WorksheetRowsCreated, AssetBytesStored, UploadRejected, OrphanAssets,
		)
	})

	return nil
}

// Register 挂载指标端点.
func Register(config configs.MetricsConfig, engine *gin.Engine) {
	if !config.Enabled {
		return
	}

	path := config.Path
	if path == "" {
		path = "/metrics"
	}

	engine.GET(path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
