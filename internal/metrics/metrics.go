package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExtractionsTotal 提取次数，result 取 success / failed / error
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataminer_extractions_total",
			Help: "Total number of extraction runs",
		},
		[]string{"platform", "type", "result"},
	)

	// RemoteRequestsTotal 远程接口请求次数，outcome 取 ok / credits / api_error / transport_error
	RemoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataminer_remote_requests_total",
			Help: "Total number of requests sent to the remote extraction API",
		},
		[]string{"endpoint", "outcome"},
	)

	// TableRecordsWritten 成功写入表格的记录数
	TableRecordsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dataminer_table_records_written_total",
			Help: "Total number of records written to tables",
		},
	)

	// HTTPRequestDuration HTTP 请求耗时
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataminer_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
