package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 任务创建数
	tasksCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tasks_created_total",
			Help: "Total number of tasks created",
		},
	)

	// 子任务创建数
	subtasksCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subtasks_created_total",
			Help: "Total number of subtasks created during instantiation",
		},
	)

	// 状态流转数
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_transitions_total",
			Help: "Total number of task status transitions",
		},
		[]string{"transition"}, // complete, cancel, reopen
	)

	// 被子任务门禁拒绝的流转数
	gateConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "task_gate_conflicts_total",
			Help: "Total number of transitions rejected because open children exist",
		},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// 任务状态分布
	tasksByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tasks_by_status",
			Help: "Number of tasks by status",
		},
		[]string{"status"},
	)
)

var once sync.Once

func init() {
	// 注册指标
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(tasksCreatedTotal)
	prometheus.MustRegister(subtasksCreatedTotal)
	prometheus.MustRegister(transitionsTotal)
	prometheus.MustRegister(gateConflictsTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(tasksByStatus)

	// 注册 Go 运行时指标(只注册一次)
	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordTaskCreated 记录任务创建
func RecordTaskCreated() {
	tasksCreatedTotal.Inc()
}

// RecordSubtasksCreated 记录子任务创建
func RecordSubtasksCreated(count int) {
	subtasksCreatedTotal.Add(float64(count))
}

// RecordTransition 记录状态流转
func RecordTransition(transition string) {
	transitionsTotal.WithLabelValues(transition).Inc()
}

// RecordGateConflict 记录被门禁拒绝的流转
func RecordGateConflict() {
	gateConflictsTotal.Inc()
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))

	return nil
}

// UpdateTasksByStatus 更新任务状态分布指标
func UpdateTasksByStatus(status string, count float64) {
	tasksByStatus.WithLabelValues(status).Set(count)
}
