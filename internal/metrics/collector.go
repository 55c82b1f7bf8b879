package metrics

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Collector 指标收集器
// 定期刷新数据库连接数和任务状态分布两类快照型指标
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.collectOnce()
		}
	}
}

// collectOnce 刷新一轮快照指标
func (c *Collector) collectOnce() {
	_ = UpdateDatabaseConnections(c.db)

	// 已知状态先归零,空状态不会留下过期的计数
	counts := map[string]float64{
		"open":      0,
		"completed": 0,
		"canceled":  0,
	}
	var rows []struct {
		Status string
		Count  float64
	}
	if err := c.db.Table("tasks").
		Select("status, count(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	for status, count := range counts {
		UpdateTasksByStatus(status, count)
	}
}
