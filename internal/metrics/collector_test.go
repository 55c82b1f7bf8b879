package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupCollectorDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE tasks (id TEXT PRIMARY KEY, status TEXT)").Error)
	return db
}

// TestCollectOnce_TasksByStatus 测试任务状态分布快照
func TestCollectOnce_TasksByStatus(t *testing.T) {
	db := setupCollectorDB(t)
	require.NoError(t, db.Exec(
		"INSERT INTO tasks (id, status) VALUES ('t1','open'),('t2','open'),('t3','completed')",
	).Error)

	c := NewCollector(db, time.Minute)
	c.collectOnce()

	assert.Equal(t, 2.0, testutil.ToFloat64(tasksByStatus.WithLabelValues("open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(tasksByStatus.WithLabelValues("completed")))
	// 空状态归零而不是保留旧值
	assert.Equal(t, 0.0, testutil.ToFloat64(tasksByStatus.WithLabelValues("canceled")))
}

// TestCollectOnce_ResetsStaleCounts 测试状态清空后计数回落
func TestCollectOnce_ResetsStaleCounts(t *testing.T) {
	db := setupCollectorDB(t)
	require.NoError(t, db.Exec("INSERT INTO tasks (id, status) VALUES ('t1','canceled')").Error)

	c := NewCollector(db, time.Minute)
	c.collectOnce()
	assert.Equal(t, 1.0, testutil.ToFloat64(tasksByStatus.WithLabelValues("canceled")))

	require.NoError(t, db.Exec("DELETE FROM tasks").Error)
	c.collectOnce()
	assert.Equal(t, 0.0, testutil.ToFloat64(tasksByStatus.WithLabelValues("canceled")))
}

// TestCollector_StartStop 测试收集器启停
func TestCollector_StartStop(t *testing.T) {
	db := setupCollectorDB(t)

	c := NewCollector(db, time.Millisecond)
	c.Start()
	time.Sleep(5 * time.Millisecond)
	c.Stop() // 阻塞到收集循环退出

	assert.NoError(t, UpdateDatabaseConnections(db))
}
