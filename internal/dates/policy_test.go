package dates_test

import (
	"testing"
	"time"

	"github.com/contabhub/onety-sub007/internal/dates"
	"github.com/stretchr/testify/assert"
)

// TestCompute_CumulativeDeadline 测试主任务日期的累加规则
// deadline 是在 target 之上累加,不是直接相对 action
func TestCompute_CumulativeDeadline(t *testing.T) {
	reference := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	action, target, deadline := dates.Compute(reference, 5, 3)

	assert.Equal(t, reference, action)
	assert.Equal(t, reference.AddDate(0, 0, 5), target)
	// deadline = target + 3,即 action + 8
	assert.Equal(t, reference.AddDate(0, 0, 8), deadline)
}

// TestCompute_ZeroOffsets 测试零偏移时三个日期重合
func TestCompute_ZeroOffsets(t *testing.T) {
	reference := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	action, target, deadline := dates.Compute(reference, 0, 0)

	assert.Equal(t, reference, action)
	assert.Equal(t, reference, target)
	assert.Equal(t, reference, deadline)
}

// TestComputeSub_BothOffsetsFromAction 测试子任务日期的独立规则
// target 和 deadline 都直接相对父任务的 action,互不链式累加
func TestComputeSub_BothOffsetsFromAction(t *testing.T) {
	parentAction := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	targetOffset := 5
	deadlineOffset := 3

	action, target, deadline := dates.ComputeSub(parentAction, &targetOffset, &deadlineOffset)

	assert.Equal(t, parentAction, action)
	assert.Equal(t, parentAction.AddDate(0, 0, 5), *target)
	// deadline 直接 action + 3,可以早于 target
	assert.Equal(t, parentAction.AddDate(0, 0, 3), *deadline)
	assert.True(t, deadline.Before(*target))
}

// TestComputeSub_NilOffsets 测试偏移未定义时日期为空
func TestComputeSub_NilOffsets(t *testing.T) {
	parentAction := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	action, target, deadline := dates.ComputeSub(parentAction, nil, nil)

	assert.Equal(t, parentAction, action)
	assert.Nil(t, target)
	assert.Nil(t, deadline)
}

// TestComputeSub_DiffersFromCompute 测试同一组偏移下两条规则的结果不同
func TestComputeSub_DiffersFromCompute(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	targetOffset := 4
	deadlineOffset := 2

	_, _, mainDeadline := dates.Compute(base, targetOffset, deadlineOffset)
	_, _, subDeadline := dates.ComputeSub(base, &targetOffset, &deadlineOffset)

	// 主任务: base+6;子任务: base+2
	assert.Equal(t, base.AddDate(0, 0, 6), mainDeadline)
	assert.Equal(t, base.AddDate(0, 0, 2), *subDeadline)
	assert.NotEqual(t, mainDeadline, *subDeadline)
}

// TestNormalize_FixedZone 测试时间戳归一到固定 UTC-3 时区
func TestNormalize_FixedZone(t *testing.T) {
	utc := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	normalized := dates.Normalize(utc)

	_, offset := normalized.Zone()
	assert.Equal(t, -3*60*60, offset)
	// 同一时刻,只是时区表示不同
	assert.True(t, normalized.Equal(utc))
	assert.Equal(t, 12, normalized.Hour())
}

// TestNormalize_Idempotent 测试归一化的幂等性
func TestNormalize_Idempotent(t *testing.T) {
	instant := time.Date(2025, 3, 10, 15, 0, 0, 0, time.FixedZone("UTC+9", 9*60*60))

	once := dates.Normalize(instant)
	twice := dates.Normalize(once)

	assert.Equal(t, once, twice)
}

// TestFixedClock 测试固定时钟
func TestFixedClock(t *testing.T) {
	instant := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := dates.FixedClock{Instant: instant}

	assert.Equal(t, instant, clock.Now())
}
