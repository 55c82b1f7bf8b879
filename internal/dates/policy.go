package dates

import "time"

// Location 完成/取消时间戳统一使用的固定时区 (UTC-3)
var Location = time.FixedZone("UTC-3", -3*60*60)

// Normalize 将时间归一到固定的 UTC-3 时区
func Normalize(t time.Time) time.Time {
	return t.In(Location)
}

// Compute 计算主任务的默认日期
// action = 基准日期; target = action + targetOffset 天;
// deadline = target + deadlineOffset 天 (deadline 是在 target 之上累加的)
// 仅在调用方完全未提供三个日期时使用
func Compute(reference time.Time, targetOffset, deadlineOffset int) (action, target, deadline time.Time) {
	action = reference
	target = action.AddDate(0, 0, targetOffset)
	deadline = target.AddDate(0, 0, deadlineOffset)
	return action, target, deadline
}

// ComputeSub 计算子任务的默认日期
// subAction = 父任务的 action; target 和 deadline 都直接相对 subAction 偏移,
// 与 Compute 不同,deadline 不经过 target 链式累加
// 偏移未定义时对应日期为 nil
func ComputeSub(parentAction time.Time, targetOffset, deadlineOffset *int) (action time.Time, target, deadline *time.Time) {
	action = parentAction
	if targetOffset != nil {
		t := action.AddDate(0, 0, *targetOffset)
		target = &t
	}
	if deadlineOffset != nil {
		d := action.AddDate(0, 0, *deadlineOffset)
		deadline = &d
	}
	return action, target, deadline
}
