package dates

import "time"

// Clock 当前时间来源,可注入以便测试
type Clock interface {
	Now() time.Time
}

// SystemClock 系统时钟
type SystemClock struct{}

// Now 返回当前时间
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock 固定时钟(用于测试)
type FixedClock struct {
	Instant time.Time
}

// Now 返回固定时间
func (c FixedClock) Now() time.Time {
	return c.Instant
}
