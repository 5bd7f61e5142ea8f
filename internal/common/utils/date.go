package utils

import (
	"time"
)

// DateLayout 日历日格式
const DateLayout = "2006-01-02"

// Date 截取到日历日，统一为 UTC 零点
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate 解析 YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// MustParseDate 解析日期，失败时 panic，仅用于常量与测试
func MustParseDate(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// FormatDate 格式化为 YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays 日期加减天数
func AddDays(t time.Time, days int) time.Time {
	return Date(t).AddDate(0, 0, days)
}

// DaysInclusive 闭区间 [from, to] 包含的天数，to 早于 from 时返回 0
func DaysInclusive(from, to time.Time) int {
	from, to = Date(from), Date(to)
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

// EachDay 依次返回闭区间 [from, to] 中的每一天
func EachDay(from, to time.Time) []time.Time {
	n := DaysInclusive(from, to)
	days := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, AddDays(from, i))
	}
	return days
}

// MaxDate 返回较晚的日期
func MaxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// Clock 提供"今天"，测试中可固定
type Clock interface {
	Today() time.Time
}

// SystemClock 按业务时区取当前日期
type SystemClock struct {
	Location *time.Location
}

// Today 返回业务时区的今天
func (c SystemClock) Today() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return Date(time.Now().In(loc))
}

// FixedClock 固定日期的时钟
type FixedClock struct {
	Day time.Time
}

// Today 返回固定日期
func (c FixedClock) Today() time.Time {
	return Date(c.Day)
}
