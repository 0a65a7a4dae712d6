package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultIntervalMonths 未指定计息频率时按季度
const DefaultIntervalMonths = 3

var scheduleWords = map[string]int{
	"monthly":       1,
	"quarterly":     3,
	"semi-annually": 6,
	"half-yearly":   6,
	"annually":      12,
	"yearly":        12,
}

// IntervalMonths 解析计息频率标签为月数，支持英文单词与 "3M" 形式
func IntervalMonths(label string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return DefaultIntervalMonths, nil
	}
	if months, ok := scheduleWords[s]; ok {
		return months, nil
	}
	if digits, ok := strings.CutSuffix(s, "m"); ok {
		if n, err := strconv.Atoi(digits); err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, ValidationFailed(fmt.Sprintf("invalid schedule format: %q", label))
}

// AddMonths 增加月数，目标月份天数不足时取月末（EDATE 语义）
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// PaymentDates 从 start 起每隔 months 个月生成一个付款日，超过 maturity 即停止，恰好落在 maturity 时包含
func PaymentDates(start, maturity time.Time, months int) []time.Time {
	if months <= 0 {
		return nil
	}
	var dates []time.Time
	for d := AddMonths(start, months); !d.After(maturity); d = AddMonths(d, months) {
		dates = append(dates, d)
	}
	return dates
}

// DateOf 截取 UTC 日期部分
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
