// Package rules 实现武当时间窗规则：判断一个视频的时间戳是否落在
// 认定的武术课时段内（决定其进入 Wudan 分支还是普通视频分支）。
package rules

import (
	"fmt"
	"strings"
	"time"
)

// Era 标识规则时代。时代切换按年份 >= 2021 判定（2021-01-01 属于新时代）。
type Era int

const (
	EraBefore2021 Era = iota
	EraOnOrAfter2021
)

func (e Era) String() string {
	if e == EraBefore2021 {
		return "before_2021"
	}
	return "on_or_after_2021"
}

// EraOf 返回时间戳所属的规则时代。
func EraOf(t time.Time) Era {
	if t.Year() < 2021 {
		return EraBefore2021
	}
	return EraOnOrAfter2021
}

// Clock 是一天内的时刻（秒精度；配置形如 "05:00"）。
type Clock int

// ParseClock 解析 HH:MM 形式的时刻。
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("非法时刻 %q（期望 HH:MM）", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(parts[0]+" "+parts[1], "%d %d", &h, &m); err != nil {
		return 0, fmt.Errorf("非法时刻 %q：%v", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("非法时刻 %q（越界）", s)
	}
	return Clock(h*3600 + m*60), nil
}

func clockOf(t time.Time) Clock {
	return Clock(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// Window 是一条扁平规则：时代 + 周几集合 + 起止时刻（两端均含）。
// 嵌套的“时代/周几”配置表在加载时展开为 []Window，求值时只做线性过滤。
type Window struct {
	Era   Era
	Days  map[time.Weekday]bool
	Start Clock
	End   Clock
}

// Set 是只读的规则集合（进程生命周期内不变）。
type Set struct {
	windows []Window
}

// NewSet 构造规则集合。windows 为空也是合法的（任何时间都不命中）。
func NewSet(windows []Window) Set {
	return Set{windows: append([]Window(nil), windows...)}
}

// Matches 判断时间戳是否落在任一认定时段内。
//
// 语义（硬约束）：
// - 年份只用于选时代，日期只用于取周几，比较只看一天内的时刻
// - 两端均含：start <= t <= end
// - 未配置的时代/周几组合返回 false，永不报错
func (s Set) Matches(t time.Time) bool {
	era := EraOf(t)
	day := t.Weekday()
	c := clockOf(t)

	for _, w := range s.windows {
		if w.Era != era || !w.Days[day] {
			continue
		}
		if c >= w.Start && c <= w.End {
			return true
		}
	}
	return false
}

func days(ds ...time.Weekday) map[time.Weekday]bool {
	m := make(map[time.Weekday]bool, len(ds))
	for _, d := range ds {
		m[d] = true
	}
	return m
}

func mustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Default 返回生产环境的内置规则表（配置文件可整体覆盖）。
//
// 2021 前：周一/二/三/四/六统一 05:00–08:00 与 18:00–22:00。
// 2021 起：每个周几有自己的时段表；周五从未配置。
func Default() Set {
	weekdaysBefore := days(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Saturday)
	earlyGroup := days(time.Monday, time.Tuesday, time.Thursday)

	return NewSet([]Window{
		{Era: EraBefore2021, Days: weekdaysBefore, Start: mustClock("05:00"), End: mustClock("08:00")},
		{Era: EraBefore2021, Days: weekdaysBefore, Start: mustClock("18:00"), End: mustClock("22:00")},

		{Era: EraOnOrAfter2021, Days: days(time.Sunday), Start: mustClock("08:00"), End: mustClock("13:00")},
		{Era: EraOnOrAfter2021, Days: earlyGroup, Start: mustClock("05:00"), End: mustClock("08:00")},
		{Era: EraOnOrAfter2021, Days: earlyGroup, Start: mustClock("18:00"), End: mustClock("21:00")},
		{Era: EraOnOrAfter2021, Days: days(time.Wednesday), Start: mustClock("18:00"), End: mustClock("22:00")},
		{Era: EraOnOrAfter2021, Days: days(time.Saturday), Start: mustClock("08:00"), End: mustClock("16:00")},
	})
}
