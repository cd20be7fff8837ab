package rules

import (
	"testing"
	"time"
)

func local(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.Local)
}

func TestMatches_Before2021(t *testing.T) {
	s := Default()

	// 2020-06-15 是周一：07:00 落在 05:00–08:00。
	if !s.Matches(local(2020, 6, 15, 7, 0, 0)) {
		t.Fatalf("2020-06-15 周一 07:00 应命中")
	}
	// 2020-06-13 是周六：19:00 落在 18:00–22:00。
	if !s.Matches(local(2020, 6, 13, 19, 0, 0)) {
		t.Fatalf("2020-06-13 周六 19:00 应命中")
	}
	// 周日在 2021 前从未配置。
	if s.Matches(local(2020, 6, 14, 7, 0, 0)) {
		t.Fatalf("2020-06-14 周日不应命中")
	}
	// 2020-12-31 是周四：23:59:59 在两个时段之外。
	if s.Matches(local(2020, 12, 31, 23, 59, 59)) {
		t.Fatalf("2020-12-31 周四 23:59:59 不应命中")
	}
}

func TestMatches_OnOrAfter2021(t *testing.T) {
	s := Default()

	// 2021-03-07 是周日：10:00 落在 08:00–13:00。
	if !s.Matches(local(2021, 3, 7, 10, 0, 0)) {
		t.Fatalf("2021-03-07 周日 10:00 应命中")
	}
	// 2021-03-08 是周一：07:00 落在 05:00–08:00。
	if !s.Matches(local(2021, 3, 8, 7, 0, 0)) {
		t.Fatalf("2021-03-08 周一 07:00 应命中")
	}
	// 2021-03-10 是周三：20:00 落在 18:00–22:00。
	if !s.Matches(local(2021, 3, 10, 20, 0, 0)) {
		t.Fatalf("2021-03-10 周三 20:00 应命中")
	}
	// 2025-04-10 是周四：正午不在 05:00–08:00 / 18:00–21:00。
	if s.Matches(local(2025, 4, 10, 12, 0, 0)) {
		t.Fatalf("2025-04-10 周四 12:00 不应命中")
	}
	// 周一 21:30：旧时代能到 22:00，新时代只到 21:00。
	if s.Matches(local(2021, 3, 8, 21, 30, 0)) {
		t.Fatalf("2021-03-08 周一 21:30 不应命中（新表只到 21:00）")
	}
}

func TestMatches_EraBoundaryUsesOnOrAfterTable(t *testing.T) {
	s := Default()

	// 2021-01-01 是周五：两个时代都没给周五配置，但必须走新表（>= 判定）。
	if s.Matches(local(2021, 1, 1, 8, 0, 0)) {
		t.Fatalf("2021-01-01 周五 08:00 不应命中")
	}
	if EraOf(local(2021, 1, 1, 0, 0, 0)) != EraOnOrAfter2021 {
		t.Fatalf("2021 年必须判入新时代")
	}
}

func TestMatches_InclusiveBounds(t *testing.T) {
	s := Default()

	// 两端均含：周一（2025-04-07）05:00:00 与 08:00:00 都命中。
	if !s.Matches(local(2025, 4, 7, 5, 0, 0)) {
		t.Fatalf("起点 05:00:00 应命中（含边界）")
	}
	if !s.Matches(local(2025, 4, 7, 8, 0, 0)) {
		t.Fatalf("终点 08:00:00 应命中（含边界）")
	}
	// 终点后一秒出界。
	if s.Matches(local(2025, 4, 7, 8, 0, 1)) {
		t.Fatalf("08:00:01 不应命中")
	}
}

func TestMatches_PureAndIdempotent(t *testing.T) {
	s := Default()
	ts := local(2021, 3, 7, 10, 0, 0)
	first := s.Matches(ts)
	for i := 0; i < 3; i++ {
		if s.Matches(ts) != first {
			t.Fatalf("同一输入必须恒定产出同一结果")
		}
	}
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("18:30")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if c != Clock(18*3600+30*60) {
		t.Fatalf("期望 66600 秒，实际 %d", c)
	}

	for _, bad := range []string{"", "18", "25:00", "10:61", "aa:bb"} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("期望 %q 解析失败", bad)
		}
	}
}
