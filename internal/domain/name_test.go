package domain

import (
	"testing"
	"time"
)

func TestBasePattern_PhoneStyle(t *testing.T) {
	got := BasePattern("20250412_110016_1.mp4")
	if got != "20250412_110016_1" {
		t.Fatalf("期望 20250412_110016_1，实际 %q", got)
	}

	// 已被 AI 批注追加过描述的名字也必须回到同一主干。
	got = BasePattern("20250412_110016_1_MorningPractice.mp4")
	if got != "20250412_110016_1" {
		t.Fatalf("期望 20250412_110016_1，实际 %q", got)
	}
}

func TestBasePattern_NonPhoneStyle(t *testing.T) {
	// 无序号段（YYYYMMDD_HHMMSS.mp4）不算手机命名：主干即全名。
	got := BasePattern("20250622_100122.mp4")
	if got != "20250622_100122" {
		t.Fatalf("期望 20250622_100122，实际 %q", got)
	}

	got = BasePattern("M4H01890.MP4")
	if got != "M4H01890" {
		t.Fatalf("期望 M4H01890，实际 %q", got)
	}
}

func TestStemsMatchFlexible(t *testing.T) {
	cases := []struct {
		src, dst string
		want     bool
	}{
		{"20250412_110016_1.mp4", "20250412_110016_1.mp4", true},
		{"20250412_110016_1.mp4", "20250412_110016_1_MorningPractice.mp4", true},
		{"20250412_110016_1.mp4", "20250412_110016_12.mp4", false}, // 主干后无分隔符：不同文件
		{"M4H01890.MP4", "M4H01890.mp4", true},
		{"M4H01890.MP4", "M4H01890_extra.mp4", true},
		{"20250412_110016_1.mp4", "20250412_110017_1.mp4", false},
	}
	for _, c := range cases {
		if got := StemsMatchFlexible(c.src, c.dst); got != c.want {
			t.Fatalf("StemsMatchFlexible(%q, %q)=%v，期望 %v", c.src, c.dst, got, c.want)
		}
	}
}

func TestFolderDatePattern(t *testing.T) {
	if p, ok := FolderDatePattern("2025_04_12_KungFuClass"); !ok || p != "2025_04_12" {
		t.Fatalf("期望 (2025_04_12, true)，实际 (%q, %v)", p, ok)
	}
	if p, ok := FolderDatePattern("2025_04_12"); !ok || p != "2025_04_12" {
		t.Fatalf("期望 (2025_04_12, true)，实际 (%q, %v)", p, ok)
	}
	if _, ok := FolderDatePattern("Misc"); ok {
		t.Fatalf("非日期目录不应匹配")
	}
}

func TestDatePattern(t *testing.T) {
	got := DatePattern(time.Date(2020, 6, 15, 7, 0, 0, 0, time.Local))
	if got != "2020_06_15" {
		t.Fatalf("期望 2020_06_15，实际 %q", got)
	}
}
