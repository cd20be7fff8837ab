// Package stamp 从文件名解析时间戳（路由决策的时间来源）。
//
// 约束：解析是文件名字符串的纯函数，绝不读文件内容；
// 任何畸形输入都降级到 ModTime 回退，永不报错。
package stamp

import (
	"regexp"
	"strconv"
	"time"
)

// ParsedName 是文件名解析结果的封闭变体：
// 手机命名（日期+时间+序号）、纯日期命名、无结构命名。
type ParsedName interface{ isParsedName() }

// PhoneStyle 对应 YYYYMMDD_HHMMSS（可带 _N 序号）的手机命名。
type PhoneStyle struct {
	Year, Month, Day     int
	Hour, Minute, Second int
	Seq                  int // 无序号段时为 0
	HasSeq               bool
}

// LegacyDateStyle 对应 YYYY_MM_DD / YYYY-MM-DD 的纯日期命名（时间取午夜）。
type LegacyDateStyle struct {
	Year, Month, Day int
}

// Unstructured 表示文件名中不含可识别日期。
type Unstructured struct{}

func (PhoneStyle) isParsedName()      {}
func (LegacyDateStyle) isParsedName() {}
func (Unstructured) isParsedName()    {}

// 边界用 (?:^|\D) / (?:\D|$) 收紧：嵌在更长数字串里的片段不算日期
// （例如 M4H01890 绝不能误判）。
var phoneRE = regexp.MustCompile(`(?:^|\D)(\d{4})(\d{2})(\d{2})_(\d{2})(\d{2})(\d{2})(?:_(\d+))?(?:\D|$)`)

var legacyREs = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|\D)(\d{4})_(\d{2})_(\d{2})(?:\D|$)`),
	regexp.MustCompile(`(?:^|\D)(\d{4})-(\d{2})-(\d{2})(?:\D|$)`),
}

// Parse 把文件名归类为三种变体之一。优先级：手机命名 > 纯日期 > 无结构。
// 日期/时间分量越界（如月份 13）视为不匹配，继续尝试下一形态。
func Parse(name string) ParsedName {
	if m := phoneRE.FindStringSubmatch(name); m != nil {
		p := PhoneStyle{
			Year:   atoi(m[1]),
			Month:  atoi(m[2]),
			Day:    atoi(m[3]),
			Hour:   atoi(m[4]),
			Minute: atoi(m[5]),
			Second: atoi(m[6]),
		}
		if m[7] != "" {
			p.Seq = atoi(m[7])
			p.HasSeq = true
		}
		if validDate(p.Year, p.Month, p.Day) && validClock(p.Hour, p.Minute, p.Second) {
			return p
		}
	}

	for _, re := range legacyREs {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		d := LegacyDateStyle{Year: atoi(m[1]), Month: atoi(m[2]), Day: atoi(m[3])}
		if validDate(d.Year, d.Month, d.Day) {
			return d
		}
	}

	return Unstructured{}
}

// Resolve 返回文件的时间戳：文件名可解析用解析值，否则原样返回 fallback。
func Resolve(name string, fallback time.Time) time.Time {
	switch p := Parse(name).(type) {
	case PhoneStyle:
		return time.Date(p.Year, time.Month(p.Month), p.Day, p.Hour, p.Minute, p.Second, 0, time.Local)
	case LegacyDateStyle:
		return time.Date(p.Year, time.Month(p.Month), p.Day, 0, 0, 0, 0, time.Local)
	default:
		return fallback
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func validDate(y, m, d int) bool {
	return y >= 1900 && y <= 2100 && m >= 1 && m <= 12 && d >= 1 && d <= 31
}

func validClock(h, m, s int) bool {
	return h >= 0 && h <= 23 && m >= 0 && m <= 59 && s >= 0 && s <= 59
}
