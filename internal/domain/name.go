package domain

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// 手机命名主干：YYYYMMDD_HHMMSS_序号。
var basePatternRE = regexp.MustCompile(`^(\d{8}_\d{6}_\d+)`)

// 日期目录前缀：YYYY_MM_DD（后面允许人工追加 _后缀）。
var folderDateRE = regexp.MustCompile(`^(\d{4}_\d{2}_\d{2})`)

// BasePattern 返回文件名的查重主干。
//
// 手机命名（YYYYMMDD_HHMMSS_序号开头）取主干段：AI 批注追加的
// 描述后缀（_MorningPractice 等）被剥掉。其余命名取完整主干（去扩展名）。
func BasePattern(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if m := basePatternRE.FindStringSubmatch(stem); m != nil {
		return m[1]
	}
	return stem
}

// StemsMatchFlexible 判断归档文件名 targetName 是否是源文件名
// sourceName 的“同文件变体”：主干完全一致，或主干后紧跟 "_" 追加段。
// 主干后直接接字符（如 …_1 对 …_12）是不同文件。
func StemsMatchFlexible(sourceName, targetName string) bool {
	base := BasePattern(sourceName)
	tstem := strings.TrimSuffix(targetName, filepath.Ext(targetName))

	if tstem == base {
		return true
	}
	if !strings.HasPrefix(tstem, base) {
		return false
	}
	rest := tstem[len(base):]
	return strings.HasPrefix(rest, "_")
}

// FolderDatePattern 提取目录名的日期前缀（YYYY_MM_DD）。
// 非日期形态的目录返回 ("", false)。
func FolderDatePattern(dirName string) (string, bool) {
	if m := folderDateRE.FindStringSubmatch(dirName); m != nil {
		return m[1], true
	}
	return "", false
}

// DatePattern 返回时间戳对应的规范日期目录名。
func DatePattern(t time.Time) string {
	return t.Format("2006_01_02")
}
