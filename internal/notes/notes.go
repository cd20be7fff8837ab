// Package notes 在日期目录下维护视频分析笔记（YYYYMMDD_Notes.txt）。
// 重复运行做合并而非覆盖：已记录的文件不再追加。
package notes

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vbwyrde/PhoneSync/internal/infra/fsx"
)

// Entry 是一条笔记：文件名 + 一句话描述。
type Entry struct {
	FileName    string
	Description string
}

// FileName 返回日期目录的笔记文件名：2025_04_12 -> 20250412_Notes.txt。
func FileName(folderDate string) string {
	return strings.ReplaceAll(folderDate, "_", "") + "_Notes.txt"
}

// Upsert 把 entries 合并进 dir 下的笔记文件：
// - 文件不存在则创建（带标题行）
// - 已记录的文件名跳过，新文件名追加
// - 输出按文件名排序，整体原子写
func Upsert(dir, folderDate string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	name := FileName(folderDate)

	existing, err := readEntries(filepath.Join(dir, name))
	if err != nil {
		return err
	}

	merged := make(map[string]string, len(existing)+len(entries))
	for _, e := range existing {
		merged[e.FileName] = e.Description
	}
	for _, e := range entries {
		if e.FileName == "" {
			continue
		}
		if _, ok := merged[e.FileName]; ok {
			continue
		}
		merged[e.FileName] = e.Description
	}

	names := make([]string, 0, len(merged))
	for n := range merged {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "Video notes for %s\n\n", folderDate)
	for _, n := range names {
		fmt.Fprintf(&b, "%s - %s\n", n, merged[n])
	}

	return fsx.WriteFileAtomicReplace(dir, name, []byte(b.String()))
}

// readEntries 解析已有笔记。文件不存在按空处理；
// 标题与空行跳过，其余行按第一个 " - " 切成文件名与描述。
func readEntries(path string) ([]Entry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Entry
	for i, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || (i == 0 && strings.HasPrefix(line, "Video notes for ")) {
			continue
		}
		name, desc, ok := strings.Cut(line, " - ")
		if !ok {
			continue
		}
		out = append(out, Entry{FileName: strings.TrimSpace(name), Description: strings.TrimSpace(desc)})
	}
	return out, nil
}
