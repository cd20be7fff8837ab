// Package app 提供 run 层之上的纯分组逻辑。
package app

import (
	"sort"

	"github.com/vbwyrde/PhoneSync/internal/notes"
)

// NoteInput 是一条待写入笔记的分析结果（已落位文件 + 描述）。
type NoteInput struct {
	DestDir    string
	FolderDate string
	FileName   string
	Note       string
}

// NoteGroup 是同一个日期目录下的全部笔记条目。
type NoteGroup struct {
	Dir        string
	FolderDate string
	Entries    []notes.Entry
}

// GroupNotes 把分析结果按目标目录分组为 NoteGroup。
//
// - 组稳定排序：按 Dir 字典序
// - 组内条目稳定排序：按文件名字典序
// - 描述为空或目录无日期前缀的条目直接丢弃（无处可写）
func GroupNotes(inputs []NoteInput) []NoteGroup {
	index := make(map[string]int, 16)
	groups := make([]NoteGroup, 0, 16)

	for _, in := range inputs {
		if in.Note == "" || in.FolderDate == "" || in.DestDir == "" {
			continue
		}
		idx, ok := index[in.DestDir]
		if !ok {
			idx = len(groups)
			index[in.DestDir] = idx
			groups = append(groups, NoteGroup{Dir: in.DestDir, FolderDate: in.FolderDate})
		}
		groups[idx].Entries = append(groups[idx].Entries, notes.Entry{
			FileName:    in.FileName,
			Description: in.Note,
		})
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Dir < groups[j].Dir })
	for i := range groups {
		es := groups[i].Entries
		sort.Slice(es, func(a, b int) bool { return es[a].FileName < es[b].FileName })
	}
	return groups
}
