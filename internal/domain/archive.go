package domain

import "time"

// ArchiveEntry 是归档树中一个已存在的文件（查重索引的条目）。
type ArchiveEntry struct {
	// BasePattern 是查重主干（见 BasePattern 函数）。
	BasePattern string
	// Name 是归档中的实际文件名（可能已被批注改名）。
	Name string
	Size int64

	// Dir 是文件所在目录的完整路径；DirName 是目录名本身。
	Dir     string
	DirName string
	// FolderDate 是 DirName 的日期前缀；非日期目录为空串。
	FolderDate string

	ModTime time.Time
}
