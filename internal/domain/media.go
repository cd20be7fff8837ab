// Package domain 定义路由决策的核心数据结构与文件名形态工具。
// 该包不依赖任何外部系统：纯数据 + 纯函数。
package domain

import "time"

// MediaKind 是媒体类型（由配置的扩展名表判定）。
type MediaKind string

const (
	KindPicture MediaKind = "picture"
	KindVideo   MediaKind = "video"
)

// MediaFile 是一个待路由的源文件。
//
// 约束：
// - AbsPath 始终 clean 且 absolute
// - Timestamp 永不为零值：文件名解析失败时由扫描层回退为 mtime
// - 路由过程中不可变：决策是 MediaFile 的纯函数
type MediaFile struct {
	AbsPath string
	RelPath string
	Name    string
	Ext     string // 小写，含点

	Kind MediaKind
	Size int64

	Timestamp time.Time
	ModTime   time.Time
}
