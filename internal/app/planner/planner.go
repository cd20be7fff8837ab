// Package planner 把时间戳、武当规则与归档索引组合成每个文件的
// 路由决策：目标目录 + 是否重复。决策必须在任何复制之前完成。
package planner

import (
	"path/filepath"

	"github.com/vbwyrde/PhoneSync/internal/archive"
	"github.com/vbwyrde/PhoneSync/internal/domain"
	"github.com/vbwyrde/PhoneSync/internal/rules"
)

// Resolver 持有一次 run 的只读决策依据。
//
// Index 在 run 内只通过 Register 追加（复制成功后），因此决策仍是
// (MediaFile, 建索引快照+已登记条目, 规则表) 的纯函数，与处理顺序无关。
type Resolver struct {
	PicturesRoot string
	VideosRoot   string
	WudanRoot    string

	Rules rules.Set
	Index *archive.Index

	// ForceRecopyIfNewer 开启时：归档副本比源文件旧则视为非重复（重新复制）。
	ForceRecopyIfNewer bool
}

// Resolve 返回文件的目标目录。
//
// 规则：图片进 pictures；视频按武当时间窗进 wudan 或 videos。
// 已存在同日期目录（允许自定义后缀）优先于新建规范目录。
// 对受支持的媒体类型永不失败（不受支持的扩展名在扫描层已被拒绝）。
func (r Resolver) Resolve(f domain.MediaFile) (string, domain.Branch) {
	root := r.PicturesRoot
	branch := domain.BranchPictures
	if f.Kind == domain.KindVideo {
		if r.Rules.Matches(f.Timestamp) {
			root = r.WudanRoot
			branch = domain.BranchWudan
		} else {
			root = r.VideosRoot
			branch = domain.BranchVideos
		}
	}

	pattern := domain.DatePattern(f.Timestamp)
	if existing, ok := archive.FindDateFolder(root, pattern); ok {
		return existing, branch
	}
	return filepath.Join(root, pattern), branch
}

// Decide 产出文件的最终路由决策（目标目录 + 查重结论）。
//
// 查重算法：
// 1) 取 (BasePattern, Size) 的全部候选（体积不同的同名文件从不入选）
// 2) 候选的文件名需按“允许追加描述后缀”的规则与源名匹配
// 3) 候选父目录的日期前缀等于目标目录的日期前缀（柔性匹配，容忍改名目录），
//    或候选目录与目标目录完全一致（精确兜底）
func (r Resolver) Decide(f domain.MediaFile) domain.RoutingDecision {
	destDir, branch := r.Resolve(f)
	d := domain.RoutingDecision{DestDir: destDir, Branch: branch}

	candidates := r.Index.FindByPattern(domain.BasePattern(f.Name), f.Size)
	if len(candidates) == 0 {
		return d
	}

	destDate, _ := domain.FolderDatePattern(filepath.Base(destDir))

	for _, c := range candidates {
		if !domain.StemsMatchFlexible(f.Name, c.Name) {
			continue
		}

		matched := false
		if destDate != "" && c.FolderDate != "" {
			matched = c.FolderDate == destDate
		} else {
			matched = filepath.Clean(c.Dir) == filepath.Clean(destDir)
		}
		if !matched {
			continue
		}

		if r.ForceRecopyIfNewer && !c.ModTime.IsZero() && f.ModTime.After(c.ModTime) {
			// 归档副本过旧：按新文件处理，让传输方重新复制。
			continue
		}

		d.Duplicate = true
		return d
	}
	return d
}
