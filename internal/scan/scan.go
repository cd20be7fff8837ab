// Package scan 枚举手机同步目录中的媒体文件。
// 扫描阶段只做 stat（DirEntry.Info），不读文件内容。
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vbwyrde/PhoneSync/internal/domain"
	"github.com/vbwyrde/PhoneSync/internal/stamp"
)

// Result 是一次源扫描的产出。
type Result struct {
	Files []domain.MediaFile

	// MissingRoots 记录不存在的源目录（跳过，不致命）。
	MissingRoots []string
}

// ScanSources 扫描每个源目录下扩展名受支持的文件。
//
// 规则（硬约束）：
// - kinds 按小写扩展名（含点）决定媒体类型；不在表中的扩展名直接跳过
// - 时间戳在此处一次性解析（文件名优先，失败退回 mtime），后续阶段只读不算
// - 输出按 AbsPath 排序，跨平台稳定
func ScanSources(roots []string, kinds map[string]domain.MediaKind, excludeDirs []string) (Result, error) {
	var res Result
	res.Files = make([]domain.MediaFile, 0, 128)

	for _, root := range roots {
		root = filepath.Clean(strings.TrimSpace(root))
		if root == "" || root == "." {
			continue
		}
		fi, err := os.Stat(root)
		if err != nil {
			if os.IsNotExist(err) {
				res.MissingRoots = append(res.MissingRoots, root)
				continue
			}
			return Result{}, fmt.Errorf("读取源目录 %q 失败：%w", root, err)
		}
		if !fi.IsDir() {
			return Result{}, fmt.Errorf("源目录 %q 不是目录", root)
		}
		excluded := buildExcluded(root, excludeDirs)

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			if isExcluded(path, excluded) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			name := d.Name()
			ext := strings.ToLower(filepath.Ext(name))
			kind, ok := kinds[ext]
			if !ok {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}

			res.Files = append(res.Files, domain.MediaFile{
				AbsPath:   path,
				RelPath:   rel,
				Name:      name,
				Ext:       ext,
				Kind:      kind,
				Size:      info.Size(),
				Timestamp: stamp.Resolve(name, info.ModTime()),
				ModTime:   info.ModTime(),
			})
			return nil
		})
		if err != nil {
			return Result{}, err
		}
	}

	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].AbsPath < res.Files[j].AbsPath })
	return res, nil
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
