// Package archive 对既有归档树做一次性扫描，建立
// “(文件名主干, 体积) -> 已归档条目”的查重索引，并提供日期目录发现。
package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vbwyrde/PhoneSync/internal/domain"
)

type key struct {
	base string
	size int64
}

// Index 是一次 run 的归档快照。
//
// 约束：
// - Build 之后只通过 Register 追加（复制成功后登记新条目），不原地修改
// - 查询结果顺序确定（按路径字典序），便于测试与复现
type Index struct {
	byKey map[key][]domain.ArchiveEntry

	// Files 是已索引条目总数；MissingRoots 记录不存在（按空处理）的归档根。
	Files        int
	MissingRoots []string
}

// Build 递归枚举每个归档根下的全部文件并建立索引。
// 缺失的根不是错误：记入 MissingRoots，该根视为空（查不到任何重复）。
func Build(roots []string) (*Index, error) {
	idx := &Index{byKey: make(map[key][]domain.ArchiveEntry, 1024)}

	for _, root := range roots {
		root = filepath.Clean(strings.TrimSpace(root))
		if root == "" || root == "." {
			continue
		}
		fi, err := os.Stat(root)
		if err != nil {
			if os.IsNotExist(err) {
				idx.MissingRoots = append(idx.MissingRoots, root)
				continue
			}
			return nil, fmt.Errorf("读取归档根 %q 失败：%w", root, err)
		}
		if !fi.IsDir() {
			return nil, fmt.Errorf("归档根 %q 不是目录", root)
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			idx.Register(entryFor(path, info.Size(), info))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("扫描归档根 %q 失败：%w", root, err)
		}
	}

	// 同 key 下条目按路径排序：查询结果与磁盘枚举顺序解耦。
	for k := range idx.byKey {
		list := idx.byKey[k]
		sort.Slice(list, func(i, j int) bool {
			return filepath.Join(list[i].Dir, list[i].Name) < filepath.Join(list[j].Dir, list[j].Name)
		})
	}
	return idx, nil
}

func entryFor(path string, size int64, info fs.FileInfo) domain.ArchiveEntry {
	dir := filepath.Dir(path)
	dirName := filepath.Base(dir)
	folderDate, _ := domain.FolderDatePattern(dirName)

	e := domain.ArchiveEntry{
		BasePattern: domain.BasePattern(filepath.Base(path)),
		Name:        filepath.Base(path),
		Size:        size,
		Dir:         dir,
		DirName:     dirName,
		FolderDate:  folderDate,
	}
	if info != nil {
		e.ModTime = info.ModTime()
	}
	return e
}

// NewEntry 为刚复制完成的文件构造条目（由传输方调用后 Register）。
func NewEntry(dstPath string, size int64, info fs.FileInfo) domain.ArchiveEntry {
	return entryFor(dstPath, size, info)
}

// Register 追加一个新条目，保持 run 内的查重一致性。
func (x *Index) Register(e domain.ArchiveEntry) {
	k := key{base: e.BasePattern, size: e.Size}
	x.byKey[k] = append(x.byKey[k], e)
	x.Files++
}

// FindByPattern 返回 (主干, 体积) 完全一致的全部条目。
// 体积不同的同名文件从不出现在结果里（防误判的主防线）。
func (x *Index) FindByPattern(basePattern string, size int64) []domain.ArchiveEntry {
	return x.byKey[key{base: basePattern, size: size}]
}

// FindDateFolder 在 root 直接子目录中寻找日期目录：目录名等于 datePattern，
// 或以 datePattern+"_" 开头（容忍人工改名追加的后缀）。
//
// 同一日期存在多个后缀变体时取目录名字典序最小者（确定性决策，
// 依据与取舍记录在 DESIGN.md）。
func FindDateFolder(root, datePattern string) (string, bool) {
	entries, err := os.ReadDir(root)
	if err != nil {
		// root 不存在或不可读：按“没有现成目录”处理。
		return "", false
	}

	// os.ReadDir 已按文件名排序，首个命中即字典序最小。
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if name == datePattern || strings.HasPrefix(name, datePattern+"_") {
			return filepath.Join(root, name), true
		}
	}
	return "", false
}
