package planner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vbwyrde/PhoneSync/internal/archive"
	"github.com/vbwyrde/PhoneSync/internal/domain"
	"github.com/vbwyrde/PhoneSync/internal/rules"
)

func newResolver(t *testing.T) (Resolver, string) {
	t.Helper()
	root := t.TempDir()
	idx, err := archive.Build(nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	return Resolver{
		PicturesRoot: filepath.Join(root, "Pictures"),
		VideosRoot:   filepath.Join(root, "Videos"),
		WudanRoot:    filepath.Join(root, "Videos", "Wudan"),
		Rules:        rules.Default(),
		Index:        idx,
	}, root
}

func mediaFile(name string, kind domain.MediaKind, size int64, ts time.Time) domain.MediaFile {
	return domain.MediaFile{
		AbsPath:   filepath.Join(string(filepath.Separator), "sync", name),
		RelPath:   name,
		Name:      name,
		Ext:       filepath.Ext(name),
		Kind:      kind,
		Size:      size,
		Timestamp: ts,
		ModTime:   ts,
	}
}

func TestResolve_WudanBranchForClassTimeVideo(t *testing.T) {
	r, _ := newResolver(t)

	// 2020-06-15 周一 07:00：旧时代 05:00–08:00 命中。
	f := mediaFile("20200615_070000_1.mp4", domain.KindVideo, 1000,
		time.Date(2020, 6, 15, 7, 0, 0, 0, time.Local))

	dest, branch := r.Resolve(f)
	if branch != domain.BranchWudan {
		t.Fatalf("期望 wudan 分支，实际 %s", branch)
	}
	if dest != filepath.Join(r.WudanRoot, "2020_06_15") {
		t.Fatalf("期望 %q，实际 %q", filepath.Join(r.WudanRoot, "2020_06_15"), dest)
	}
}

func TestResolve_GenericVideoBranchOutsideWindows(t *testing.T) {
	r, _ := newResolver(t)

	// 2025-04-10 周四正午：新时代周四只有 05:00–08:00 与 18:00–21:00。
	f := mediaFile("20250410_120000_1.mp4", domain.KindVideo, 1000,
		time.Date(2025, 4, 10, 12, 0, 0, 0, time.Local))

	dest, branch := r.Resolve(f)
	if branch != domain.BranchVideos {
		t.Fatalf("期望 videos 分支，实际 %s", branch)
	}
	if dest != filepath.Join(r.VideosRoot, "2025_04_10") {
		t.Fatalf("期望规范日期目录，实际 %q", dest)
	}
}

func TestResolve_PictureBranchIgnoresRules(t *testing.T) {
	r, _ := newResolver(t)

	// 课程时段内的图片仍进 pictures。
	f := mediaFile("20200615_070000_1.jpg", domain.KindPicture, 500,
		time.Date(2020, 6, 15, 7, 0, 0, 0, time.Local))

	dest, branch := r.Resolve(f)
	if branch != domain.BranchPictures {
		t.Fatalf("期望 pictures 分支，实际 %s", branch)
	}
	if dest != filepath.Join(r.PicturesRoot, "2020_06_15") {
		t.Fatalf("期望 %q，实际 %q", filepath.Join(r.PicturesRoot, "2020_06_15"), dest)
	}
}

func TestResolve_PrefersExistingSuffixedFolder(t *testing.T) {
	r, _ := newResolver(t)

	// 用图片验证目录优先逻辑，避免与规则表耦合。
	p := mediaFile("20250412_120000_1.jpg", domain.KindPicture, 1000,
		time.Date(2025, 4, 12, 12, 0, 0, 0, time.Local))
	custom := filepath.Join(r.PicturesRoot, "2025_04_12_Birthday")
	if err := os.MkdirAll(custom, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	dest, _ := r.Resolve(p)
	if dest != custom {
		t.Fatalf("期望复用已有自定义目录 %q，实际 %q", custom, dest)
	}

	// wudan 分支同样优先复用已有后缀目录。
	wudanCustom := filepath.Join(r.WudanRoot, "2025_04_12_KungFuClass")
	if err := os.MkdirAll(wudanCustom, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	v := mediaFile("20250412_120000_1.mp4", domain.KindVideo, 1000,
		time.Date(2025, 4, 12, 12, 0, 0, 0, time.Local)) // 周六 12:00 在新表 08:00–16:00 内
	dest, branch := r.Resolve(v)
	if branch != domain.BranchWudan || dest != wudanCustom {
		t.Fatalf("期望 wudan 分支复用 %q，实际 (%q, %s)", wudanCustom, dest, branch)
	}
}

func TestDecide_FlexibleDuplicateIsSizeSensitive(t *testing.T) {
	r, _ := newResolver(t)

	archivedDir := filepath.Join(r.VideosRoot, "2025_04_12_KungFuClass")
	r.Index.Register(domain.ArchiveEntry{
		BasePattern: "20250412_110016_1",
		Name:        "20250412_110016_1_MorningPractice.mp4",
		Size:        1000,
		Dir:         archivedDir,
		DirName:     "2025_04_12_KungFuClass",
		FolderDate:  "2025_04_12",
	})

	// 周六 11:00 在新时代 08:00–16:00 内：目标是 wudan。但归档副本在
	// videos 分支的同日期目录里——日期前缀柔性匹配仍应判重。
	f := mediaFile("20250412_110016_1.mp4", domain.KindVideo, 1000,
		time.Date(2025, 4, 12, 11, 0, 16, 0, time.Local))

	d := r.Decide(f)
	if !d.Duplicate {
		t.Fatalf("期望判重（柔性改名匹配），实际 %+v", d)
	}

	// 同名不同体积：绝不判重。
	f2 := mediaFile("20250412_110016_1.mp4", domain.KindVideo, 2000,
		time.Date(2025, 4, 12, 11, 0, 16, 0, time.Local))
	if d2 := r.Decide(f2); d2.Duplicate {
		t.Fatalf("体积不同不应判重：%+v", d2)
	}
}

func TestDecide_ExactDirectoryFallback(t *testing.T) {
	r, _ := newResolver(t)

	// 父目录不是日期形态：只能靠“目录完全一致”兜底。
	destDir := filepath.Join(r.PicturesRoot, "2025_04_12")
	r.Index.Register(domain.ArchiveEntry{
		BasePattern: "M4H01890",
		Name:        "M4H01890.MP4",
		Size:        700,
		Dir:         filepath.Join(r.PicturesRoot, "Misc"),
		DirName:     "Misc",
		FolderDate:  "",
	})

	f := mediaFile("M4H01890.MP4", domain.KindPicture, 700,
		time.Date(2025, 4, 12, 10, 0, 0, 0, time.Local))
	if d := r.Decide(f); d.Duplicate {
		t.Fatalf("目录不一致且无日期前缀，不应判重：%+v", d)
	}

	r.Index.Register(domain.ArchiveEntry{
		BasePattern: "M4H01890",
		Name:        "M4H01890.MP4",
		Size:        700,
		Dir:         destDir,
		DirName:     "2025_04_12",
		FolderDate:  "2025_04_12",
	})
	if d := r.Decide(f); !d.Duplicate {
		t.Fatalf("同日期目录中的同名同体积文件应判重：%+v", d)
	}
}

func TestDecide_ForceRecopyIfNewer(t *testing.T) {
	r, _ := newResolver(t)
	r.ForceRecopyIfNewer = true

	old := time.Date(2025, 4, 12, 11, 0, 16, 0, time.Local)
	r.Index.Register(domain.ArchiveEntry{
		BasePattern: "20250412_110016_1",
		Name:        "20250412_110016_1.mp4",
		Size:        1000,
		Dir:         filepath.Join(r.VideosRoot, "2025_04_12"),
		DirName:     "2025_04_12",
		FolderDate:  "2025_04_12",
		ModTime:     old,
	})

	f := mediaFile("20250412_110016_1.mp4", domain.KindVideo, 1000, old)
	f.ModTime = old.Add(time.Hour) // 源比归档副本新

	if d := r.Decide(f); d.Duplicate {
		t.Fatalf("force_recopy_if_newer 开启且源更新时不应判重：%+v", d)
	}

	f.ModTime = old
	if d := r.Decide(f); !d.Duplicate {
		t.Fatalf("源不更新时仍应判重：%+v", d)
	}
}
