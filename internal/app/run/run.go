package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vbwyrde/PhoneSync/internal/annotate"
	"github.com/vbwyrde/PhoneSync/internal/app"
	"github.com/vbwyrde/PhoneSync/internal/app/planner"
	"github.com/vbwyrde/PhoneSync/internal/archive"
	"github.com/vbwyrde/PhoneSync/internal/config"
	"github.com/vbwyrde/PhoneSync/internal/domain"
	"github.com/vbwyrde/PhoneSync/internal/infra/ffx"
	"github.com/vbwyrde/PhoneSync/internal/infra/fsx"
	"github.com/vbwyrde/PhoneSync/internal/infra/imgx"
	"github.com/vbwyrde/PhoneSync/internal/notes"
	"github.com/vbwyrde/PhoneSync/internal/scan"
	"github.com/vbwyrde/PhoneSync/internal/state"
)

// Analyzer 对一个已落位的视频产出分析结论。
// run 层只依赖该接口；生产实现见 NewFFmpegAnalyzer，测试注入假实现。
type Analyzer interface {
	Analyze(ctx context.Context, path string) (annotate.Verdict, error)
}

// ffmpegAnalyzer 是生产实现：ffprobe 取时长 -> ffmpeg 抽中点帧 ->
// 缩略图 -> 视觉模型分类。
type ffmpegAnalyzer struct {
	classifier annotate.Classifier
	maxWidth   int
}

// NewFFmpegAnalyzer 构造生产分析器。
func NewFFmpegAnalyzer(c annotate.Classifier, thumbnailMaxWidth int) Analyzer {
	return &ffmpegAnalyzer{classifier: c, maxWidth: thumbnailMaxWidth}
}

func (a *ffmpegAnalyzer) Analyze(ctx context.Context, path string) (annotate.Verdict, error) {
	dur, err := ffx.Duration(ctx, path)
	if err != nil {
		return annotate.Verdict{}, err
	}
	frame, err := ffx.ExtractFrame(ctx, path, ffx.Midpoint(dur))
	if err != nil {
		return annotate.Verdict{}, err
	}
	thumb, err := imgx.ThumbnailJPEG(frame, a.maxWidth)
	if err != nil {
		return annotate.Verdict{}, err
	}
	return a.classifier.ClassifyFrame(ctx, thumb)
}

// Execute 执行一次 run（dry-run/apply），并返回对外稳定的 RunReport。
// 该函数尽量把错误“降级”为 item 级失败（单条失败不影响其他）。
func Execute(ctx context.Context, eff config.EffectiveConfig, analyzer Analyzer) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, analyzer, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息。
//
// 阶段顺序（硬约束）：
// 1) index：建归档查重索引（查重关闭时建空索引）
// 2) scan：枚举源文件并解析时间戳
// 3) route：逐个文件决策 + 复制 + 登记（串行：run 内查重一致性依赖登记顺序）
// 4) analyze：仅 apply 且开启分析时，对新落位的视频跑视觉分析
// 5) notes：把分析结果合并进日期目录笔记
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, analyzer Analyzer, obs Observer) domain.RunReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		DryRun:    !eff.Apply,
		StartedAt: started,
		Items:     make([]domain.ItemResult, 0, 128),
	}

	// 阶段 1：index。
	indexStarted := time.Now()
	var indexRoots []string
	if eff.EnableDeduplication {
		indexRoots = []string{eff.PicturesRoot, eff.VideosRoot, eff.WudanRoot}
	}
	idx, err := archive.Build(indexRoots)
	if err != nil {
		rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("建归档索引失败：%v", err)))
		return finish(rr)
	}
	if obs != nil {
		obs.OnPhaseDone("index", map[string]any{
			"files":         idx.Files,
			"missing_roots": len(idx.MissingRoots),
		}, time.Since(indexStarted))
	}

	// 阶段 2：scan。
	scanStarted := time.Now()
	sr, err := scan.ScanSources(eff.Sources, eff.Kinds, eff.ExcludeDirs)
	if err != nil {
		rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("扫描失败：%v", err)))
		return finish(rr)
	}
	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{
			"files":         len(sr.Files),
			"missing_roots": len(sr.MissingRoots),
		}, time.Since(scanStarted))
	}

	resolver := planner.Resolver{
		PicturesRoot:       eff.PicturesRoot,
		VideosRoot:         eff.VideosRoot,
		WudanRoot:          eff.WudanRoot,
		Rules:              eff.Rules,
		Index:              idx,
		ForceRecopyIfNewer: eff.ForceRecopyIfNewer,
	}

	// 阶段 3：route + copy + register（串行）。
	routeStarted := time.Now()
	type copied struct {
		itemIdx    int
		dstPath    string
		destDir    string
		folderDate string
		file       domain.MediaFile
	}
	var newVideos []copied

	for i, f := range sr.Files {
		oneStarted := time.Now()
		item := routeOne(eff, resolver, idx, f)
		if item.Status == domain.StatusCopied && f.Kind == domain.KindVideo {
			folderDate, _ := domain.FolderDatePattern(filepath.Base(filepath.Dir(item.Dst)))
			newVideos = append(newVideos, copied{
				itemIdx:    len(rr.Items),
				dstPath:    item.Dst,
				destDir:    filepath.Dir(item.Dst),
				folderDate: folderDate,
				file:       f,
			})
		}
		rr.Items = append(rr.Items, item)
		if obs != nil {
			obs.OnItemDone(i+1, len(sr.Files), item, time.Since(oneStarted))
		}
	}
	if obs != nil {
		var s domain.ReportSummary
		for _, it := range rr.Items {
			switch it.Status {
			case domain.StatusCopied:
				s.Copied++
			case domain.StatusDuplicate:
				s.Duplicates++
			case domain.StatusPlanned:
				s.Planned++
			case domain.StatusFailed:
				s.Failed++
			}
		}
		obs.OnPhaseDone("route", map[string]any{
			"copied":     s.Copied,
			"duplicates": s.Duplicates,
			"planned":    s.Planned,
			"failed":     s.Failed,
		}, time.Since(routeStarted))
	}

	// 阶段 4：analyze（仅 apply + 开启分析）。
	if eff.Apply && eff.EnableVideoAnalysis && analyzer != nil && len(newVideos) > 0 {
		analyzeStarted := time.Now()

		var store *state.Store
		if eff.StateDB != "" {
			store, err = state.Open(eff.StateDB)
			if err != nil {
				rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("打开状态库失败：%v", err)))
				store = nil
			} else {
				defer store.Close()
			}
		}

		var analyzed, skipped, failed int
		var noteInputs []app.NoteInput
		for _, c := range newVideos {
			verdict, ok := lookupAnalyzed(store, c.dstPath, c.file.Size)
			if ok {
				skipped++
			} else {
				v, e := analyzer.Analyze(ctx, c.dstPath)
				if e != nil {
					failed++
					rr.Items[c.itemIdx].ErrorCode = domain.ErrCodeAnalyzeFailed
					rr.Items[c.itemIdx].ErrorMsg = fmt.Sprintf("视频分析失败：%v", e)
					continue
				}
				analyzed++
				verdict = v
				if store != nil {
					if e := store.Mark(c.dstPath, c.file.Size, v.IsKungFu, v.Description); e != nil {
						rr.Items[c.itemIdx].ErrorCode = domain.ErrCodeIOFailed
						rr.Items[c.itemIdx].ErrorMsg = fmt.Sprintf("写状态库失败：%v", e)
					}
				}
			}

			rr.Items[c.itemIdx].Note = verdict.Description
			noteInputs = append(noteInputs, app.NoteInput{
				DestDir:    c.destDir,
				FolderDate: c.folderDate,
				FileName:   filepath.Base(c.dstPath),
				Note:       verdict.Description,
			})
		}
		if obs != nil {
			obs.OnPhaseDone("analyze", map[string]any{
				"analyzed": analyzed,
				"skipped":  skipped,
				"failed":   failed,
			}, time.Since(analyzeStarted))
		}

		// 阶段 5：notes。
		if eff.GenerateNotes {
			notesStarted := time.Now()
			groups := app.GroupNotes(noteInputs)
			for _, g := range groups {
				if e := notes.Upsert(g.Dir, g.FolderDate, g.Entries); e != nil {
					rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("写笔记失败（%s）：%v", g.Dir, e)))
				}
			}
			if obs != nil {
				obs.OnPhaseDone("notes", map[string]any{"folders": len(groups)}, time.Since(notesStarted))
			}
		}
	}

	return finish(rr)
}

func finish(rr domain.RunReport) domain.RunReport {
	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

func lookupAnalyzed(store *state.Store, path string, size int64) (annotate.Verdict, bool) {
	if store == nil {
		return annotate.Verdict{}, false
	}
	rec, ok, err := store.Lookup(path, size)
	if err != nil || !ok {
		return annotate.Verdict{}, false
	}
	return annotate.Verdict{IsKungFu: rec.IsKungFu, Description: rec.Description}, true
}

// routeOne 对单个文件做决策并（apply 时）执行复制 + 登记。
// 任何失败只影响该条目。
func routeOne(eff config.EffectiveConfig, resolver planner.Resolver, idx *archive.Index, f domain.MediaFile) domain.ItemResult {
	item := domain.ItemResult{
		Src:  f.AbsPath,
		Kind: string(f.Kind),
	}

	d := resolver.Decide(f)
	item.Branch = string(d.Branch)

	if d.Duplicate {
		item.Status = domain.StatusDuplicate
		item.Dst = d.DestDir
		return item
	}

	if !eff.Apply {
		item.Status = domain.StatusPlanned
		item.Dst = filepath.Join(d.DestDir, f.Name)
		return item
	}

	name, err := fsx.AllocateName(d.DestDir, f.Name)
	if err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeIOFailed
		item.ErrorMsg = fmt.Sprintf("分配目标文件名失败：%v", err)
		return item
	}

	if err := fsx.CopyFileVerified(f.AbsPath, d.DestDir, name, f.Size); err != nil {
		item.Status = domain.StatusFailed
		switch {
		case fsx.IsPathTypeConflict(err) || errors.Is(err, os.ErrExist):
			item.ErrorCode = domain.ErrCodeTargetConflict
		default:
			item.ErrorCode = domain.ErrCodeCopyFailed
		}
		item.ErrorMsg = err.Error()
		return item
	}

	dstPath := filepath.Join(d.DestDir, name)
	item.Status = domain.StatusCopied
	item.Dst = dstPath

	// 复制成功立即登记：同一 run 内后续同名同体积文件判重。
	info, err := os.Stat(dstPath)
	if err != nil {
		info = nil
	}
	idx.Register(archive.NewEntry(dstPath, f.Size, info))
	return item
}

func syntheticFailed(code, msg string) domain.ItemResult {
	return domain.ItemResult{
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}
