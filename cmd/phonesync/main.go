package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vbwyrde/PhoneSync/internal/annotate"
	"github.com/vbwyrde/PhoneSync/internal/app/run"
	"github.com/vbwyrde/PhoneSync/internal/config"
	"github.com/vbwyrde/PhoneSync/internal/domain"
	"github.com/vbwyrde/PhoneSync/internal/infra/fsx"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "run":
		if code := runCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printRunUsage()
			return 0
		}
	}

	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printRunUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		ConfigPath: ra.ConfigPath,
		Apply:      ra.Apply,
		ApplySet:   ra.ApplySet,
		Analyze:    ra.Analyze,
		AnalyzeSet: ra.AnalyzeSet,
	})
	if err != nil {
		emitReport(reportForConfigError(ra, err))
		return 1
	}

	var analyzer run.Analyzer
	if eff.EnableVideoAnalysis {
		classifier := annotate.NewVisionClassifier(annotate.Options{
			BaseURL: eff.AI.BaseURL,
			Model:   eff.AI.Model,
			Prompt:  eff.AI.Prompt,
			Timeout: eff.AI.Timeout,
		})
		analyzer = run.NewFFmpegAnalyzer(classifier, eff.AI.ThumbnailMaxWidth)
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	rr := run.ExecuteWithObserver(context.Background(), eff, analyzer, obs)

	// apply：必须写入 <log_dir>/report.json；dry-run 禁止落盘。
	if eff.Apply {
		if err := writeReportFile(eff.LogDir, rr); err != nil {
			fmt.Fprintf(os.Stderr, "写入 report.json 失败：%v\n", err)
			emitReport(rr)
			return 1
		}
	}

	emitReport(rr)
	if interactive && eff.Apply {
		fmt.Fprintf(progressW, "report: %s\n", filepath.Join(eff.LogDir, "report.json"))
	}
	if rr.Summary.Failed == 0 {
		return 0
	}
	return 1
}

type runArgs struct {
	ConfigPath string
	Apply      bool
	ApplySet   bool
	Analyze    bool
	AnalyzeSet bool
}

func parseRunArgs(args []string) (runArgs, error) {
	ra := runArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--apply":
			ra.Apply = true
			ra.ApplySet = true
		case strings.HasPrefix(a, "--apply="):
			v, err := parseBoolFlag("--apply", strings.TrimPrefix(a, "--apply="))
			if err != nil {
				return runArgs{}, err
			}
			ra.Apply = v
			ra.ApplySet = true
		case a == "--analyze":
			ra.Analyze = true
			ra.AnalyzeSet = true
		case strings.HasPrefix(a, "--analyze="):
			v, err := parseBoolFlag("--analyze", strings.TrimPrefix(a, "--analyze="))
			if err != nil {
				return runArgs{}, err
			}
			ra.Analyze = v
			ra.AnalyzeSet = true
		case strings.HasPrefix(a, "-"):
			return runArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if ra.ConfigPath != "" {
				return runArgs{}, fmt.Errorf("重复的配置路径：%q 与 %q", ra.ConfigPath, a)
			}
			ra.ConfigPath = a
		}
	}
	return ra, nil
}

func parseBoolFlag(flag, v string) (bool, error) {
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%s 只能是 true 或 false，实际是 %q", flag, v)
	}
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  phonesync run [config.yaml] [--apply[=true|false]] [--analyze[=true|false]]

命令：
  run    运行一次同步（默认 dry-run）

使用 "phonesync run --help" 查看详细说明。
`)
}

func printRunUsage() {
	fmt.Fprint(os.Stdout, `用法：
  phonesync run [config.yaml] [--apply[=true|false]] [--analyze[=true|false]]

参数：
  config.yaml  配置文件路径（未指定则读 <cwd>/phonesync.yaml）
  --apply      执行复制落盘（默认 dry-run）；支持 --apply=false 覆盖配置中的 apply=true
  --analyze    对新落位的视频跑 AI 分析（需要配置 ai.base_url）
  -h, --help   显示帮助
`)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：copied=%d duplicates=%d planned=%d failed=%d\n",
			rr.Summary.Copied, rr.Summary.Duplicates, rr.Summary.Planned, rr.Summary.Failed,
		)
		if rr.Summary.Failed > 0 {
			for _, it := range rr.Items {
				if it.Status != domain.StatusFailed {
					continue
				}
				key := it.Src
				if key == "" {
					key = "<run>"
				}
				fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
			}
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：copied=%d duplicates=%d planned=%d failed=%d\n",
		rr.Summary.Copied, rr.Summary.Duplicates, rr.Summary.Planned, rr.Summary.Failed,
	)
}

func reportForConfigError(ra runArgs, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		DryRun:     !(ra.ApplySet && ra.Apply),
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.ItemResult{{
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func writeReportFile(logDir string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(logDir, "report.json", b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
