package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vbwyrde/PhoneSync/internal/domain"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}

const minimalYAML = `
source_folders:
  - sync
target_paths:
  pictures: archive/Pictures
  videos: archive/Videos
  wudan: archive/Videos/Wudan
`

func TestLoadEffective_ConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_MissingSources(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte(`
target_paths:
  pictures: a
  videos: b
  wudan: c
`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeMissingData {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeMissingData, err, Code(err))
	}
}

func TestLoadEffective_MissingTargetRoot(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte(`
source_folders: [sync]
target_paths:
  pictures: a
  videos: b
`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeMissingData {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeMissingData, err, Code(err))
	}
}

func TestLoadEffective_MinimalDefaults(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte(minimalYAML))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	// 相对路径统一规范化为绝对路径。
	if want := filepath.Join(cwd, "sync"); len(eff.Sources) != 1 || eff.Sources[0] != want {
		t.Fatalf("期望源 [%q]，实际 %v", want, eff.Sources)
	}
	if want := filepath.Join(cwd, "archive", "Videos", "Wudan"); eff.WudanRoot != want {
		t.Fatalf("期望 wudan 根 %q，实际 %q", want, eff.WudanRoot)
	}

	// 默认值：干跑、开启查重、关闭分析、内置扩展名与规则表。
	if eff.Apply {
		t.Fatalf("默认必须是干跑")
	}
	if !eff.EnableDeduplication {
		t.Fatalf("查重默认开启")
	}
	if eff.EnableVideoAnalysis {
		t.Fatalf("视频分析默认关闭")
	}
	if eff.Kinds[".jpg"] != domain.KindPicture || eff.Kinds[".mp4"] != domain.KindVideo {
		t.Fatalf("内置扩展名表异常：%v", eff.Kinds)
	}
	// 内置规则表生效：2021-03-07 周日 10:00 命中。
	if !eff.Rules.Matches(time.Date(2021, 3, 7, 10, 0, 0, 0, time.Local)) {
		t.Fatalf("内置规则表应命中 2021-03-07 周日 10:00")
	}
	if eff.AI.Timeout != DefaultAITimeout {
		t.Fatalf("期望默认超时 %v，实际 %v", DefaultAITimeout, eff.AI.Timeout)
	}
}

func TestLoadEffective_ApplyCLIOverride(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte(minimalYAML+`
options:
  apply: true
`))

	eff, err := LoadEffective(cwd, CLIArgs{
		Apply:    false,
		ApplySet: true, // --apply=false
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Apply {
		t.Fatalf("CLI --apply=false 必须覆盖 options.apply=true")
	}
}

func TestLoadEffective_CustomExtensionsAndRules(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte(minimalYAML+`
file_extensions:
  pictures: [JPG]
  videos: [".mp4"]
wudan_rules:
  on_or_after_2021:
    - days: [Fri]
      start: "10:00"
      end: "11:00"
`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// 扩展名大小写/点号统一规范化。
	if eff.Kinds[".jpg"] != domain.KindPicture {
		t.Fatalf("期望 .jpg 归图片，实际 %v", eff.Kinds)
	}
	if _, ok := eff.Kinds[".png"]; ok {
		t.Fatalf("显式扩展名列表不应混入默认值")
	}

	// 覆盖后的规则表整体替换内置表。
	if !eff.Rules.Matches(time.Date(2021, 3, 12, 10, 30, 0, 0, time.Local)) { // 周五
		t.Fatalf("自定义规则应命中周五 10:30")
	}
	if eff.Rules.Matches(time.Date(2021, 3, 7, 10, 0, 0, 0, time.Local)) { // 周日
		t.Fatalf("内置表已被替换，周日不应命中")
	}
}

func TestLoadEffective_InvalidRuleWindow(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte(minimalYAML+`
wudan_rules:
  before_2021:
    - days: [Mon]
      start: "08:00"
      end: "05:00"
`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_AnalyzeRequiresBaseURL(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte(minimalYAML))

	_, err := LoadEffective(cwd, CLIArgs{Analyze: true, AnalyzeSet: true})
	if Code(err) != ErrCodeMissingData {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeMissingData, err, Code(err))
	}
}

func TestLoadEffective_ExplicitConfigPath(t *testing.T) {
	cwd := t.TempDir()
	other := filepath.Join(cwd, "conf", "custom.yaml")
	if err := os.MkdirAll(filepath.Dir(other), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	writeFile(t, other, []byte(minimalYAML))

	eff, err := LoadEffective(cwd, CLIArgs{ConfigPath: filepath.Join("conf", "custom.yaml")})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(eff.Sources) != 1 {
		t.Fatalf("期望 1 个源，实际 %v", eff.Sources)
	}
}
