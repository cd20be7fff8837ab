// Package config 发现、解析并合并运行配置。
// 合并后的 EffectiveConfig 是实现层的唯一输入，不再做二次默认/优先级判断。
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vbwyrde/PhoneSync/internal/domain"
	"github.com/vbwyrde/PhoneSync/internal/rules"
)

const (
	// ErrCodeNotFound 表示无参运行但 cwd 下没有 phonesync.yaml。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingData 表示配置缺少必填字段（源目录或目标根）。
	ErrCodeMissingData = "config_missing_data"
)

// DefaultFileName 是无参运行时在 cwd 下寻找的配置文件名。
const DefaultFileName = "phonesync.yaml"

const (
	// DefaultAITimeout 是单个视频 AI 分析的超时默认值。
	DefaultAITimeout = 120 * time.Second
	// DefaultThumbnailMaxWidth 是发送给视觉模型前缩略图的最大宽度。
	DefaultThumbnailMaxWidth = 512
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --apply=false 必须能覆盖 config.apply=true。
type CLIArgs struct {
	ConfigPath string

	Apply    bool
	ApplySet bool

	Analyze    bool
	AnalyzeSet bool
}

// FileConfig 对应 phonesync.yaml 的解析结构。
type FileConfig struct {
	SourceFolders []string `yaml:"source_folders"`

	TargetPaths struct {
		Pictures string `yaml:"pictures"`
		Videos   string `yaml:"videos"`
		Wudan    string `yaml:"wudan"`
	} `yaml:"target_paths"`

	FileExtensions struct {
		Pictures []string `yaml:"pictures"`
		Videos   []string `yaml:"videos"`
	} `yaml:"file_extensions"`

	WudanRules *struct {
		Before2021    []WindowConfig `yaml:"before_2021"`
		OnOrAfter2021 []WindowConfig `yaml:"on_or_after_2021"`
	} `yaml:"wudan_rules"`

	AI struct {
		BaseURL           string `yaml:"base_url"`
		Model             string `yaml:"model"`
		Prompt            string `yaml:"prompt"`
		TimeoutSeconds    int    `yaml:"timeout_seconds"`
		ThumbnailMaxWidth int    `yaml:"thumbnail_max_width"`
	} `yaml:"ai"`

	Logging struct {
		Directory string `yaml:"directory"`
	} `yaml:"logging"`

	Options struct {
		Apply               *bool  `yaml:"apply"`
		EnableDeduplication *bool  `yaml:"enable_deduplication"`
		ForceRecopyIfNewer  bool   `yaml:"force_recopy_if_newer"`
		EnableVideoAnalysis bool   `yaml:"enable_video_analysis"`
		GenerateNotes       bool   `yaml:"generate_notes"`
		StateDB             string `yaml:"state_db"`
	} `yaml:"options"`

	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// WindowConfig 是配置文件里的一条武当时间窗。
type WindowConfig struct {
	Days  []string `yaml:"days"`
	Start string   `yaml:"start"`
	End   string   `yaml:"end"`
}

// AIConfig 是视觉分析的最终配置。
type AIConfig struct {
	BaseURL           string
	Model             string
	Prompt            string
	Timeout           time.Duration
	ThumbnailMaxWidth int
}

// EffectiveConfig 是合并并做最小规范化后的最终配置。
type EffectiveConfig struct {
	Sources []string

	PicturesRoot string
	VideosRoot   string
	WudanRoot    string

	// Kinds 按小写扩展名（含点）决定媒体类型。
	Kinds map[string]domain.MediaKind

	Rules rules.Set

	Apply               bool
	EnableDeduplication bool
	ForceRecopyIfNewer  bool
	EnableVideoAnalysis bool
	GenerateNotes       bool
	StateDB             string

	AI AIConfig

	// LogDir 是 report.json 等运行产物的目录（apply 时使用）。
	LogDir string

	ExcludeDirs []string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingData:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 缺少必填数据：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 缺少必填数据", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取配置文件并与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供配置路径：读取该文件（必须存在）
// 2) CLI 未提供：读取 <cwd>/phonesync.yaml（必须存在）
//
// 覆盖优先级（固定）：
// - apply：CLI --apply/--apply=false > options.apply > 默认 false（干跑）
// - analyze：CLI --analyze/--analyze=false > options.enable_video_analysis > 默认 false
// - 其他字段：仅由配置文件控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := absCleanFrom(cwdAbs, cli.ConfigPath)
	if cfgPath == "" {
		cfgPath = filepath.Join(cwdAbs, DefaultFileName)
	}

	b, err := os.ReadFile(cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	var fc FileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	return merge(cwdAbs, cli, fc, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	var ec EffectiveConfig

	for _, s := range fc.SourceFolders {
		if p := absCleanFrom(cwdAbs, s); p != "" {
			ec.Sources = append(ec.Sources, p)
		}
	}
	if len(ec.Sources) == 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingData, Path: cfgPath, Err: fmt.Errorf("source_folders 为空")}
	}

	ec.PicturesRoot = absCleanFrom(cwdAbs, fc.TargetPaths.Pictures)
	ec.VideosRoot = absCleanFrom(cwdAbs, fc.TargetPaths.Videos)
	ec.WudanRoot = absCleanFrom(cwdAbs, fc.TargetPaths.Wudan)
	if ec.PicturesRoot == "" || ec.VideosRoot == "" || ec.WudanRoot == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingData, Path: cfgPath, Err: fmt.Errorf("target_paths 必须包含 pictures/videos/wudan")}
	}

	ec.Kinds = buildKinds(fc)
	if len(ec.Kinds) == 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingData, Path: cfgPath, Err: fmt.Errorf("file_extensions 为空")}
	}

	if fc.WudanRules != nil {
		s, err := parseRules(fc.WudanRules.Before2021, fc.WudanRules.OnOrAfter2021)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		ec.Rules = s
	} else {
		ec.Rules = rules.Default()
	}

	// apply：CLI > config > 默认 false（干跑）。
	if cli.ApplySet {
		ec.Apply = cli.Apply
	} else if fc.Options.Apply != nil {
		ec.Apply = *fc.Options.Apply
	}

	// analyze：CLI > config > 默认 false。
	if cli.AnalyzeSet {
		ec.EnableVideoAnalysis = cli.Analyze
	} else {
		ec.EnableVideoAnalysis = fc.Options.EnableVideoAnalysis
	}

	// 查重默认开启：关闭必须显式写 enable_deduplication: false。
	ec.EnableDeduplication = true
	if fc.Options.EnableDeduplication != nil {
		ec.EnableDeduplication = *fc.Options.EnableDeduplication
	}
	ec.ForceRecopyIfNewer = fc.Options.ForceRecopyIfNewer
	ec.GenerateNotes = fc.Options.GenerateNotes
	ec.StateDB = absCleanFrom(cwdAbs, fc.Options.StateDB)

	ai, err := buildAI(fc)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	ec.AI = ai
	if ec.EnableVideoAnalysis && ec.AI.BaseURL == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingData, Path: cfgPath, Err: fmt.Errorf("开启视频分析但 ai.base_url 为空")}
	}

	ec.LogDir = absCleanFrom(cwdAbs, fc.Logging.Directory)
	if ec.LogDir == "" {
		ec.LogDir = filepath.Join(cwdAbs, "logs")
	}

	ec.ExcludeDirs = append([]string(nil), fc.ExcludeDirs...)
	return ec, nil
}

// 内置扩展名默认值：配置未写对应列表时生效。
var (
	defaultPictureExts = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".heic"}
	defaultVideoExts   = []string{".mp4", ".mov", ".avi", ".mkv", ".3gp", ".wmv"}
)

func buildKinds(fc FileConfig) map[string]domain.MediaKind {
	pics := fc.FileExtensions.Pictures
	if len(pics) == 0 {
		pics = defaultPictureExts
	}
	vids := fc.FileExtensions.Videos
	if len(vids) == 0 {
		vids = defaultVideoExts
	}

	kinds := make(map[string]domain.MediaKind, len(pics)+len(vids))
	for _, e := range pics {
		if e = normalizeExt(e); e != "" {
			kinds[e] = domain.KindPicture
		}
	}
	// 同一扩展名同时出现时视频优先（后写覆盖）。
	for _, e := range vids {
		if e = normalizeExt(e); e != "" {
			kinds[e] = domain.KindVideo
		}
	}
	return kinds
}

func normalizeExt(e string) string {
	e = strings.ToLower(strings.TrimSpace(e))
	if e == "" {
		return ""
	}
	if !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	return e
}

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func parseRules(before, after []WindowConfig) (rules.Set, error) {
	var windows []rules.Window
	for _, group := range []struct {
		era  rules.Era
		list []WindowConfig
	}{
		{rules.EraBefore2021, before},
		{rules.EraOnOrAfter2021, after},
	} {
		for i, wc := range group.list {
			w, err := parseWindow(group.era, wc)
			if err != nil {
				return rules.Set{}, fmt.Errorf("wudan_rules[%s][%d]：%w", group.era, i, err)
			}
			windows = append(windows, w)
		}
	}
	return rules.NewSet(windows), nil
}

func parseWindow(era rules.Era, wc WindowConfig) (rules.Window, error) {
	if len(wc.Days) == 0 {
		return rules.Window{}, fmt.Errorf("days 为空")
	}
	days := make(map[time.Weekday]bool, len(wc.Days))
	for _, d := range wc.Days {
		wd, ok := dayNames[strings.ToLower(strings.TrimSpace(d))]
		if !ok {
			return rules.Window{}, fmt.Errorf("未知的星期 %q", d)
		}
		days[wd] = true
	}
	start, err := rules.ParseClock(wc.Start)
	if err != nil {
		return rules.Window{}, fmt.Errorf("start：%w", err)
	}
	end, err := rules.ParseClock(wc.End)
	if err != nil {
		return rules.Window{}, fmt.Errorf("end：%w", err)
	}
	if end < start {
		return rules.Window{}, fmt.Errorf("end %q 早于 start %q", wc.End, wc.Start)
	}
	return rules.Window{Era: era, Days: days, Start: start, End: end}, nil
}

func buildAI(fc FileConfig) (AIConfig, error) {
	ai := AIConfig{
		BaseURL:           strings.TrimSpace(fc.AI.BaseURL),
		Model:             strings.TrimSpace(fc.AI.Model),
		Prompt:            strings.TrimSpace(fc.AI.Prompt),
		Timeout:           DefaultAITimeout,
		ThumbnailMaxWidth: DefaultThumbnailMaxWidth,
	}
	if ai.BaseURL != "" {
		u, err := url.Parse(ai.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return AIConfig{}, fmt.Errorf("ai.base_url 无效：%q", ai.BaseURL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return AIConfig{}, fmt.Errorf("ai.base_url 必须是 http/https：%q", ai.BaseURL)
		}
	}
	if fc.AI.TimeoutSeconds > 0 {
		ai.Timeout = time.Duration(fc.AI.TimeoutSeconds) * time.Second
	}
	if fc.AI.ThumbnailMaxWidth > 0 {
		ai.ThumbnailMaxWidth = fc.AI.ThumbnailMaxWidth
	}
	return ai, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}
