// Package ffx 封装 ffprobe/ffmpeg 外部命令：取视频时长、抽取中点帧。
// 只在开启视频分析时使用；二进制缺失按普通错误上抛（条目级降级）。
package ffx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Duration 用一次 ffprobe JSON 调用取视频时长（秒）。
func Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %q：%w", path, err)
	}
	return ParseDuration(out)
}

// ParseDuration 解析 ffprobe 的 JSON 输出。
// 独立导出：测试无需真实 ffprobe 二进制。
func ParseDuration(data []byte) (float64, error) {
	var raw struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("解析 ffprobe JSON 失败：%w", err)
	}
	s := strings.TrimSpace(raw.Format.Duration)
	if s == "" {
		return 0, fmt.Errorf("ffprobe 输出缺少 format.duration")
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("非法时长 %q", s)
	}
	return d, nil
}

// ExtractFrame 在 at 秒处抽取单帧，JPEG 字节流经 stdout 返回，不落盘。
// -ss 放在 -i 之前：按关键帧粗定位，对缩略图场景足够且快得多。
func ExtractFrame(ctx context.Context, path string, at float64) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-ss", strconv.FormatFloat(at, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg 抽帧 %q 失败：%w（%s）", path, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg 抽帧 %q 无输出", path)
	}
	return stdout.Bytes(), nil
}

// Midpoint 返回抽帧时间点：时长中点。时长未知（0）时退回 0 秒。
func Midpoint(duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return duration / 2
}
