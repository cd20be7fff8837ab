// Package annotate 用 OpenAI 兼容的本地视觉模型（如 LM Studio）判断
// 视频画面是否为武术练习，并产出一句话描述（写入日期目录笔记）。
package annotate

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Verdict 是单帧画面的分析结论。
type Verdict struct {
	IsKungFu    bool
	Description string
}

// Classifier 是画面分析的最小接口；run 层只依赖它，便于测试替换。
type Classifier interface {
	ClassifyFrame(ctx context.Context, jpegFrame []byte) (Verdict, error)
}

// DefaultPrompt 是内置提示词：第一行强制 YES/NO，后续行是场景描述。
const DefaultPrompt = "Look at this frame taken from a video. " +
	"On the first line answer exactly YES or NO: does it show martial arts practice " +
	"(kung fu, tai chi, sword or staff forms, group exercise in a training hall or park)? " +
	"On the next line give a one-sentence description of the scene."

// Options 是视觉分析客户端的构造参数。
type Options struct {
	BaseURL string // OpenAI 兼容端点，例如 http://localhost:1234/v1
	APIKey  string // 本地端点通常不校验，可为空
	Model   string
	Prompt  string // 空则使用 DefaultPrompt
	Timeout time.Duration
}

// VisionClassifier 通过 chat completions 的 vision 消息实现 Classifier。
type VisionClassifier struct {
	api     *openai.Client
	model   string
	prompt  string
	timeout time.Duration
}

// NewVisionClassifier 构造客户端。本地端点（LM Studio 等）只需改 BaseURL，
// 其余走 OpenAI 默认配置。
func NewVisionClassifier(o Options) *VisionClassifier {
	cfg := openai.DefaultConfig(o.APIKey)
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}

	prompt := strings.TrimSpace(o.Prompt)
	if prompt == "" {
		prompt = DefaultPrompt
	}

	return &VisionClassifier{
		api:     openai.NewClientWithConfig(cfg),
		model:   o.Model,
		prompt:  prompt,
		timeout: o.Timeout,
	}
}

// ClassifyFrame 把 JPEG 帧以 base64 data-uri 发给模型并解析结论。
func (c *VisionClassifier) ClassifyFrame(ctx context.Context, jpegFrame []byte) (Verdict, error) {
	if len(jpegFrame) == 0 {
		return Verdict{}, fmt.Errorf("画面为空")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegFrame)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: c.prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURI,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("视觉模型请求失败：%w", err)
	}
	if len(resp.Choices) == 0 {
		return Verdict{}, fmt.Errorf("视觉模型无返回内容")
	}

	return ParseVerdict(resp.Choices[0].Message.Content)
}

// ParseVerdict 解析模型回复：第一行必须以 YES/NO 开头（大小写不敏感），
// 其余行拼为描述。独立导出：测试无需真实模型。
func ParseVerdict(content string) (Verdict, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return Verdict{}, fmt.Errorf("模型回复为空")
	}

	first := strings.ToUpper(strings.TrimSpace(lines[0]))
	var v Verdict
	switch {
	case strings.HasPrefix(first, "YES"):
		v.IsKungFu = true
	case strings.HasPrefix(first, "NO"):
		v.IsKungFu = false
	default:
		return Verdict{}, fmt.Errorf("模型回复首行不是 YES/NO：%q", lines[0])
	}

	if len(lines) > 1 {
		v.Description = strings.TrimSpace(strings.Join(lines[1:], " "))
	}
	return v, nil
}
