// Package imgx 生成发送给视觉模型的缩略图。
package imgx

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	_ "image/png" // 注册 PNG 解码器（抽帧输出不一定总是 jpeg）

	"github.com/nfnt/resize"
)

// ThumbnailJPEG 把输入图片按 maxWidth 等比缩小并编码为 JPEG。
//
// 约束：
// - 输入允许是 JPEG/PNG（依赖标准库解码器）
// - 输出固定为 JPEG；原宽不超过 maxWidth 时只转码不缩放
// - maxWidth <= 0 等同于不缩放
func ThumbnailJPEG(data []byte, maxWidth int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("图片为空")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("图片尺寸无效")
	}

	if maxWidth > 0 && b.Dx() > maxWidth {
		// 高度传 0：resize 按比例推导，Lanczos3 质量足够。
		img = resize.Resize(uint(maxWidth), 0, img, resize.Lanczos3)
	}

	var out bytes.Buffer
	// 质量 85：给模型看的缩略图，体积优先。
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
