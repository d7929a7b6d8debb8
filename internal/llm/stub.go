package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/www6v/notestudio/internal/model"
)

// StubChat returns canned structured payloads (for development/testing). It
// picks the payload shape by the same markers the real prompts carry.
type StubChat struct{}

var _ ChatClient = (*StubChat)(nil)

func (s *StubChat) Complete(_ context.Context, req CompletionRequest) (string, error) {
	prompt := req.System + "\n" + req.User

	if strings.Contains(prompt, "mind map") {
		payload := model.MindMapPayload{
			Nodes: []model.MindMapNode{
				{ID: "1", Label: "核心主题"},
				{ID: "2", Label: "要点一:系统架构"},
				{ID: "3", Label: "要点二:实现细节"},
				{ID: "4", Label: "要点三:实践经验"},
			},
			Edges: []model.MindMapEdge{
				{Source: "1", Target: "2"},
				{Source: "1", Target: "3"},
				{Source: "1", Target: "4"},
			},
		}
		b, _ := json.Marshal(payload)
		return string(b), nil
	}

	if strings.Contains(prompt, "slide deck") {
		payload := model.SlideDeckPayload{
			Slides: []model.SlideUnit{
				{SlideNumber: 1, Title: "内容概览", Content: []string{"背景与目标", "关键结论"}, SpeakerNotes: "开场介绍整体脉络。", Layout: model.LayoutTitle},
				{SlideNumber: 2, Title: "核心发现", Content: []string{"发现一:方案可行", "发现二:成本可控", "发现三:风险已知"}, SpeakerNotes: "逐条展开说明。", Layout: model.LayoutContent},
				{SlideNumber: 3, Title: "总结与展望", Content: []string{"回顾要点", "后续计划"}, SpeakerNotes: "收尾并引导讨论。", Layout: model.LayoutClosing},
			},
		}
		b, _ := json.Marshal(payload)
		return string(b), nil
	}

	if strings.Contains(prompt, "infographic") {
		payload := model.InfographicPayload{
			Title:    "数据速览",
			Subtitle: "来自笔记内容的关键数字",
			Sections: []model.InfographicSection{
				{
					Heading: "核心指标",
					Items: []model.InfographicItem{
						{Label: "来源数量", Value: "5", Icon: "📄"},
						{Label: "覆盖主题", Value: "3", Icon: "🧭"},
					},
				},
			},
			ColorScheme: "blue",
		}
		b, _ := json.Marshal(payload)
		return string(b), nil
	}

	return "{}", nil
}

// StubVision returns a fixed description (for development/testing).
type StubVision struct{}

var _ VisionClient = (*StubVision)(nil)

func (s *StubVision) Describe(_ context.Context, imageURL, _ string) (string, error) {
	return "图片内容:一张示意图,展示了系统的主要组成部分及其连接关系。(" + imageURL + ")", nil
}

// StubImage renders a small solid-color PNG (for development/testing).
type StubImage struct{}

var _ ImageClient = (*StubImage)(nil)

func (s *StubImage) Render(_ context.Context, _ string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	for y := 0; y < 9; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: 230, G: 238, B: 248, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
