// Package report turns a finished interview record into a structured
// health assessment using a chat model in JSON mode.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/TonyTown6033/interview-robot/pkg/inference"
	"github.com/TonyTown6033/interview-robot/pkg/session"
)

// Overall health ratings the model may assign.
const (
	HealthGood       = "good"
	HealthFair       = "fair"
	HealthConcerning = "concerning"
)

const analysisTemperature = 0.3

// Score is a 0-100 health score. Models occasionally emit it as a
// quoted string, so it unmarshals from either form.
type Score int

// UnmarshalJSON implements json.Unmarshaler.
func (s *Score) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	if text == "" || text == "null" {
		*s = 0
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("invalid health score %q", text)
	}
	*s = Score(f)
	return nil
}

// Lifestyle holds the per-habit assessments.
type Lifestyle struct {
	Sleep    string `json:"sleep"`
	Exercise string `json:"exercise"`
	Diet     string `json:"diet"`
	Stress   string `json:"stress"`
}

// Assessment is the structured analysis of one interview.
type Assessment struct {
	OverallHealth   string    `json:"overall_health"`
	HealthScore     Score     `json:"health_score"`
	MainConcerns    []string  `json:"main_concerns"`
	Lifestyle       Lifestyle `json:"lifestyle_assessment"`
	RiskFactors     []string  `json:"risk_factors"`
	Recommendations []string  `json:"recommendations"`
	MedicalAdvice   string    `json:"medical_advice"`
	Summary         string    `json:"summary"`

	Meta Meta `json:"meta"`
}

// Meta carries interview statistics alongside the assessment.
type Meta struct {
	TotalQuestions    int    `json:"total_questions"`
	AnsweredQuestions int    `json:"answered_questions"`
	CompletionRate    string `json:"completion_rate"`
	Model             string `json:"model"`
}

const systemPrompt = `你是一位专业的健康顾问，负责分析患者的健康咨询访谈记录。

请从以下几个维度进行分析：
1. **整体健康状况评估**：综合评价患者的健康状态
2. **主要健康关注点**：识别患者提到的主要健康问题或风险
3. **生活方式评估**：分析睡眠、运动、饮食等生活习惯
4. **风险因素识别**：指出可能存在的健康风险
5. **改进建议**：提供3-5条具体的健康改进建议
6. **就医建议**：是否需要进一步体检或就医

请以 JSON 格式输出分析结果，包含以下字段：
{
  "overall_health": "整体评估（good/fair/concerning）",
  "health_score": "健康评分（0-100）",
  "main_concerns": ["关注点1", "关注点2"],
  "lifestyle_assessment": {
    "sleep": "睡眠评估",
    "exercise": "运动评估",
    "diet": "饮食评估",
    "stress": "压力评估"
  },
  "risk_factors": ["风险因素1", "风险因素2"],
  "recommendations": ["建议1", "建议2", "建议3"],
  "medical_advice": "就医建议",
  "summary": "总结（200字以内）"
}

注意：
1. 基于患者实际回答进行分析，不要臆测
2. 建议要具体、可操作
3. 如果信息不足，在 summary 中说明
4. 保持专业、客观、关怀的态度
5. 避免给出诊断，仅提供健康建议`

// Generator produces assessments from interview records.
type Generator struct {
	provider inference.Provider
	model    string
	logger   *slog.Logger
}

// NewGenerator creates a report generator. An empty model uses the
// provider's default.
func NewGenerator(provider inference.Provider, model string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		provider: provider,
		model:    model,
		logger:   logger.With("component", "report.generator"),
	}
}

// Analyze sends the interview transcript to the model and parses the
// structured assessment.
func (g *Generator) Analyze(ctx context.Context, record *session.Record) (*Assessment, error) {
	if record == nil || len(record.Answers) == 0 {
		return nil, fmt.Errorf("no answers to analyze")
	}

	resp, err := g.provider.Chat(ctx, &inference.ChatRequest{
		Messages: []inference.Message{
			inference.NewSystemMessage(systemPrompt),
			inference.NewUserMessage(buildUserPrompt(record)),
		},
		Model:       g.model,
		Temperature: analysisTemperature,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}

	assessment, err := parseAssessment(resp.Message.Content)
	if err != nil {
		return nil, err
	}

	answered := len(record.Answers)
	assessment.Meta = Meta{
		TotalQuestions:    record.TotalQuestions,
		AnsweredQuestions: answered,
		CompletionRate:    completionRate(answered, record.TotalQuestions),
		Model:             resp.Model,
	}

	g.logger.Info("assessment generated",
		"session_id", record.SessionID,
		"overall_health", assessment.OverallHealth,
		"health_score", int(assessment.HealthScore),
	)
	return assessment, nil
}

func buildUserPrompt(record *session.Record) string {
	var b strings.Builder
	b.WriteString("请分析以下健康咨询访谈记录：\n\n")

	for i, a := range record.Answers {
		fmt.Fprintf(&b, "问题 %d: %s\n回答: %s\n\n", i+1, a.QuestionText, a.Transcript)
	}

	answered := len(record.Answers)
	fmt.Fprintf(&b, "访谈统计：\n- 总问题数: %d\n- 已回答数: %d\n- 完成率: %s\n\n",
		record.TotalQuestions, answered, completionRate(answered, record.TotalQuestions))
	b.WriteString("请提供详细的健康分析报告。")
	return b.String()
}

func completionRate(answered, total int) string {
	if total <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(answered)/float64(total)*100)
}

// parseAssessment decodes the model output, tolerating markdown code
// fences around the JSON object.
func parseAssessment(content string) (*Assessment, error) {
	text := strings.TrimSpace(content)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var a Assessment
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return nil, fmt.Errorf("parse assessment: %w", err)
	}
	if a.OverallHealth == "" {
		return nil, fmt.Errorf("assessment missing overall_health")
	}
	return &a, nil
}
