package report

import (
	"fmt"
	"strings"
)

const ruleWidth = 70

// Format renders an assessment as a readable Chinese text report.
func Format(a *Assessment) string {
	if a == nil {
		return ""
	}

	rule := strings.Repeat("=", ruleWidth)

	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("健康访谈分析报告\n")
	b.WriteString(rule + "\n\n")

	b.WriteString("访谈统计\n")
	fmt.Fprintf(&b, "  问题总数: %d\n", a.Meta.TotalQuestions)
	fmt.Fprintf(&b, "  已回答数: %d\n", a.Meta.AnsweredQuestions)
	fmt.Fprintf(&b, "  完成率: %s\n\n", a.Meta.CompletionRate)

	fmt.Fprintf(&b, "整体健康状况: %s\n", strings.ToUpper(a.OverallHealth))
	fmt.Fprintf(&b, "健康评分: %d/100\n\n", int(a.HealthScore))

	if a.Summary != "" {
		b.WriteString("综合评估\n")
		fmt.Fprintf(&b, "  %s\n\n", a.Summary)
	}

	writeList(&b, "主要健康关注点", a.MainConcerns)

	b.WriteString("生活方式评估\n")
	writeLifestyle(&b, "睡眠", a.Lifestyle.Sleep)
	writeLifestyle(&b, "运动", a.Lifestyle.Exercise)
	writeLifestyle(&b, "饮食", a.Lifestyle.Diet)
	writeLifestyle(&b, "压力", a.Lifestyle.Stress)
	b.WriteString("\n")

	writeList(&b, "识别的风险因素", a.RiskFactors)
	writeList(&b, "健康改进建议", a.Recommendations)

	if a.MedicalAdvice != "" {
		b.WriteString("就医建议\n")
		fmt.Fprintf(&b, "  %s\n\n", a.MedicalAdvice)
	}

	b.WriteString(rule + "\n")
	b.WriteString("免责声明：本报告仅供参考，不构成医疗诊断或治疗建议。\n")
	b.WriteString("如有健康问题，请咨询专业医疗机构。\n")
	b.WriteString(rule + "\n")

	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(title + "\n")
	for i, item := range items {
		fmt.Fprintf(b, "  %d. %s\n", i+1, item)
	}
	b.WriteString("\n")
}

func writeLifestyle(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "  %s: %s\n", label, value)
}
