package selector

import (
	"testing"

	"github.com/TonyTown6033/interview-robot/pkg/question"
)

func TestAssessCompleteness(t *testing.T) {
	tests := []struct {
		name         string
		answer       string
		wantComplete bool
		wantConf     float64
		wantFollowUp bool
	}{
		{
			name:         "short answer",
			answer:       "还行吧",
			wantComplete: false,
			wantConf:     0.8,
			wantFollowUp: true,
		},
		{
			name:         "bare denial",
			answer:       "没有",
			wantComplete: false,
			wantConf:     0.6,
			wantFollowUp: false,
		},
		{
			name:         "short denial",
			answer:       "不，我从来不抽烟的",
			wantComplete: false,
			wantConf:     0.6,
			wantFollowUp: false,
		},
		{
			name:         "full answer",
			answer:       "我每天晚上十一点左右睡觉，早上七点起床，睡眠质量还不错",
			wantComplete: true,
			wantConf:     0.7,
			wantFollowUp: false,
		},
		{
			name:         "long answer with negation",
			answer:       "我以前没有运动的习惯，但是最近半年开始每周跑步三次，每次五公里",
			wantComplete: true,
			wantConf:     0.7,
			wantFollowUp: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AssessCompleteness(tt.answer)
			if a.Complete != tt.wantComplete {
				t.Errorf("Complete = %v, want %v", a.Complete, tt.wantComplete)
			}
			if a.Confidence != tt.wantConf {
				t.Errorf("Confidence = %v, want %v", a.Confidence, tt.wantConf)
			}
			if got := a.NeedsFollowUp(); got != tt.wantFollowUp {
				t.Errorf("NeedsFollowUp() = %v, want %v", got, tt.wantFollowUp)
			}
		})
	}
}

func TestFollowUpPrompts(t *testing.T) {
	t.Run("prefers question hints", func(t *testing.T) {
		q := &question.Question{
			ID:            1,
			Text:          "最近睡眠质量怎么样？",
			FollowUpHints: []string{"一般几点入睡？", "半夜会醒吗？", "醒来后精神吗？"},
		}

		got := FollowUpPrompts(q, 2)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0] != "一般几点入睡？" {
			t.Errorf("first prompt = %q", got[0])
		}
	})

	t.Run("falls back to generic prompts", func(t *testing.T) {
		q := &question.Question{ID: 2, Text: "平时有运动的习惯吗？"}

		got := FollowUpPrompts(q, 2)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0] != "能详细说说吗？" {
			t.Errorf("first prompt = %q", got[0])
		}
	})

	t.Run("nil question uses generic prompts", func(t *testing.T) {
		if got := FollowUpPrompts(nil, 1); len(got) != 1 {
			t.Errorf("len = %d, want 1", len(got))
		}
	})

	t.Run("n larger than source", func(t *testing.T) {
		if got := FollowUpPrompts(nil, 10); len(got) != len(genericFollowUps) {
			t.Errorf("len = %d, want %d", len(got), len(genericFollowUps))
		}
	})
}
