package question

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleYAML = `
questions:
  - id: 1
    question: "最近睡眠质量怎么样？"
    type: open
    category: "睡眠"
    keywords: ["睡眠", "失眠", "休息"]
    follow_up_hints:
      - "一般几点入睡？"
  - id: 2
    question: "平时有运动的习惯吗？"
    category: "运动"
  - id: 3
    question: "您吸烟吗？"
    type: yes_no

settings:
  welcome_message: "您好，我们开始今天的健康访谈。"
  max_questions: 5
`

func TestParse(t *testing.T) {
	lib, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if lib.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", lib.Len())
	}

	t.Run("fields", func(t *testing.T) {
		q := lib.ByID(1)
		if q == nil {
			t.Fatal("ByID(1) = nil")
		}
		if q.Kind != KindOpen {
			t.Errorf("Kind = %q, want open", q.Kind)
		}
		if q.Category != "睡眠" {
			t.Errorf("Category = %q", q.Category)
		}
		if len(q.FollowUpHints) != 1 {
			t.Errorf("FollowUpHints = %v", q.FollowUpHints)
		}
	})

	t.Run("kind defaults to open", func(t *testing.T) {
		if q := lib.ByID(2); q.Kind != KindOpen {
			t.Errorf("Kind = %q, want open", q.Kind)
		}
	})

	t.Run("settings", func(t *testing.T) {
		if lib.Settings.WelcomeMessage != "您好，我们开始今天的健康访谈。" {
			t.Errorf("WelcomeMessage = %q", lib.Settings.WelcomeMessage)
		}
		if lib.Settings.CompletionMessage != DefaultCompletionMessage {
			t.Errorf("CompletionMessage = %q, want default", lib.Settings.CompletionMessage)
		}
		if lib.Settings.MaxQuestions != 5 {
			t.Errorf("MaxQuestions = %d, want 5", lib.Settings.MaxQuestions)
		}
		if !lib.ShouldSaveTranscript() {
			t.Error("ShouldSaveTranscript() should default to true")
		}
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty file", ""},
		{"no questions", "settings:\n  max_questions: 3\n"},
		{"empty text", "questions:\n  - id: 1\n    question: \"\"\n"},
		{"duplicate id", "questions:\n  - id: 1\n    question: a\n  - id: 1\n    question: b\n"},
		{"invalid yaml", "questions: [}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	lib, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if lib.Len() != 3 {
		t.Errorf("Len() = %d, want 3", lib.Len())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDocument(t *testing.T) {
	q := Question{
		ID:       1,
		Text:     "最近睡眠质量怎么样？",
		Category: "睡眠",
		Keywords: []string{"睡眠", "失眠"},
	}

	doc := q.Document()
	if !strings.HasPrefix(doc, q.Text) {
		t.Errorf("Document() = %q, should start with question text", doc)
	}
	if !strings.Contains(doc, "[类别: 睡眠]") {
		t.Errorf("Document() = %q, missing category", doc)
	}
	if !strings.Contains(doc, "[关键词: 睡眠, 失眠]") {
		t.Errorf("Document() = %q, missing keywords", doc)
	}

	bare := Question{ID: 2, Text: "平时有运动的习惯吗？"}
	if got := bare.Document(); got != bare.Text {
		t.Errorf("Document() = %q, want bare text", got)
	}
}
