package interview

import (
	"fmt"
	"strings"
	"testing"
)

func TestConversationContextSeedBeforeAnswers(t *testing.T) {
	c := NewConversationContext(5)

	if got := c.Summary(); got != contextSeed {
		t.Errorf("empty Summary = %q, want seed %q", got, contextSeed)
	}
	if got := c.LastAnswer(); got != "" {
		t.Errorf("empty LastAnswer = %q, want \"\"", got)
	}
}

func TestConversationContextSummaryUsesLastTwoPairs(t *testing.T) {
	c := NewConversationContext(5)
	c.AddQA("您的睡眠怎么样？", "睡得还可以")
	c.AddQA("平时运动吗？", "每天散步")
	c.AddQA("饮食规律吗？", "一日三餐")

	got := c.Summary()
	want := "问：平时运动吗？ 答：每天散步 问：饮食规律吗？ 答：一日三餐"
	if got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
	if strings.Contains(got, "睡眠") {
		t.Error("Summary included a pair older than the last two")
	}
}

func TestConversationContextLastAnswer(t *testing.T) {
	c := NewConversationContext(5)
	c.AddQA("问题一", "回答一")
	c.AddQA("问题二", "回答二")

	if got := c.LastAnswer(); got != "回答二" {
		t.Errorf("LastAnswer = %q, want %q", got, "回答二")
	}
}

func TestConversationContextEvictsOldest(t *testing.T) {
	c := NewConversationContext(3)
	for i := 1; i <= 5; i++ {
		c.AddQA(fmt.Sprintf("问题%d", i), fmt.Sprintf("回答%d", i))
	}

	if got := c.Len(); got != 3 {
		t.Fatalf("Len = %d, want 3", got)
	}
	if got := c.LastAnswer(); got != "回答5" {
		t.Errorf("LastAnswer = %q, want %q", got, "回答5")
	}
}

func TestConversationContextDefaultWindow(t *testing.T) {
	c := NewConversationContext(0)
	for i := 0; i < 10; i++ {
		c.AddQA("问", "答")
	}
	if got := c.Len(); got != 5 {
		t.Errorf("Len = %d, want default window 5", got)
	}
}
