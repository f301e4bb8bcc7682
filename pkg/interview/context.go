package interview

import (
	"strings"
	"sync"
)

// contextSeed is the retrieval query used before any answer exists.
const contextSeed = "开始健康咨询访谈"

// ConversationContext keeps a bounded window of recent question/answer
// pairs and renders them into the retrieval query for question
// selection. It is not persisted.
type ConversationContext struct {
	mu         sync.Mutex
	maxHistory int
	history    []qaPair
}

type qaPair struct {
	question string
	answer   string
}

// NewConversationContext creates a context window of n pairs
// (default 5 when n <= 0).
func NewConversationContext(n int) *ConversationContext {
	if n <= 0 {
		n = 5
	}
	return &ConversationContext{maxHistory: n}
}

// AddQA appends a question/answer pair, evicting the oldest entry when
// the window is full.
func (c *ConversationContext) AddQA(question, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, qaPair{question: question, answer: answer})
	if len(c.history) > c.maxHistory {
		c.history = c.history[1:]
	}
}

// Summary renders the most recent two pairs as the retrieval query.
// Before any answer exists it returns a fixed seed phrase.
func (c *ConversationContext) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.history) == 0 {
		return contextSeed
	}

	recent := c.history
	if len(recent) > 2 {
		recent = recent[len(recent)-2:]
	}

	parts := make([]string, 0, len(recent)*2)
	for _, qa := range recent {
		parts = append(parts, "问："+qa.question, "答："+qa.answer)
	}
	return strings.Join(parts, " ")
}

// LastAnswer returns the most recent answer, or "" if none.
func (c *ConversationContext) LastAnswer() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.history) == 0 {
		return ""
	}
	return c.history[len(c.history)-1].answer
}

// Len returns the number of pairs currently in the window.
func (c *ConversationContext) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}
