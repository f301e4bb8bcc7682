// Package question loads and manages the interview question library.
//
// Questions live in a YAML file alongside session-level settings such as
// the welcome and completion messages. The library is read-only after
// loading; per-session progress (which questions were asked) is tracked
// elsewhere.
package question

import (
	"fmt"
	"strings"
)

// Kind classifies how a question expects to be answered.
type Kind string

const (
	// KindOpen expects a free-form answer.
	KindOpen Kind = "open"

	// KindYesNo expects a yes/no answer.
	KindYesNo Kind = "yes_no"

	// KindChoice expects one of several options.
	KindChoice Kind = "choice"
)

// Question is one entry in the interview question library.
type Question struct {
	// ID uniquely identifies the question within the library.
	ID int `yaml:"id" json:"id"`

	// Text is the question as spoken to the participant.
	Text string `yaml:"question" json:"question"`

	// Kind classifies the expected answer form. Defaults to open.
	Kind Kind `yaml:"type" json:"type"`

	// Category groups related questions (e.g. "睡眠", "运动").
	Category string `yaml:"category,omitempty" json:"category,omitempty"`

	// Keywords improve retrieval matching.
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`

	// FollowUpHints are pre-written follow-up prompts for this question.
	FollowUpHints []string `yaml:"follow_up_hints,omitempty" json:"follow_up_hints,omitempty"`
}

// Document renders the question as a retrieval document: the question
// text enriched with category and keywords for better semantic matching.
func (q *Question) Document() string {
	var b strings.Builder
	b.WriteString(q.Text)
	if q.Category != "" {
		fmt.Fprintf(&b, " [类别: %s]", q.Category)
	}
	if len(q.Keywords) > 0 {
		fmt.Fprintf(&b, " [关键词: %s]", strings.Join(q.Keywords, ", "))
	}
	return b.String()
}

// String implements fmt.Stringer.
func (q *Question) String() string {
	return fmt.Sprintf("问题 %d: %s", q.ID, q.Text)
}
