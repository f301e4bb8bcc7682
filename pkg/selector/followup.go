package selector

import (
	"strings"
	"unicode/utf8"

	"github.com/TonyTown6033/interview-robot/pkg/question"
)

// Completeness thresholds for answer assessment.
const (
	// followUpThreshold: a follow-up fires only when the answer is
	// incomplete with confidence strictly above this value.
	followUpThreshold = 0.6

	shortAnswerRunes = 10
	negationRunes    = 20
)

// negationTokens mark bare denials that usually need no elaboration.
var negationTokens = []string{"不", "没有", "没", "无"}

// genericFollowUps are used when a question carries no follow-up hints.
var genericFollowUps = []string{
	"能详细说说吗？",
	"这种情况持续多久了？",
	"有什么具体的例子吗？",
}

// Assessment is the result of judging an answer's completeness.
type Assessment struct {
	// Complete reports whether the answer needs no follow-up.
	Complete bool `json:"is_complete"`

	// Confidence in the judgement, 0.0 to 1.0.
	Confidence float64 `json:"confidence"`

	// Reason explains the judgement.
	Reason string `json:"reason"`
}

// NeedsFollowUp reports whether this assessment should trigger a
// follow-up question. A bare denial (confidence exactly at the
// threshold) does not.
func (a Assessment) NeedsFollowUp() bool {
	return !a.Complete && a.Confidence > followUpThreshold
}

// AssessCompleteness judges whether an answer is complete using simple
// length and negation heuristics.
//
// A short denial ("不", "没有") counts as an intentionally brief answer
// rather than an incomplete one, so the denial rule is checked before
// the plain length rule.
func AssessCompleteness(answer string) Assessment {
	runes := utf8.RuneCountInString(answer)

	if containsNegation(answer) && runes < negationRunes {
		return Assessment{
			Complete:   false,
			Confidence: 0.6,
			Reason:     "简单否定，可能需要展开",
		}
	}

	if runes < shortAnswerRunes {
		return Assessment{
			Complete:   false,
			Confidence: 0.8,
			Reason:     "回答过于简短",
		}
	}

	return Assessment{
		Complete:   true,
		Confidence: 0.7,
		Reason:     "回答长度合理",
	}
}

// FollowUpPrompts returns up to n follow-up prompts for a question,
// preferring the question's own hints over the generic prompts.
func FollowUpPrompts(q *question.Question, n int) []string {
	if n <= 0 {
		return nil
	}

	source := genericFollowUps
	if q != nil && len(q.FollowUpHints) > 0 {
		source = q.FollowUpHints
	}

	if n > len(source) {
		n = len(source)
	}
	out := make([]string, n)
	copy(out, source[:n])
	return out
}

func containsNegation(answer string) bool {
	for _, tok := range negationTokens {
		if strings.Contains(answer, tok) {
			return true
		}
	}
	return false
}
