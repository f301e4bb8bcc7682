// Package session tracks what happened during one interview: which
// questions were asked, what was answered, and when. It persists each
// finished session as a JSON record plus a human-readable summary, and
// optionally archives records into SQLite.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TonyTown6033/interview-robot/pkg/question"
)

// followUpDelimiter joins a follow-up answer onto the original
// transcript so one question keeps one ledger entry.
const followUpDelimiter = " [追问回答: %s]"

// Answer is one recorded question/answer pair.
type Answer struct {
	QuestionID   int       `json:"question_id"`
	QuestionText string    `json:"question_text"`
	Transcript   string    `json:"transcript"`
	Timestamp    time.Time `json:"timestamp"`
}

// State is the mutable ledger of a running interview session.
// All methods are safe for concurrent use.
type State struct {
	mu        sync.Mutex
	id        string
	startedAt time.Time
	endedAt   time.Time
	answers   []Answer
	asked     map[int]bool
	clock     func() time.Time
}

// NewState starts a fresh session ledger with a generated session ID.
func NewState() *State {
	s := &State{
		id:    uuid.NewString(),
		asked: make(map[int]bool),
		clock: time.Now,
	}
	s.startedAt = s.clock()
	return s
}

// ID returns the session identifier.
func (s *State) ID() string {
	return s.id
}

// StartedAt returns when the session began.
func (s *State) StartedAt() time.Time {
	return s.startedAt
}

// AppendAnswer records an answer and marks its question as asked in the
// same step, so the asked set and the answer list never disagree.
func (s *State) AppendAnswer(q *question.Question, transcript string) Answer {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := Answer{
		QuestionID:   q.ID,
		QuestionText: q.Text,
		Transcript:   transcript,
		Timestamp:    s.clock(),
	}
	s.answers = append(s.answers, a)
	s.asked[q.ID] = true
	return a
}

// AppendFollowUp merges a follow-up answer into the most recent answer
// for the given question. Returns an error if that question has no
// recorded answer yet.
func (s *State) AppendFollowUp(questionID int, transcript string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.answers) - 1; i >= 0; i-- {
		if s.answers[i].QuestionID == questionID {
			s.answers[i].Transcript += fmt.Sprintf(followUpDelimiter, transcript)
			return nil
		}
	}
	return fmt.Errorf("session: no answer recorded for question %d", questionID)
}

// Asked returns a copy of the asked-question set. A question that timed
// out without an answer is absent, so it stays eligible for retrieval.
func (s *State) Asked() map[int]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int]bool, len(s.asked))
	for id := range s.asked {
		out[id] = true
	}
	return out
}

// Answers returns a copy of the recorded answers in order.
func (s *State) Answers() []Answer {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Answer, len(s.answers))
	copy(out, s.answers)
	return out
}

// AnswerCount returns how many answers were recorded.
func (s *State) AnswerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// Finalize stamps the end time and freezes the ledger into a Record.
// Calling Finalize more than once keeps the first end time.
func (s *State) Finalize() Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.endedAt.IsZero() {
		s.endedAt = s.clock()
	}

	answers := make([]Answer, len(s.answers))
	copy(answers, s.answers)

	return Record{
		SessionID:       s.id,
		StartTime:       s.startedAt,
		EndTime:         s.endedAt,
		DurationSeconds: s.endedAt.Sub(s.startedAt).Seconds(),
		TotalQuestions:  len(answers),
		Answers:         answers,
	}
}
