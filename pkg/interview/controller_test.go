package interview

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/TonyTown6033/interview-robot/pkg/question"
	"github.com/TonyTown6033/interview-robot/pkg/session"
)

// scriptedSpeaker signals prompt completion after every SpeakText and
// feeds back the next scripted transcript whenever the controller is
// waiting for one.
type scriptedSpeaker struct {
	ctrl *Controller

	mu      sync.Mutex
	spoken  []string
	answers []string
}

func (s *scriptedSpeaker) SpeakText(text string) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()

	go func() {
		time.Sleep(5 * time.Millisecond)
		s.ctrl.HandlePromptDone()

		if !s.ctrl.awaitingAnswer.Load() {
			return
		}

		s.mu.Lock()
		var answer string
		have := len(s.answers) > 0
		if have {
			answer = s.answers[0]
			s.answers = s.answers[1:]
		}
		s.mu.Unlock()

		if have {
			time.Sleep(5 * time.Millisecond)
			s.ctrl.HandleTranscript(answer)
		}
	}()
	return nil
}

func (s *scriptedSpeaker) spokenTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.spoken))
	copy(out, s.spoken)
	return out
}

// queueSelector hands out questions in order, skipping excluded ones.
type queueSelector struct {
	questions []*question.Question
}

func (s *queueSelector) Select(_ context.Context, _ string, asked map[int]bool) (*question.Question, error) {
	for _, q := range s.questions {
		if !asked[q.ID] {
			return q, nil
		}
	}
	return nil, nil
}

func testQuestions() []*question.Question {
	return []*question.Question{
		{ID: 1, Text: "您平时的睡眠质量怎么样？", Category: "睡眠"},
		{ID: 2, Text: "您平时有运动的习惯吗？", Category: "运动", FollowUpHints: []string{"每周大概运动几次？"}},
		{ID: 3, Text: "您平时的饮食规律吗？", Category: "饮食"},
	}
}

func newTestController(t *testing.T, questions []*question.Question, answers []string) (*Controller, *scriptedSpeaker, *session.State) {
	t.Helper()

	ledger := session.NewState()
	speaker := &scriptedSpeaker{answers: answers}
	sel := &queueSelector{questions: questions}

	ctrl := NewController(ControllerConfig{
		MaxQuestions:          len(questions),
		PromptTimeout:         time.Second,
		AnswerTimeout:         time.Second,
		FollowUpPromptTimeout: time.Second,
		FollowUpAnswerTimeout: time.Second,
	}, speaker, sel, ledger)
	speaker.ctrl = ctrl

	return ctrl, speaker, ledger
}

func TestControllerRunCompletesAllQuestions(t *testing.T) {
	answers := []string{
		"我每天晚上十一点左右睡觉，睡眠质量挺好的，基本不会半夜醒来",
		"我有晨跑的习惯，每天早上跑步半小时，周末还会去爬山或者游泳",
		"饮食比较规律，一日三餐都按时吃，口味清淡，很少吃外卖和宵夜",
	}
	ctrl, speaker, ledger := newTestController(t, testQuestions(), answers)

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := ctrl.State(); got != StateDone {
		t.Errorf("final state = %v, want %v", got, StateDone)
	}
	if got := ctrl.QuestionsAsked(); got != 3 {
		t.Errorf("QuestionsAsked = %d, want 3", got)
	}
	if got := ledger.AnswerCount(); got != 3 {
		t.Errorf("AnswerCount = %d, want 3", got)
	}
	if got := len(ledger.Asked()); got != 3 {
		t.Errorf("asked set size = %d, want 3", got)
	}

	recorded := ledger.Answers()
	if recorded[0].Transcript != answers[0] {
		t.Errorf("first transcript = %q, want %q", recorded[0].Transcript, answers[0])
	}

	spoken := speaker.spokenTexts()
	// Welcome, three question prompts, completion.
	if len(spoken) != 5 {
		t.Fatalf("spoken %d prompts, want 5: %q", len(spoken), spoken)
	}
	if !strings.Contains(spoken[0], question.DefaultWelcomeMessage) {
		t.Errorf("first prompt %q missing welcome message", spoken[0])
	}
	if strings.Contains(spoken[1], "上一个问题的回答是") {
		t.Errorf("first question prompt %q should not reference a prior answer", spoken[1])
	}
	if !strings.Contains(spoken[2], "上一个问题的回答是") {
		t.Errorf("second question prompt %q should reference the prior answer", spoken[2])
	}
	if !strings.Contains(spoken[2], answers[0]) {
		t.Errorf("second question prompt %q missing the prior answer text", spoken[2])
	}
	if !strings.Contains(spoken[4], question.DefaultCompletionMessage) {
		t.Errorf("last prompt %q missing completion message", spoken[4])
	}
}

func TestControllerAnswerTimeoutSkipsQuestion(t *testing.T) {
	questions := testQuestions()[:1]
	ctrl, speaker, ledger := newTestController(t, questions, nil)
	ctrl.cfg.AnswerTimeout = 50 * time.Millisecond

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := ctrl.State(); got != StateDone {
		t.Errorf("final state = %v, want %v", got, StateDone)
	}
	if got := ctrl.QuestionsAsked(); got != 0 {
		t.Errorf("QuestionsAsked = %d, want 0", got)
	}
	if got := ledger.AnswerCount(); got != 0 {
		t.Errorf("AnswerCount = %d, want 0", got)
	}
	if asked := ledger.Asked(); len(asked) != 0 {
		t.Errorf("skipped question marked asked: %v", asked)
	}

	// Welcome, the one question prompt, completion. The skipped
	// question must not be offered again.
	if spoken := speaker.spokenTexts(); len(spoken) != 3 {
		t.Errorf("spoken %d prompts, want 3: %q", len(spoken), spoken)
	}
}

func TestControllerShortAnswerTriggersFollowUp(t *testing.T) {
	questions := []*question.Question{
		{ID: 2, Text: "您平时有运动的习惯吗？", FollowUpHints: []string{"每周大概运动几次？"}},
	}
	answers := []string{
		"还行吧",
		"我每周大概运动三次，一般是晚饭后出门散步或者慢跑",
	}
	ctrl, speaker, ledger := newTestController(t, questions, answers)

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := ctrl.QuestionsAsked(); got != 1 {
		t.Errorf("QuestionsAsked = %d, want 1", got)
	}

	recorded := ledger.Answers()
	if len(recorded) != 1 {
		t.Fatalf("AnswerCount = %d, want 1", len(recorded))
	}
	want := "还行吧 [追问回答: " + answers[1] + "]"
	if recorded[0].Transcript != want {
		t.Errorf("transcript = %q, want %q", recorded[0].Transcript, want)
	}

	var followUp string
	for _, text := range speaker.spokenTexts() {
		if strings.Contains(text, "用简短、自然的方式追问") {
			followUp = text
		}
	}
	if followUp == "" {
		t.Fatal("no follow-up prompt spoken")
	}
	if !strings.Contains(followUp, "每周大概运动几次？") {
		t.Errorf("follow-up prompt %q did not use the question's hint", followUp)
	}
}

func TestControllerBareDenialGetsNoFollowUp(t *testing.T) {
	questions := testQuestions()[:1]
	ctrl, speaker, ledger := newTestController(t, questions, []string{"没有"})

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := ledger.AnswerCount(); got != 1 {
		t.Fatalf("AnswerCount = %d, want 1", got)
	}
	if got := ledger.Answers()[0].Transcript; got != "没有" {
		t.Errorf("transcript = %q, want %q", got, "没有")
	}

	for _, text := range speaker.spokenTexts() {
		if strings.Contains(text, "追问") {
			t.Errorf("bare denial triggered a follow-up: %q", text)
		}
	}
}

func TestControllerIgnoresTranscriptWhenNotAwaiting(t *testing.T) {
	ctrl, _, _ := newTestController(t, testQuestions(), nil)

	ctrl.HandleTranscript("你好")

	if ctrl.answerReady.IsSet() {
		t.Error("answerReady set by an unsolicited transcript")
	}
	if got := ctrl.takeTranscript(); got != "" {
		t.Errorf("unsolicited transcript recorded: %q", got)
	}
}

func TestControllerRunStopsOnCancel(t *testing.T) {
	ctrl, _, _ := newTestController(t, testQuestions(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := ctrl.Run(ctx); err == nil {
		t.Fatal("Run on a cancelled context returned nil error")
	}
	if got := ctrl.State(); got != StateStopped {
		t.Errorf("final state = %v, want %v", got, StateStopped)
	}
}
