package interview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TonyTown6033/interview-robot/pkg/question"
	"github.com/TonyTown6033/interview-robot/pkg/selector"
	"github.com/TonyTown6033/interview-robot/pkg/session"
)

// State is the turn controller's current phase.
type State int32

const (
	StateIdle State = iota
	StatePrompting
	StateAwaitingPromptDone
	StateAwaitingAnswer
	StateFollowUp
	StateAwaitingFollowUpAnswer
	StateAdvancing
	StateDone
	StateStopped
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePrompting:
		return "prompting"
	case StateAwaitingPromptDone:
		return "awaiting_prompt_done"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateFollowUp:
		return "follow_up"
	case StateAwaitingFollowUpAnswer:
		return "awaiting_follow_up_answer"
	case StateAdvancing:
		return "advancing"
	case StateDone:
		return "done"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Default turn timeouts.
const (
	DefaultPromptTimeout         = 15 * time.Second
	DefaultAnswerTimeout         = 90 * time.Second
	DefaultFollowUpPromptTimeout = 10 * time.Second
	DefaultFollowUpAnswerTimeout = 60 * time.Second

	// welcomeTimeout bounds the wait for the welcome and completion
	// messages to finish speaking.
	welcomeTimeout = 10 * time.Second
)

// Speaker emits a spoken prompt through the realtime channel.
type Speaker interface {
	SpeakText(text string) error
}

// QuestionSelector picks the next unasked question for a context.
type QuestionSelector interface {
	Select(ctx context.Context, convContext string, asked map[int]bool) (*question.Question, error)
}

// ControllerConfig tunes the turn controller.
type ControllerConfig struct {
	MaxQuestions      int
	WelcomeMessage    string
	CompletionMessage string

	PromptTimeout         time.Duration
	AnswerTimeout         time.Duration
	FollowUpPromptTimeout time.Duration
	FollowUpAnswerTimeout time.Duration

	Logger *slog.Logger
}

func (c ControllerConfig) withDefaults() ControllerConfig {
	if c.MaxQuestions <= 0 {
		c.MaxQuestions = question.DefaultMaxQuestions
	}
	if c.WelcomeMessage == "" {
		c.WelcomeMessage = question.DefaultWelcomeMessage
	}
	if c.CompletionMessage == "" {
		c.CompletionMessage = question.DefaultCompletionMessage
	}
	if c.PromptTimeout == 0 {
		c.PromptTimeout = DefaultPromptTimeout
	}
	if c.AnswerTimeout == 0 {
		c.AnswerTimeout = DefaultAnswerTimeout
	}
	if c.FollowUpPromptTimeout == 0 {
		c.FollowUpPromptTimeout = DefaultFollowUpPromptTimeout
	}
	if c.FollowUpAnswerTimeout == 0 {
		c.FollowUpAnswerTimeout = DefaultFollowUpAnswerTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Controller drives the turn protocol: ask a question, wait for the
// prompt to finish, wait for an answer, optionally follow up once,
// advance. It is the single writer of all turn state; the receive side
// only sets signals through HandleTranscript and HandlePromptDone.
type Controller struct {
	cfg      ControllerConfig
	logger   *slog.Logger
	speaker  Speaker
	selector QuestionSelector
	ledger   *session.State
	convCtx  *ConversationContext

	answerReady    *Signal
	promptFinished *Signal

	awaitingAnswer atomic.Bool
	state          atomic.Int32

	transcriptMu sync.Mutex
	transcript   string

	questionsAsked int

	// skipped holds questions that timed out or produced no usable
	// transcript. They stay unanswered in the ledger but are excluded
	// from selection so the loop cannot spin on them.
	skipped map[int]bool
}

// NewController wires a controller over a speaker, selector, and ledger.
func NewController(cfg ControllerConfig, speaker Speaker, sel QuestionSelector, ledger *session.State) *Controller {
	cfg = cfg.withDefaults()
	return &Controller{
		cfg:            cfg,
		logger:         cfg.Logger.With("component", "interview.controller"),
		speaker:        speaker,
		selector:       sel,
		ledger:         ledger,
		convCtx:        NewConversationContext(5),
		answerReady:    NewSignal(),
		promptFinished: NewSignal(),
		skipped:        make(map[int]bool),
	}
}

// State returns the controller's current phase.
func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) setState(s State) {
	c.state.Store(int32(s))
	c.logger.Debug("state transition", "state", s.String())
}

// QuestionsAsked returns how many questions were successfully asked.
func (c *Controller) QuestionsAsked() int {
	return c.questionsAsked
}

// HandleTranscript receives a validated transcript from the channel.
// It is recorded only while the controller is awaiting an answer.
func (c *Controller) HandleTranscript(transcript string) {
	if !c.awaitingAnswer.Load() {
		return
	}
	c.transcriptMu.Lock()
	c.transcript = transcript
	c.transcriptMu.Unlock()
	c.answerReady.Set()
}

// HandlePromptDone signals that the current spoken response finished.
func (c *Controller) HandlePromptDone() {
	c.promptFinished.Set()
}

func (c *Controller) takeTranscript() string {
	c.transcriptMu.Lock()
	defer c.transcriptMu.Unlock()
	t := c.transcript
	c.transcript = ""
	return t
}

// Run executes the interview loop until the question supply or the
// question cap is exhausted, or the context is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.sayWelcome(ctx); err != nil {
		c.setState(StateStopped)
		return err
	}

	for ctx.Err() == nil && c.questionsAsked < c.cfg.MaxQuestions {
		c.setState(StateAdvancing)

		q, err := c.selector.Select(ctx, c.convCtx.Summary(), c.excluded())
		if err != nil {
			c.setState(StateStopped)
			return fmt.Errorf("select question: %w", err)
		}
		if q == nil {
			c.logger.Info("question supply exhausted")
			break
		}

		answered := c.askQuestion(ctx, q)
		if answered {
			c.questionsAsked++
		}
	}

	if ctx.Err() != nil {
		c.setState(StateStopped)
		return ctx.Err()
	}

	if err := c.sayCompletion(ctx); err != nil {
		c.logger.Warn("completion message failed", "error", err)
	}

	c.setState(StateDone)
	return nil
}

// excluded merges answered and skipped questions for selection.
func (c *Controller) excluded() map[int]bool {
	out := c.ledger.Asked()
	for id := range c.skipped {
		out[id] = true
	}
	return out
}

func (c *Controller) sayWelcome(ctx context.Context) error {
	c.promptFinished.Clear()

	text := fmt.Sprintf("请用友好的语气说：%s", c.cfg.WelcomeMessage)
	if err := c.speaker.SpeakText(text); err != nil {
		return fmt.Errorf("speak welcome: %w", err)
	}

	c.promptFinished.Wait(ctx, welcomeTimeout)
	sleepCtx(ctx, time.Second)
	return nil
}

func (c *Controller) sayCompletion(ctx context.Context) error {
	c.promptFinished.Clear()

	text := fmt.Sprintf("用友好的语气说：%s", c.cfg.CompletionMessage)
	if err := c.speaker.SpeakText(text); err != nil {
		return err
	}

	c.promptFinished.Wait(ctx, welcomeTimeout)

	// Let the tail of the spoken farewell drain before teardown.
	sleepCtx(ctx, 3*time.Second)
	return nil
}

// askQuestion runs one full turn. It returns true only when a
// non-empty transcript was accepted; a timeout or empty transcript
// leaves the question unasked and skipped.
func (c *Controller) askQuestion(ctx context.Context, q *question.Question) bool {
	c.setState(StatePrompting)

	c.answerReady.Clear()
	c.promptFinished.Clear()
	c.takeTranscript()
	c.awaitingAnswer.Store(true)
	defer c.awaitingAnswer.Store(false)

	c.logger.Info("asking question",
		"question_id", q.ID,
		"progress", fmt.Sprintf("%d/%d", c.questionsAsked+1, c.cfg.MaxQuestions),
	)

	if err := c.speaker.SpeakText(c.buildPrompt(q)); err != nil {
		c.logger.Error("speak question failed", "error", err)
		return false
	}

	// Wait for the spoken prompt to finish; a timeout means "assume
	// done" so a lost completion event can never wedge the session.
	c.setState(StateAwaitingPromptDone)
	if !c.promptFinished.Wait(ctx, c.cfg.PromptTimeout) {
		c.logger.Warn("prompt completion not signalled, assuming done", "question_id", q.ID)
	}
	sleepCtx(ctx, 300*time.Millisecond)

	c.setState(StateAwaitingAnswer)
	if !c.answerReady.Wait(ctx, c.cfg.AnswerTimeout) {
		c.logger.Warn("answer timed out, skipping question", "question_id", q.ID)
		c.skipped[q.ID] = true
		return false
	}

	transcript := c.takeTranscript()
	if transcript == "" {
		c.logger.Warn("empty transcript, skipping question", "question_id", q.ID)
		c.skipped[q.ID] = true
		return false
	}

	c.ledger.AppendAnswer(q, transcript)
	c.convCtx.AddQA(q.Text, transcript)
	c.logger.Info("answer recorded", "question_id", q.ID, "transcript", transcript)

	assessment := selector.AssessCompleteness(transcript)
	if assessment.NeedsFollowUp() {
		c.logger.Info("answer may be incomplete, following up",
			"question_id", q.ID,
			"reason", assessment.Reason,
		)
		c.doFollowUp(ctx, q)
	}

	sleepCtx(ctx, time.Second)
	return true
}

// doFollowUp performs the single allowed follow-up round for a
// question. Its transcript is appended to the existing answer and does
// not count toward the question cap.
func (c *Controller) doFollowUp(ctx context.Context, q *question.Question) {
	prompts := selector.FollowUpPrompts(q, 1)
	if len(prompts) == 0 {
		return
	}

	c.setState(StateFollowUp)

	c.answerReady.Clear()
	c.promptFinished.Clear()
	c.takeTranscript()

	text := fmt.Sprintf("用简短、自然的方式追问: %s", prompts[0])
	if err := c.speaker.SpeakText(text); err != nil {
		c.logger.Warn("follow-up prompt failed", "error", err)
		return
	}

	c.promptFinished.Wait(ctx, c.cfg.FollowUpPromptTimeout)

	c.setState(StateAwaitingFollowUpAnswer)
	if !c.answerReady.Wait(ctx, c.cfg.FollowUpAnswerTimeout) {
		c.logger.Info("no follow-up answer", "question_id", q.ID)
		return
	}

	transcript := c.takeTranscript()
	if transcript == "" {
		return
	}

	if err := c.ledger.AppendFollowUp(q.ID, transcript); err != nil {
		c.logger.Warn("append follow-up failed", "error", err)
		return
	}
	c.logger.Info("follow-up answer recorded", "question_id", q.ID, "transcript", transcript)
}

// buildPrompt renders the instruction that makes the remote voice ask
// the question naturally, with a transition when prior context exists.
func (c *Controller) buildPrompt(q *question.Question) string {
	lastAnswer := c.convCtx.LastAnswer()

	if lastAnswer != "" && c.questionsAsked > 0 {
		return fmt.Sprintf(`[上一个问题的回答是: %s]

现在请基于以下参考问题，用自然的方式继续提问：
参考问题: %s

要求：
1. 可以先简短地回应上一个回答（如"好的，明白了"）
2. 然后提出新问题，表述要自然流畅
3. 整体保持简洁，不要啰嗦
`, lastAnswer, q.Text)
	}

	return fmt.Sprintf(`请基于以下参考问题，用自然、友好的方式提问：
参考问题: %s

要求：
1. 保持问题核心内容不变
2. 表述要自然亲切
3. 简洁明了
`, q.Text)
}

// sleepCtx pauses without outliving the context.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
