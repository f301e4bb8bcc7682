// Package interview drives a spoken, question-by-question interview:
// it pumps microphone audio into the realtime speech channel, plays
// back the remote voice, and runs the turn protocol between them.
package interview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/TonyTown6033/interview-robot/pkg/audioio"
	"github.com/TonyTown6033/interview-robot/pkg/question"
	"github.com/TonyTown6033/interview-robot/pkg/realtime"
	"github.com/TonyTown6033/interview-robot/pkg/session"
)

const (
	// captureQueueCap bounds buffered microphone audio so a stalled
	// uplink drops stale frames instead of growing without limit.
	captureQueueCap = 500

	// playbackQueueCap bounds buffered downlink audio ahead of the
	// speaker.
	playbackQueueCap = 100

	sessionReadyTimeout = 15 * time.Second
	playbackPopTimeout  = 100 * time.Millisecond
)

// SessionConfig assembles everything a spoken interview needs.
type SessionConfig struct {
	Audio      audioio.Config
	Realtime   realtime.Config
	Controller ControllerConfig

	Logger *slog.Logger
}

// Session owns one interview end to end: audio devices, the realtime
// channel, and the turn controller over a shared answer ledger.
type Session struct {
	cfg    SessionConfig
	logger *slog.Logger

	library  *question.Library
	selector QuestionSelector

	ledger     *session.State
	controller *Controller

	source audioio.Source
	sink   audioio.Sink

	outbound *audioio.FrameQueue
	playback *audioio.FrameQueue

	client *realtime.Client
}

// NewSession builds a session over a question library and selector.
// No devices or connections are opened until Run.
func NewSession(cfg SessionConfig, library *question.Library, sel QuestionSelector) (*Session, error) {
	if library == nil || library.Len() == 0 {
		return nil, fmt.Errorf("question library is empty")
	}
	if sel == nil {
		return nil, fmt.Errorf("question selector is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ledger := session.NewState()

	ctrlCfg := cfg.Controller
	if ctrlCfg.WelcomeMessage == "" {
		ctrlCfg.WelcomeMessage = library.Settings.WelcomeMessage
	}
	if ctrlCfg.CompletionMessage == "" {
		ctrlCfg.CompletionMessage = library.Settings.CompletionMessage
	}
	if ctrlCfg.MaxQuestions <= 0 {
		ctrlCfg.MaxQuestions = library.Settings.MaxQuestions
	}
	if ctrlCfg.Logger == nil {
		ctrlCfg.Logger = cfg.Logger
	}

	s := &Session{
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "interview.session"),
		library:  library,
		selector: sel,
		ledger:   ledger,
		outbound: audioio.NewFrameQueue(captureQueueCap),
		playback: audioio.NewFrameQueue(playbackQueueCap),
	}

	rtCfg := cfg.Realtime
	if rtCfg.Logger == nil {
		rtCfg.Logger = cfg.Logger
	}
	s.client = realtime.NewClient(rtCfg, s.outbound)
	s.controller = NewController(ctrlCfg, s.client, sel, ledger)

	return s, nil
}

// Ledger exposes the session's answer ledger.
func (s *Session) Ledger() *session.State {
	return s.ledger
}

// Run conducts the interview and returns the finalized record. The
// record is returned even when the run ends early, so a partial
// session can still be archived.
func (s *Session) Run(ctx context.Context) (*session.Record, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.openAudio(); err != nil {
		return nil, err
	}
	defer s.closeAudio()

	s.client.OnTranscript = s.controller.HandleTranscript
	s.client.OnResponseDone = s.controller.HandlePromptDone
	s.client.OnAudioDelta = s.playback.Push
	s.client.OnSpeechStarted = func() {
		// Barge-in: flush queued playback so the user is not talked
		// over by stale audio.
		if n := s.playback.Clear(); n > 0 {
			s.logger.Debug("playback flushed on speech start", "frames", n)
		}
		if s.sink != nil {
			if err := s.sink.Clear(); err != nil {
				s.logger.Warn("sink clear failed", "error", err)
			}
		}
	}
	s.client.OnError = func(err error) {
		s.logger.Error("realtime channel error", "error", err)
	}
	s.client.OnClosed = func() {
		s.logger.Info("realtime channel closed")
		cancel()
	}

	if err := s.client.Connect(); err != nil {
		return nil, fmt.Errorf("connect realtime channel: %w", err)
	}
	defer s.client.Close()

	if err := s.waitReady(ctx); err != nil {
		return nil, err
	}

	if err := s.source.Start(ctx); err != nil {
		return nil, fmt.Errorf("start audio capture: %w", err)
	}
	if err := s.sink.Start(ctx); err != nil {
		return nil, fmt.Errorf("start audio playback: %w", err)
	}

	go s.capturePump(ctx)
	go s.playbackPump(ctx)

	s.logger.Info("interview starting",
		"session_id", s.ledger.ID(),
		"questions", s.library.Len(),
		"max_questions", s.controller.cfg.MaxQuestions,
	)

	runErr := s.controller.Run(ctx)

	record := s.ledger.Finalize()
	s.logger.Info("interview finished",
		"session_id", record.SessionID,
		"questions_asked", s.controller.QuestionsAsked(),
		"answers", len(record.Answers),
		"duration_seconds", record.DurationSeconds,
	)

	return &record, runErr
}

func (s *Session) openAudio() error {
	source, err := audioio.NewSource(s.cfg.Audio, s.cfg.Logger)
	if err != nil {
		return fmt.Errorf("open audio source: %w", err)
	}
	sink, err := audioio.NewSink(s.cfg.Audio, s.cfg.Logger)
	if err != nil {
		source.Close()
		return fmt.Errorf("open audio sink: %w", err)
	}
	s.source = source
	s.sink = sink
	return nil
}

func (s *Session) closeAudio() {
	if s.source != nil {
		if err := s.source.Close(); err != nil {
			s.logger.Warn("close audio source", "error", err)
		}
	}
	if s.sink != nil {
		if err := s.sink.Close(); err != nil {
			s.logger.Warn("close audio sink", "error", err)
		}
	}
}

// waitReady blocks until the remote session is configured.
func (s *Session) waitReady(ctx context.Context) error {
	deadline := time.NewTimer(sessionReadyTimeout)
	defer deadline.Stop()

	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for {
		if s.client.IsReady() {
			return nil
		}
		select {
		case <-tick.C:
		case <-deadline.C:
			return fmt.Errorf("session not ready after %s", sessionReadyTimeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// capturePump moves microphone frames into the uplink queue.
func (s *Session) capturePump(ctx context.Context) {
	for {
		select {
		case frame, ok := <-s.source.Stream():
			if !ok {
				return
			}
			s.outbound.Push(frame.Bytes())
		case <-ctx.Done():
			return
		}
	}
}

// playbackPump drains downlink audio into the speaker.
func (s *Session) playbackPump(ctx context.Context) {
	cfg := s.sink.Config()
	for ctx.Err() == nil {
		pcm, ok := s.playback.Pop(playbackPopTimeout)
		if !ok {
			continue
		}
		var frame audioio.Frame
		frame.FromBytes(pcm, cfg.SampleRate, cfg.Channels)
		if err := s.sink.Write(ctx, frame); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("playback write failed", "error", err)
		}
	}
}
