// Package config provides configuration helpers for interview-robot commands.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Defaults for the realtime speech service and local paths.
const (
	DefaultRealtimeURL   = "wss://api.stepfun.com/v1/realtime"
	DefaultRealtimeModel = "step-audio-2"
	DefaultAPIBaseURL    = "https://api.stepfun.com/v1"
	DefaultQuestionFile  = "questions.yaml"
	DefaultSessionDir    = "sessions"
	DefaultMaxQuestions  = 10
)

// APIKey returns the speech service API key from INTERVIEW_API_KEY.
// Exits with a usage message if not set.
func APIKey() string {
	key := os.Getenv("INTERVIEW_API_KEY")
	if key == "" {
		fmt.Fprintln(os.Stderr, "Error: INTERVIEW_API_KEY environment variable is required")
		fmt.Fprintln(os.Stderr, "Usage: INTERVIEW_API_KEY=sk-... go run ./cmd/interview")
		os.Exit(1)
	}
	return key
}

// RealtimeURL returns the realtime WebSocket URL from INTERVIEW_REALTIME_URL
// or the default.
func RealtimeURL() string {
	if url := os.Getenv("INTERVIEW_REALTIME_URL"); url != "" {
		return url
	}
	return DefaultRealtimeURL
}

// RealtimeModel returns the realtime model name from INTERVIEW_REALTIME_MODEL
// or the default.
func RealtimeModel() string {
	if model := os.Getenv("INTERVIEW_REALTIME_MODEL"); model != "" {
		return model
	}
	return DefaultRealtimeModel
}

// APIBaseURL returns the HTTP API base URL (embeddings, chat completions)
// from INTERVIEW_API_BASE_URL or the default.
func APIBaseURL() string {
	if url := os.Getenv("INTERVIEW_API_BASE_URL"); url != "" {
		return url
	}
	return DefaultAPIBaseURL
}

// QuestionFile returns the question library path from INTERVIEW_QUESTIONS
// or the default.
func QuestionFile() string {
	if path := os.Getenv("INTERVIEW_QUESTIONS"); path != "" {
		return path
	}
	return DefaultQuestionFile
}

// SessionDir returns the directory session artifacts are written to,
// from INTERVIEW_SESSION_DIR or the default.
func SessionDir() string {
	if dir := os.Getenv("INTERVIEW_SESSION_DIR"); dir != "" {
		return dir
	}
	return DefaultSessionDir
}

// ArchivePath returns the SQLite session archive path from
// INTERVIEW_ARCHIVE, or empty to disable the archive.
func ArchivePath() string {
	return os.Getenv("INTERVIEW_ARCHIVE")
}

// MaxQuestions returns the question cap from INTERVIEW_MAX_QUESTIONS
// or the default.
func MaxQuestions() int {
	if v := os.Getenv("INTERVIEW_MAX_QUESTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultMaxQuestions
}

// AudioBackend returns the audio backend override from INTERVIEW_AUDIO_BACKEND.
// Empty means auto-detect.
func AudioBackend() string {
	return os.Getenv("INTERVIEW_AUDIO_BACKEND")
}
