package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Record is the frozen form of a finished session, written to
// session.json and archived to SQLite.
type Record struct {
	SessionID       string         `json:"session_id"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
	DurationSeconds float64        `json:"duration_seconds"`
	TotalQuestions  int            `json:"total_questions"`
	Answers         []Answer       `json:"answers"`
	AdditionalInfo  map[string]any `json:"additional_info,omitempty"`
}

// Write persists the record under baseDir/<session-id>/ as both a JSON
// file and a human-readable text summary. Returns the session directory.
func (r *Record) Write(baseDir string) (string, error) {
	dir := filepath.Join(baseDir, r.SessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal session record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "session.json"), data, 0o644); err != nil {
		return "", fmt.Errorf("write session.json: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "summary.txt"), []byte(r.Summary()), 0o644); err != nil {
		return "", fmt.Errorf("write summary.txt: %w", err)
	}

	return dir, nil
}

// Summary renders the record as a readable transcript.
func (r *Record) Summary() string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	b.WriteString(rule + "\n")
	b.WriteString("访谈记录\n")
	fmt.Fprintf(&b, "会话ID: %s\n", r.SessionID)
	fmt.Fprintf(&b, "开始时间: %s\n", r.StartTime.Format("2006-01-02 15:04:05"))
	if !r.EndTime.IsZero() {
		fmt.Fprintf(&b, "结束时间: %s\n", r.EndTime.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "总时长: %.0f 秒\n", r.DurationSeconds)
	}
	b.WriteString(rule + "\n")

	for i, a := range r.Answers {
		fmt.Fprintf(&b, "\n【问题 %d】\n%s\n\n", i+1, a.QuestionText)
		fmt.Fprintf(&b, "【回答】\n%s\n", a.Transcript)
		b.WriteString("\n" + strings.Repeat("-", 60) + "\n")
	}

	return b.String()
}
