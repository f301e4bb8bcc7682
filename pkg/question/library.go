package question

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default messages used when the question file omits them.
const (
	DefaultWelcomeMessage    = "您好！欢迎参与访谈。"
	DefaultCompletionMessage = "感谢您的参与！"
	DefaultMaxQuestions      = 10
)

// Settings holds session-level options from the question file.
type Settings struct {
	// WelcomeMessage is spoken before the first question.
	WelcomeMessage string `yaml:"welcome_message"`

	// CompletionMessage is spoken after the last question.
	CompletionMessage string `yaml:"completion_message"`

	// MaxQuestions caps how many questions one session asks.
	MaxQuestions int `yaml:"max_questions"`

	// SaveTranscript controls whether transcripts are persisted.
	SaveTranscript *bool `yaml:"save_transcript"`
}

// Library is an immutable collection of interview questions plus
// session settings, loaded from a YAML file.
type Library struct {
	Questions []Question
	Settings  Settings

	byID map[int]*Question
}

type libraryFile struct {
	Questions []Question `yaml:"questions"`
	Settings  Settings   `yaml:"settings"`
}

// Load reads and validates a question library from a YAML file.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question file: %w", err)
	}
	return Parse(data)
}

// Parse builds a library from raw YAML bytes.
func Parse(data []byte) (*Library, error) {
	var file libraryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse question file: %w", err)
	}

	if len(file.Questions) == 0 {
		return nil, fmt.Errorf("question file contains no questions")
	}

	lib := &Library{
		Questions: file.Questions,
		Settings:  file.Settings,
		byID:      make(map[int]*Question, len(file.Questions)),
	}

	for i := range lib.Questions {
		q := &lib.Questions[i]
		if q.Text == "" {
			return nil, fmt.Errorf("question %d has empty text", q.ID)
		}
		if q.Kind == "" {
			q.Kind = KindOpen
		}
		if _, dup := lib.byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %d", q.ID)
		}
		lib.byID[q.ID] = q
	}

	if lib.Settings.WelcomeMessage == "" {
		lib.Settings.WelcomeMessage = DefaultWelcomeMessage
	}
	if lib.Settings.CompletionMessage == "" {
		lib.Settings.CompletionMessage = DefaultCompletionMessage
	}
	if lib.Settings.MaxQuestions <= 0 {
		lib.Settings.MaxQuestions = DefaultMaxQuestions
	}

	return lib, nil
}

// ByID returns the question with the given id, or nil.
func (l *Library) ByID(id int) *Question {
	return l.byID[id]
}

// Len returns the number of questions in the library.
func (l *Library) Len() int {
	return len(l.Questions)
}

// ShouldSaveTranscript reports whether transcripts should be persisted.
// Defaults to true when the setting is absent.
func (l *Library) ShouldSaveTranscript() bool {
	if l.Settings.SaveTranscript == nil {
		return true
	}
	return *l.Settings.SaveTranscript
}
