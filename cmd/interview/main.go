// Command interview conducts a spoken health interview over the
// realtime speech service and writes the session artifacts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/TonyTown6033/interview-robot/internal/config"
	"github.com/TonyTown6033/interview-robot/internal/log"
	"github.com/TonyTown6033/interview-robot/pkg/audioio"
	"github.com/TonyTown6033/interview-robot/pkg/inference"
	"github.com/TonyTown6033/interview-robot/pkg/interview"
	"github.com/TonyTown6033/interview-robot/pkg/question"
	"github.com/TonyTown6033/interview-robot/pkg/realtime"
	"github.com/TonyTown6033/interview-robot/pkg/report"
	"github.com/TonyTown6033/interview-robot/pkg/selector"
	"github.com/TonyTown6033/interview-robot/pkg/session"
)

const sessionInstructions = `你是一个专业、友好的访谈助手。
你会收到具体的指令告诉你要问什么问题，以及如何处理回答。
请严格按照指令执行，用自然、亲切的语气交流。`

func main() {
	log.Init("")

	if err := run(); err != nil {
		log.Error("interview failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiKey := config.APIKey()
	logger := log.L()

	library, err := question.Load(config.QuestionFile())
	if err != nil {
		return fmt.Errorf("load question library: %w", err)
	}
	logger.Info("question library loaded",
		"path", config.QuestionFile(),
		"questions", library.Len(),
	)

	provider, err := inference.NewClient(
		inference.WithBaseURL(config.APIBaseURL()),
		inference.WithAPIKey(apiKey),
		inference.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("create inference client: %w", err)
	}
	defer provider.Close()

	sel := selector.New(provider, library, logger)
	if err := sel.Index(ctx); err != nil {
		return fmt.Errorf("index question library: %w", err)
	}

	audioCfg := audioio.DefaultConfig()
	if backend := config.AudioBackend(); backend != "" {
		audioCfg.Backend = audioio.Backend(backend)
	}

	sess, err := interview.NewSession(interview.SessionConfig{
		Audio: audioCfg,
		Realtime: realtime.Config{
			URL:          config.RealtimeURL(),
			Model:        config.RealtimeModel(),
			APIKey:       apiKey,
			Instructions: sessionInstructions,
		},
		Controller: interview.ControllerConfig{
			MaxQuestions: config.MaxQuestions(),
		},
		Logger: logger,
	}, library, sel)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	record, runErr := sess.Run(ctx)
	if record == nil {
		return runErr
	}
	if runErr != nil {
		log.Warn("interview ended early", "error", runErr)
	}

	if library.ShouldSaveTranscript() {
		dir, err := record.Write(config.SessionDir())
		if err != nil {
			log.Error("write session artifacts", "error", err)
		} else {
			log.Info("session artifacts written", "dir", dir)
			writeReport(ctx, provider, record, dir)
		}
	}

	if path := config.ArchivePath(); path != "" {
		archiveRecord(ctx, path, record)
	}

	return nil
}

// writeReport asks the chat model for a health assessment and stores
// the formatted report next to the session artifacts. A failed
// analysis is logged but does not fail the run.
func writeReport(ctx context.Context, provider inference.Provider, record *session.Record, dir string) {
	if len(record.Answers) == 0 {
		return
	}

	gen := report.NewGenerator(provider, "", log.L())
	assessment, err := gen.Analyze(ctx, record)
	if err != nil {
		log.Warn("health analysis failed", "error", err)
		return
	}

	text := report.Format(assessment)
	path := filepath.Join(dir, "report.txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		log.Error("write report", "error", err)
		return
	}

	log.Info("health report written", "path", path)
	fmt.Println(text)
}

func archiveRecord(ctx context.Context, path string, record *session.Record) {
	archive, err := session.OpenArchive(ctx, path, log.L())
	if err != nil {
		log.Error("open session archive", "error", err)
		return
	}
	defer archive.Close()

	if err := archive.Save(ctx, *record); err != nil {
		log.Error("archive session", "error", err)
		return
	}
	log.Info("session archived", "path", path, "session_id", record.SessionID)
}
