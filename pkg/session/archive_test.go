package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/TonyTown6033/interview-robot/pkg/question"
)

func testArchive(t *testing.T) *Archive {
	t.Helper()

	path := filepath.Join(t.TempDir(), "interviews.db")
	a, err := OpenArchive(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("OpenArchive() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchiveSaveAndLoad(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	st := NewState()
	st.AppendAnswer(&question.Question{ID: 1, Text: "最近睡眠质量怎么样？"}, "不太好")
	st.AppendAnswer(&question.Question{ID: 2, Text: "平时有运动的习惯吗？"}, "每周跑步两次")
	rec := st.Finalize()

	if err := a.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := a.Load(ctx, rec.SessionID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got.SessionID != rec.SessionID {
		t.Errorf("SessionID = %q, want %q", got.SessionID, rec.SessionID)
	}
	if got.TotalQuestions != 2 {
		t.Errorf("TotalQuestions = %d, want 2", got.TotalQuestions)
	}
	if len(got.Answers) != 2 {
		t.Fatalf("len(Answers) = %d, want 2", len(got.Answers))
	}
	if got.Answers[0].Transcript != "不太好" {
		t.Errorf("first transcript = %q", got.Answers[0].Transcript)
	}
	if got.Answers[1].QuestionID != 2 {
		t.Errorf("second answer id = %d, want 2", got.Answers[1].QuestionID)
	}
}

func TestArchiveSaveIsIdempotent(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	st := NewState()
	st.AppendAnswer(&question.Question{ID: 1, Text: "q1"}, "a1")
	rec := st.Finalize()

	if err := a.Save(ctx, rec); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	if err := a.Save(ctx, rec); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := a.Load(ctx, rec.SessionID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Answers) != 1 {
		t.Errorf("len(Answers) = %d after re-save, want 1", len(got.Answers))
	}
}

func TestArchiveListSessions(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		st := NewState()
		st.AppendAnswer(&question.Question{ID: 1, Text: "q"}, "a")
		rec := st.Finalize()
		if err := a.Save(ctx, rec); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		ids = append(ids, rec.SessionID)
	}

	got, err := a.ListSessions(ctx, 10)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}

	if _, err := a.Load(ctx, "no-such-session"); err == nil {
		t.Error("expected error for unknown session")
	}
}
