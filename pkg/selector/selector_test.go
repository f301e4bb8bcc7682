package selector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/TonyTown6033/interview-robot/pkg/inference"
	"github.com/TonyTown6033/interview-robot/pkg/question"
)

func testLibrary(t *testing.T) *question.Library {
	t.Helper()
	lib, err := question.Parse([]byte(`
questions:
  - id: 1
    question: "最近睡眠质量怎么样？"
    category: "睡眠"
  - id: 2
    question: "平时有运动的习惯吗？"
    category: "运动"
  - id: 3
    question: "饮食口味偏重吗？"
    category: "饮食"
`))
	if err != nil {
		t.Fatalf("parse library: %v", err)
	}
	return lib
}

// fixedEmbedder maps keywords to axis-aligned vectors so similarity
// ordering is deterministic.
func fixedEmbedder() *inference.Mock {
	vectorFor := func(text string) []float64 {
		switch {
		case strings.Contains(text, "睡眠"):
			return []float64{1, 0, 0}
		case strings.Contains(text, "运动"):
			return []float64{0, 1, 0}
		default:
			return []float64{0, 0, 1}
		}
	}

	mock := inference.NewMock()
	mock.EmbedFunc = func(ctx context.Context, req *inference.EmbedRequest) (*inference.EmbedResponse, error) {
		out := make([][]float64, len(req.Input))
		for i, text := range req.Input {
			out[i] = vectorFor(text)
		}
		return &inference.EmbedResponse{Embeddings: out}, nil
	}
	return mock
}

func TestSelectorIndex(t *testing.T) {
	mock := fixedEmbedder()
	sel := New(mock, testLibrary(t), nil)
	ctx := context.Background()

	if err := sel.Index(ctx); err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if got := mock.CallCount("Embed"); got != 1 {
		t.Errorf("Embed calls = %d, want 1", got)
	}

	// Second call is a no-op when every question is indexed.
	if err := sel.Index(ctx); err != nil {
		t.Fatalf("Index() second call error = %v", err)
	}
	if got := mock.CallCount("Embed"); got != 1 {
		t.Errorf("Embed calls after re-index = %d, want 1", got)
	}
}

func TestSelectorSelect(t *testing.T) {
	ctx := context.Background()

	newSelector := func(t *testing.T) *Selector {
		sel := New(fixedEmbedder(), testLibrary(t), nil)
		if err := sel.Index(ctx); err != nil {
			t.Fatalf("Index() error = %v", err)
		}
		return sel
	}

	t.Run("picks most similar", func(t *testing.T) {
		sel := newSelector(t)
		q, err := sel.Select(ctx, "我最近总是失眠，睡眠很差", map[int]bool{})
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if q == nil || q.ID != 1 {
			t.Errorf("Select() = %v, want question 1", q)
		}
	})

	t.Run("skips asked questions", func(t *testing.T) {
		sel := newSelector(t)
		q, err := sel.Select(ctx, "说说睡眠情况", map[int]bool{1: true})
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if q == nil {
			t.Fatal("Select() = nil")
		}
		if q.ID == 1 {
			t.Error("Select() returned an already asked question")
		}
	})

	t.Run("returns nil when exhausted", func(t *testing.T) {
		sel := newSelector(t)
		q, err := sel.Select(ctx, "随便聊聊", map[int]bool{1: true, 2: true, 3: true})
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if q != nil {
			t.Errorf("Select() = %v, want nil", q)
		}
	})

	t.Run("repeat select returns same question", func(t *testing.T) {
		sel := newSelector(t)
		asked := map[int]bool{}

		first, err := sel.Select(ctx, "说说最近的运动情况", asked)
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		second, err := sel.Select(ctx, "说说最近的运动情况", asked)
		if err != nil {
			t.Fatalf("Select() second call error = %v", err)
		}
		if first == nil || second == nil || first.ID != second.ID {
			t.Errorf("Select() not stable on unchanged context: %v then %v", first, second)
		}
	})

	t.Run("falls back to library order when retrieval is exhausted", func(t *testing.T) {
		var spec strings.Builder
		spec.WriteString("questions:\n")
		for i := 1; i <= 7; i++ {
			fmt.Fprintf(&spec, "  - id: %d\n    question: \"睡眠问题 %d\"\n", i, i)
		}
		spec.WriteString("  - id: 8\n    question: \"还有什么想补充的？\"\n")

		lib, err := question.Parse([]byte(spec.String()))
		if err != nil {
			t.Fatalf("parse library: %v", err)
		}
		sel := New(fixedEmbedder(), lib, nil)
		if err := sel.Index(ctx); err != nil {
			t.Fatalf("Index() error = %v", err)
		}

		// Every retrieval candidate for a sleep context is a sleep
		// question and all seven are asked, so retrieval comes up
		// empty and the linear fallback must surface question 8.
		asked := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true}
		q, err := sel.Select(ctx, "我睡眠一直不好", asked)
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if q == nil || q.ID != 8 {
			t.Errorf("Select() = %v, want fallback to question 8", q)
		}
	})

	t.Run("requires index", func(t *testing.T) {
		sel := New(fixedEmbedder(), testLibrary(t), nil)
		if _, err := sel.Select(ctx, "context", nil); err == nil {
			t.Error("expected error without index")
		}
	})

	t.Run("propagates embed errors", func(t *testing.T) {
		sel := newSelector(t)
		failing := inference.NewMock()
		failing.EmbedFunc = func(ctx context.Context, req *inference.EmbedRequest) (*inference.EmbedResponse, error) {
			return nil, errors.New("embed service down")
		}
		sel.embedder = failing

		if _, err := sel.Select(ctx, "context", nil); err == nil {
			t.Error("expected error from failing embedder")
		}
	})
}

func TestSelectorRemaining(t *testing.T) {
	sel := New(fixedEmbedder(), testLibrary(t), nil)

	if got := sel.Remaining(nil); got != 3 {
		t.Errorf("Remaining() = %d, want 3", got)
	}
	if got := sel.Remaining(map[int]bool{1: true, 3: true}); got != 1 {
		t.Errorf("Remaining() = %d, want 1", got)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 0},
		{"length mismatch", []float64{1}, []float64{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}
