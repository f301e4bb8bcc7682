// Package selector picks the next interview question by semantic
// retrieval over the question library.
//
// Questions are embedded once per session into an in-memory index.
// At each turn the conversation context is embedded and the most
// similar not-yet-asked question wins; if every retrieved candidate
// has been asked the selector falls back to library order.
package selector

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/TonyTown6033/interview-robot/pkg/inference"
	"github.com/TonyTown6033/interview-robot/pkg/question"
)

// Embedder is the subset of the inference provider the selector needs.
type Embedder interface {
	Embed(ctx context.Context, req *inference.EmbedRequest) (*inference.EmbedResponse, error)
}

// DefaultCandidates is how many candidates a retrieval considers before
// the over-fetch multiplier.
const DefaultCandidates = 3

// Selector retrieves the most relevant unasked question for a context.
type Selector struct {
	embedder Embedder
	library  *question.Library
	logger   *slog.Logger

	mu      sync.Mutex
	vectors [][]float64 // row i embeds library.Questions[i].Document()
}

// New creates a selector over the given library.
func New(embedder Embedder, lib *question.Library, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		embedder: embedder,
		library:  lib,
		logger:   logger.With("component", "selector"),
	}
}

// Index embeds every question document into the in-memory index.
// If the index already holds one vector per question it is left as-is.
func (s *Selector) Index(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.vectors) == s.library.Len() {
		s.logger.Debug("index already built", "questions", s.library.Len())
		return nil
	}

	docs := make([]string, s.library.Len())
	for i := range s.library.Questions {
		docs[i] = s.library.Questions[i].Document()
	}

	resp, err := s.embedder.Embed(ctx, &inference.EmbedRequest{Input: docs})
	if err != nil {
		return fmt.Errorf("embed questions: %w", err)
	}
	if len(resp.Embeddings) != len(docs) {
		return fmt.Errorf("embed questions: got %d vectors for %d documents",
			len(resp.Embeddings), len(docs))
	}

	s.vectors = resp.Embeddings
	s.logger.Info("question index built", "questions", len(docs))

	return nil
}

// Select returns the unasked question most similar to the conversation
// context. Retrieval considers twice the candidate count to leave room
// for filtering already-asked questions; if everything retrieved was
// asked, the first unasked question in library order is returned.
// Returns nil when every question has been asked.
func (s *Selector) Select(ctx context.Context, convContext string, asked map[int]bool) (*question.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.vectors) != s.library.Len() {
		return nil, fmt.Errorf("selector: index not built")
	}

	resp, err := s.embedder.Embed(ctx, &inference.EmbedRequest{Input: []string{convContext}})
	if err != nil {
		return nil, fmt.Errorf("embed context: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("embed context: empty response")
	}
	query := resp.Embeddings[0]

	type scored struct {
		idx int
		sim float64
	}
	candidates := make([]scored, len(s.vectors))
	for i, v := range s.vectors {
		candidates[i] = scored{idx: i, sim: cosineSimilarity(query, v)}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].sim > candidates[j].sim
	})

	limit := DefaultCandidates * 2
	if limit > len(candidates) {
		limit = len(candidates)
	}

	for _, c := range candidates[:limit] {
		q := &s.library.Questions[c.idx]
		if asked[q.ID] {
			continue
		}
		s.logger.Debug("question retrieved",
			"question_id", q.ID,
			"similarity", c.sim,
		)
		return q, nil
	}

	// Every retrieved candidate was asked: fall back to library order.
	for i := range s.library.Questions {
		q := &s.library.Questions[i]
		if !asked[q.ID] {
			s.logger.Debug("fallback to library order", "question_id", q.ID)
			return q, nil
		}
	}

	return nil, nil
}

// Remaining counts questions not in the asked set.
func (s *Selector) Remaining(asked map[int]bool) int {
	n := 0
	for i := range s.library.Questions {
		if !asked[s.library.Questions[i].ID] {
			n++
		}
	}
	return n
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-norm vectors score zero.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
