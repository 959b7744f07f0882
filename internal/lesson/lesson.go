// Package lesson turns a topic plus web source material into a structured lesson.
// Implements: prd003-lesson (R1, R2, R5);
//
//	docs/ARCHITECTURE § Lesson Generation.
package lesson

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/edu-engine/pkg/types"
)

// validDifficulties is the set of accepted Difficulty values (R2.4).
var validDifficulties = map[types.Difficulty]bool{
	types.DifficultyBeginner:     true,
	types.DifficultyIntermediate: true,
	types.DifficultyAdvanced:     true,
}

const maxSections = 12

// AIBackend abstracts the Generative AI API so tests can supply a mock.
// Each implementation handles a single prompt and returns the raw text
// response. Per Strategy pattern (prd003-lesson R5.1).
type AIBackend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Request holds the inputs for one lesson generation.
type Request struct {
	// Topic is the learner's request.
	Topic string

	// Difficulty is the requested audience level. Empty lets the model choose.
	Difficulty types.Difficulty

	// Articles are the search results the lesson should be grounded on.
	Articles []types.Article

	// Pages hold scraped excerpts of the top articles.
	Pages []types.Page
}

// modelLesson is the structured response expected from the AI backend.
type modelLesson struct {
	Title      string               `json:"title"`
	Summary    string               `json:"summary"`
	Difficulty string               `json:"difficulty"`
	Sections   []types.Section      `json:"sections"`
	Quiz       []types.QuizQuestion `json:"quiz"`
}

// Generate builds the lesson prompt, calls the AI backend with retry, and
// validates the structured response (R1.1, R5.2-R5.4). An invalid response
// is an error; no partial lesson is ever returned.
func Generate(ctx context.Context, backend AIBackend, req Request, cfg types.LessonConfig) (*types.Lesson, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is empty")
	}
	if req.Difficulty != "" && !validDifficulties[req.Difficulty] {
		return nil, fmt.Errorf("invalid difficulty %q: use beginner, intermediate, or advanced", req.Difficulty)
	}

	prompt, err := renderPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	raw, err := callWithRetry(ctx, backend, prompt, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("generating lesson for %q: %w", topic, err)
	}

	var ml modelLesson
	if err := json.Unmarshal([]byte(raw), &ml); err != nil {
		return nil, fmt.Errorf("parsing model response: %w", err)
	}

	if errs := validate(ml); len(errs) > 0 {
		return nil, fmt.Errorf("invalid model response: %s", strings.Join(errs, "; "))
	}
	if req.Difficulty != "" && types.Difficulty(ml.Difficulty) != req.Difficulty {
		return nil, fmt.Errorf("model returned difficulty %q, requested %q", ml.Difficulty, req.Difficulty)
	}

	sources := make([]types.LessonSource, 0, len(req.Articles))
	for _, a := range req.Articles {
		sources = append(sources, types.LessonSource{Title: a.Title, URL: a.Link})
	}

	return &types.Lesson{
		ID:         stableID(topic, sources),
		Topic:      topic,
		Title:      ml.Title,
		Summary:    ml.Summary,
		Difficulty: types.Difficulty(ml.Difficulty),
		Sections:   ml.Sections,
		Quiz:       ml.Quiz,
		Sources:    sources,
		Model:      cfg.Model,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// validate checks the structural invariants of a model response (R2.3-R2.5).
func validate(ml modelLesson) []string {
	var errs []string

	if strings.TrimSpace(ml.Title) == "" {
		errs = append(errs, "empty title")
	}
	if strings.TrimSpace(ml.Summary) == "" {
		errs = append(errs, "empty summary")
	}
	if !validDifficulties[types.Difficulty(ml.Difficulty)] {
		errs = append(errs, fmt.Sprintf("invalid difficulty %q", ml.Difficulty))
	}
	if len(ml.Sections) == 0 {
		errs = append(errs, "no sections")
	}
	if len(ml.Sections) > maxSections {
		errs = append(errs, fmt.Sprintf("%d sections exceeds maximum %d", len(ml.Sections), maxSections))
	}
	for i, sec := range ml.Sections {
		if strings.TrimSpace(sec.Heading) == "" || strings.TrimSpace(sec.Body) == "" {
			errs = append(errs, fmt.Sprintf("section %d: empty heading or body", i))
		}
	}
	for i, q := range ml.Quiz {
		if strings.TrimSpace(q.Prompt) == "" {
			errs = append(errs, fmt.Sprintf("quiz %d: empty prompt", i))
			continue
		}
		if len(q.Choices) < 2 {
			errs = append(errs, fmt.Sprintf("quiz %d: fewer than 2 choices", i))
			continue
		}
		if q.Answer < 0 || q.Answer >= len(q.Choices) {
			errs = append(errs, fmt.Sprintf("quiz %d: answer index %d out of range [0,%d)", i, q.Answer, len(q.Choices)))
		}
	}

	return errs
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the AI backend with exponential backoff (R5.3).
func callWithRetry(ctx context.Context, backend AIBackend, prompt string, maxRetries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := backend.Complete(ctx, prompt)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// stableID generates a deterministic ID from the topic and source URLs (R2.2).
// The ID is the first 12 hex characters of SHA-256(topic + URLs in rank order).
func stableID(topic string, sources []types.LessonSource) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(topic)))
	for _, s := range sources {
		h.Write([]byte(s.URL))
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}
