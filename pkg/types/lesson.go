// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Difficulty categorizes the target audience of a lesson.
// Per prd003-lesson R2.4.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Section is one teaching unit within a lesson.
type Section struct {
	// Heading is the section title.
	Heading string `json:"heading" yaml:"heading"`

	// Body is the section's explanatory text.
	Body string `json:"body" yaml:"body"`
}

// QuizQuestion is a multiple-choice comprehension check attached to a lesson.
// Per prd003-lesson R2.5.
type QuizQuestion struct {
	// Prompt is the question text.
	Prompt string `json:"prompt" yaml:"prompt"`

	// Choices lists the candidate answers in display order.
	Choices []string `json:"choices" yaml:"choices"`

	// Answer is the zero-based index into Choices of the correct answer.
	Answer int `json:"answer" yaml:"answer"`
}

// LessonSource records a web page the lesson was grounded on.
// Per prd003-lesson R2.6, every lesson carries provenance.
type LessonSource struct {
	// Title is the source article title.
	Title string `json:"title" yaml:"title"`

	// URL is the source address.
	URL string `json:"url" yaml:"url"`
}

// Lesson is a generated teaching unit for a topic.
// Per prd003-lesson R2.1-R2.6, a lesson has a stable identifier derived from
// its topic and sources, so regenerating from identical inputs yields the
// same ID.
type Lesson struct {
	// ID is a stable identifier, consistent across regenerations of the
	// same topic and source set. Per R2.2.
	ID string `json:"id" yaml:"id"`

	// Topic is the learner's original request.
	Topic string `json:"topic" yaml:"topic"`

	// Title is the lesson title produced by the model.
	Title string `json:"title" yaml:"title"`

	// Summary is a short overview of the lesson.
	Summary string `json:"summary" yaml:"summary"`

	// Difficulty is the target audience level: beginner, intermediate, or advanced.
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`

	// Sections holds the lesson body in teaching order.
	Sections []Section `json:"sections" yaml:"sections"`

	// Quiz holds optional comprehension questions.
	Quiz []QuizQuestion `json:"quiz,omitempty" yaml:"quiz,omitempty"`

	// Sources lists the web pages the lesson was grounded on.
	Sources []LessonSource `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Model is the identifier of the model that produced the lesson.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// CreatedAt is the generation time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
