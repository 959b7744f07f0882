// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lesson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"golang.org/x/time/rate"
)

// lessonPromptTmpl is the prompt sent to the OpenAI API for one lesson.
// It instructs the model to produce a structured lesson grounded in the
// supplied source material. Per prd003-lesson R5.2.
var lessonPromptTmpl = template.Must(template.New("lesson").Parse(`You are an education assistant that writes structured lessons.

Write a lesson about the following topic, grounded in the source material below. Do not invent facts that contradict the sources.

Topic: {{.Topic}}
{{- if .Difficulty}}
Target audience level: {{.Difficulty}}
{{- end}}

Respond with a JSON object and nothing else:
- title: a lesson title
- summary: 2-3 sentences summarizing what the learner will know afterwards
- difficulty: one of "beginner", "intermediate", "advanced"{{if .Difficulty}} (must be "{{.Difficulty}}"){{end}}
- sections: an array of 3 to 8 objects, each with "heading" and "body". Bodies are plain prose, no markdown.
- quiz: an array of 2 to 5 multiple-choice objects, each with "prompt", "choices" (2-4 strings), and "answer" (zero-based index of the correct choice)

Example response:
{"title": "...", "summary": "...", "difficulty": "beginner", "sections": [{"heading": "...", "body": "..."}], "quiz": [{"prompt": "...", "choices": ["a", "b"], "answer": 0}]}
{{if .Articles}}
Search results:
{{- range $i, $a := .Articles}}
[{{$i}}] {{$a.Title}} - {{$a.Link}}{{if $a.Snippet}}: {{$a.Snippet}}{{end}}
{{- end}}
{{end}}
{{- if .Pages}}
Source excerpts:
{{- range .Pages}}

--- {{.URL}} ---
{{.Content}}
{{- end}}
{{end}}`))

// openAIAPIBase is the OpenAI API base URL. Package-level var for test
// substitution.
var openAIAPIBase = "https://api.openai.com/v1"

const (
	defaultModel             = "gpt-4o-mini"
	defaultTimeout           = 60 * time.Second
	defaultRequestsPerMinute = 20
)

// OpenAIBackend calls the OpenAI Chat Completions API to generate lessons.
// A rate limiter caps the request rate so bulk generation cannot exhaust
// the account quota. Per prd003-lesson R5.1, R5.4.
type OpenAIBackend struct {
	apiKey  string
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewOpenAIBackend builds a backend for the given credentials. A zero
// requestsPerMinute uses the default (20).
func NewOpenAIBackend(apiKey, model string, timeout time.Duration, requestsPerMinute int) (*OpenAIBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai backend requires OPENAI_API_KEY")
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = defaultRequestsPerMinute
	}

	return &OpenAIBackend{
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
	}, nil
}

// Model returns the configured model identifier.
func (b *OpenAIBackend) Model() string { return b.model }

// chatRequest is the request body for the Chat Completions API.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatMessage is a single message in the chat conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response body from the Chat Completions API.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

// Complete sends one prompt to the Chat Completions API and returns the
// model's text response (R5.1). It blocks on the rate limiter first.
func (b *OpenAIBackend) Complete(ctx context.Context, prompt string) (string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody := chatRequest{
		Model: b.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIAPIBase+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding OpenAI response: %w", err)
	}

	if len(cResp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API returned no choices")
	}

	content := strings.TrimSpace(cResp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("OpenAI API returned empty content")
	}
	return content, nil
}

// renderPrompt executes the lesson prompt template with the request inputs.
func renderPrompt(req Request) (string, error) {
	var buf bytes.Buffer
	if err := lessonPromptTmpl.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
