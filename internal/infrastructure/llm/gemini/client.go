// Package gemini talks to the Gemini generateContent API for article
// generation and remote summarization. Requests go through the shared
// resilience executor with a Gemini-specific error classifier.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/voicepaper/voicepaper/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, model string, executor *resilience.Executor) *Client {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

// Configured reports whether an API key is present. Callers fall back
// to local behavior when it is not.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
	Config   genConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type genConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generateContent runs one prompt through the model and returns the
// first candidate's text.
func (c *Client) generateContent(ctx context.Context, operation, prompt string, maxTokens int) (string, error) {
	request := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		Config: genConfig{
			Temperature:     0.2,
			MaxOutputTokens: maxTokens,
			TopK:            40,
			TopP:            0.95,
		},
	}

	var response generateResponse
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, request, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}

	text := candidateText(response)
	if text == "" {
		return "", fmt.Errorf("gemini %s: empty candidate text", operation)
	}
	return text, nil
}

func candidateText(response generateResponse) string {
	if len(response.Candidates) == 0 {
		return ""
	}
	parts := response.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSpace(parts[0].Text)
}
