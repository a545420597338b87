package gemini

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"

	"github.com/voicepaper/voicepaper/internal/core/domain"
)

// NewsFetcher generates trending articles for a category.
type NewsFetcher struct {
	client *Client
	logger *slog.Logger
}

func NewNewsFetcher(client *Client, logger *slog.Logger) *NewsFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NewsFetcher{client: client, logger: logger}
}

// FetchArticles asks the model for a fenced JSON article list. A
// malformed response degrades to an empty list rather than an error:
// the news page renders fine with nothing in it.
func (f *NewsFetcher) FetchArticles(ctx context.Context, category string) ([]domain.Article, error) {
	if !f.client.Configured() {
		return []domain.Article{}, nil
	}

	text, err := f.client.generateContent(ctx, "fetch news", buildNewsPrompt(category), 4096)
	if err != nil {
		return nil, err
	}
	return f.parseArticles(text), nil
}

var fencedJSONRe = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")

func (f *NewsFetcher) parseArticles(text string) []domain.Article {
	match := fencedJSONRe.FindStringSubmatch(text)
	if match == nil {
		f.logger.Warn("no fenced json in news response")
		return []domain.Article{}
	}

	var raw []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Source      string `json:"source"`
	}
	if err := json.Unmarshal([]byte(match[1]), &raw); err != nil {
		f.logger.Warn("news response json unparsable", "error", err)
		return []domain.Article{}
	}

	articles := make([]domain.Article, 0, len(raw))
	for _, a := range raw {
		if a.Title == "" {
			a.Title = "No title"
		}
		if a.Description == "" {
			a.Description = "No description"
		}
		if a.Source == "" {
			a.Source = "No source"
		}
		articles = append(articles, domain.Article{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source,
		})
	}
	return articles
}

// Proxy forwards one category request upstream and hands back the raw
// generateContent response body for pass-through serving.
type Proxy struct {
	client *Client
}

func NewProxy(client *Client) *Proxy {
	return &Proxy{client: client}
}

func (p *Proxy) FetchRaw(ctx context.Context, category string) ([]byte, error) {
	request := generateRequest{
		Contents: []content{{Parts: []part{{Text: buildProxyPrompt(category)}}}},
		Config: genConfig{
			Temperature:     0.2,
			MaxOutputTokens: 4096,
			TopK:            40,
			TopP:            0.95,
		},
	}

	var raw json.RawMessage
	call := func(ctx context.Context) error {
		return p.client.postJSON(ctx, request, &raw, "proxy news")
	}

	var err error
	if p.client.executor != nil {
		err = p.client.executor.Execute(ctx, "proxy news", call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("proxy news", err)
	}
	return raw, nil
}
