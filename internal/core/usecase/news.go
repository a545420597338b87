package usecase

import (
	"context"
	"fmt"

	"github.com/voicepaper/voicepaper/internal/core/domain"
	"github.com/voicepaper/voicepaper/internal/core/ports"
)

type NewsUseCase struct {
	fetcher ports.ArticleFetcher
}

func NewNewsUseCase(fetcher ports.ArticleFetcher) *NewsUseCase {
	return &NewsUseCase{fetcher: fetcher}
}

// TrendingArticles validates the category and fetches the article list.
func (uc *NewsUseCase) TrendingArticles(ctx context.Context, category string) ([]domain.Article, error) {
	if category == "" {
		category = "All"
	}
	if !domain.IsKnownCategory(category) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "fetch trending news",
			fmt.Errorf("unknown category %q", category))
	}

	articles, err := uc.fetcher.FetchArticles(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}
	if articles == nil {
		articles = []domain.Article{}
	}
	return articles, nil
}
