package domain

// Article is one generated trending-news entry.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// NewsCategories is the fixed category surface the news page and the
// voice-command recognizer both understand.
var NewsCategories = []string{
	"All", "Politics", "Sports", "Technology", "Entertainment",
	"Science", "Health", "Business", "World",
}

func IsKnownCategory(category string) bool {
	for _, c := range NewsCategories {
		if c == category {
			return true
		}
	}
	return false
}
