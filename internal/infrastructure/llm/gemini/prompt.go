package gemini

import "fmt"

func buildNewsPrompt(category string) string {
	qualifier := ""
	if category != "" && category != "All" {
		qualifier = category + " "
	}

	return fmt.Sprintf(`You are a professional news reporter and content curator. Generate a detailed list of the top 6 trending %snews articles from around the world. For each article, provide:

1. A compelling headline/title that captures the essence of the story (15-20 words)
2. A detailed and informative description (5-8 sentences) that thoroughly explains the key points, context, and implications of the news
3. The source of the news (publication name)

The response MUST be in the following JSON format only, without any additional text or explanations:
`+"```json"+`
[
  {
    "title": "Headline of the article",
    "description": "Detailed description of the article content with proper context, background, key facts, and implications.",
    "source": "Publication Name"
  },
  ...
]
`+"```"+`

Ensure the news is current, factual, and represents important topics. Do not include any explanatory text outside the JSON structure.`, qualifier)
}

func buildProxyPrompt(category string) string {
	return fmt.Sprintf(`Fetch the top 10 trending news articles in the category of %s. Provide the title, description, and source for each article. Give the response in JSON format in this structure: {"title": "...", "description": "...", "source": "..."}`, category)
}

func buildSummaryPrompt(text string) string {
	return fmt.Sprintf(`Please provide a concise summary of the following text. Extract the most important information and main points:

%s

Summary:`, text)
}
