package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"voicejot/internal/domain"
)

const categorizerInstruction = "You file short voice notes into categories. " +
	"Reply with exactly one category name from the provided list and nothing else."

// Categorize asks the model to pick one of the allowed categories for
// the transcript. Replies outside the allowed list fall back to the
// catch-all category rather than surfacing as an error.
func (p *Provider) Categorize(ctx context.Context, text string, categories []string) (string, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("Categories: %s\n\nNote:\n%s", strings.Join(categories, ", "), text)
	temperature := float32(0)

	resp, err := client.Models.GenerateContent(ctx, p.cfg.CategorizerModel, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: categorizerInstruction}}},
		Temperature:       &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to categorize note: %w", err)
	}

	return matchCategory(resp.Text(), categories), nil
}

// matchCategory maps a model reply onto one of the allowed categories.
// The comparison tolerates case and stray punctuation; anything still
// unmatched becomes the catch-all category.
func matchCategory(reply string, categories []string) string {
	cleaned := strings.ToLower(strings.Trim(strings.TrimSpace(reply), `."'`))
	for _, c := range categories {
		if strings.ToLower(c) == cleaned {
			return c
		}
	}
	return domain.FallbackCategory
}
