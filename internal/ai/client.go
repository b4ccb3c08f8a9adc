package ai

import (
	"context"
	"fmt"
	"strings"

	"go-cv-bot/internal/models"
)

// Client is the interface for text generation providers.
type Client interface {
	// Complete sends one prompt and returns the model's text answer.
	Complete(ctx context.Context, prompt string) (string, error)
}

// buildSystemPrompt keeps every provider on the same persona.
func buildSystemPrompt() string {
	return `You are a professional CV writer.
Only return the requested CV content - no explanations, instructions or additional text.`
}

func summaryPrompt(text string) string {
	return "Rewrite this professionally in 3-4 sentences:\n" + text
}

func descriptionPrompt(text string) string {
	return "Improve this job description professionally:\n" + text
}

// documentPrompt asks for a JSON object with the keys parseEnhancement understands.
func documentPrompt(r *models.Resume) string {
	var exp, edu []string
	for _, e := range r.Experience {
		exp = append(exp, fmt.Sprintf("%s at %s (%s): %s", e.Role, e.Company, e.Years, e.Description))
	}
	for _, e := range r.Education {
		edu = append(edu, fmt.Sprintf("%s at %s (%s)", e.Degree, e.Institution, e.Years))
	}

	return fmt.Sprintf(`Create a professional CV using only this information:

Name: %s
Contact: %s

Summary:
%s

Experience:
%s

Education:
%s

Skills: %s
Languages: %s

Return the enhanced content as a single JSON object with these keys:
- "summary": 3-4 sentence professional summary (string)
- "experience": array of {"role", "company", "years", "description"} with achievement focused descriptions
- "education": array of {"degree", "institution", "years"}
- "skills": object mapping a category name to an array of skills
- "languages": array of strings
- "certifications": array of 2-3 relevant certification names

Keep names, companies, institutions and years exactly as given.
Return ONLY the raw JSON object starting with { and ending with }. Do NOT wrap it in markdown.`,
		r.Name, r.ContactLine(), r.Summary,
		strings.Join(exp, "\n"), strings.Join(edu, "\n"),
		strings.Join(r.AllSkills(), ", "), strings.Join(r.Languages, ", "))
}
