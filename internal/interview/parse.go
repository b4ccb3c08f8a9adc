package interview

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go-cv-bot/internal/models"
)

var ErrFormat = errors.New("input does not match the expected format")

// spacedDash is a dash with whitespace on at least one side, so year
// ranges like "2020-2022" stay inside one segment.
var spacedDash = regexp.MustCompile(`\s+-\s*|\s*-\s+`)

// splitSegments splits text into exactly n trimmed, non-empty segments.
// Spaced dashes are the delimiter; text without any falls back to bare dashes.
func splitSegments(text string, n int) ([]string, error) {
	text = strings.TrimSpace(text)
	parts := spacedDash.Split(text, -1)
	if len(parts) == 1 {
		parts = strings.Split(text, "-")
	}
	if len(parts) != n {
		return nil, fmt.Errorf("%w: got %d segments, want %d", ErrFormat, len(parts), n)
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
		if parts[i] == "" {
			return nil, fmt.Errorf("%w: segment %d is empty", ErrFormat, i+1)
		}
	}
	return parts, nil
}

// ParseExperience reads "Role - Company - Years - Description".
func ParseExperience(text string) (models.Experience, error) {
	p, err := splitSegments(text, 4)
	if err != nil {
		return models.Experience{}, err
	}
	return models.Experience{Role: p[0], Company: p[1], Years: p[2], Description: p[3]}, nil
}

// ParseEducation reads "Degree - Institution - Years".
func ParseEducation(text string) (models.Education, error) {
	p, err := splitSegments(text, 3)
	if err != nil {
		return models.Education{}, err
	}
	return models.Education{Degree: p[0], Institution: p[1], Years: p[2]}, nil
}

// ParseProject reads "Name - Description - Technologies".
func ParseProject(text string) (models.Project, error) {
	p, err := splitSegments(text, 3)
	if err != nil {
		return models.Project{}, err
	}
	return models.Project{Name: p[0], Description: p[1], Technologies: p[2]}, nil
}

// ParseList splits a comma separated list, trimming items and dropping
// empty ones. It never fails; no items gives an empty list.
func ParseList(text string) []string {
	out := []string{}
	for _, item := range strings.Split(text, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseLine accepts any non-blank single field.
func parseLine(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrFormat
	}
	return text, nil
}
