package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"go-cv-bot/internal/models"
)

var ErrNoJSON = errors.New("no JSON object in response")

// enhancementSchema accepts any subset of the known keys. Unknown keys are ignored.
const enhancementSchema = `{
  "type": "object",
  "properties": {
    "summary": {"type": "string"},
    "experience": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "role": {"type": "string"},
          "company": {"type": "string"},
          "years": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    },
    "education": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "degree": {"type": "string"},
          "institution": {"type": "string"},
          "years": {"type": "string"}
        }
      }
    },
    "skills": {
      "oneOf": [
        {"type": "array", "items": {"type": "string"}},
        {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}
      ]
    },
    "languages": {"type": "array", "items": {"type": "string"}},
    "certifications": {"type": "array", "items": {"type": "string"}}
  }
}`

var enhancementLoader = gojsonschema.NewStringLoader(enhancementSchema)

// Enhancement holds the keys a model answered with. Nil means absent.
type Enhancement struct {
	Summary        *string
	Experience     []models.Experience
	Education      []models.Education
	Skills         map[string][]string
	Languages      []string
	Certifications []string
}

// Apply overwrites only the fields present in e.
func (e *Enhancement) Apply(r *models.Resume) {
	if e.Summary != nil {
		r.Summary = *e.Summary
	}
	if e.Experience != nil {
		r.Experience = e.Experience
	}
	if e.Education != nil {
		r.Education = e.Education
	}
	if e.Skills != nil {
		r.Skills = e.Skills
	}
	if e.Languages != nil {
		r.Languages = e.Languages
	}
	if e.Certifications != nil {
		r.Certifications = e.Certifications
	}
}

// parseEnhancement extracts the outermost JSON object from a model answer,
// validates it and decodes the known keys.
func parseEnhancement(raw string) (*Enhancement, error) {
	content := cleanMarkdownJSON(raw)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, ErrNoJSON
	}
	content = content[start : end+1]

	result, err := gojsonschema.Validate(enhancementLoader, gojsonschema.NewStringLoader(content))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON in response: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("response does not match schema: %s", strings.Join(msgs, "; "))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	e := &Enhancement{}
	decode := func(key string, dst any) error {
		v, ok := fields[key]
		if !ok || string(v) == "null" {
			return nil
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("failed to decode %s: %w", key, err)
		}
		return nil
	}

	if _, ok := fields["summary"]; ok {
		var s string
		if err := decode("summary", &s); err != nil {
			return nil, err
		}
		e.Summary = &s
	}
	if err := decode("experience", &e.Experience); err != nil {
		return nil, err
	}
	if err := decode("education", &e.Education); err != nil {
		return nil, err
	}
	if err := decode("languages", &e.Languages); err != nil {
		return nil, err
	}
	if err := decode("certifications", &e.Certifications); err != nil {
		return nil, err
	}

	if v, ok := fields["skills"]; ok && len(v) > 0 && v[0] == '[' {
		var flat []string
		if err := json.Unmarshal(v, &flat); err != nil {
			return nil, fmt.Errorf("failed to decode skills: %w", err)
		}
		e.Skills = map[string][]string{models.DefaultSkillCategory: flat}
	} else if err := decode("skills", &e.Skills); err != nil {
		return nil, err
	}
	return e, nil
}

// cleanMarkdownJSON removes backticks and "json" prefix if the AI model tries to be helpful
func cleanMarkdownJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}
