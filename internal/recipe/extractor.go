package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// envelope is the object shape the prompt asks for. Some providers only
// produce JSON objects in JSON mode, so the list is wrapped.
type envelope struct {
	Recipes *[]Recipe `json:"receitas"`
}

// Extract decodes the recipes contained in a model response. It accepts either
// {"receitas": [...]} or a bare array, optionally wrapped in a markdown code
// fence. An object without the "receitas" key is an error, not an empty
// result. Difficulty labels are normalised; a record that still fails
// validation fails the whole response.
func Extract(content string) ([]Recipe, error) {
	raw := []byte(stripCodeFence(content))
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("failed to extract recipes: empty response")
	}

	var recipes []Recipe
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		if err := json.Unmarshal(raw, &recipes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipe list: %w", err)
		}
	} else {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipe envelope: %w", err)
		}
		if env.Recipes == nil {
			return nil, fmt.Errorf("failed to extract recipes: missing \"receitas\" field")
		}
		recipes = *env.Recipes
	}

	if recipes == nil {
		recipes = []Recipe{}
	}
	for i := range recipes {
		if d, ok := ParseDifficulty(string(recipes[i].Difficulty)); ok {
			recipes[i].Difficulty = d
		}
		recipes[i].Name = strings.TrimSpace(recipes[i].Name)
		if err := recipes[i].Validate(); err != nil {
			return nil, fmt.Errorf("failed to validate recipe %d: %w", i, err)
		}
	}
	return recipes, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line, e.g. ```json
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
