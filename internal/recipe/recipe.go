package recipe

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Difficulty is the preparation difficulty reported by the model.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Fácil"
	DifficultyMedium Difficulty = "Médio"
	DifficultyHard   Difficulty = "Difícil"
)

// Recipe is a single AI-generated recipe. It is treated as an immutable value:
// anything that keeps a recipe around stores a Clone.
type Recipe struct {
	Name         string     `json:"nome" validate:"required"`
	Description  string     `json:"descricao"`
	Ingredients  []string   `json:"ingredientes"`
	Instructions []string   `json:"instrucoes"`
	PrepTime     string     `json:"tempoDePreparo"`
	Difficulty   Difficulty `json:"nivelDeDificuldade" validate:"oneof=Fácil Médio Difícil"`
	ImageURL     string     `json:"imageUrl,omitempty"`
}

// HasImage reports whether an image reference is attached.
func (r Recipe) HasImage() bool {
	return r.ImageURL != ""
}

// Clone returns a deep copy so slices are never shared between owners.
func (r Recipe) Clone() Recipe {
	c := r
	if r.Ingredients != nil {
		c.Ingredients = append([]string(nil), r.Ingredients...)
	}
	if r.Instructions != nil {
		c.Instructions = append([]string(nil), r.Instructions...)
	}
	return c
}

// CloneAll deep-copies a slice of recipes, preserving order.
func CloneAll(recipes []Recipe) []Recipe {
	if recipes == nil {
		return nil
	}
	out := make([]Recipe, len(recipes))
	for i, r := range recipes {
		out[i] = r.Clone()
	}
	return out
}

// Key is the display key of a recipe at a given position. Names are not unique,
// so the position disambiguates.
func Key(r Recipe, index int) string {
	return fmt.Sprintf("%s-%d", r.Name, index)
}

var validate = validator.New()

// Validate checks the fields the rest of the application relies on.
func (r Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("recipe name is required")
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid recipe %q: %w", r.Name, err)
	}
	return nil
}

// ParseDifficulty accepts the canonical Portuguese labels as well as their
// unaccented and English spellings.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fácil", "facil", "easy":
		return DifficultyEasy, true
	case "médio", "medio", "medium":
		return DifficultyMedium, true
	case "difícil", "dificil", "hard":
		return DifficultyHard, true
	}
	return "", false
}
