package search

import "recipe-finder/internal/recipe"

// Status is the lifecycle tag of the result set.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusLoaded  Status = "loaded"
)

// ErrorMessage is the only failure text ever shown to users. The underlying
// gateway error is logged instead.
const ErrorMessage = "Não foi possível buscar receitas agora. Tente novamente."

// Kind says which gateway operation produced the current result set.
type Kind string

const (
	KindQuery    Kind = "query"
	KindCategory Kind = "category"
)

// State is a snapshot of the result set. Recipes is a private copy.
type State struct {
	Status      Status          `json:"status"`
	Message     string          `json:"message,omitempty"`
	Recipes     []recipe.Recipe `json:"recipes"`
	HasSearched bool            `json:"hasSearched"`
	Kind        Kind            `json:"kind,omitempty"`
	Term        string          `json:"term,omitempty"`
	Generation  uint64          `json:"generation"`
}

func (s State) clone() State {
	c := s
	c.Recipes = recipe.CloneAll(s.Recipes)
	return c
}
