// Package view derives what the results area shows from the search state.
package view

import (
	"recipe-finder/internal/recipe"
	"recipe-finder/internal/search"
)

// Mode is the kind of content shown in the results area.
type Mode string

const (
	ModeHero         Mode = "hero"
	ModeSkeleton     Mode = "skeleton"
	ModeErrorBanner  Mode = "error"
	ModeEmptyResults Mode = "empty"
	ModeRecipeGrid   Mode = "grid"
)

// EmptyMessage is shown when a search returned no recipes.
const EmptyMessage = "Nenhuma receita encontrada. Que tal tentar uma busca diferente?"

// SkeletonCards is the number of placeholder cards while loading.
const SkeletonCards = 3

// ModeFor picks the display mode. Earlier rules win.
func ModeFor(status search.Status, count int, hasSearched bool) Mode {
	switch {
	case status == search.StatusLoading:
		return ModeSkeleton
	case status == search.StatusError:
		return ModeErrorBanner
	case hasSearched && count == 0:
		return ModeEmptyResults
	case count > 0:
		return ModeRecipeGrid
	default:
		return ModeHero
	}
}

// Card is a recipe as displayed, with a key stable across re-renders.
type Card struct {
	Key    string        `json:"key"`
	Index  int           `json:"index"`
	Recipe recipe.Recipe `json:"recipe"`
}

// View is the projected results area.
type View struct {
	Mode      Mode          `json:"mode"`
	Message   string        `json:"message,omitempty"`
	Cards     []Card        `json:"cards"`
	Skeletons int           `json:"skeletons,omitempty"`
	Status    search.Status `json:"status"`
	Term      string        `json:"term,omitempty"`
}

// Project builds the view for a state snapshot.
func Project(s search.State) View {
	v := View{
		Mode:   ModeFor(s.Status, len(s.Recipes), s.HasSearched),
		Cards:  []Card{},
		Status: s.Status,
		Term:   s.Term,
	}

	switch v.Mode {
	case ModeSkeleton:
		v.Skeletons = SkeletonCards
	case ModeErrorBanner:
		v.Message = s.Message
	case ModeEmptyResults:
		v.Message = EmptyMessage
	case ModeRecipeGrid:
		v.Cards = make([]Card, len(s.Recipes))
		for i, r := range s.Recipes {
			v.Cards[i] = Card{Key: recipe.Key(r, i), Index: i, Recipe: r.Clone()}
		}
	}
	return v
}
