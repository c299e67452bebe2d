package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"recipe-finder/internal/gateway"
	"recipe-finder/internal/planner"
	"recipe-finder/internal/search"
	"recipe-finder/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type searchRequest struct {
	Query string `json:"query" validate:"max=200"`
}

type categoryRequest struct {
	Category string `json:"category" validate:"max=64"`
}

type indexRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

type itemsRequest struct {
	Items []string `json:"items" validate:"required,dive,max=200"`
}

type shoppingResponse struct {
	Items []string `json:"items"`
	Added *int     `json:"added,omitempty"`
}

type planResponse struct {
	WeekStart string            `json:"weekStart"`
	Days      []planner.DayPlan `json:"days"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, gateway.Categories())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess := sessionFrom(r)
	sess.Search.Search(req.Query)
	s.writeJSON(w, http.StatusAccepted, view.Project(sess.Search.State()))
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess := sessionFrom(r)
	sess.Search.SelectCategory(req.Category)
	s.writeJSON(w, http.StatusAccepted, view.Project(sess.Search.State()))
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, view.Project(sessionFrom(r).Search.State()))
}

func (s *Server) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, shoppingResponse{Items: sessionFrom(r).Shopping.Items()})
}

func (s *Server) handleSetShoppingList(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	if !s.decode(w, r, &req) {
		return
	}
	list := sessionFrom(r).Shopping
	list.Set(req.Items)
	s.writeJSON(w, http.StatusOK, shoppingResponse{Items: list.Items()})
}

func (s *Server) handleAddRecipeToList(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess := sessionFrom(r)
	rec, err := sess.Search.RecipeAt(*req.Index)
	if err != nil {
		s.writeRecipeError(w, err)
		return
	}
	added := sess.Shopping.AddFromRecipe(rec)
	s.writeJSON(w, http.StatusOK, shoppingResponse{Items: sess.Shopping.Items(), Added: &added})
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	item, err := url.PathUnescape(chi.URLParam(r, "item"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid item")
		return
	}
	list := sessionFrom(r).Shopping
	if !list.Remove(item) {
		s.writeError(w, http.StatusNotFound, "item not in shopping list")
		return
	}
	s.writeJSON(w, http.StatusOK, shoppingResponse{Items: list.Items()})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, planOf(sessionFrom(r).Plan))
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	day, meal, ok := s.slotParams(w, r)
	if !ok {
		return
	}
	var req indexRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess := sessionFrom(r)
	rec, err := sess.Search.RecipeAt(*req.Index)
	if err != nil {
		s.writeRecipeError(w, err)
		return
	}
	if err := sess.Plan.Assign(rec, string(day), string(meal)); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, planOf(sess.Plan))
}

func (s *Server) handleClearSlot(w http.ResponseWriter, r *http.Request) {
	day, meal, ok := s.slotParams(w, r)
	if !ok {
		return
	}
	plan := sessionFrom(r).Plan
	if err := plan.Clear(string(day), string(meal)); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, planOf(plan))
}

// slotParams validates the day and meal path segments before anything else
// is looked at.
func (s *Server) slotParams(w http.ResponseWriter, r *http.Request) (planner.Day, planner.Meal, bool) {
	day, err := planner.ParseDay(chi.URLParam(r, "day"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	meal, err := planner.ParseMeal(chi.URLParam(r, "meal"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	return day, meal, true
}

func planOf(p *planner.WeeklyPlan) planResponse {
	return planResponse{
		WeekStart: p.WeekStart.Format("2006-01-02"),
		Days:      p.Grid(),
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) writeRecipeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, search.ErrNoResults):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, search.ErrRecipeIndex):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
