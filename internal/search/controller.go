// Package search owns the lifecycle of a session's recipe result set.
//
// Every request is tagged with a generation token. A resolution only commits
// when its token is still the latest one issued, so a slow response can never
// overwrite the outcome of a newer request.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"recipe-finder/internal/recipe"

	"go.uber.org/zap"
)

// CategoryAll clears the results without calling the gateway.
const CategoryAll = "all"

var (
	// ErrNoResults is returned by RecipeAt when no recipes are displayed.
	ErrNoResults = errors.New("no recipes are displayed")
	// ErrRecipeIndex is returned by RecipeAt for an out-of-range position.
	ErrRecipeIndex = errors.New("recipe index out of range")
	// ErrStaleGeneration is returned by RecipeAtGeneration when the result
	// set has changed since the given generation was displayed.
	ErrStaleGeneration = errors.New("results changed since they were displayed")
)

// Gateway fetches recipes from the AI service.
type Gateway interface {
	FetchByQuery(ctx context.Context, text string) ([]recipe.Recipe, error)
	FetchByCategory(ctx context.Context, category string) ([]recipe.Recipe, error)
}

// Outcomes reported to an Observer.
const (
	OutcomeLoaded = "loaded"
	OutcomeError  = "error"
	OutcomeStale  = "stale"
)

// Observer is notified once per resolved request.
type Observer interface {
	ObserveResolution(kind, outcome string, latency time.Duration)
}

// Controller is the per-session search state machine.
type Controller struct {
	gateway  Gateway
	logger   *zap.Logger
	observer Observer
	baseCtx  context.Context

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver reports every resolution to o.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// NewController creates an idle controller. Fetches run under ctx; cancelling
// it aborts any in-flight request.
func NewController(ctx context.Context, gateway Gateway, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		gateway: gateway,
		logger:  logger,
		baseCtx: ctx,
		state:   State{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search starts a free-text search. An empty query is a no-op. The returned
// channel is closed once the request has resolved, whether its result was
// committed or discarded as stale.
func (c *Controller) Search(query string) <-chan struct{} {
	query = strings.TrimSpace(query)
	if query == "" {
		return closedChan()
	}
	return c.issue(KindQuery, query, c.gateway.FetchByQuery)
}

// SelectCategory starts a category search. The "all" sentinel resets the
// result set to idle without calling the gateway.
func (c *Controller) SelectCategory(category string) <-chan struct{} {
	category = strings.TrimSpace(category)
	switch category {
	case "":
		return closedChan()
	case CategoryAll:
		c.reset()
		return closedChan()
	}
	return c.issue(KindCategory, category, c.gateway.FetchByCategory)
}

// State returns a snapshot of the result set.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// RecipeAt returns a copy of the displayed recipe at index.
func (c *Controller) RecipeAt(index int) (recipe.Recipe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recipeAtLocked(index)
}

// RecipeAtGeneration is RecipeAt for a result set the caller displayed
// earlier. The generation check and the lookup happen under one lock, so a
// search issued in between yields ErrStaleGeneration instead of a recipe from
// the newer set.
func (c *Controller) RecipeAtGeneration(gen uint64, index int) (recipe.Recipe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Generation != gen {
		return recipe.Recipe{}, ErrStaleGeneration
	}
	return c.recipeAtLocked(index)
}

func (c *Controller) recipeAtLocked(index int) (recipe.Recipe, error) {
	if c.state.Status != StatusLoaded || len(c.state.Recipes) == 0 {
		return recipe.Recipe{}, ErrNoResults
	}
	if index < 0 || index >= len(c.state.Recipes) {
		return recipe.Recipe{}, ErrRecipeIndex
	}
	return c.state.Recipes[index].Clone(), nil
}

// Wait blocks until every issued request has resolved.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels the in-flight request, if any. The controller stays usable.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

type fetchFunc func(ctx context.Context, term string) ([]recipe.Recipe, error)

func (c *Controller) issue(kind Kind, term string, fetch fetchFunc) <-chan struct{} {
	done := make(chan struct{})

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.baseCtx)
	c.cancel = cancel

	gen := c.state.Generation + 1
	c.state = State{
		Status:      StatusLoading,
		HasSearched: true,
		Kind:        kind,
		Term:        term,
		Generation:  gen,
	}
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Debug("search issued", zap.String("kind", string(kind)), zap.String("term", term), zap.Uint64("generation", gen))

	go func() {
		defer c.wg.Done()
		defer close(done)
		defer cancel()

		start := time.Now()
		recipes, err := fetch(ctx, term)
		c.resolve(kind, gen, recipes, err, time.Since(start))
	}()

	return done
}

func (c *Controller) resolve(kind Kind, gen uint64, recipes []recipe.Recipe, err error, latency time.Duration) {
	c.mu.Lock()
	if gen != c.state.Generation {
		c.mu.Unlock()
		c.logger.Debug("discarding stale search response", zap.Uint64("generation", gen), zap.Error(err))
		c.observe(kind, OutcomeStale, latency)
		return
	}

	c.cancel = nil
	outcome := OutcomeLoaded
	if err != nil {
		outcome = OutcomeError
		c.state.Status = StatusError
		c.state.Message = ErrorMessage
		c.state.Recipes = nil
	} else {
		c.state.Status = StatusLoaded
		c.state.Message = ""
		c.state.Recipes = recipe.CloneAll(recipes)
		if c.state.Recipes == nil {
			c.state.Recipes = []recipe.Recipe{}
		}
	}
	term := c.state.Term
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("recipe fetch failed", zap.String("kind", string(kind)), zap.String("term", term), zap.Error(err))
	} else {
		c.logger.Info("recipes loaded", zap.String("kind", string(kind)), zap.String("term", term), zap.Int("count", len(recipes)))
	}
	c.observe(kind, outcome, latency)
}

func (c *Controller) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	// Bumping the generation turns any in-flight response stale.
	c.state = State{Status: StatusIdle, Generation: c.state.Generation + 1}
}

func (c *Controller) observe(kind Kind, outcome string, latency time.Duration) {
	if c.observer != nil {
		c.observer.ObserveResolution(string(kind), outcome, latency)
	}
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
