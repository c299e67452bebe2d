// Package gateway turns a free-text query or a category into AI-generated
// recipes.
package gateway

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"recipe-finder/internal/llm"
	"recipe-finder/internal/recipe"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

//go:embed recipes_prompt.md
var recipesPrompt string

var promptTemplate = template.Must(template.New("recipes").Parse(recipesPrompt))

const agentName = "RecipeGateway"

// ErrUnknownCategory is returned for category IDs outside the catalog,
// including the "all" sentinel which never reaches the model.
var ErrUnknownCategory = errors.New("unknown category")

// UsageRecorder receives token usage for every model call.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta llm.AgentMeta) error
}

type promptData struct {
	Count    int
	Query    string
	Category string
}

// AIGateway fetches recipes from a text generation model.
type AIGateway struct {
	textGen    llm.TextGenerator
	logger     *zap.Logger
	usage      UsageRecorder
	images     ImageResolver
	limiter    *rate.Limiter
	count      int
	imageLimit int
}

// Option configures an AIGateway.
type Option func(*AIGateway)

// WithUsageRecorder records token usage of each call.
func WithUsageRecorder(u UsageRecorder) Option {
	return func(g *AIGateway) { g.usage = u }
}

// WithImageResolver attaches image references to returned recipes.
func WithImageResolver(r ImageResolver) Option {
	return func(g *AIGateway) { g.images = r }
}

// WithRateLimit caps model calls to rpm requests per minute.
func WithRateLimit(rpm int) Option {
	return func(g *AIGateway) {
		if rpm > 0 {
			g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
		}
	}
}

// WithRecipeCount sets how many recipes are requested per call.
func WithRecipeCount(n int) Option {
	return func(g *AIGateway) {
		if n > 0 {
			g.count = n
		}
	}
}

// NewAIGateway creates a gateway over textGen.
func NewAIGateway(textGen llm.TextGenerator, logger *zap.Logger, opts ...Option) *AIGateway {
	g := &AIGateway{
		textGen:    textGen,
		logger:     logger,
		count:      6,
		imageLimit: 4,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FetchByQuery asks the model for recipes matching a free-text query.
func (g *AIGateway) FetchByQuery(ctx context.Context, text string) ([]recipe.Recipe, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty query")
	}
	return g.fetch(ctx, promptData{Count: g.count, Query: text})
}

// FetchByCategory asks the model for recipes of a catalog category.
func (g *AIGateway) FetchByCategory(ctx context.Context, id string) ([]recipe.Recipe, error) {
	cat, ok := LookupCategory(id)
	if !ok || cat.ID == CategoryAll {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, id)
	}
	return g.fetch(ctx, promptData{Count: g.count, Category: cat.Label})
}

func (g *AIGateway) fetch(ctx context.Context, data promptData) ([]recipe.Recipe, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	start := time.Now()
	resp, err := g.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get LLM response: %w", err)
	}
	g.recordUsage(ctx, llm.AgentMeta{AgentName: agentName, Usage: resp.Usage, Latency: time.Since(start)})

	recipes, err := recipe.Extract(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to extract recipes: %w", err)
	}

	g.attachImages(ctx, recipes)
	return recipes, nil
}

func (g *AIGateway) recordUsage(ctx context.Context, meta llm.AgentMeta) {
	if g.usage == nil {
		return
	}
	if err := g.usage.RecordMeta(ctx, meta); err != nil {
		g.logger.Warn("failed to record usage metrics", zap.Error(err))
	}
}

// attachImages resolves images concurrently. Images are optional: failures
// are logged and the recipe keeps no image.
func (g *AIGateway) attachImages(ctx context.Context, recipes []recipe.Recipe) {
	if g.images == nil {
		return
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.imageLimit)
	for i := range recipes {
		if recipes[i].HasImage() {
			continue
		}
		eg.Go(func() error {
			src, err := g.images.ResolveImage(egCtx, recipes[i])
			if err != nil {
				g.logger.Debug("image lookup failed", zap.String("recipe", recipes[i].Name), zap.Error(err))
				return nil
			}
			recipes[i].ImageURL = src
			return nil
		})
	}
	_ = eg.Wait()
}
