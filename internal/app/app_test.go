package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"recipe-finder/internal/config"
	"recipe-finder/internal/database"
	"recipe-finder/internal/metrics"
	"recipe-finder/internal/recipe"
	"recipe-finder/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGateway struct {
	recipes []recipe.Recipe
	err     error
}

func (f fakeGateway) FetchByQuery(ctx context.Context, text string) ([]recipe.Recipe, error) {
	return f.recipes, f.err
}

func (f fakeGateway) FetchByCategory(ctx context.Context, category string) ([]recipe.Recipe, error) {
	return f.recipes, f.err
}

func newTestApp(t *testing.T, gw fakeGateway) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{
		DatabasePath:  filepath.Join(t.TempDir(), "test.db"),
		SessionSecret: "secret",
		SessionTTL:    time.Hour,
	}
	db, err := database.NewDB(cfg.DatabasePath, zap.NewNop())
	require.NoError(t, err)

	a := newApp(cfg, zap.NewNop(), db, metrics.NewStore(db.SQL), gw)
	t.Cleanup(func() { a.Close() })

	var out bytes.Buffer
	a.out = &out
	return a, &out
}

func TestSearchRecipes(t *testing.T) {
	ctx := context.Background()

	t.Run("PrintsRecipes", func(t *testing.T) {
		a, out := newTestApp(t, fakeGateway{recipes: []recipe.Recipe{
			{Name: "Bolo de Chocolate", PrepTime: "45 min", Difficulty: recipe.DifficultyEasy, Ingredients: []string{"farinha", "cacau"}},
		}})

		require.NoError(t, a.SearchRecipes(ctx, "bolo de chocolate"))
		assert.Contains(t, out.String(), "=== 1. Bolo de Chocolate ===")
		assert.Contains(t, out.String(), "Tempo: 45 min | Dificuldade: Fácil")
		assert.Contains(t, out.String(), "- cacau")
	})

	t.Run("NoResults", func(t *testing.T) {
		a, out := newTestApp(t, fakeGateway{})
		require.NoError(t, a.SearchRecipes(ctx, "xyz-nonexistent"))
		assert.Contains(t, out.String(), "Nenhuma receita encontrada")
	})

	t.Run("Failure", func(t *testing.T) {
		a, out := newTestApp(t, fakeGateway{err: errors.New("quota")})
		assert.Error(t, a.SearchRecipes(ctx, "bolo"))
		assert.Contains(t, out.String(), search.ErrorMessage)
		assert.NotContains(t, out.String(), "quota")
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		a, _ := newTestApp(t, fakeGateway{})
		assert.Error(t, a.SearchRecipes(ctx, "  "))
	})
}

func TestCleanupMetrics(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, fakeGateway{})

	require.NoError(t, a.metricsStore.Record(ctx, metrics.ExecutionMetric{
		AgentName: "RecipeGateway", Model: "m", PromptTokens: 10, Timestamp: time.Now().AddDate(0, 0, -40),
	}))
	require.NoError(t, a.metricsStore.Record(ctx, metrics.ExecutionMetric{
		AgentName: "RecipeGateway", Model: "m", PromptTokens: 10, Timestamp: time.Now(),
	}))

	require.NoError(t, a.CleanupMetrics(ctx, 30))
	assert.Contains(t, out.String(), "Removed 1 metric rows older than 30 days.")
}

func TestNewTextGeneratorUnknownProvider(t *testing.T) {
	_, _, err := newTextGenerator(context.Background(), &config.Config{AIProvider: "openai"})
	assert.Error(t, err)
}

func TestBotHandlerServesOnlyWebhook(t *testing.T) {
	var hits int
	webhook := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	})
	h := botHandler(webhook)

	serve := func(method, path string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/health"))
	assert.Equal(t, http.StatusOK, serve(http.MethodPost, "/webhook"))
	assert.Equal(t, 1, hits)

	assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, "/api/view"))
	assert.Equal(t, http.StatusNotFound, serve(http.MethodPost, "/api/search"))
	assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, "/metrics"))
	assert.Equal(t, http.StatusMethodNotAllowed, serve(http.MethodGet, "/webhook"))
}

func TestServeBotRequiresToken(t *testing.T) {
	a, _ := newTestApp(t, fakeGateway{})
	err := a.ServeBot(context.Background())
	assert.Error(t, err)
}
