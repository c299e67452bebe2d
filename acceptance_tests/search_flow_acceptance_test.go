package acceptance_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"recipe-finder/internal/gateway"
	"recipe-finder/internal/llm"
	"recipe-finder/internal/planner"
	"recipe-finder/internal/server"
	"recipe-finder/internal/session"
	"recipe-finder/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mock LLM Client ---
type mockLLMClient struct {
	mu                   sync.Mutex
	generateContentCalls int
}

func (m *mockLLMClient) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.mu.Lock()
	m.generateContentCalls++
	m.mu.Unlock()

	if strings.Contains(prompt, "xyz-nonexistent") {
		return llm.ContentResponse{Content: `{"receitas": []}`}, nil
	}
	// Models sometimes wrap the JSON in a markdown fence.
	return llm.ContentResponse{Content: "```json\n" + `{"receitas": [
		{"nome": "Bolo de Chocolate", "descricao": "Fofinho", "ingredientes": ["farinha", "ovos", "chocolate"], "instrucoes": ["misture", "asse"], "tempoDePreparo": "45 minutos", "nivelDeDificuldade": "Fácil"},
		{"nome": "Brigadeiro", "descricao": "Clássico", "ingredientes": ["leite condensado", "chocolate", "manteiga"], "instrucoes": ["cozinhe", "enrole"], "tempoDePreparo": "30 minutos", "nivelDeDificuldade": "Médio"},
		{"nome": "Mousse", "descricao": "Aerado", "ingredientes": ["chocolate", "creme de leite", "ovos"], "instrucoes": ["bata", "gele"], "tempoDePreparo": "20 minutos", "nivelDeDificuldade": "Difícil"}
	]}` + "\n```"}, nil
}

func (m *mockLLMClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateContentCalls
}

type apiClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func (c *apiClient) do(method, path string, body, out interface{}) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (c *apiClient) view(mode view.Mode) view.View {
	c.t.Helper()
	var v view.View
	require.Eventually(c.t, func() bool {
		v = view.View{}
		c.do(http.MethodGet, "/api/view", nil, &v)
		return v.Mode == mode
	}, 2*time.Second, 10*time.Millisecond)
	return v
}

func TestSearchFlowAcceptance(t *testing.T) {
	llmClient := &mockLLMClient{}
	gw := gateway.NewAIGateway(llmClient, zap.NewNop(), gateway.WithRecipeCount(3))

	sessions := session.NewManager(context.Background(), gw, zap.NewNop())
	defer sessions.Close()

	srv := server.New("0", sessions, session.NewTokenSigner("acceptance", time.Hour), zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	jar, _ := cookiejar.New(nil)
	c := &apiClient{t: t, base: ts.URL, http: &http.Client{Jar: jar}}

	// 1. Initial view is the hero
	assert.Equal(t, view.ModeHero, c.view(view.ModeHero).Mode)

	// 2. Search "bolo de chocolate" shows three cards in order
	require.Equal(t, http.StatusAccepted, c.do(http.MethodPost, "/api/search", map[string]string{"query": "bolo de chocolate"}, nil))
	v := c.view(view.ModeRecipeGrid)
	require.Len(t, v.Cards, 3)
	assert.Equal(t, "Bolo de Chocolate-0", v.Cards[0].Key)
	assert.Equal(t, "Brigadeiro", v.Cards[1].Recipe.Name)
	assert.Equal(t, "Mousse", v.Cards[2].Recipe.Name)

	// 3. Two recipes into the shopping list, shared ingredients appear once
	c.do(http.MethodPost, "/api/shopping-list/recipes", map[string]int{"index": 0}, nil)
	var list struct {
		Items []string `json:"items"`
	}
	c.do(http.MethodPost, "/api/shopping-list/recipes", map[string]int{"index": 1}, &list)
	assert.Equal(t, []string{"farinha", "ovos", "chocolate", "leite condensado", "manteiga"}, list.Items)

	// 4. Plan Friday dinner, then overwrite it
	c.do(http.MethodPut, "/api/plan/friday/dinner", map[string]int{"index": 0}, nil)
	var plan struct {
		Days []planner.DayPlan `json:"days"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/api/plan/friday/dinner", map[string]int{"index": 2}, &plan))
	assert.Equal(t, "Mousse", plan.Days[4].Meals[2].Recipe.Name)

	// 5. A search with no results shows the empty message; list and plan survive
	c.do(http.MethodPost, "/api/search", map[string]string{"query": "xyz-nonexistent"}, nil)
	v = c.view(view.ModeEmptyResults)
	assert.Equal(t, view.EmptyMessage, v.Message)

	list.Items = nil
	c.do(http.MethodGet, "/api/shopping-list", nil, &list)
	assert.Len(t, list.Items, 5)

	// 6. "all" resets to the hero without calling the model
	calls := llmClient.calls()
	c.do(http.MethodPost, "/api/category", map[string]string{"category": "all"}, nil)
	c.view(view.ModeHero)
	assert.Equal(t, calls, llmClient.calls())
}
