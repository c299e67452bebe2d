package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"recipe-finder/internal/config"
	"recipe-finder/internal/gateway"
	"recipe-finder/internal/metrics"
	"recipe-finder/internal/planner"
	"recipe-finder/internal/recipe"
	"recipe-finder/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu        sync.Mutex
	messages  []tgbotapi.MessageConfig
	callbacks []tgbotapi.CallbackConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.callbacks = append(f.callbacks, cb)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[len(f.messages)-1]
}

type fakeGateway struct{}

func (fakeGateway) FetchByQuery(ctx context.Context, text string) ([]recipe.Recipe, error) {
	if text == "xyz-nonexistent" {
		return nil, nil
	}
	return []recipe.Recipe{
		{Name: "Bolo de Cenoura", Ingredients: []string{"cenoura", "ovos"}, PrepTime: "50 min", Difficulty: recipe.DifficultyEasy},
		{Name: "Pão de Queijo", Ingredients: []string{"polvilho", "queijo", "ovos"}, PrepTime: "40 min", Difficulty: recipe.DifficultyMedium},
	}, nil
}

func (fakeGateway) FetchByCategory(ctx context.Context, category string) ([]recipe.Recipe, error) {
	return []recipe.Recipe{{Name: "Salada Verde", Ingredients: []string{"alface"}}}, nil
}

const (
	chatID  int64 = 100
	userID  int64 = 42
	adminID int64 = 7
)

func newTestBot(t *testing.T) (*Bot, *fakeSender) {
	t.Helper()
	sessions := session.NewManager(context.Background(), fakeGateway{}, zap.NewNop())
	t.Cleanup(sessions.Close)

	cfg := &config.Config{
		TelegramAllowedUserIDs: []int64{userID, adminID},
		AdminTelegramID:        adminID,
		DatabasePath:           t.TempDir() + "/test.db",
	}
	sender := &fakeSender{}
	return newBot(sender, cfg, sessions, nil, zap.NewNop()), sender
}

func textUpdate(from int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: from},
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.SplitN(text, " ", 2)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}}
}

func TestSearchSendsRecipeCards(t *testing.T) {
	bot, sender := newTestBot(t)
	bot.HandleUpdate(context.Background(), textUpdate(userID, "bolo"))

	require.Len(t, sender.messages, 2)
	assert.Contains(t, sender.messages[0].Text, "*1. Bolo de Cenoura*")
	assert.Contains(t, sender.messages[1].Text, "• polvilho")

	keyboard, ok := sender.messages[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotNil(t, keyboard.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "add|1|0", *keyboard.InlineKeyboard[0][0].CallbackData)
}

func TestEmptySearch(t *testing.T) {
	bot, sender := newTestBot(t)
	bot.HandleUpdate(context.Background(), textUpdate(userID, "xyz-nonexistent"))

	require.Len(t, sender.messages, 1)
	assert.Contains(t, sender.last().Text, "Nenhuma receita encontrada")
}

func TestAddToShoppingListButton(t *testing.T) {
	bot, sender := newTestBot(t)
	ctx := context.Background()

	bot.HandleUpdate(ctx, textUpdate(userID, "bolo"))
	bot.HandleUpdate(ctx, callbackUpdate("add|1|0"))
	bot.HandleUpdate(ctx, callbackUpdate("add|1|1"))

	require.Len(t, sender.callbacks, 2)
	assert.Equal(t, "2 itens adicionados à lista", sender.callbacks[0].Text)
	assert.Equal(t, "2 itens adicionados à lista", sender.callbacks[1].Text)

	bot.HandleUpdate(ctx, textUpdate(userID, "/lista"))
	assert.Contains(t, sender.last().Text, "• cenoura\n• ovos\n• polvilho\n• queijo")
}

func TestStaleButtonIsRejected(t *testing.T) {
	bot, sender := newTestBot(t)
	ctx := context.Background()

	bot.HandleUpdate(ctx, textUpdate(userID, "bolo"))
	bot.HandleUpdate(ctx, textUpdate(userID, "/categoria vegana"))
	bot.HandleUpdate(ctx, callbackUpdate("add|1|0"))

	require.Len(t, sender.callbacks, 1)
	assert.Equal(t, "Essa busca não está mais ativa.", sender.callbacks[0].Text)
	assert.Equal(t, 0, bot.sessionFor(chatID).Shopping.Len())
}

func TestButtonFromEarlierSearchIsRejected(t *testing.T) {
	bot, sender := newTestBot(t)
	ctx := context.Background()

	bot.HandleUpdate(ctx, textUpdate(userID, "bolo"))
	bot.HandleUpdate(ctx, textUpdate(userID, "pão"))
	bot.HandleUpdate(ctx, callbackUpdate("add|1|1"))
	bot.HandleUpdate(ctx, callbackUpdate("add|2|5"))

	require.Len(t, sender.callbacks, 2)
	assert.Equal(t, "Essa busca não está mais ativa.", sender.callbacks[0].Text)
	assert.Equal(t, "Receita indisponível.", sender.callbacks[1].Text)
	assert.Equal(t, 0, bot.sessionFor(chatID).Shopping.Len())
}

func TestPlanCommand(t *testing.T) {
	bot, sender := newTestBot(t)
	ctx := context.Background()

	bot.HandleUpdate(ctx, textUpdate(userID, "/planejar 1 segunda jantar"))
	assert.Contains(t, sender.last().Text, "Faça uma busca primeiro")

	bot.HandleUpdate(ctx, textUpdate(userID, "bolo"))
	bot.HandleUpdate(ctx, textUpdate(userID, "/planejar 2 Sexta café da manhã"))
	assert.Equal(t, "📅 Café da manhã em Sexta: Pão de Queijo", sender.last().Text)

	r, err := bot.sessionFor(chatID).Plan.Slot("friday", "breakfast")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "Pão de Queijo", r.Name)

	bot.HandleUpdate(ctx, textUpdate(userID, "/planejar 1 feriado jantar"))
	assert.Contains(t, sender.last().Text, "Dia desconhecido")

	bot.HandleUpdate(ctx, textUpdate(userID, "/semana"))
	assert.Contains(t, sender.last().Text, "Café da manhã: Pão de Queijo")
}

func TestUnauthorizedUserIgnored(t *testing.T) {
	bot, sender := newTestBot(t)
	bot.HandleUpdate(context.Background(), textUpdate(999, "bolo"))
	assert.Empty(t, sender.messages)
}

func TestMetricsCommand(t *testing.T) {
	bot, sender := newTestBot(t)
	bot.HandleUpdate(context.Background(), textUpdate(userID, "/metrics"))
	assert.Contains(t, sender.last().Text, "Acesso negado")

	bot.HandleUpdate(context.Background(), textUpdate(adminID, "/metrics"))
	assert.Contains(t, sender.last().Text, "Métricas indisponíveis")
}

func TestCallbackData(t *testing.T) {
	gen, idx, ok := parseAddCallback(addCallbackData(12, 3))
	require.True(t, ok)
	assert.Equal(t, uint64(12), gen)
	assert.Equal(t, 3, idx)

	_, _, ok = parseAddCallback("redo|x")
	assert.False(t, ok)
}

func TestFormatPlan(t *testing.T) {
	p := planner.NewWeeklyPlan(time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, p.Assign(recipe.Recipe{Name: "Tacos"}, "monday", "dinner"))

	out := formatPlan(p.WeekStart, p.Grid())

	if !strings.Contains(out, "📅 *Plano da semana* (a partir de 20/05)") {
		t.Error("Missing plan header")
	}
	if !strings.Contains(out, "*Segunda*\n  Café da manhã: -\n  Almoço: -\n  Jantar: Tacos") {
		t.Errorf("Unexpected Monday block:\n%s", out)
	}
	if !strings.Contains(out, "*Domingo*") {
		t.Error("Missing Sunday")
	}
}

func TestFormatRecipeEscapesMarkdown(t *testing.T) {
	r := recipe.Recipe{
		Name:         "Bolo *especial* da_vó",
		Description:  "Receita [antiga]",
		Ingredients:  []string{"açúcar_mascavo", "`fermento`"},
		Instructions: []string{"Bata *bem*"},
		PrepTime:     "1_h",
		Difficulty:   recipe.DifficultyEasy,
	}
	out := formatRecipe(r, 0)

	assert.Contains(t, out, `*1. Bolo \*especial\* da\_vó*`)
	assert.Contains(t, out, `_Receita \[antiga]_`)
	assert.Contains(t, out, `• açúcar\_mascavo`)
	assert.Contains(t, out, "• \\`fermento\\`")
	assert.Contains(t, out, `1. Bata \*bem\*`)
	assert.Contains(t, out, `⏱ 1\_h`)
}

func TestFormatShoppingList(t *testing.T) {
	if out := formatShoppingList(nil); !strings.Contains(out, "vazia") {
		t.Errorf("Expected empty notice, got %q", out)
	}
	out := formatShoppingList([]string{"Queijo", "Alface"})
	if !strings.Contains(out, "• Queijo\n• Alface") {
		t.Errorf("Missing items, got %q", out)
	}
	out = formatShoppingList([]string{"queijo_minas"})
	if !strings.Contains(out, `• queijo\_minas`) {
		t.Errorf("Expected escaped item, got %q", out)
	}
}

func TestFormatCategories(t *testing.T) {
	out := formatCategories(gateway.Categories())
	assert.NotContains(t, out, "/categoria all")
	assert.Contains(t, out, "`/categoria vegana`")
}

func TestFormatMetrics(t *testing.T) {
	out := formatMetrics(
		[]metrics.DailyUsage{{Date: "2024-05-15", TotalPrompt: 100, TotalCompletion: 50, TotalExecution: 2}},
		metrics.SysHealth{AllocMB: 3, SysMB: 10, Goroutines: 8, DataDiskSize: "1.2 MB"},
		4,
	)
	assert.Contains(t, out, "• *2024-05-15*: 150 tokens (2 chamadas)")
	assert.Contains(t, out, "• Sessões ativas: 4")
	assert.Contains(t, out, "• Disco: 1.2 MB")
}
