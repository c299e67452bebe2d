package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"recipe-finder/internal/config"
	"recipe-finder/internal/gateway"
	"recipe-finder/internal/metrics"
	"recipe-finder/internal/search"
	"recipe-finder/internal/session"
	"recipe-finder/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of the Telegram API the bot talks to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot serves recipe searches, the shopping list and the weekly plan over
// Telegram. Each chat gets its own session.
type Bot struct {
	api          Sender
	sessions     *session.Manager
	metricsStore *metrics.Store
	cfg          *config.Config
	logger       *zap.Logger
}

// NewBot initializes the Telegram API and sets the webhook.
func NewBot(cfg *config.Config, sessions *session.Manager, metricsStore *metrics.Store, logger *zap.Logger) (*Bot, error) {
	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("telegram bot authorized", zap.String("account", api.Self.UserName))

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("failed to build webhook: %w", err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		logger.Info("webhook set", zap.String("description", resp.Description))
	}

	return newBot(api, cfg, sessions, metricsStore, logger), nil
}

func newBot(api Sender, cfg *config.Config, sessions *session.Manager, metricsStore *metrics.Store, logger *zap.Logger) *Bot {
	return &Bot{
		api:          api,
		sessions:     sessions,
		metricsStore: metricsStore,
		cfg:          cfg,
		logger:       logger,
	}
}

// Handler returns the webhook handler.
func (b *Bot) Handler() http.Handler {
	return http.HandlerFunc(b.handleWebhook)
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("failed to parse update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	go b.HandleUpdate(context.Background(), update)
}

// HandleUpdate processes a single update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if b.allowed(update.CallbackQuery.From) {
			b.handleCallbackQuery(update.CallbackQuery)
		}
	case update.Message != nil:
		if b.allowed(update.Message.From) {
			b.processMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) allowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if len(b.cfg.TelegramAllowedUserIDs) == 0 {
		return true
	}
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if from.ID == id {
			return true
		}
	}
	b.logger.Warn("unauthorized access attempt", zap.Int64("user_id", from.ID), zap.String("username", from.UserName))
	return false
}

func (b *Bot) sessionFor(chatID int64) *session.Session {
	return b.sessions.GetOrCreate("tg-" + strconv.FormatInt(chatID, 10))
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if !msg.IsCommand() {
		b.runSearch(chatID, msg.Text, false)
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "ajuda":
		b.reply(chatID, helpText)
	case "categorias":
		b.reply(chatID, formatCategories(gateway.Categories()))
	case "categoria":
		if args == "" {
			b.reply(chatID, "Use /categoria <id>. Veja /categorias.")
			return
		}
		if _, ok := gateway.LookupCategory(args); !ok {
			b.reply(chatID, fmt.Sprintf("Categoria desconhecida: %s. Veja /categorias.", escape(args)))
			return
		}
		b.runSearch(chatID, args, true)
	case "lista":
		b.reply(chatID, formatShoppingList(b.sessionFor(chatID).Shopping.Items()))
	case "limpar":
		b.sessionFor(chatID).Shopping.Clear()
		b.reply(chatID, "🧹 Lista de compras limpa.")
	case "semana":
		p := b.sessionFor(chatID).Plan
		b.reply(chatID, formatPlan(p.WeekStart, p.Grid()))
	case "planejar":
		b.handlePlanCommand(chatID, args)
	case "metrics":
		b.handleMetricsRequest(ctx, msg)
	default:
		b.reply(chatID, helpText)
	}
}

func (b *Bot) runSearch(chatID int64, term string, category bool) {
	sess := b.sessionFor(chatID)

	var done <-chan struct{}
	if category {
		done = sess.Search.SelectCategory(term)
	} else {
		done = sess.Search.Search(term)
	}

	state := sess.Search.State()
	if state.Status == search.StatusLoading {
		b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	}
	<-done

	b.sendResults(chatID, sess.Search.State())
}

func (b *Bot) sendResults(chatID int64, state search.State) {
	v := view.Project(state)
	switch v.Mode {
	case view.ModeHero:
		b.reply(chatID, helpText)
	case view.ModeErrorBanner, view.ModeEmptyResults:
		b.reply(chatID, "😕 "+v.Message)
	case view.ModeRecipeGrid:
		for _, card := range v.Cards {
			msg := tgbotapi.NewMessage(chatID, formatRecipe(card.Recipe, card.Index))
			msg.ParseMode = tgbotapi.ModeMarkdown
			keyboard := tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("🛒 Adicionar à lista", addCallbackData(state.Generation, card.Index)),
				),
			)
			msg.ReplyMarkup = keyboard
			if _, err := b.api.Send(msg); err != nil {
				b.logger.Error("failed to send recipe", zap.Int64("chat_id", chatID), zap.Error(err))
			}
		}
	}
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID

	gen, index, ok := parseAddCallback(query.Data)
	if !ok {
		b.api.Request(tgbotapi.NewCallback(query.ID, ""))
		return
	}

	sess := b.sessionFor(chatID)
	rec, err := sess.Search.RecipeAtGeneration(gen, index)
	if errors.Is(err, search.ErrStaleGeneration) {
		b.api.Request(tgbotapi.NewCallback(query.ID, "Essa busca não está mais ativa."))
		return
	}
	if err != nil {
		b.api.Request(tgbotapi.NewCallback(query.ID, "Receita indisponível."))
		return
	}

	added := sess.Shopping.AddFromRecipe(rec)
	b.api.Request(tgbotapi.NewCallback(query.ID, fmt.Sprintf("%d itens adicionados à lista", added)))
}

func (b *Bot) handlePlanCommand(chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		b.reply(chatID, "Use /planejar <número> <dia> <refeição>, por exemplo: /planejar 2 segunda jantar")
		return
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 {
		b.reply(chatID, "Número de receita inválido.")
		return
	}
	day, err := parseDay(fields[1])
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Dia desconhecido: %s", escape(fields[1])))
		return
	}
	meal, err := parseMeal(strings.Join(fields[2:], " "))
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Refeição desconhecida: %s", escape(strings.Join(fields[2:], " "))))
		return
	}

	sess := b.sessionFor(chatID)
	rec, err := sess.Search.RecipeAt(n - 1)
	if err != nil {
		b.reply(chatID, "Faça uma busca primeiro e escolha uma receita da lista.")
		return
	}
	if err := sess.Plan.Assign(rec, string(day), string(meal)); err != nil {
		b.reply(chatID, err.Error())
		return
	}
	b.reply(chatID, fmt.Sprintf("📅 %s em %s: %s", mealLabels[meal], dayLabels[day], escape(rec.Name)))
}

func (b *Bot) handleMetricsRequest(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.ID != b.cfg.AdminTelegramID {
		b.reply(msg.Chat.ID, "⛔ *Acesso negado*: apenas administradores.")
		return
	}
	if b.metricsStore == nil {
		b.reply(msg.Chat.ID, "❌ Métricas indisponíveis.")
		return
	}

	usage, err := b.metricsStore.GetDailyUsage(ctx, 7)
	if err != nil {
		b.logger.Error("failed to fetch metrics", zap.Error(err))
		b.reply(msg.Chat.ID, "❌ Erro ao buscar métricas.")
		return
	}
	health := metrics.GetSysHealth(filepath.Dir(b.cfg.DatabasePath))
	b.reply(msg.Chat.ID, formatMetrics(usage, health, b.sessions.Len()))
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func addCallbackData(gen uint64, index int) string {
	return fmt.Sprintf("add|%d|%d", gen, index)
}

func parseAddCallback(data string) (uint64, int, bool) {
	parts := strings.Split(data, "|")
	if len(parts) != 3 || parts[0] != "add" {
		return 0, 0, false
	}
	gen, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	index, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, false
	}
	return gen, index, true
}
