package telegram

import (
	"fmt"
	"strings"
	"time"

	"recipe-finder/internal/gateway"
	"recipe-finder/internal/metrics"
	"recipe-finder/internal/planner"
	"recipe-finder/internal/recipe"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `🍳 *Recipe Finder*

Envie o nome de um prato ou ingrediente para buscar receitas.

/categorias - lista as categorias
/categoria <id> - busca por categoria
/lista - mostra a lista de compras
/limpar - esvazia a lista de compras
/semana - mostra o plano da semana
/planejar <n> <dia> <refeição> - coloca a receita n no plano`

var dayLabels = map[planner.Day]string{
	planner.Monday:    "Segunda",
	planner.Tuesday:   "Terça",
	planner.Wednesday: "Quarta",
	planner.Thursday:  "Quinta",
	planner.Friday:    "Sexta",
	planner.Saturday:  "Sábado",
	planner.Sunday:    "Domingo",
}

var mealLabels = map[planner.Meal]string{
	planner.Breakfast: "Café da manhã",
	planner.Lunch:     "Almoço",
	planner.Dinner:    "Jantar",
}

var dayAliases = map[string]planner.Day{
	"segunda": planner.Monday, "segunda-feira": planner.Monday,
	"terca": planner.Tuesday, "terça": planner.Tuesday, "terça-feira": planner.Tuesday, "terca-feira": planner.Tuesday,
	"quarta": planner.Wednesday, "quarta-feira": planner.Wednesday,
	"quinta": planner.Thursday, "quinta-feira": planner.Thursday,
	"sexta": planner.Friday, "sexta-feira": planner.Friday,
	"sabado": planner.Saturday, "sábado": planner.Saturday,
	"domingo": planner.Sunday,
}

var mealAliases = map[string]planner.Meal{
	"cafe": planner.Breakfast, "café": planner.Breakfast,
	"cafe da manha": planner.Breakfast, "café da manhã": planner.Breakfast,
	"almoco": planner.Lunch, "almoço": planner.Lunch,
	"jantar": planner.Dinner,
}

// parseDay accepts Portuguese day names as well as the English keys.
func parseDay(s string) (planner.Day, error) {
	if d, ok := dayAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return planner.ParseDay(s)
}

func parseMeal(s string) (planner.Meal, error) {
	if m, ok := mealAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return planner.ParseMeal(s)
}

// escape neutralises Markdown control characters in model or user text.
func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatRecipe(r recipe.Recipe, index int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%d. %s*\n", index+1, escape(r.Name)))
	if r.Description != "" {
		sb.WriteString(fmt.Sprintf("_%s_\n", escape(r.Description)))
	}
	sb.WriteString(fmt.Sprintf("⏱ %s · %s\n", escape(r.PrepTime), r.Difficulty))

	if len(r.Ingredients) > 0 {
		sb.WriteString("\n*Ingredientes*\n")
		for _, ing := range r.Ingredients {
			sb.WriteString(fmt.Sprintf("• %s\n", escape(ing)))
		}
	}
	if len(r.Instructions) > 0 {
		sb.WriteString("\n*Modo de preparo*\n")
		for i, step := range r.Instructions {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, escape(step)))
		}
	}
	if r.HasImage() {
		sb.WriteString(fmt.Sprintf("\n[Foto](%s)\n", r.ImageURL))
	}
	return sb.String()
}

func formatShoppingList(items []string) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Lista de compras*\n\n")
	if len(items) == 0 {
		sb.WriteString("_Sua lista está vazia._")
		return sb.String()
	}
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("• %s\n", escape(item)))
	}
	return sb.String()
}

func formatPlan(weekStart time.Time, grid []planner.DayPlan) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Plano da semana* (a partir de %s)\n\n", weekStart.Format("02/01")))

	for _, dp := range grid {
		sb.WriteString(fmt.Sprintf("*%s*\n", dayLabels[dp.Day]))
		for _, slot := range dp.Meals {
			name := "-"
			if slot.Recipe != nil {
				name = escape(slot.Recipe.Name)
			}
			sb.WriteString(fmt.Sprintf("  %s: %s\n", mealLabels[slot.Meal], name))
		}
	}
	return sb.String()
}

func formatCategories(cats []gateway.Category) string {
	var sb strings.Builder
	sb.WriteString("🏷 *Categorias*\n\n")
	for _, c := range cats {
		if c.ID == gateway.CategoryAll {
			continue
		}
		sb.WriteString(fmt.Sprintf("• %s: `/categoria %s`\n", c.Label, c.ID))
	}
	return sb.String()
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth, sessions int) string {
	var sb strings.Builder
	sb.WriteString("📊 *Uso e saúde*\n\n")

	sb.WriteString("🗓 *Atividade recente do modelo*\n")
	if len(usage) == 0 {
		sb.WriteString("_Sem dados ainda_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d chamadas)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *Sistema*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Sessões ativas: %d\n", sessions))
	sb.WriteString(fmt.Sprintf("• Disco: %s\n", health.DataDiskSize))
	return sb.String()
}
