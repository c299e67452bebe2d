// Package planner holds the weekly meal grid: seven days by three meals, each
// slot holding at most one recipe.
package planner

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"recipe-finder/internal/recipe"
)

// Day identifies a day of the week.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

// Meal identifies a slot within a day.
type Meal string

const (
	Breakfast Meal = "breakfast"
	Lunch     Meal = "lunch"
	Dinner    Meal = "dinner"
)

var (
	ErrUnknownDay  = errors.New("unknown day")
	ErrUnknownMeal = errors.New("unknown meal")
)

var (
	days  = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
	meals = []Meal{Breakfast, Lunch, Dinner}
)

// Days returns the canonical day ordering.
func Days() []Day {
	out := make([]Day, len(days))
	copy(out, days)
	return out
}

// Meals returns the canonical meal ordering.
func Meals() []Meal {
	out := make([]Meal, len(meals))
	copy(out, meals)
	return out
}

// ParseDay normalizes a day key. Matching is case-insensitive.
func ParseDay(s string) (Day, error) {
	d := Day(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range days {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDay, s)
}

// ParseMeal normalizes a meal key. Matching is case-insensitive.
func ParseMeal(s string) (Meal, error) {
	m := Meal(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range meals {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMeal, s)
}

// MealSlot is one cell of the grid. Recipe is nil when the slot is empty.
type MealSlot struct {
	Meal   Meal           `json:"meal"`
	Recipe *recipe.Recipe `json:"recipe"`
}

// DayPlan is one row of the grid.
type DayPlan struct {
	Day   Day        `json:"day"`
	Meals []MealSlot `json:"meals"`
}

type slotKey struct {
	day  Day
	meal Meal
}

// WeeklyPlan is safe for concurrent use.
type WeeklyPlan struct {
	WeekStart time.Time

	mu    sync.Mutex
	slots map[slotKey]*recipe.Recipe
}

// NewWeeklyPlan creates a plan with every slot empty, for the week starting
// on the Monday after now.
func NewWeeklyPlan(now time.Time) *WeeklyPlan {
	p := &WeeklyPlan{
		WeekStart: GetNextMonday(now),
		slots:     make(map[slotKey]*recipe.Recipe, len(days)*len(meals)),
	}
	for _, d := range days {
		for _, m := range meals {
			p.slots[slotKey{d, m}] = nil
		}
	}
	return p
}

// Assign stores a copy of r in the slot, replacing any previous recipe.
// Invalid keys leave the grid untouched.
func (p *WeeklyPlan) Assign(r recipe.Recipe, day, meal string) error {
	key, err := parseKey(day, meal)
	if err != nil {
		return err
	}
	c := r.Clone()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots[key] = &c
	return nil
}

// Clear empties the slot.
func (p *WeeklyPlan) Clear(day, meal string) error {
	key, err := parseKey(day, meal)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots[key] = nil
	return nil
}

// Slot returns a copy of the recipe in the slot, or nil when it is empty.
func (p *WeeklyPlan) Slot(day, meal string) (*recipe.Recipe, error) {
	key, err := parseKey(day, meal)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneSlot(p.slots[key]), nil
}

// Grid returns a full copy of the plan in canonical order.
func (p *WeeklyPlan) Grid() []DayPlan {
	p.mu.Lock()
	defer p.mu.Unlock()

	grid := make([]DayPlan, 0, len(days))
	for _, d := range days {
		row := DayPlan{Day: d, Meals: make([]MealSlot, 0, len(meals))}
		for _, m := range meals {
			row.Meals = append(row.Meals, MealSlot{Meal: m, Recipe: cloneSlot(p.slots[slotKey{d, m}])})
		}
		grid = append(grid, row)
	}
	return grid
}

// Filled returns how many slots hold a recipe.
func (p *WeeklyPlan) Filled() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, r := range p.slots {
		if r != nil {
			n++
		}
	}
	return n
}

// GetNextMonday returns midnight of the first Monday strictly after t, in t's
// location.
func GetNextMonday(t time.Time) time.Time {
	offset := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	next := t.AddDate(0, 0, offset)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, t.Location())
}

func parseKey(day, meal string) (slotKey, error) {
	d, err := ParseDay(day)
	if err != nil {
		return slotKey{}, err
	}
	m, err := ParseMeal(meal)
	if err != nil {
		return slotKey{}, err
	}
	return slotKey{d, m}, nil
}

func cloneSlot(r *recipe.Recipe) *recipe.Recipe {
	if r == nil {
		return nil
	}
	c := r.Clone()
	return &c
}
