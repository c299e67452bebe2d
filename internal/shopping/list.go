// Package shopping aggregates ingredients into a deduplicated shopping list.
package shopping

import (
	"strings"
	"sync"

	"recipe-finder/internal/recipe"
)

// List is an ordered set of ingredient strings. Items keep the order in which
// they were first added. It is safe for concurrent use.
type List struct {
	mu    sync.Mutex
	items []string
	index map[string]struct{}
}

// NewList creates an empty shopping list.
func NewList() *List {
	return &List{index: make(map[string]struct{})}
}

// AddFromRecipe appends the recipe's ingredients that are not in the list yet,
// in recipe order, and returns how many were added.
func (l *List) AddFromRecipe(r recipe.Recipe) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	added := 0
	for _, ing := range r.Ingredients {
		if l.add(ing) {
			added++
		}
	}
	return added
}

// Remove deletes item from the list. It reports whether the item was present.
func (l *List) Remove(item string) bool {
	item = strings.TrimSpace(item)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.index[item]; !ok {
		return false
	}
	delete(l.index, item)
	for i, it := range l.items {
		if it == item {
			l.items = append(l.items[:i], l.items[i+1:]...)
			break
		}
	}
	return true
}

// Set replaces the whole list. Duplicates collapse to their first occurrence.
func (l *List) Set(items []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = nil
	l.index = make(map[string]struct{}, len(items))
	for _, it := range items {
		l.add(it)
	}
}

// Items returns a copy of the list in insertion order.
func (l *List) Items() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

func (l *List) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
	l.index = make(map[string]struct{})
}

// add must be called with mu held.
func (l *List) add(item string) bool {
	item = strings.TrimSpace(item)
	if item == "" {
		return false
	}
	if _, ok := l.index[item]; ok {
		return false
	}
	l.index[item] = struct{}{}
	l.items = append(l.items, item)
	return true
}
