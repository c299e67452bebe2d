package shopping

import (
	"sync"
	"testing"

	"recipe-finder/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFromRecipe(t *testing.T) {
	t.Run("AppendsInOrder", func(t *testing.T) {
		l := NewList()
		n := l.AddFromRecipe(recipe.Recipe{Ingredients: []string{"ovos", "farinha", "açúcar"}})
		assert.Equal(t, 3, n)
		assert.Equal(t, []string{"ovos", "farinha", "açúcar"}, l.Items())
	})

	t.Run("SkipsPresentItems", func(t *testing.T) {
		l := NewList()
		l.AddFromRecipe(recipe.Recipe{Ingredients: []string{"ovos", "leite"}})
		n := l.AddFromRecipe(recipe.Recipe{Ingredients: []string{"leite", "manteiga", "ovos"}})
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{"ovos", "leite", "manteiga"}, l.Items())
	})

	t.Run("DuplicatesInsideRecipe", func(t *testing.T) {
		l := NewList()
		n := l.AddFromRecipe(recipe.Recipe{Ingredients: []string{"sal", "pimenta", "sal"}})
		assert.Equal(t, 2, n)
		assert.Equal(t, []string{"sal", "pimenta"}, l.Items())
	})

	t.Run("Idempotent", func(t *testing.T) {
		r := recipe.Recipe{Ingredients: []string{"arroz", "feijão"}}
		l := NewList()
		l.AddFromRecipe(r)
		before := l.Items()
		assert.Equal(t, 0, l.AddFromRecipe(r))
		assert.Equal(t, before, l.Items())
	})

	t.Run("TrimsAndIgnoresBlank", func(t *testing.T) {
		l := NewList()
		n := l.AddFromRecipe(recipe.Recipe{Ingredients: []string{"  cebola ", "", "   ", "cebola"}})
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{"cebola"}, l.Items())
	})

	t.Run("NoIngredients", func(t *testing.T) {
		l := NewList()
		assert.Equal(t, 0, l.AddFromRecipe(recipe.Recipe{Name: "Água"}))
		assert.Empty(t, l.Items())
	})
}

func TestRemove(t *testing.T) {
	l := NewList()
	l.Set([]string{"a", "b", "c"})

	assert.True(t, l.Remove("b"))
	assert.False(t, l.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, l.Items())

	// removed items can be added again, at the end
	l.AddFromRecipe(recipe.Recipe{Ingredients: []string{"b"}})
	assert.Equal(t, []string{"a", "c", "b"}, l.Items())
}

func TestSetAndClear(t *testing.T) {
	l := NewList()
	l.AddFromRecipe(recipe.Recipe{Ingredients: []string{"x"}})

	l.Set([]string{"b", "a", "b", " ", "c"})
	assert.Equal(t, []string{"b", "a", "c"}, l.Items())
	assert.Equal(t, 3, l.Len())

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Items())
}

func TestItemsIsACopy(t *testing.T) {
	l := NewList()
	l.Set([]string{"a"})
	items := l.Items()
	items[0] = "changed"
	assert.Equal(t, []string{"a"}, l.Items())
}

func TestConcurrentAdds(t *testing.T) {
	l := NewList()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.AddFromRecipe(recipe.Recipe{Ingredients: []string{"ovos", "leite", "farinha"}})
		}()
	}
	wg.Wait()

	items := l.Items()
	require.Len(t, items, 3)
	assert.ElementsMatch(t, []string{"ovos", "leite", "farinha"}, items)
}
