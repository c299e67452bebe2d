package gateway

// CategoryAll is the sentinel category that clears the results instead of
// searching.
const CategoryAll = "all"

// Category is an entry of the category selector.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var categories = []Category{
	{ID: CategoryAll, Label: "Todas"},
	{ID: "sem-gluten", Label: "Sem Glúten"},
	{ID: "sem-lactose", Label: "Sem Lactose"},
	{ID: "vegana", Label: "Vegana"},
	{ID: "vegetariana", Label: "Vegetariana"},
	{ID: "low-carb", Label: "Low Carb"},
	{ID: "sem-acucar", Label: "Sem Açúcar"},
	{ID: "cafe-da-manha", Label: "Café da Manhã"},
	{ID: "sobremesas", Label: "Sobremesas"},
	{ID: "rapidas", Label: "Rápidas (até 30 min)"},
}

// Categories returns the selectable categories in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// LookupCategory finds a category by ID.
func LookupCategory(id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
