package product

// Category is the closed set of menu sections a product belongs to.
type Category string

const (
	CategorySandwich Category = "Lanche"
	CategorySideDish Category = "Acompanhamento"
	CategoryDrink    Category = "Bebida"
	CategoryDessert  Category = "Sobremesa"
)

// Categories lists every valid category in menu order.
func Categories() []Category {
	return []Category{CategorySandwich, CategorySideDish, CategoryDrink, CategoryDessert}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySandwich, CategorySideDish, CategoryDrink, CategoryDessert:
		return true
	}
	return false
}

// Product is a persisted menu item.
type Product struct {
	ID          int64    `db:"id"`
	Name        string   `db:"name"`
	Category    Category `db:"category"`
	Price       float64  `db:"price"`
	Description *string  `db:"description"`
}

// Fields holds the replaceable attributes of a product.
type Fields struct {
	Name        string
	Category    Category
	Price       float64
	Description *string
}
