package domain

// CatalogIndex is what the supplier's published catalogue index lists.
type CatalogIndex struct {
	MainCategories []MainCategory
	Categories     []ProductCategory
}

// CategoryListing is the product grid of one published category page.
type CategoryListing struct {
	Slug     string
	Products []Product
}
