package domain

// Product is one sellable item of the static catalogue. It is never mutated at runtime.
type Product struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	CategorySlug string           `json:"categorySlug"` // ProductCategory.Slug
	Image        string           `json:"image,omitempty"`
	Brand        Optional[string] `json:"brand,omitzero"`
	Subcategory  Optional[string] `json:"subcategory,omitzero"`
	Features     []string         `json:"features,omitempty"`
	Price        Optional[string] `json:"price,omitzero"`    // free text, e.g. "On request"
	LeadTime     Optional[string] `json:"leadTime,omitzero"` // free text, e.g. "2-3 weeks"
}

func (p Product) HasFeatures() bool {
	return len(p.Features) > 0
}

// QuoteItem is a product selected for a quote request together with the requested quantity.
// The product is kept in full so a saved quote stays readable when the catalogue changes.
type QuoteItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}
