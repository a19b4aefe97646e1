package domain

// MainCategory is one of the top-level groupings (medical, laboratory, ...).
type MainCategory struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        IconType `json:"iconType"`
}

// ProductCategory is a finer grouping addressed by its slug, e.g. "ecg-machines".
type ProductCategory struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	MainCategory  string   `json:"mainCategory"`           // MainCategory.ID
	Subcategories []string `json:"subcategories,omitempty"` // display labels
	Featured      bool     `json:"featured,omitempty"`
}
