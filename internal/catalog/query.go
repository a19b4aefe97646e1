package catalog

import (
	"strings"

	"medlab/catalog/internal/domain"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// AllCategories is the category filter value that disables category scoping.
const AllCategories = "all"

// SortOption names an ordering of a result list.
type SortOption string

const (
	SortNameAsc SortOption = "name-asc"
	SortNone    SortOption = "none" // dataset order
)

// DefaultSort is applied when a query leaves Sort empty.
const DefaultSort = SortNameAsc

// ProductQuery holds the inputs of the product listing.
// Category is "all" (or empty), a main category id, or a product category slug.
type ProductQuery struct {
	Category string     `json:"category"`
	Search   string     `json:"search"`
	Sort     SortOption `json:"sort"`
}

// CategoryQuery holds the inputs of the category listing.
type CategoryQuery struct {
	Category     string     `json:"category"`
	Search       string     `json:"search"`
	Sort         SortOption `json:"sort"`
	FeaturedOnly bool       `json:"featuredOnly"`
}

type ProductResult struct {
	Items    []domain.Product `json:"items"`
	Total    int              `json:"total"`    // size of the unfiltered collection
	Filtered int              `json:"filtered"` // len(Items)
}

type CategoryResult struct {
	Items    []domain.ProductCategory `json:"items"`
	Total    int                      `json:"total"`
	Filtered int                      `json:"filtered"`
}

// SortSpec builds comparison functions for one ordering. Each call returns fresh
// functions because a collator keeps internal buffers and must not be shared.
type SortSpec struct {
	Products   func() func(a, b domain.Product) int
	Categories func() func(a, b domain.ProductCategory) int
}

func newCollator() *collate.Collator {
	return collate.New(language.English)
}

func nameAscending() SortSpec {
	return SortSpec{
		Products: func() func(a, b domain.Product) int {
			c := newCollator()
			return func(a, b domain.Product) int {
				return c.CompareString(a.Name, b.Name)
			}
		},
		Categories: func() func(a, b domain.ProductCategory) int {
			c := newCollator()
			return func(a, b domain.ProductCategory) int {
				return c.CompareString(a.Name, b.Name)
			}
		},
	}
}

func defaultSorts() map[SortOption]SortSpec {
	return map[SortOption]SortSpec{
		SortNameAsc: nameAscending(),
	}
}

func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return AllCategories
	}
	return category
}

func normalizeSearch(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

func normalizeSort(opt SortOption) SortOption {
	if opt == "" {
		return DefaultSort
	}
	return opt
}

// matchesSearch reports whether the normalized term is empty or a substring of any field.
func matchesSearch(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
