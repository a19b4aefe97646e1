package domain

import "fmt"

// Dataset is the read-only catalogue: main categories, product categories and products.
type Dataset struct {
	MainCategories []MainCategory    `json:"mainCategories"`
	Categories     []ProductCategory `json:"productCategories"`
	Products       []Product         `json:"products"`
}

// IssueKind classifies a data-integrity problem found in a Dataset.
type IssueKind string

const (
	IssueDuplicateProduct      IssueKind = "duplicate_product"
	IssueDuplicateSlug         IssueKind = "duplicate_slug"
	IssueDuplicateMainCategory IssueKind = "duplicate_main_category"
	IssueUnknownCategory       IssueKind = "unknown_category"
	IssueUnknownMainCategory   IssueKind = "unknown_main_category"
	IssueUnknownIcon           IssueKind = "unknown_icon"
)

type IntegrityIssue struct {
	Kind IssueKind `json:"kind"`
	Ref  string    `json:"ref"`  // id or slug of the offending record
	Want string    `json:"want"` // the reference that failed to resolve, if any
}

func (i IntegrityIssue) String() string {
	if i.Want == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Ref)
	}
	return fmt.Sprintf("%s: %s -> %s", i.Kind, i.Ref, i.Want)
}

// Validate reports every integrity issue in the dataset. An empty result means the
// dataset satisfies all uniqueness and reference invariants.
func (d *Dataset) Validate() []IntegrityIssue {
	var issues []IntegrityIssue

	mains := make(map[string]struct{}, len(d.MainCategories))
	for _, m := range d.MainCategories {
		if _, dup := mains[m.ID]; dup {
			issues = append(issues, IntegrityIssue{Kind: IssueDuplicateMainCategory, Ref: m.ID})
		}
		mains[m.ID] = struct{}{}
		if !m.Icon.Valid() {
			issues = append(issues, IntegrityIssue{Kind: IssueUnknownIcon, Ref: m.ID, Want: m.Icon.String()})
		}
	}

	slugs := make(map[string]struct{}, len(d.Categories))
	for _, c := range d.Categories {
		if _, dup := slugs[c.Slug]; dup {
			issues = append(issues, IntegrityIssue{Kind: IssueDuplicateSlug, Ref: c.Slug})
		}
		slugs[c.Slug] = struct{}{}
		if _, ok := mains[c.MainCategory]; !ok {
			issues = append(issues, IntegrityIssue{Kind: IssueUnknownMainCategory, Ref: c.Slug, Want: c.MainCategory})
		}
	}

	ids := make(map[string]struct{}, len(d.Products))
	for _, p := range d.Products {
		if _, dup := ids[p.ID]; dup {
			issues = append(issues, IntegrityIssue{Kind: IssueDuplicateProduct, Ref: p.ID})
		}
		ids[p.ID] = struct{}{}
		if _, ok := slugs[p.CategorySlug]; !ok {
			issues = append(issues, IntegrityIssue{Kind: IssueUnknownCategory, Ref: p.ID, Want: p.CategorySlug})
		}
	}

	return issues
}
