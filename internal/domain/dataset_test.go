package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatasetValidate(t *testing.T) {
	ds := &Dataset{
		MainCategories: []MainCategory{
			{ID: "medical", Name: "Medical", Icon: IconMedical},
			{ID: "laboratory", Name: "Laboratory", Icon: "lab"},
		},
		Categories: []ProductCategory{
			{ID: "ecg-machines", Slug: "ecg-machines", MainCategory: "medical"},
			{ID: "ecg-dup", Slug: "ecg-machines", MainCategory: "medical"},
			{ID: "robots", Slug: "robots", MainCategory: "space"},
		},
		Products: []Product{
			{ID: "ecg-001", CategorySlug: "ecg-machines"},
			{ID: "ecg-001", CategorySlug: "ecg-machines"},
			{ID: "x-001", CategorySlug: "nowhere"},
		},
	}

	issues := ds.Validate()

	assert.ElementsMatch(t, []IntegrityIssue{
		{Kind: IssueUnknownIcon, Ref: "laboratory", Want: "lab"},
		{Kind: IssueDuplicateSlug, Ref: "ecg-machines"},
		{Kind: IssueUnknownMainCategory, Ref: "robots", Want: "space"},
		{Kind: IssueDuplicateProduct, Ref: "ecg-001"},
		{Kind: IssueUnknownCategory, Ref: "x-001", Want: "nowhere"},
	}, issues)
}

func TestDatasetValidateClean(t *testing.T) {
	ds := &Dataset{
		MainCategories: []MainCategory{{ID: "medical", Icon: IconMedical}},
		Categories:     []ProductCategory{{ID: "ecg", Slug: "ecg", MainCategory: "medical"}},
		Products:       []Product{{ID: "p1", CategorySlug: "ecg"}},
	}

	assert.Empty(t, ds.Validate())
}
