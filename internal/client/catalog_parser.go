package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"medlab/catalog/internal/domain"
)

var ErrNoCatalogMarkup = errors.New("no catalogue markup found")

// catalogParser reads the markup of the supplier's catalogue pages:
//
//	section.main-category[data-id][data-icon] > h2, p.description
//	  a.category-card[data-slug][data-id][data-featured] > h3, p.description, ul.subcategories li
//	article.product-card[data-id][data-category] > h3, p.description, img,
//	  .brand, .subcategory, .price, .lead-time, ul.features li
type catalogParser struct {
	baseURL string
}

func newCatalogParser(baseURL string) *catalogParser {
	return &catalogParser{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (p *catalogParser) ParseIndex(html string) (*domain.CatalogIndex, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	index := &domain.CatalogIndex{
		MainCategories: make([]domain.MainCategory, 0),
		Categories:     make([]domain.ProductCategory, 0),
	}

	doc.Find("section.main-category[data-id]").Each(func(i int, section *goquery.Selection) {
		mainID := attr(section, "data-id")
		if mainID == "" {
			return
		}

		index.MainCategories = append(index.MainCategories, domain.MainCategory{
			ID:          mainID,
			Name:        text(section.Find("h2").First()),
			Description: text(section.ChildrenFiltered("p.description").First()),
			Icon:        domain.IconType(attr(section, "data-icon")),
		})

		section.Find("a.category-card[data-slug]").Each(func(j int, card *goquery.Selection) {
			slug := attr(card, "data-slug")
			if slug == "" {
				return
			}
			id := attr(card, "data-id")
			if id == "" {
				id = slug
			}

			index.Categories = append(index.Categories, domain.ProductCategory{
				ID:            id,
				Name:          text(card.Find("h3").First()),
				Slug:          slug,
				Description:   text(card.Find("p.description").First()),
				MainCategory:  mainID,
				Subcategories: texts(card.Find("ul.subcategories li")),
				Featured:      attr(card, "data-featured") == "true",
			})
		})
	})

	if len(index.MainCategories) == 0 {
		log.Warnf("No main category sections found on index page")
		return nil, ErrNoCatalogMarkup
	}

	log.Debugf("Parsed index with %d main categories and %d categories", len(index.MainCategories), len(index.Categories))
	return index, nil
}

// ParseCategoryPage reads the product grid. A page without products is valid.
func (p *catalogParser) ParseCategoryPage(html, slug string) (*domain.CategoryListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	listing := &domain.CategoryListing{
		Slug:     slug,
		Products: make([]domain.Product, 0),
	}

	doc.Find("article.product-card[data-id]").Each(func(i int, card *goquery.Selection) {
		id := attr(card, "data-id")
		if id == "" {
			return
		}
		categorySlug := attr(card, "data-category")
		if categorySlug == "" {
			categorySlug = slug
		}

		product := domain.Product{
			ID:           id,
			Name:         text(card.Find("h3").First()),
			Description:  text(card.Find("p.description").First()),
			CategorySlug: categorySlug,
			Image:        p.absolute(attr(card.Find("img").First(), "src")),
			Brand:        optionalText(card.Find(".brand").First()),
			Subcategory:  optionalText(card.Find(".subcategory").First()),
			Price:        optionalText(card.Find(".price").First()),
			LeadTime:     optionalText(card.Find(".lead-time").First()),
			Features:     texts(card.Find("ul.features li")),
		}
		listing.Products = append(listing.Products, product)
	})

	log.Debugf("Parsed category %s with %d products", slug, len(listing.Products))
	return listing, nil
}

func (p *catalogParser) absolute(src string) string {
	switch {
	case src == "", strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src
	case strings.HasPrefix(src, "//"):
		return "https:" + src
	case strings.HasPrefix(src, "/"):
		return p.baseURL + src
	default:
		return src
	}
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func optionalText(s *goquery.Selection) domain.Optional[string] {
	if s.Length() == 0 {
		return domain.None[string]()
	}
	if v := text(s); v != "" {
		return domain.Some(v)
	}
	return domain.None[string]()
}

func texts(s *goquery.Selection) []string {
	var out []string
	s.Each(func(i int, item *goquery.Selection) {
		if v := text(item); v != "" {
			out = append(out, v)
		}
	})
	return out
}
