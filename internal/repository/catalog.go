package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	log "github.com/sirupsen/logrus"

	"medlab/catalog/internal/domain"
)

// DB is the part of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type CatalogRepository interface {
	Migrate(ctx context.Context) error
	Load(ctx context.Context) (*domain.Dataset, error)
	Save(ctx context.Context, dataset *domain.Dataset) error
}

type catalogRepository struct {
	db DB
}

func NewCatalogRepository(db DB) CatalogRepository {
	return &catalogRepository{
		db: db,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS main_categories (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	icon_type   TEXT NOT NULL,
	position    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS product_categories (
	slug          TEXT PRIMARY KEY,
	id            TEXT NOT NULL,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	main_category TEXT NOT NULL,
	subcategories TEXT[] NOT NULL DEFAULT '{}',
	featured      BOOLEAN NOT NULL DEFAULT FALSE,
	position      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS products (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	category_slug TEXT NOT NULL,
	image         TEXT NOT NULL DEFAULT '',
	brand         TEXT,
	subcategory   TEXT,
	price         TEXT,
	lead_time     TEXT,
	features      TEXT[] NOT NULL DEFAULT '{}',
	position      INTEGER NOT NULL
);`

func (r *catalogRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create catalogue tables: %w", err)
	}
	return nil
}

func (r *catalogRepository) Load(ctx context.Context) (*domain.Dataset, error) {
	dataset := &domain.Dataset{}

	mains, err := r.db.Query(ctx, `SELECT id, name, description, icon_type FROM main_categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query main categories: %w", err)
	}
	dataset.MainCategories, err = pgx.CollectRows(mains, func(row pgx.CollectableRow) (domain.MainCategory, error) {
		var m domain.MainCategory
		var icon string
		err := row.Scan(&m.ID, &m.Name, &m.Description, &icon)
		m.Icon = domain.IconType(icon)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read main categories: %w", err)
	}

	categories, err := r.db.Query(ctx, `
	SELECT id, name, slug, description, main_category, subcategories, featured
	FROM product_categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query product categories: %w", err)
	}
	dataset.Categories, err = pgx.CollectRows(categories, func(row pgx.CollectableRow) (domain.ProductCategory, error) {
		var c domain.ProductCategory
		err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.MainCategory, &c.Subcategories, &c.Featured)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read product categories: %w", err)
	}

	products, err := r.db.Query(ctx, `
	SELECT id, name, description, category_slug, image, brand, subcategory, price, lead_time, features
	FROM products ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	dataset.Products, err = pgx.CollectRows(products, func(row pgx.CollectableRow) (domain.Product, error) {
		var p domain.Product
		var brand, subcategory, price, leadTime pgtype.Text
		err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CategorySlug, &p.Image,
			&brand, &subcategory, &price, &leadTime, &p.Features)
		p.Brand = fromText(brand)
		p.Subcategory = fromText(subcategory)
		p.Price = fromText(price)
		p.LeadTime = fromText(leadTime)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	return dataset, nil
}

// Save replaces the stored catalogue with dataset in one transaction: rows are
// upserted and rows whose key is not in dataset are deleted.
func (r *catalogRepository) Save(ctx context.Context, dataset *domain.Dataset) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, m := range dataset.MainCategories {
		query := `
		INSERT INTO main_categories (id, name, description, icon_type, position)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET name = $2, description = $3, icon_type = $4, position = $5`
		if _, err := tx.Exec(ctx, query, m.ID, m.Name, m.Description, string(m.Icon), i); err != nil {
			return fmt.Errorf("failed to save main category %s: %w", m.ID, err)
		}
	}

	for i, c := range dataset.Categories {
		query := `
		INSERT INTO product_categories (slug, id, name, description, main_category, subcategories, featured, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (slug)
		DO UPDATE SET id = $2, name = $3, description = $4, main_category = $5, subcategories = $6, featured = $7, position = $8`
		if _, err := tx.Exec(ctx, query, c.Slug, c.ID, c.Name, c.Description, c.MainCategory,
			nonNil(c.Subcategories), c.Featured, i); err != nil {
			return fmt.Errorf("failed to save category %s: %w", c.Slug, err)
		}
	}

	for i, p := range dataset.Products {
		query := `
		INSERT INTO products (id, name, description, category_slug, image, brand, subcategory, price, lead_time, features, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id)
		DO UPDATE SET name = $2, description = $3, category_slug = $4, image = $5, brand = $6,
			subcategory = $7, price = $8, lead_time = $9, features = $10, position = $11`
		if _, err := tx.Exec(ctx, query, p.ID, p.Name, p.Description, p.CategorySlug, p.Image,
			toText(p.Brand), toText(p.Subcategory), toText(p.Price), toText(p.LeadTime),
			nonNil(p.Features), i); err != nil {
			return fmt.Errorf("failed to save product %s: %w", p.ID, err)
		}
	}

	if err := prune(ctx, tx, dataset); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit catalogue: %w", err)
	}
	return nil
}

func prune(ctx context.Context, tx pgx.Tx, dataset *domain.Dataset) error {
	productIDs := make([]string, 0, len(dataset.Products))
	for _, p := range dataset.Products {
		productIDs = append(productIDs, p.ID)
	}
	slugs := make([]string, 0, len(dataset.Categories))
	for _, c := range dataset.Categories {
		slugs = append(slugs, c.Slug)
	}
	mainIDs := make([]string, 0, len(dataset.MainCategories))
	for _, m := range dataset.MainCategories {
		mainIDs = append(mainIDs, m.ID)
	}

	deletes := []struct {
		table string
		query string
		keys  []string
	}{
		{"products", `DELETE FROM products WHERE NOT (id = ANY($1))`, productIDs},
		{"product_categories", `DELETE FROM product_categories WHERE NOT (slug = ANY($1))`, slugs},
		{"main_categories", `DELETE FROM main_categories WHERE NOT (id = ANY($1))`, mainIDs},
	}
	for _, d := range deletes {
		tag, err := tx.Exec(ctx, d.query, d.keys)
		if err != nil {
			return fmt.Errorf("failed to prune %s: %w", d.table, err)
		}
		if n := tag.RowsAffected(); n > 0 {
			log.Infof("🧹 Removed %d stale rows from %s", n, d.table)
		}
	}
	return nil
}

func fromText(t pgtype.Text) domain.Optional[string] {
	if !t.Valid {
		return domain.None[string]()
	}
	return domain.Some(t.String)
}

func toText(o domain.Optional[string]) pgtype.Text {
	v, ok := o.Get()
	return pgtype.Text{String: v, Valid: ok}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
