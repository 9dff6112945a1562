package stores

import (
	"context"

	"github.com/oarkflow/squealx"

	"github.com/oarkflow/catalogaccess"
)

// SQLCatalogStore is a read-only adapter over the platform's catalog tables.
// The engine never writes through it.
type SQLCatalogStore struct {
	db *squealx.DB
}

func NewSQLCatalogStore(db *squealx.DB) *SQLCatalogStore {
	return &SQLCatalogStore{db: db}
}

func (s *SQLCatalogStore) GetCategory(ctx context.Context, id string) (*catalogaccess.Category, error) {
	q := `SELECT id, organization_id, parent_id, name, active FROM catalog_categories WHERE id = :id`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if !r.Next() {
		return nil, catalogaccess.ErrNotFound
	}
	return scanCategory(r)
}

func (s *SQLCatalogStore) ListCategories(ctx context.Context, organizationID string) ([]*catalogaccess.Category, error) {
	q := `SELECT id, organization_id, parent_id, name, active FROM catalog_categories WHERE organization_id = :organization_id`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{"organization_id": organizationID})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]*catalogaccess.Category, 0)
	for r.Next() {
		c, err := scanCategory(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *SQLCatalogStore) GetItem(ctx context.Context, id string) (*catalogaccess.Item, error) {
	q := `SELECT id, organization_id, category_id, name, active FROM catalog_items WHERE id = :id`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if !r.Next() {
		return nil, catalogaccess.ErrNotFound
	}
	return scanItem(r)
}

func (s *SQLCatalogStore) ListItems(ctx context.Context, organizationID string, filter catalogaccess.ItemFilter) ([]*catalogaccess.Item, error) {
	q := `SELECT id, organization_id, category_id, name, active FROM catalog_items WHERE organization_id = :organization_id`
	params := map[string]any{"organization_id": organizationID}
	if filter.CategoryID != "" {
		q += " AND category_id = :category_id"
		params["category_id"] = filter.CategoryID
	}
	if filter.Search != "" {
		q += " AND name LIKE :search"
		params["search"] = "%" + filter.Search + "%"
	}
	if !filter.IncludeInactive {
		q += " AND active = 1"
	}
	r, err := s.db.NamedQueryContext(ctx, q, params)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]*catalogaccess.Item, 0)
	for r.Next() {
		it, err := scanItem(r)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(r rowScanner) (*catalogaccess.Category, error) {
	var id, org, name string
	var parent any
	var active int
	if err := r.Scan(&id, &org, &parent, &name, &active); err != nil {
		return nil, err
	}
	return &catalogaccess.Category{
		ID:             id,
		OrganizationID: org,
		ParentID:       scanString(parent),
		Name:           name,
		Active:         active != 0,
	}, nil
}

func scanItem(r rowScanner) (*catalogaccess.Item, error) {
	var id, org, category, name string
	var active int
	if err := r.Scan(&id, &org, &category, &name, &active); err != nil {
		return nil, err
	}
	return &catalogaccess.Item{
		ID:             id,
		OrganizationID: org,
		CategoryID:     category,
		Name:           name,
		Active:         active != 0,
	}, nil
}
