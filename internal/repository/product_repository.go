package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/venue-booking/internal/model"
)

// ProductRepo is a read-only view of the menu tables.
type ProductRepo struct{ db DBTX }

// NewProductRepo returns a ProductRepo bound to the given handle.
func NewProductRepo(db DBTX) *ProductRepo { return &ProductRepo{db: db} }

func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	var p model.Product
	var categoryID sql.NullInt64
	var image sql.NullString
	if err := row.Scan(&p.ID, &categoryID, &p.Name, &p.Price, &image); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if categoryID.Valid {
		cid := uint64(categoryID.Int64)
		p.CategoryID = &cid
	}
	p.ImageURL = image.String
	return &p, nil
}

// GetByID returns a product with its current price.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	const q = `SELECT id, category_id, name, price, image_url FROM products WHERE id = ?`
	return scanProduct(r.db.QueryRowContext(ctx, q, id))
}

// List returns the whole menu ordered by name.
func (r *ProductRepo) List(ctx context.Context) ([]model.Product, error) {
	const q = `SELECT id, category_id, name, price, image_url FROM products ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetCategory returns a menu category.
func (r *ProductRepo) GetCategory(ctx context.Context, id uint64) (*model.Category, error) {
	var c model.Category
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = ?`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
