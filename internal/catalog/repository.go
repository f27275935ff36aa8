package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
)

type Repository interface {
	GetAllProducts(ctx context.Context) ([]Product, error)
	GetFeaturedProducts(ctx context.Context) ([]Product, error)
	GetProductsByCategory(ctx context.Context, categoryID int64) ([]Product, error)
	GetProductByID(ctx context.Context, id int64) (*Product, error)
	GetProductsSortedByPrice(ctx context.Context, ascending bool) ([]Product, error)
	GetProductsPage(ctx context.Context, page, pageSize int) ([]Product, error)
	GetProductsPageByCategory(ctx context.Context, categoryID int64, page, pageSize int) ([]Product, error)
	CountProducts(ctx context.Context) (int, error)
	CountProductsByCategory(ctx context.Context, categoryID int64) (int, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id int64) error

	GetAllCategories(ctx context.Context) ([]Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const productColumns = `
	p.id, p.name, p.description, p.price, p.stock, p.image_url, p.is_featured,
	p.category_id, c.name AS category_name
`

const productFrom = `
	FROM products p
	JOIN categories c ON c.id = p.category_id
`

func (r *postgresRepository) GetAllProducts(ctx context.Context) ([]Product, error) {
	query := `SELECT ` + productColumns + productFrom + ` ORDER BY p.id`
	return r.queryProducts(ctx, query)
}

func (r *postgresRepository) GetFeaturedProducts(ctx context.Context) ([]Product, error) {
	query := `SELECT ` + productColumns + productFrom + ` WHERE p.is_featured ORDER BY p.id`
	return r.queryProducts(ctx, query)
}

func (r *postgresRepository) GetProductsByCategory(ctx context.Context, categoryID int64) ([]Product, error) {
	query := `SELECT ` + productColumns + productFrom + ` WHERE p.category_id = $1 ORDER BY p.id`
	return r.queryProducts(ctx, query, categoryID)
}

func (r *postgresRepository) GetProductByID(ctx context.Context, id int64) (*Product, error) {
	query := `SELECT ` + productColumns + productFrom + ` WHERE p.id = $1`

	var p Product
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL,
		&p.IsFeatured, &p.CategoryID, &p.CategoryName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %d: %w", id, err)
	}

	return &p, nil
}

func (r *postgresRepository) GetProductsSortedByPrice(ctx context.Context, ascending bool) ([]Product, error) {
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}
	query := `SELECT ` + productColumns + productFrom + ` ORDER BY p.price ` + direction + `, p.id`
	return r.queryProducts(ctx, query)
}

func (r *postgresRepository) GetProductsPage(ctx context.Context, page, pageSize int) ([]Product, error) {
	query := `SELECT ` + productColumns + productFrom + ` ORDER BY p.id OFFSET $1 LIMIT $2`
	return r.queryProducts(ctx, query, (page-1)*pageSize, pageSize)
}

func (r *postgresRepository) GetProductsPageByCategory(ctx context.Context, categoryID int64, page, pageSize int) ([]Product, error) {
	query := `SELECT ` + productColumns + productFrom + `
		WHERE p.category_id = $1 ORDER BY p.id OFFSET $2 LIMIT $3`
	return r.queryProducts(ctx, query, categoryID, (page-1)*pageSize, pageSize)
}

func (r *postgresRepository) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count products: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) CountProductsByCategory(ctx context.Context, categoryID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, categoryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count products for category %d: %w", categoryID, err)
	}
	return count, nil
}

func (r *postgresRepository) CreateProduct(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (name, description, price, stock, image_url, is_featured, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		p.Name, p.Description, p.Price, p.Stock, p.ImageURL, p.IsFeatured, p.CategoryID,
	).Scan(&p.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("repository: failed to insert product: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateProduct(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, stock = $4, image_url = $5,
			is_featured = $6, category_id = $7
		WHERE id = $8
	`
	cmdTag, err := r.db.Exec(ctx, query,
		p.Name, p.Description, p.Price, p.Stock, p.ImageURL, p.IsFeatured, p.CategoryID, p.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("repository: failed to update product %d: %w", p.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *postgresRepository) DeleteProduct(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete product %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *postgresRepository) GetAllCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("repository: failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating categories: %w", err)
	}

	return categories, nil
}

func (r *postgresRepository) GetCategoryByID(ctx context.Context, id int64) (*Category, error) {
	var c Category
	err := r.db.QueryRow(ctx, `SELECT id, name, description FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("repository: failed to select category by id %d: %w", id, err)
	}
	return &c, nil
}

func (r *postgresRepository) CreateCategory(ctx context.Context, c *Category) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id`,
		c.Name, c.Description,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to insert category: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateCategory(ctx context.Context, c *Category) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE categories SET name = $1, description = $2 WHERE id = $3`,
		c.Name, c.Description, c.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update category %d: %w", c.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// DeleteCategory removes the category; products in it go with it via
// ON DELETE CASCADE.
func (r *postgresRepository) DeleteCategory(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete category %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *postgresRepository) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL,
			&p.IsFeatured, &p.CategoryID, &p.CategoryName,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}

	return products, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
