package catalog

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	ImageURL    string  `json:"image_url,omitempty"`
	IsFeatured  bool    `json:"is_featured"`
	CategoryID  int64   `json:"category_id"`
	// CategoryName is joined in by the repository so listings render
	// without a second lookup.
	CategoryName string `json:"category_name,omitempty"`
}

// ProductPage is one slice of an offset-paginated product listing.
type ProductPage struct {
	Products      []Product `json:"products"`
	Page          int       `json:"page"`
	PageSize      int       `json:"page_size"`
	TotalProducts int       `json:"total_products"`
	TotalPages    int       `json:"total_pages"`
}
