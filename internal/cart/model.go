package cart

// Item is one product line in a visitor's cart. Name, price and image are
// copied from the product at the moment it is added, so the cart renders
// without touching the catalog again.
type Item struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	ImageURL    string  `json:"image_url,omitempty"`
}

func (i Item) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}
