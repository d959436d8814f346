package models

// CartItem is one cart line. Lines are unique per (ProductID, Size).
type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
	Size      string  `json:"size,omitempty"`
}

// AddCartItemRequest adds a product to the cart. Name, price and image are
// resolved from the catalog, never trusted from the client.
type AddCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
}

// UpdateCartItemRequest replaces the quantity of a cart line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
