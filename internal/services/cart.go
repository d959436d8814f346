package services

import "storefront/internal/models"

// Cart is the set of line items of one shopping session. The zero value is
// an empty cart. Methods are not safe for concurrent use; CartService
// serialises access per session.
type Cart struct {
	Items []models.CartItem `json:"items"`
}

func (c *Cart) indexOf(productID, size string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.Size == size {
			return i
		}
	}
	return -1
}

// AddItem merges item into the line with the same product and size, or
// appends it. A quantity below 1 counts as 1.
func (c *Cart) AddItem(item models.CartItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if i := c.indexOf(item.ProductID, item.Size); i >= 0 {
		c.Items[i].Quantity += item.Quantity
		return
	}
	c.Items = append(c.Items, item)
}

// RemoveItem drops the matching line. Missing lines are ignored.
func (c *Cart) RemoveItem(productID, size string) {
	i := c.indexOf(productID, size)
	if i < 0 {
		return
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// UpdateQuantity replaces the quantity of the matching line, clamped to at
// least 1. It reports whether a line was found.
func (c *Cart) UpdateQuantity(productID, size string, quantity int) bool {
	i := c.indexOf(productID, size)
	if i < 0 {
		return false
	}
	if quantity < 1 {
		quantity = 1
	}
	c.Items[i].Quantity = quantity
	return true
}

func (c *Cart) Clear() {
	c.Items = nil
}

// Total is the sum of price × quantity over all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// ItemCount is the number of units, not lines.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
