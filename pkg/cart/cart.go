// Package cart holds the shopping cart: line items keyed by product and variant, the derived
// totals and the per-visitor persistence of the cart between requests.
package cart

import (
	"errors"

	"github.com/andrescris/storefront/pkg/models"
)

var (
	ErrLineNotFound      = errors.New("cart: line not found")
	ErrInvalidQuantity   = errors.New("cart: quantity must be at least 1")
	ErrUnavailable       = errors.New("cart: product is not available")
	ErrSelectionRequired = errors.New("cart: size or color must be selected")
	ErrVariantNotOffered = errors.New("cart: size or color is not offered")
)

// Cart is the list of selected items. The zero value is an empty cart.
type Cart struct {
	Items []models.CartItem `json:"items"`
}

// Add puts quantity units of p in the cart. The unit price is fixed at the product's current
// discounted price; adding the same product and variant again only increments the quantity.
func (c *Cart) Add(p models.Product, quantity int, size, color string) (models.CartItem, error) {
	if quantity < 1 {
		return models.CartItem{}, ErrInvalidQuantity
	}
	if !p.Available {
		return models.CartItem{}, ErrUnavailable
	}
	if err := checkVariant(p, size, color); err != nil {
		return models.CartItem{}, err
	}

	id := models.LineID(p.ID, size, color)
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items[i].Quantity += quantity
			return c.Items[i], nil
		}
	}

	item := models.CartItem{
		ID:        id,
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.UnitPrice(),
		Quantity:  quantity,
		ImageURL:  p.ImageFor(color),
		Size:      size,
		Color:     color,
	}
	c.Items = append(c.Items, item)
	return item, nil
}

// QuickAdd adds one unit of a product that has no sizes or colors to pick.
func (c *Cart) QuickAdd(p models.Product) (models.CartItem, error) {
	if p.RequiresSelection() {
		return models.CartItem{}, ErrSelectionRequired
	}
	return c.Add(p, 1, "", "")
}

func checkVariant(p models.Product, size, color string) error {
	if p.HasDefinedSizes() {
		if size == "" {
			return ErrSelectionRequired
		}
		if s, ok := p.Variants.Sizes[size]; !ok || !s.Available {
			return ErrVariantNotOffered
		}
	} else if size != "" {
		return ErrVariantNotOffered
	}
	if p.HasDefinedColors() {
		if color == "" {
			return ErrSelectionRequired
		}
		if cd, ok := p.Variants.Colors[color]; !ok || !cd.Available {
			return ErrVariantNotOffered
		}
	} else if color != "" {
		return ErrVariantNotOffered
	}
	return nil
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (c *Cart) UpdateQuantity(lineID string, quantity int) error {
	for i := range c.Items {
		if c.Items[i].ID != lineID {
			continue
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
		c.Items[i].Quantity = quantity
		return nil
	}
	return ErrLineNotFound
}

// Remove drops a line. Unknown ids are ignored.
func (c *Cart) Remove(lineID string) {
	for i := range c.Items {
		if c.Items[i].ID == lineID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

func (c *Cart) Clear() { c.Items = nil }

func (c Cart) Empty() bool { return len(c.Items) == 0 }

// ItemCount is the sum of the line quantities.
func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c Cart) Subtotal() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.LineTotal()
	}
	return total
}

// Snapshot returns a copy of the lines, safe to keep after the cart changes.
func (c Cart) Snapshot() []models.CartItem {
	out := make([]models.CartItem, len(c.Items))
	copy(out, c.Items)
	return out
}
