package cart

import "github.com/andrescris/storefront/pkg/models"

const (
	DefaultFreeShippingThreshold int64 = 150000
	DefaultShippingCost          int64 = 10000
)

// Pricing holds the shipping rules.
type Pricing struct {
	FreeShippingThreshold int64
	ShippingCost          int64
}

func DefaultPricing() Pricing {
	return Pricing{FreeShippingThreshold: DefaultFreeShippingThreshold, ShippingCost: DefaultShippingCost}
}

// Shipping is charged only for home delivery below the free-shipping threshold.
func (p Pricing) Shipping(delivery models.DeliveryMethod, subtotal int64) int64 {
	if delivery == models.DeliveryHome && subtotal < p.FreeShippingThreshold {
		return p.ShippingCost
	}
	return 0
}

func (p Pricing) Total(delivery models.DeliveryMethod, subtotal int64) int64 {
	return subtotal + p.Shipping(delivery, subtotal)
}

// MissingForFreeShipping is how much more the customer has to buy; zero once reached.
func (p Pricing) MissingForFreeShipping(subtotal int64) int64 {
	if subtotal >= p.FreeShippingThreshold {
		return 0
	}
	return p.FreeShippingThreshold - subtotal
}

// Progress toward free shipping as a percentage, capped at 100.
func (p Pricing) Progress(subtotal int64) int {
	if p.FreeShippingThreshold <= 0 || subtotal >= p.FreeShippingThreshold {
		return 100
	}
	if subtotal <= 0 {
		return 0
	}
	return int(subtotal * 100 / p.FreeShippingThreshold)
}

// Summary is what the cart panel shows.
type Summary struct {
	Items                  []models.CartItem     `json:"items"`
	ItemCount              int                   `json:"itemCount"`
	Subtotal               int64                 `json:"subtotal"`
	DeliveryMethod         models.DeliveryMethod `json:"deliveryMethod,omitempty"`
	ShippingCost           int64                 `json:"shippingCost"`
	Total                  int64                 `json:"total"`
	MissingForFreeShipping int64                 `json:"missingForFreeShipping"`
	FreeShippingProgress   int                   `json:"freeShippingProgress"`
	Empty                  bool                  `json:"empty"`
}

func (p Pricing) Summarize(c Cart, delivery models.DeliveryMethod) Summary {
	subtotal := c.Subtotal()
	return Summary{
		Items:                  c.Snapshot(),
		ItemCount:              c.ItemCount(),
		Subtotal:               subtotal,
		DeliveryMethod:         delivery,
		ShippingCost:           p.Shipping(delivery, subtotal),
		Total:                  p.Total(delivery, subtotal),
		MissingForFreeShipping: p.MissingForFreeShipping(subtotal),
		FreeShippingProgress:   p.Progress(subtotal),
		Empty:                  c.Empty(),
	}
}
