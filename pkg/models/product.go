package models

import (
	"math"
	"strings"
)

// SizeDetail es la disponibilidad de una talla.
type SizeDetail struct {
	Available bool `json:"available" firestore:"available"`
}

// ColorDetail es la disponibilidad de un color y su imagen propia (opcional).
type ColorDetail struct {
	Available bool   `json:"available" firestore:"available"`
	ImageURL  string `json:"imageUrl" firestore:"imageUrl"`
}

// Variants agrupa tallas y colores. Con HasSizes en false el mapa de tallas se ignora
// pero no se borra; lo mismo para colores.
type Variants struct {
	HasSizes  bool                   `json:"hasSizes" firestore:"hasSizes"`
	Sizes     map[string]SizeDetail  `json:"sizes" firestore:"sizes"`
	HasColors bool                   `json:"hasColors" firestore:"hasColors"`
	Colors    map[string]ColorDetail `json:"colors" firestore:"colors"`
}

// Product es un producto del catálogo. DiscountPercentage y Variants son opcionales:
// nil significa "no definido", distinto de un descuento de cero o de variantes vacías.
type Product struct {
	ID                 string    `json:"id" firestore:"id"`
	Name               string    `json:"name" firestore:"name"`
	Description        string    `json:"description" firestore:"description"`
	Price              int64     `json:"price" firestore:"price"`
	Category           string    `json:"category" firestore:"category"`
	ImageURL           string    `json:"imageUrl" firestore:"imageUrl"`
	Available          bool      `json:"available" firestore:"available"`
	DiscountPercentage *int      `json:"discountPercentage,omitempty" firestore:"discountPercentage,omitempty"`
	Variants           *Variants `json:"variants,omitempty" firestore:"variants,omitempty"`
}

// ProductList is the single document holding the whole catalog.
type ProductList struct {
	List []Product `json:"list" firestore:"list"`
}

// Percent builds an optional discount value.
func Percent(p int) *int { return &p }

// Discount returns the discount percentage and whether the product carries one.
func (p Product) Discount() (int, bool) {
	if p.DiscountPercentage == nil || *p.DiscountPercentage <= 0 {
		return 0, false
	}
	return *p.DiscountPercentage, true
}

// OnSale reports whether the product has a positive discount.
func (p Product) OnSale() bool {
	_, ok := p.Discount()
	return ok
}

// UnitPrice is the price the customer pays right now: price × (1 − discount/100).
func (p Product) UnitPrice() int64 {
	d, ok := p.Discount()
	if !ok {
		return p.Price
	}
	if d >= 100 {
		return 0
	}
	return int64(math.Round(float64(p.Price) * (1 - float64(d)/100)))
}

// HasDefinedSizes is true when sizes are enabled and at least one is configured.
func (p Product) HasDefinedSizes() bool {
	return p.Variants != nil && p.Variants.HasSizes && len(p.Variants.Sizes) > 0
}

// HasDefinedColors is true when colors are enabled and at least one is configured.
func (p Product) HasDefinedColors() bool {
	return p.Variants != nil && p.Variants.HasColors && len(p.Variants.Colors) > 0
}

// RequiresSelection: a quick add is only possible without sizes or colors to pick.
func (p Product) RequiresSelection() bool {
	return p.HasDefinedSizes() || p.HasDefinedColors()
}

// ImageFor devuelve la imagen del color elegido si la tiene; si no, la imagen principal.
func (p Product) ImageFor(color string) string {
	if color != "" && p.Variants != nil {
		if c, ok := p.Variants.Colors[color]; ok && c.ImageURL != "" {
			return c.ImageURL
		}
	}
	return p.ImageURL
}

func (p *Product) variants() *Variants {
	if p.Variants == nil {
		p.Variants = &Variants{}
	}
	if p.Variants.Sizes == nil {
		p.Variants.Sizes = map[string]SizeDetail{}
	}
	if p.Variants.Colors == nil {
		p.Variants.Colors = map[string]ColorDetail{}
	}
	return p.Variants
}

// SetHasSizes toggles sizes without touching the configured labels.
func (p *Product) SetHasSizes(on bool) { p.variants().HasSizes = on }

// SetHasColors toggles colors without touching the configured labels.
func (p *Product) SetHasColors(on bool) { p.variants().HasColors = on }

// AddSize adds an available size. Empty or duplicated labels are ignored.
func (p *Product) AddSize(label string) bool {
	label = strings.TrimSpace(label)
	v := p.variants()
	if label == "" {
		return false
	}
	if _, exists := v.Sizes[label]; exists {
		return false
	}
	v.Sizes[label] = SizeDetail{Available: true}
	return true
}

func (p *Product) RemoveSize(label string) {
	delete(p.variants().Sizes, label)
}

func (p *Product) SetSizeAvailable(label string, available bool) {
	p.variants().Sizes[label] = SizeDetail{Available: available}
}

// AddColor adds an available color with no image. Empty or duplicated labels are ignored.
func (p *Product) AddColor(label string) bool {
	label = strings.TrimSpace(label)
	v := p.variants()
	if label == "" {
		return false
	}
	if _, exists := v.Colors[label]; exists {
		return false
	}
	v.Colors[label] = ColorDetail{Available: true}
	return true
}

// RemoveColor borra el color; si su imagen era la imagen principal, la principal queda vacía.
func (p *Product) RemoveColor(label string) {
	v := p.variants()
	c, ok := v.Colors[label]
	if !ok {
		return
	}
	delete(v.Colors, label)
	if c.ImageURL != "" && c.ImageURL == p.ImageURL {
		p.ImageURL = ""
	}
}

func (p *Product) SetColorAvailable(label string, available bool) {
	v := p.variants()
	c := v.Colors[label]
	c.Available = available
	v.Colors[label] = c
}

func (p *Product) SetColorImage(label, url string) {
	v := p.variants()
	c := v.Colors[label]
	c.ImageURL = url
	v.Colors[label] = c
}
