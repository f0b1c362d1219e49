package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/andrescris/storefront/pkg/models"
	"github.com/sirupsen/logrus"
)

// Filter names understood by FilterProducts besides real category names.
const (
	FilterAll    = "All"
	FilterOnSale = "On Sale"
)

// NewArrivalsLimit is how many products the "Lo Nuevo" carousel shows.
const NewArrivalsLimit = 6

// FilterProducts keeps products in category (All, On Sale or a category name) whose name
// contains query, ignoring case.
func FilterProducts(products []models.Product, category, query string) []models.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		switch category {
		case "", FilterAll:
		case FilterOnSale:
			if !p.OnSale() {
				continue
			}
		default:
			if p.Category != category {
				continue
			}
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// NewArrivals returns the n newest products, newest first. Ids from NewProductID sort by creation
// time and rank above the seeded ids, which are compared as plain strings.
func NewArrivals(products []models.Product, n int) []models.Product {
	sorted := make([]models.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool { return newerID(sorted[i].ID, sorted[j].ID) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func newerID(a, b string) bool {
	ga, gb := strings.HasPrefix(a, productIDPrefix), strings.HasPrefix(b, productIDPrefix)
	if ga != gb {
		return ga
	}
	return a > b
}

func (s *Service) Products() []models.Product { return s.app.Products.Get().List }

func (s *Service) Product(id string) (models.Product, error) {
	for _, p := range s.Products() {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, ErrNotFound
}

// productInput holds the constraints checked on every product write.
type productInput struct {
	Name     string `validate:"required"`
	Price    int64  `validate:"gte=0"`
	Category string `validate:"required"`
	Discount *int   `validate:"omitempty,gte=0,lte=100"`
}

func (s *Service) validateProduct(p models.Product) error {
	if err := s.check(productInput{Name: strings.TrimSpace(p.Name), Price: p.Price, Category: p.Category, Discount: p.DiscountPercentage}); err != nil {
		return err
	}
	if !s.app.Categories.Get().Contains(p.Category) {
		return ErrUnknownCategory
	}
	return nil
}

func (s *Service) saveProducts(ctx context.Context, list []models.Product) error {
	return s.app.Products.Set(ctx, models.ProductList{List: list})
}

// AddProduct prepends p to the catalog. An empty id gets a generated one.
func (s *Service) AddProduct(ctx context.Context, uid string, p models.Product) (models.Product, error) {
	if p.ID == "" {
		p.ID = NewProductID()
	}
	if err := s.validateProduct(p); err != nil {
		return models.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.Products()
	for _, existing := range current {
		if existing.ID == p.ID {
			return models.Product{}, ErrDuplicateID
		}
	}
	list := append([]models.Product{p}, current...)
	if err := s.saveProducts(ctx, list); err != nil {
		return models.Product{}, err
	}
	s.auditLog(uid, "product added", logrus.Fields{"product": p.ID})
	s.notifier.Success(ctx, "Producto agregado exitosamente.")
	return p, nil
}

// UpdateProduct replaces the product with the same id.
func (s *Service) UpdateProduct(ctx context.Context, uid string, p models.Product) error {
	if err := s.validateProduct(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceProduct(ctx, uid, p, "Producto actualizado exitosamente.")
}

// replaceProduct must be called with s.mu held.
func (s *Service) replaceProduct(ctx context.Context, uid string, p models.Product, toast string) error {
	current := s.Products()
	list := make([]models.Product, len(current))
	found := false
	for i, existing := range current {
		if existing.ID == p.ID {
			list[i] = p
			found = true
			continue
		}
		list[i] = existing
	}
	if !found {
		return ErrNotFound
	}
	if err := s.saveProducts(ctx, list); err != nil {
		return err
	}
	s.auditLog(uid, "product updated", logrus.Fields{"product": p.ID})
	s.notifier.Success(ctx, toast)
	return nil
}

// DeleteProduct removes a product. Nothing is written unless confirmed.
func (s *Service) DeleteProduct(ctx context.Context, uid, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.Products()
	list := make([]models.Product, 0, len(current))
	for _, p := range current {
		if p.ID != id {
			list = append(list, p)
		}
	}
	if len(list) == len(current) {
		return ErrNotFound
	}
	if err := s.saveProducts(ctx, list); err != nil {
		return err
	}
	s.auditLog(uid, "product deleted", logrus.Fields{"product": id})
	s.notifier.Error(ctx, "Producto eliminado.")
	return nil
}

// EditVariants applies op to one product's sizes or colors and saves the product.
func (s *Service) EditVariants(ctx context.Context, uid, productID string, op VariantOp) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.Product(productID)
	if err != nil {
		return models.Product{}, err
	}
	p = cloneProduct(p)
	if err := op.Apply(&p); err != nil {
		return models.Product{}, err
	}
	if err := s.replaceProduct(ctx, uid, p, "Producto actualizado exitosamente."); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func cloneProduct(p models.Product) models.Product {
	if p.DiscountPercentage != nil {
		p.DiscountPercentage = models.Percent(*p.DiscountPercentage)
	}
	if p.Variants != nil {
		v := *p.Variants
		v.Sizes = make(map[string]models.SizeDetail, len(p.Variants.Sizes))
		for k, d := range p.Variants.Sizes {
			v.Sizes[k] = d
		}
		v.Colors = make(map[string]models.ColorDetail, len(p.Variants.Colors))
		for k, d := range p.Variants.Colors {
			v.Colors[k] = d
		}
		p.Variants = &v
	}
	return p
}
