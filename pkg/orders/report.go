package orders

import (
	"sort"

	"github.com/andrescris/storefront/pkg/models"
)

const topProductsLimit = 10

type ProductSales struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Revenue   int64  `json:"revenue"`
}

// Report is the sales summary of the admin orders tab.
type Report struct {
	TotalRevenue    int64            `json:"totalRevenue"`
	OrderCount      int              `json:"orderCount"`
	RevenueByMethod map[string]int64 `json:"revenueByPaymentMethod"`
	TopProducts     []ProductSales   `json:"topProducts"`
}

// BuildReport aggregates orders, keeping only those in status when it is set. Products are
// grouped by product id across sizes and colors.
func BuildReport(orders []models.Order, status models.OrderStatus) Report {
	r := Report{RevenueByMethod: map[string]int64{}}
	byProduct := map[string]*ProductSales{}
	for _, o := range orders {
		if status != "" && o.Status != status {
			continue
		}
		r.OrderCount++
		r.TotalRevenue += o.Total
		r.RevenueByMethod[o.PaymentMethod] += o.Total
		for _, it := range o.Items {
			ps, ok := byProduct[it.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: it.ProductID, Name: it.Name}
				byProduct[it.ProductID] = ps
			}
			ps.Quantity += it.Quantity
			ps.Revenue += it.LineTotal()
		}
	}

	r.TopProducts = make([]ProductSales, 0, len(byProduct))
	for _, ps := range byProduct {
		r.TopProducts = append(r.TopProducts, *ps)
	}
	sort.Slice(r.TopProducts, func(i, j int) bool {
		a, b := r.TopProducts[i], r.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.ProductID < b.ProductID
	})
	if len(r.TopProducts) > topProductsLimit {
		r.TopProducts = r.TopProducts[:topProductsLimit]
	}
	return r
}

// Report aggregates the currently synced orders.
func (s *Service) Report(status models.OrderStatus) Report {
	records := s.app.Orders.Records()
	orders := make([]models.Order, len(records))
	for i, rec := range records {
		orders[i] = rec.Data
	}
	return BuildReport(orders, status)
}
