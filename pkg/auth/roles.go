package auth

import "github.com/andrescris/storefront/pkg/models"

// Capability is one permission of the admin panel.
type Capability string

const (
	CapViewPanel        Capability = "panel:view"
	CapManageProducts   Capability = "products:write"
	CapDeleteProducts   Capability = "products:delete"
	CapManageOrders     Capability = "orders:write"
	CapDeleteOrders     Capability = "orders:delete"
	CapManageCategories Capability = "categories:write"
	CapManageBanners    Capability = "banners:write"
	CapManageConfig     Capability = "config:write"
	CapManageUsers      Capability = "users:write"
)

var capabilities = map[models.Role][]Capability{
	models.RoleAdmin: {
		CapViewPanel, CapManageProducts, CapDeleteProducts, CapManageOrders, CapDeleteOrders,
		CapManageCategories, CapManageBanners, CapManageConfig, CapManageUsers,
	},
	models.RoleSeller: {CapViewPanel, CapManageProducts, CapManageOrders},
}

// Capabilities returns what role may do. Unknown roles get nothing.
func Capabilities(role models.Role) []Capability {
	caps := capabilities[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

func Can(role models.Role, c Capability) bool {
	for _, have := range capabilities[role] {
		if have == c {
			return true
		}
	}
	return false
}

// Nombres de las pestañas del panel.
const (
	TabProducts   = "Productos"
	TabOrders     = "Pedidos"
	TabUsers      = "Usuarios"
	TabCategories = "Categorías"
	TabBanners    = "Banners"
	TabGeneral    = "General"
)

var tabCapability = []struct {
	tab string
	cap Capability
}{
	{TabProducts, CapManageProducts},
	{TabOrders, CapManageOrders},
	{TabUsers, CapManageUsers},
	{TabCategories, CapManageCategories},
	{TabBanners, CapManageBanners},
	{TabGeneral, CapManageConfig},
}

// AvailableTabs lists the panel tabs role may open, in display order.
func AvailableTabs(role models.Role) []string {
	tabs := []string{}
	for _, tc := range tabCapability {
		if Can(role, tc.cap) {
			tabs = append(tabs, tc.tab)
		}
	}
	return tabs
}
