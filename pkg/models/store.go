package models

import "strings"

// Document locations in the backend.
const (
	StoreCollection  = "store"
	OrdersCollection = "orders"
	UsersCollection  = "users"

	ConfigDoc       = "config"
	BannersDoc      = "banners"
	ProductsDoc     = "products"
	CategoriesDoc   = "categories"
	OrderCounterDoc = "orderCounter"
)

type Contact struct {
	Name     string `json:"name" firestore:"name"`
	Phone    string `json:"phone" firestore:"phone"`
	Schedule string `json:"schedule" firestore:"schedule"`
}

type Social struct {
	Instagram string `json:"instagram" firestore:"instagram"`
	TikTok    string `json:"tiktok" firestore:"tiktok"`
	WhatsApp  string `json:"whatsapp" firestore:"whatsapp"`
}

// StoreConfig es el documento singleton de configuración general.
type StoreConfig struct {
	LogoURL                string  `json:"logoUrl" firestore:"logoUrl"`
	Contact                Contact `json:"contact" firestore:"contact"`
	Social                 Social  `json:"social" firestore:"social"`
	PaymentMethodsImageURL string  `json:"paymentMethodsImageUrl,omitempty" firestore:"paymentMethodsImageUrl,omitempty"`
}

type LinkKind string

const (
	LinkAnchor   LinkKind = "anchor"
	LinkURL      LinkKind = "url"
	LinkCategory LinkKind = "category"
)

const categoryLinkPrefix = "category:"

type Banner struct {
	ID       int64  `json:"id" firestore:"id"`
	ImageURL string `json:"imageUrl" firestore:"imageUrl"`
	Title    string `json:"title" firestore:"title"`
	Subtitle string `json:"subtitle" firestore:"subtitle"`
	Link     string `json:"link" firestore:"link"`
}

// LinkTarget classifies the banner link. For category links the category name is returned.
func (b Banner) LinkTarget() (LinkKind, string) {
	switch {
	case strings.HasPrefix(b.Link, categoryLinkPrefix):
		return LinkCategory, strings.TrimPrefix(b.Link, categoryLinkPrefix)
	case strings.HasPrefix(b.Link, "#"):
		return LinkAnchor, b.Link
	default:
		return LinkURL, b.Link
	}
}

type BannerList struct {
	List []Banner `json:"list" firestore:"list"`
}

// Category is a plain name; names are unique inside CategoryList.
type Category = string

type CategoryList struct {
	List []Category `json:"list" firestore:"list"`
}

// Contains reports whether name is already in the list.
func (c CategoryList) Contains(name string) bool {
	for _, existing := range c.List {
		if existing == name {
			return true
		}
	}
	return false
}

// OrderCounter holds the last order number handed out.
type OrderCounter struct {
	CurrentNumber int64 `json:"currentNumber" firestore:"currentNumber"`
}
