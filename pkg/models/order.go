package models

import "strings"

// CartItem es una línea del carrito o del pedido. El ID compuesto es
// productId[-talla][-color]; nombre, precio e imagen se copian al agregar.
type CartItem struct {
	ID        string `json:"id" firestore:"id"`
	ProductID string `json:"productId" firestore:"productId"`
	Name      string `json:"name" firestore:"name"`
	Price     int64  `json:"price" firestore:"price"`
	Quantity  int    `json:"quantity" firestore:"quantity"`
	ImageURL  string `json:"imageUrl" firestore:"imageUrl"`
	Size      string `json:"size,omitempty" firestore:"size,omitempty"`
	Color     string `json:"color,omitempty" firestore:"color,omitempty"`
}

// LineID builds the composite cart key.
func LineID(productID, size, color string) string {
	var b strings.Builder
	b.WriteString(productID)
	if size != "" {
		b.WriteString("-" + size)
	}
	if color != "" {
		b.WriteString("-" + color)
	}
	return b.String()
}

// LineTotal is price × quantity.
func (i CartItem) LineTotal() int64 { return i.Price * int64(i.Quantity) }

type OrderStatus string

const (
	StatusPending    OrderStatus = "Pendiente"
	StatusProcessing OrderStatus = "En Proceso"
	StatusShipped    OrderStatus = "Enviado"
	StatusCompleted  OrderStatus = "Completado"
	StatusCancelled  OrderStatus = "Cancelado"
)

// OrderStatuses in workflow order.
var OrderStatuses = []OrderStatus{StatusPending, StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled}

func (s OrderStatus) Valid() bool {
	for _, st := range OrderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

type DeliveryMethod string

const (
	DeliveryPickup DeliveryMethod = "Recoger en Tienda"
	DeliveryHome   DeliveryMethod = "Envío a Domicilio"
)

func (d DeliveryMethod) Valid() bool { return d == DeliveryPickup || d == DeliveryHome }

// PaymentMethods are the fixed payment options offered at checkout.
var PaymentMethods = []string{"Nequi", "Daviplata", "Tarjeta", "Addi", "Sistecredito"}

func ValidPaymentMethod(m string) bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

// Order is immutable once written except for Status and PaymentMethod.
type Order struct {
	OrderNumber    string         `json:"orderNumber" firestore:"orderNumber"`
	CustomerName   string         `json:"customerName" firestore:"customerName"`
	CustomerPhone  string         `json:"customerPhone" firestore:"customerPhone"`
	Items          []CartItem     `json:"items" firestore:"items"`
	Subtotal       int64          `json:"subtotal" firestore:"subtotal"`
	ShippingCost   int64          `json:"shippingCost" firestore:"shippingCost"`
	Total          int64          `json:"total" firestore:"total"`
	DeliveryMethod DeliveryMethod `json:"deliveryMethod" firestore:"deliveryMethod"`
	Address        string         `json:"address,omitempty" firestore:"address,omitempty"`
	PaymentMethod  string         `json:"paymentMethod" firestore:"paymentMethod"`
	Status         OrderStatus    `json:"status" firestore:"status"`
	Date           string         `json:"date" firestore:"date"`
}
