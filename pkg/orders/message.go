package orders

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/andrescris/storefront/pkg/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pesos = message.NewPrinter(language.MustParse("es-CO"))

// FormatCurrency renders whole pesos with Colombian grouping, e.g. "$ 150.000".
func FormatCurrency(amount int64) string {
	return pesos.Sprintf("$ %d", amount)
}

// Message is the text sent to the store through WhatsApp.
func Message(o models.Order, contactName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "¡Hola %s! 👋 Quiero hacer un pedido:\n\n", contactName)
	fmt.Fprintf(&b, "*Número de Orden:* %s\n\n", o.OrderNumber)
	b.WriteString("*Productos:*\n")
	for i, it := range o.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %dx %s", it.Quantity, it.Name)
		if it.Size != "" {
			fmt.Fprintf(&b, " (Talla: %s)", it.Size)
		}
		if it.Color != "" {
			fmt.Fprintf(&b, " (Color: %s)", it.Color)
		}
		fmt.Fprintf(&b, " - %s", FormatCurrency(it.LineTotal()))
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "*Subtotal:* %s\n", FormatCurrency(o.Subtotal))
	fmt.Fprintf(&b, "*Envío:* %s\n", FormatCurrency(o.ShippingCost))
	fmt.Fprintf(&b, "*TOTAL:* %s\n\n", FormatCurrency(o.Total))
	b.WriteString("*Datos del Cliente:*\n")
	fmt.Fprintf(&b, "- Nombre: %s\n", o.CustomerName)
	fmt.Fprintf(&b, "- Teléfono: %s\n\n", o.CustomerPhone)
	fmt.Fprintf(&b, "*Entrega:* %s\n", o.DeliveryMethod)
	if o.DeliveryMethod == models.DeliveryHome && o.Address != "" {
		fmt.Fprintf(&b, "- Dirección: %s\n", o.Address)
	}
	fmt.Fprintf(&b, "*Medio de Pago:* %s\n\n", o.PaymentMethod)
	b.WriteString("¡Gracias! 😊")
	return b.String()
}

// DeepLink builds the wa.me link that opens a chat with the message already typed.
func DeepLink(whatsapp, text string) string {
	return "https://wa.me/" + whatsapp + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
