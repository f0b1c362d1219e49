package orders

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/andrescris/storefront/pkg/models"
	"github.com/go-playground/validator/v10"
)

var (
	ErrEmptyCart    = errors.New("orders: cart is empty")
	ErrNotConfirmed = errors.New("orders: destructive action not confirmed")
	ErrNotFound     = errors.New("orders: order not found")
)

// CheckoutForm is what the customer fills in before sending the order.
type CheckoutForm struct {
	CustomerName   string                `json:"customerName" validate:"required"`
	CustomerPhone  string                `json:"customerPhone" validate:"required"`
	DeliveryMethod models.DeliveryMethod `json:"deliveryMethod" validate:"required,delivery"`
	Address        string                `json:"address"`
	PaymentMethod  string                `json:"paymentMethod" validate:"required,payment"`
}

// Normalize trims the free-text fields and drops the address for store pickup.
func (f *CheckoutForm) Normalize() {
	f.CustomerName = strings.TrimSpace(f.CustomerName)
	f.CustomerPhone = strings.TrimSpace(f.CustomerPhone)
	f.Address = strings.TrimSpace(f.Address)
	if f.DeliveryMethod != models.DeliveryHome {
		f.Address = ""
	}
}

// ValidationError lists the offending fields with a message for each.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return fmt.Sprintf("orders: invalid fields: %s", strings.Join(names, ", "))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("delivery", func(fl validator.FieldLevel) bool {
		return models.DeliveryMethod(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("payment", func(fl validator.FieldLevel) bool {
		return models.ValidPaymentMethod(fl.Field().String())
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return models.OrderStatus(fl.Field().String()).Valid()
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		f := sl.Current().Interface().(CheckoutForm)
		if f.DeliveryMethod == models.DeliveryHome && strings.TrimSpace(f.Address) == "" {
			sl.ReportError(f.Address, "address", "Address", "required_for_delivery", "")
		}
	}, CheckoutForm{})
	return v
}

var fieldMessages = map[string]string{
	"CustomerName":   "El nombre es obligatorio.",
	"CustomerPhone":  "El teléfono es obligatorio.",
	"DeliveryMethod": "Selecciona un método de entrega válido.",
	"Address":        "La dirección es obligatoria para envío a domicilio.",
	"PaymentMethod":  "Selecciona un medio de pago válido.",
	"Status":         "Estado de pedido no válido.",
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: map[string]string{}}
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.StructField()]
		if !ok {
			msg = "Valor no válido."
		}
		out.Fields[fe.StructField()] = msg
	}
	return out
}

// Validate checks the form. It never touches the network.
func (f CheckoutForm) Validate() error {
	if err := validate.Struct(f); err != nil {
		return toValidationError(err)
	}
	return nil
}
