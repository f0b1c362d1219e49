// Package orders turns a cart into a numbered order, relays it to the store over WhatsApp and
// gives staff the tools to follow orders up.
package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/andrescris/storefront/pkg/cart"
	"github.com/andrescris/storefront/pkg/models"
	"github.com/andrescris/storefront/pkg/notify"
	"github.com/andrescris/storefront/pkg/state"
	"github.com/sirupsen/logrus"
)

// LinkOpener hands the WhatsApp link to whoever can open it. Its result is not awaited.
type LinkOpener interface {
	Open(ctx context.Context, cartID, link string) error
}

// Recorder receives checkout outcomes for metrics.
type Recorder interface {
	OrderPlaced(total int64)
	CheckoutFailed(stage string)
}

type noopRecorder struct{}

func (noopRecorder) OrderPlaced(int64)     {}
func (noopRecorder) CheckoutFailed(string) {}

type Options struct {
	Prefix      string
	CounterBase int64
	Pricing     cart.Pricing
	Opener      LinkOpener
	Recorder    Recorder
	Now         func() time.Time
}

type Service struct {
	app      *state.App
	sessions *cart.Sessions
	notifier notify.Notifier
	log      *logrus.Logger
	audit    *logrus.Logger
	opts     Options
}

func NewService(app *state.App, sessions *cart.Sessions, n notify.Notifier, log, audit *logrus.Logger, opts Options) *Service {
	if opts.Prefix == "" {
		opts.Prefix = "BMB"
	}
	if opts.CounterBase == 0 {
		opts.CounterBase = 1000
	}
	if opts.Pricing == (cart.Pricing{}) {
		opts.Pricing = cart.DefaultPricing()
	}
	if opts.Recorder == nil {
		opts.Recorder = noopRecorder{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{app: app, sessions: sessions, notifier: n, log: log, audit: audit, opts: opts}
}

// Receipt is returned to the customer after a successful checkout.
type Receipt struct {
	DocID   string       `json:"docId"`
	Order   models.Order `json:"order"`
	Message string       `json:"message"`
	Link    string       `json:"link"`
}

// Checkout places the order for the cart. Validation runs before any backend call; on any
// failure the cart is left as it was so the customer can retry.
func (s *Service) Checkout(ctx context.Context, cartID string, form CheckoutForm) (*Receipt, error) {
	ctx = notify.WithAudience(ctx, notify.CartAudience(cartID))
	form.Normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}
	c := s.sessions.Get(ctx, cartID)
	if c.Empty() {
		return nil, ErrEmptyCart
	}

	n, err := NextNumber(ctx, s.app.Store, s.opts.CounterBase)
	if err != nil {
		return nil, s.failCheckout(ctx, "counter", err)
	}

	subtotal := c.Subtotal()
	order := models.Order{
		OrderNumber:    FormatNumber(s.opts.Prefix, n),
		CustomerName:   form.CustomerName,
		CustomerPhone:  form.CustomerPhone,
		Items:          c.Snapshot(),
		Subtotal:       subtotal,
		ShippingCost:   s.opts.Pricing.Shipping(form.DeliveryMethod, subtotal),
		Total:          s.opts.Pricing.Total(form.DeliveryMethod, subtotal),
		DeliveryMethod: form.DeliveryMethod,
		Address:        form.Address,
		PaymentMethod:  form.PaymentMethod,
		Status:         models.StatusPending,
		Date:           s.opts.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}

	cfg := s.app.Config.Get()
	msg := Message(order, cfg.Contact.Name)
	link := DeepLink(cfg.Social.WhatsApp, msg)
	if s.opts.Opener != nil {
		go func() {
			if err := s.opts.Opener.Open(context.Background(), cartID, link); err != nil {
				s.log.WithError(err).WithField("order", order.OrderNumber).Warn("could not open whatsapp link")
			}
		}()
	}

	docID, err := s.app.Store.AddDocument(ctx, models.OrdersCollection, order)
	if err != nil {
		return nil, s.failCheckout(ctx, "persist", err)
	}

	s.sessions.Clear(ctx, cartID)
	s.opts.Recorder.OrderPlaced(order.Total)
	s.notifier.Success(ctx, "¡Pedido enviado por WhatsApp!")
	s.log.WithFields(logrus.Fields{"order": order.OrderNumber, "doc": docID, "total": order.Total}).Info("order placed")

	return &Receipt{DocID: docID, Order: order, Message: msg, Link: link}, nil
}

func (s *Service) failCheckout(ctx context.Context, stage string, err error) error {
	s.opts.Recorder.CheckoutFailed(stage)
	s.log.WithError(err).WithField("op", "checkout-"+stage).Error("checkout failed")
	s.notifier.Error(ctx, "Error al procesar el pedido. Inténtalo de nuevo.")
	return fmt.Errorf("checkout %s: %w", stage, err)
}

// List returns the orders newest first, optionally only those in one status.
func (s *Service) List(status models.OrderStatus) []state.Record[models.Order] {
	records := s.app.Orders.Records()
	out := records[:0]
	for _, r := range records {
		if status == "" || r.Data.Status == status {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return parseDate(out[i].Data.Date).After(parseDate(out[j].Data.Date))
	})
	return out
}

func parseDate(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Patch carries the only two fields staff may change on an order.
type Patch struct {
	Status        *models.OrderStatus `json:"status,omitempty" validate:"omitempty,status"`
	PaymentMethod *string             `json:"paymentMethod,omitempty" validate:"omitempty,payment"`
}

// Update writes the fields of p that differ from the stored order. It returns false when there
// was nothing to write.
func (s *Service) Update(ctx context.Context, uid, docID string, p Patch) (bool, error) {
	if err := validate.Struct(p); err != nil {
		return false, toValidationError(err)
	}
	rec, ok := s.app.Orders.Find(docID)
	if !ok {
		return false, ErrNotFound
	}
	fields := map[string]interface{}{}
	if p.Status != nil && *p.Status != rec.Data.Status {
		fields["status"] = string(*p.Status)
	}
	if p.PaymentMethod != nil && *p.PaymentMethod != rec.Data.PaymentMethod {
		fields["paymentMethod"] = *p.PaymentMethod
	}
	if len(fields) == 0 {
		return false, nil
	}
	if err := s.app.Orders.Update(ctx, docID, fields); err != nil {
		return false, err
	}
	s.audit.WithFields(logrus.Fields{"uid": uid, "doc": docID, "fields": fields}).Info("order updated")
	s.notifier.Success(ctx, "Pedido actualizado.")
	return true, nil
}

// Delete removes an order. Nothing is written unless confirmed is true.
func (s *Service) Delete(ctx context.Context, uid, docID string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if _, ok := s.app.Orders.Find(docID); !ok {
		return ErrNotFound
	}
	if err := s.app.Orders.Delete(ctx, docID); err != nil {
		return err
	}
	s.audit.WithFields(logrus.Fields{"uid": uid, "doc": docID}).Info("order deleted")
	s.notifier.Error(ctx, "Pedido eliminado.")
	return nil
}

// IsValidation reports whether err was caught before reaching the backend.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v) || errors.Is(err, ErrEmptyCart)
}
