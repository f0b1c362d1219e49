package orders

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andrescris/storefront/pkg/cart"
	"github.com/andrescris/storefront/pkg/docstore"
	"github.com/andrescris/storefront/pkg/logger"
	"github.com/andrescris/storefront/pkg/models"
	"github.com/andrescris/storefront/pkg/notify"
	"github.com/andrescris/storefront/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toasts struct {
	mu        sync.Mutex
	success   []string
	errors    []string
	audiences [][]string
}

func (t *toasts) Success(ctx context.Context, m string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.success = append(t.success, m)
	t.audiences = append(t.audiences, notify.AudienceFrom(ctx))
}

func (t *toasts) Error(ctx context.Context, m string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, m)
	t.audiences = append(t.audiences, notify.AudienceFrom(ctx))
}

type openerFunc func(ctx context.Context, cartID, link string) error

func (f openerFunc) Open(ctx context.Context, cartID, link string) error { return f(ctx, cartID, link) }

type fixture struct {
	store    *docstore.Memory
	app      *state.App
	sessions *cart.Sessions
	toasts   *toasts
	svc      *Service
	links    chan string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: docstore.NewMemory(), toasts: &toasts{}, links: make(chan string, 4)}
	f.app = state.NewApp(f.store, f.toasts, logger.Discard())
	f.app.Start(context.Background())
	f.app.StartStaff(context.Background())
	t.Cleanup(f.app.Stop)

	f.sessions = cart.NewSessions(cart.NewMemoryStorage(0), 0, logger.Discard())
	f.svc = NewService(f.app, f.sessions, f.toasts, logger.Discard(), logger.Discard(), Options{
		Opener: openerFunc(func(_ context.Context, _ string, link string) error {
			f.links <- link
			return nil
		}),
		Now: func() time.Time { return time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC) },
	})
	return f
}

func (f *fixture) fill(t *testing.T, cartID string) {
	t.Helper()
	p := models.Product{ID: "prod2", Name: "Vestido", Price: 100000, Available: true, DiscountPercentage: models.Percent(20),
		Variants: &models.Variants{HasSizes: true, Sizes: map[string]models.SizeDetail{"M": {Available: true}}}}
	_, err := f.sessions.Update(context.Background(), cartID, func(c *cart.Cart) error {
		_, err := c.Add(p, 1, "M", "")
		return err
	})
	require.NoError(t, err)
}

func homeForm() CheckoutForm {
	return CheckoutForm{CustomerName: "Ana", CustomerPhone: "3001112233", DeliveryMethod: models.DeliveryHome, Address: "Calle 1 #2-3", PaymentMethod: "Nequi"}
}

func TestCheckoutForm_Validation(t *testing.T) {
	form := homeForm()
	form.Address = "   "
	form.Normalize()
	err := form.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"Address": "La dirección es obligatoria para envío a domicilio."}, verr.Fields)

	form = homeForm()
	form.PaymentMethod = "Bitcoin"
	form.CustomerName = ""
	require.ErrorAs(t, form.Validate(), &verr)
	assert.Contains(t, verr.Fields, "PaymentMethod")
	assert.Contains(t, verr.Fields, "CustomerName")

	form = homeForm()
	form.DeliveryMethod = models.DeliveryPickup
	form.Address = ""
	assert.NoError(t, form.Validate())
}

func TestCheckout_HomeDeliveryWithoutAddressMakesNoBackendCall(t *testing.T) {
	f := newFixture(t)
	f.fill(t, "c1")
	f.store.FailNext(docstore.OpTransaction, errors.New("should not be reached"))

	form := homeForm()
	form.Address = ""
	_, err := f.svc.Checkout(context.Background(), "c1", form)
	assert.True(t, IsValidation(err))

	// La transacción sigue pendiente de fallar: nunca se llamó.
	_, err = NextNumber(context.Background(), f.store, 1000)
	assert.Error(t, err)
	assert.False(t, f.sessions.Get(context.Background(), "c1").Empty())
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Checkout(context.Background(), "nobody", homeForm())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, f.store.TransactionAttempts())
}

func TestCheckout_PlacesOrder(t *testing.T) {
	f := newFixture(t)
	f.fill(t, "c1")

	r, err := f.svc.Checkout(context.Background(), "c1", homeForm())
	require.NoError(t, err)

	assert.Equal(t, "BMB-1001", r.Order.OrderNumber)
	assert.Equal(t, models.StatusPending, r.Order.Status)
	assert.Equal(t, int64(80000), r.Order.Subtotal)
	assert.Equal(t, int64(10000), r.Order.ShippingCost)
	assert.Equal(t, int64(90000), r.Order.Total)
	assert.Equal(t, "2024-05-01T15:30:00.000Z", r.Order.Date)

	rec, ok := f.app.Orders.Find(r.DocID)
	require.True(t, ok)
	assert.Equal(t, "BMB-1001", rec.Data.OrderNumber)
	assert.Equal(t, "M", rec.Data.Items[0].Size)
	assert.Empty(t, rec.Data.Items[0].Color)

	assert.True(t, f.sessions.Get(context.Background(), "c1").Empty())
	assert.Equal(t, []string{"¡Pedido enviado por WhatsApp!"}, f.toasts.success)
	assert.Equal(t, [][]string{{notify.CartAudience("c1")}}, f.toasts.audiences)

	select {
	case link := <-f.links:
		assert.True(t, strings.HasPrefix(link, "https://wa.me/573001234567?text="))
		assert.NotContains(t, link, "+")
	case <-time.After(time.Second):
		t.Fatal("whatsapp link was not opened")
	}

	r2, err := f.svc.Checkout(context.Background(), "c1", homeForm())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, r2)
}

func TestCheckout_PersistFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.fill(t, "c1")
	f.store.FailNext(docstore.OpAdd, errors.New("unavailable"))

	_, err := f.svc.Checkout(context.Background(), "c1", homeForm())
	require.Error(t, err)
	assert.False(t, f.sessions.Get(context.Background(), "c1").Empty())
	assert.Equal(t, []string{"Error al procesar el pedido. Inténtalo de nuevo."}, f.toasts.errors)

	r, err := f.svc.Checkout(context.Background(), "c1", homeForm())
	require.NoError(t, err)
	assert.Equal(t, "BMB-1002", r.Order.OrderNumber)
}

func TestNextNumber_ConcurrentCheckoutsGetDistinctNumbers(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	require.NoError(t, store.SetDocument(ctx, models.StoreCollection, models.OrderCounterDoc, models.OrderCounter{CurrentNumber: 1500}, false))

	var wg sync.WaitGroup
	results := make(chan int64, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := NextNumber(ctx, store, 1000)
			assert.NoError(t, err)
			results <- n
		}()
	}
	wg.Wait()
	close(results)

	seen := map[int64]bool{}
	for n := range results {
		assert.Greater(t, n, int64(1500))
		assert.False(t, seen[n])
		seen[n] = true
	}
	assert.Len(t, seen, 10)
}

func TestMessageAndDeepLink(t *testing.T) {
	o := models.Order{
		OrderNumber: "BMB-1001", CustomerName: "Ana", CustomerPhone: "300",
		Items: []models.CartItem{
			{Name: "Blusa", Price: 80000, Quantity: 2, Size: "S", Color: "Rosa"},
			{Name: "Bolso", Price: 40000, Quantity: 1},
		},
		Subtotal: 200000, ShippingCost: 0, Total: 200000,
		DeliveryMethod: models.DeliveryHome, Address: "Calle 1", PaymentMethod: "Nequi",
	}
	msg := Message(o, "Bombon Store")

	assert.True(t, strings.HasPrefix(msg, "¡Hola Bombon Store! 👋 Quiero hacer un pedido:"))
	assert.Contains(t, msg, "*Número de Orden:* BMB-1001")
	assert.Contains(t, msg, "- 2x Blusa (Talla: S) (Color: Rosa) - $ 160.000")
	assert.Contains(t, msg, "- 1x Bolso - $ 40.000")
	assert.Contains(t, msg, "*TOTAL:* $ 200.000")
	assert.Contains(t, msg, "- Dirección: Calle 1")
	assert.Contains(t, msg, "*Medio de Pago:* Nequi")

	link := DeepLink("573001234567", msg)
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, msg, u.Query().Get("text"))
}

func TestUpdate_WritesOnlyChangedFields(t *testing.T) {
	f := newFixture(t)
	f.fill(t, "c1")
	r, err := f.svc.Checkout(context.Background(), "c1", homeForm())
	require.NoError(t, err)

	same := "Nequi"
	shipped := models.StatusShipped
	changed, err := f.svc.Update(context.Background(), "admin", r.DocID, Patch{PaymentMethod: &same})
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = f.svc.Update(context.Background(), "admin", r.DocID, Patch{Status: &shipped, PaymentMethod: &same})
	require.NoError(t, err)
	assert.True(t, changed)
	rec, _ := f.app.Orders.Find(r.DocID)
	assert.Equal(t, models.StatusShipped, rec.Data.Status)

	bogus := models.OrderStatus("Perdido")
	_, err = f.svc.Update(context.Background(), "admin", r.DocID, Patch{Status: &bogus})
	assert.True(t, IsValidation(err))
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	f.fill(t, "c1")
	r, err := f.svc.Checkout(context.Background(), "c1", homeForm())
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), "admin", r.DocID, false), ErrNotConfirmed)
	_, ok := f.app.Orders.Find(r.DocID)
	assert.True(t, ok)

	require.NoError(t, f.svc.Delete(context.Background(), "admin", r.DocID, true))
	_, ok = f.app.Orders.Find(r.DocID)
	assert.False(t, ok)
}

func TestListSortedNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, o := range []models.Order{
		{OrderNumber: "BMB-1", Date: "2024-01-01T00:00:00.000Z", Status: models.StatusPending},
		{OrderNumber: "BMB-3", Date: "2024-03-01T00:00:00.000Z", Status: models.StatusCompleted},
		{OrderNumber: "BMB-2", Date: "2024-02-01T00:00:00.000Z", Status: models.StatusPending},
	} {
		_, err := f.app.Orders.Add(ctx, o)
		require.NoError(t, err)
	}

	all := f.svc.List("")
	require.Len(t, all, 3)
	assert.Equal(t, "BMB-3", all[0].Data.OrderNumber)
	assert.Equal(t, "BMB-1", all[2].Data.OrderNumber)

	pending := f.svc.List(models.StatusPending)
	require.Len(t, pending, 2)
	assert.Equal(t, "BMB-2", pending[0].Data.OrderNumber)
}

func TestBuildReport(t *testing.T) {
	orders := []models.Order{
		{Status: models.StatusCompleted, PaymentMethod: "Nequi", Total: 100000, Items: []models.CartItem{
			{ProductID: "p1", Name: "Blusa", Price: 40000, Quantity: 1, Size: "S"},
			{ProductID: "p1", Name: "Blusa", Price: 40000, Quantity: 1, Size: "M"},
		}},
		{Status: models.StatusPending, PaymentMethod: "Addi", Total: 50000, Items: []models.CartItem{
			{ProductID: "p2", Name: "Bolso", Price: 50000, Quantity: 3},
		}},
	}

	r := BuildReport(orders, "")
	assert.Equal(t, int64(150000), r.TotalRevenue)
	assert.Equal(t, 2, r.OrderCount)
	assert.Equal(t, int64(100000), r.RevenueByMethod["Nequi"])
	require.Len(t, r.TopProducts, 2)
	assert.Equal(t, "p2", r.TopProducts[0].ProductID)
	assert.Equal(t, 2, r.TopProducts[1].Quantity)

	completed := BuildReport(orders, models.StatusCompleted)
	assert.Equal(t, 1, completed.OrderCount)
	assert.Len(t, completed.TopProducts, 1)
}
