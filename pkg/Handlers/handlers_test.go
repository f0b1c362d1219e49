package Handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andrescris/storefront/pkg/auth"
	"github.com/andrescris/storefront/pkg/cart"
	"github.com/andrescris/storefront/pkg/catalog"
	"github.com/andrescris/storefront/pkg/docstore"
	"github.com/andrescris/storefront/pkg/logger"
	"github.com/andrescris/storefront/pkg/media"
	"github.com/andrescris/storefront/pkg/notify"
	"github.com/andrescris/storefront/pkg/orders"
	"github.com/andrescris/storefront/pkg/realtime"
	"github.com/andrescris/storefront/pkg/state"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Count   int             `json:"count"`
	Fields  json.RawMessage `json:"fields"`
	Data    json.RawMessage `json:"data"`
}

type fixture struct {
	router  *gin.Engine
	handler *Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	log := logger.Discard()
	toasts := notify.NewHub(time.Minute)

	app := state.NewApp(docstore.NewMemory(), toasts, log)
	app.Start(ctx)
	app.StartStaff(ctx)
	t.Cleanup(app.Stop)

	live := realtime.NewHub(app, toasts, log, nil)
	live.Start()
	t.Cleanup(live.Close)

	carts := cart.NewSessions(cart.NewMemoryStorage(0), 0, log)
	demo := auth.DemoAccounts{AdminEmail: "admin@bombon.com", SellerEmail: "vendedor@bombon.com", Password: "bombon123"}
	authSvc := auth.NewService(auth.NewMemoryIdentity(), app, auth.NewRegistry(0), demo, toasts, log, log)
	t.Cleanup(authSvc.Close)

	h := &Handler{
		App:     app,
		Catalog: catalog.NewService(app, media.NewMemory("https://cdn.test"), toasts, log, log),
		Carts:   carts,
		Pricing: cart.DefaultPricing(),
		Orders:  orders.NewService(app, carts, toasts, log, log, orders.Options{Opener: live}),
		Auth:    authSvc,
		Toasts:  toasts,
		Live:    live,
		Log:     log,
	}
	r := gin.New()
	h.Register(r, nil)
	return &fixture{router: r, handler: h}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func (f *fixture) login(t *testing.T, email string) string {
	t.Helper()
	w, _ := f.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"email": email, "password": "bombon123"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := w.Header().Get("X-Session-ID")
	require.NotEmpty(t, id)
	return id
}

func TestStorefrontReads(t *testing.T) {
	f := newFixture(t)

	w, resp := f.do(t, http.MethodGet, "/api/v1/store", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var store struct {
		Loading    bool     `json:"loading"`
		Categories []string `json:"categories"`
		Config     struct {
			Contact struct {
				Name string `json:"name"`
			} `json:"contact"`
		} `json:"config"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &store))
	assert.False(t, store.Loading)
	assert.Equal(t, "Bombon Store", store.Config.Contact.Name)
	assert.Len(t, store.Categories, 6)

	_, resp = f.do(t, http.MethodGet, "/api/v1/products", nil, nil)
	assert.Equal(t, 8, resp.Count)

	_, resp = f.do(t, http.MethodGet, "/api/v1/products?category=Blusas", nil, nil)
	assert.Equal(t, 2, resp.Count)

	_, resp = f.do(t, http.MethodGet, "/api/v1/products?q=vestido", nil, nil)
	assert.Equal(t, 1, resp.Count)

	_, resp = f.do(t, http.MethodGet, "/api/v1/products/new", nil, nil)
	assert.Equal(t, 6, resp.Count)

	w, _ = f.do(t, http.MethodGet, "/api/v1/products/prod6", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/products/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartAndCheckout(t *testing.T) {
	f := newFixture(t)

	// Un producto con tallas y colores no se puede agregar rápido.
	w, _ := f.do(t, http.MethodPost, "/api/v1/cart/items/quick", gin.H{"productId": "prod1"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/v1/cart/items/quick", gin.H{"productId": "prod6"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cartID := w.Header().Get(CartHeader)
	require.NotEmpty(t, cartID)
	headers := map[string]string{CartHeader: cartID}

	w, _ = f.do(t, http.MethodPost, "/api/v1/cart/items", gin.H{"productId": "prod1", "quantity": 1, "size": "S", "color": "Rosa Pastel"}, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = f.do(t, http.MethodPost, "/api/v1/cart/items", gin.H{"productId": "prod1", "quantity": 1, "size": "L", "color": "Rosa Pastel"}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, resp := f.do(t, http.MethodGet, "/api/v1/cart?delivery=Env%C3%ADo%20a%20Domicilio", nil, headers)
	var data struct {
		Summary cart.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 2, data.Summary.ItemCount)
	assert.Equal(t, int64(275000), data.Summary.Subtotal)
	assert.Equal(t, int64(0), data.Summary.ShippingCost)

	w, _ = f.do(t, http.MethodPatch, "/api/v1/cart/items/prod1-S-Rosa%20Pastel", gin.H{"quantity": 0}, headers)
	require.Equal(t, http.StatusOK, w.Code)

	_, resp = f.do(t, http.MethodGet, "/api/v1/cart/shipping?delivery=Env%C3%ADo%20a%20Domicilio", nil, headers)
	var shipping struct {
		ShippingCost int64 `json:"shippingCost"`
		Total        int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &shipping))
	assert.Equal(t, int64(10000), shipping.ShippingCost)
	assert.Equal(t, int64(105000), shipping.Total)

	// Envío a domicilio sin dirección: se rechaza antes de tocar el backend.
	form := gin.H{"customerName": "Ana", "customerPhone": "3001234567", "deliveryMethod": "Envío a Domicilio", "paymentMethod": "Nequi"}
	w, resp = f.do(t, http.MethodPost, "/api/v1/checkout", form, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(resp.Fields, &fields))
	assert.Equal(t, "La dirección es obligatoria para envío a domicilio.", fields["Address"])
	assert.Empty(t, f.handler.App.Orders.Records())

	form["address"] = "Calle 1 # 2-3"
	w, resp = f.do(t, http.MethodPost, "/api/v1/checkout", form, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var receipt orders.Receipt
	require.NoError(t, json.Unmarshal(resp.Data, &receipt))
	assert.Equal(t, "BMB-1001", receipt.Order.OrderNumber)
	assert.Equal(t, int64(105000), receipt.Order.Total)
	assert.Contains(t, receipt.Link, "https://wa.me/")

	_, resp = f.do(t, http.MethodGet, "/api/v1/cart", nil, headers)
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.True(t, data.Summary.Empty)

	w, _ = f.do(t, http.MethodPost, "/api/v1/checkout", form, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/v1/checkout", form, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginErrors(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"email": "", "password": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := f.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"email": "nadie@bombon.com", "password": "secreto1"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "El correo o la contraseña son incorrectos.", resp.Error)

	_, resp = f.do(t, http.MethodGet, "/api/v1/auth/session", nil, nil)
	var body struct {
		Session        auth.View `json:"session"`
		HasPanelAccess bool      `json:"hasPanelAccess"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	assert.Equal(t, auth.SignedOut, body.Session.Status)
	assert.False(t, body.HasPanelAccess)
}

func TestAdminCapabilitiesAndConfirmation(t *testing.T) {
	f := newFixture(t)
	product := gin.H{"name": "Falda Plisada", "price": 120000, "category": "Vestidos", "available": true}

	w, _ := f.do(t, http.MethodPost, "/api/v1/admin/products", product, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	seller := map[string]string{"X-Session-ID": f.login(t, "vendedor@bombon.com")}
	_, resp := f.do(t, http.MethodGet, "/api/v1/auth/session", nil, seller)
	var body struct {
		Tabs []string `json:"tabs"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	assert.Equal(t, []string{"Productos", "Pedidos"}, body.Tabs)

	w, resp = f.do(t, http.MethodPost, "/api/v1/admin/products", product, seller)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))

	w, _ = f.do(t, http.MethodDelete, "/api/v1/admin/products/"+created.ID+"?confirm=true", nil, seller)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = f.do(t, http.MethodGet, "/api/v1/admin/users", nil, seller)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := map[string]string{"X-Session-ID": f.login(t, "admin@bombon.com")}
	w, _ = f.do(t, http.MethodDelete, "/api/v1/admin/products/"+created.ID, nil, admin)
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)
	_, err := f.handler.Catalog.Product(created.ID)
	require.NoError(t, err)

	w, _ = f.do(t, http.MethodDelete, "/api/v1/admin/products/"+created.ID+"?confirm=true", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	_, err = f.handler.Catalog.Product(created.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	w, resp = f.do(t, http.MethodGet, "/api/v1/admin/users", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, resp.Count)

	w, _ = f.do(t, http.MethodPost, "/api/v1/auth/logout", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = f.do(t, http.MethodGet, "/api/v1/admin/config", nil, admin)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminOrdersFlow(t *testing.T) {
	f := newFixture(t)
	w, _ := f.do(t, http.MethodPost, "/api/v1/cart/items/quick", gin.H{"productId": "prod6"}, nil)
	headers := map[string]string{CartHeader: w.Header().Get(CartHeader)}
	form := gin.H{"customerName": "Ana", "customerPhone": "3001234567", "deliveryMethod": "Recoger en Tienda", "paymentMethod": "Nequi"}
	w, _ = f.do(t, http.MethodPost, "/api/v1/checkout", form, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	admin := map[string]string{"X-Session-ID": f.login(t, "admin@bombon.com")}
	_, resp := f.do(t, http.MethodGet, "/api/v1/admin/orders", nil, admin)
	require.Equal(t, 1, resp.Count)
	var list []state.Record[struct {
		Status string `json:"status"`
	}]
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	docID := list[0].DocID

	w, _ = f.do(t, http.MethodPatch, "/api/v1/admin/orders/"+docID, gin.H{"status": "Nada"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPatch, "/api/v1/admin/orders/"+docID, gin.H{"status": "Enviado"}, admin)
	require.Equal(t, http.StatusOK, w.Code)

	_, resp = f.do(t, http.MethodGet, "/api/v1/admin/orders?status=Enviado", nil, admin)
	assert.Equal(t, 1, resp.Count)

	_, resp = f.do(t, http.MethodGet, "/api/v1/admin/orders/report", nil, admin)
	var report orders.Report
	require.NoError(t, json.Unmarshal(resp.Data, &report))
	assert.Equal(t, int64(95000), report.TotalRevenue)
	assert.Equal(t, 1, report.OrderCount)

	w, _ = f.do(t, http.MethodDelete, "/api/v1/admin/orders/"+docID, nil, admin)
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)
	w, _ = f.do(t, http.MethodDelete, "/api/v1/admin/orders/"+docID+"?confirm=true", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.handler.App.Orders.Records())
}

func (f *fixture) toasts(t *testing.T, headers map[string]string) []notify.Toast {
	t.Helper()
	w, resp := f.do(t, http.MethodGet, "/api/v1/toasts", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var list []notify.Toast
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	return list
}

func messages(list []notify.Toast) []string {
	out := make([]string, 0, len(list))
	for _, t := range list {
		out = append(out, t.Message)
	}
	return out
}

func TestToastsStayWithTheVisitorWhoCausedThem(t *testing.T) {
	f := newFixture(t)
	admin := map[string]string{"X-Session-ID": f.login(t, "admin@bombon.com")}

	w, _ := f.do(t, http.MethodPost, "/api/v1/admin/categories", gin.H{"name": "Zapatos"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	mine := f.toasts(t, admin)
	assert.Contains(t, messages(mine), "Cuenta de admin creada. ¡Bienvenido/a!")
	assert.Contains(t, messages(mine), "Categorías guardadas.")

	// Un visitante anónimo o con otro carrito no ve ni puede descartar los toasts del admin.
	assert.Empty(t, f.toasts(t, nil))
	assert.Empty(t, f.toasts(t, map[string]string{CartHeader: "someone-else"}))
	w, _ = f.do(t, http.MethodDelete, "/api/v1/toasts/"+mine[0].ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, f.toasts(t, admin), len(mine))

	w, _ = f.do(t, http.MethodDelete, "/api/v1/toasts/"+mine[0].ID, nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, f.toasts(t, admin), len(mine)-1)
}

func TestCartToasts(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/v1/cart/items/quick", gin.H{"productId": "prod6"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	headers := map[string]string{CartHeader: w.Header().Get(CartHeader)}

	p, err := f.handler.Catalog.Product("prod6")
	require.NoError(t, err)
	assert.Equal(t, []string{p.Name + " agregado al carrito!"}, messages(f.toasts(t, headers)))

	w, _ = f.do(t, http.MethodDelete, "/api/v1/cart/items/prod6", nil, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := f.toasts(t, headers)
	require.Len(t, list, 2)
	assert.Equal(t, "Producto eliminado del carrito.", list[1].Message)
	assert.Equal(t, notify.Error, list[1].Type)

	assert.Empty(t, f.toasts(t, map[string]string{CartHeader: "other-cart"}))
}
