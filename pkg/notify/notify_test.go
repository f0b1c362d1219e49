package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_ToastExpires(t *testing.T) {
	h := NewHub(20 * time.Millisecond)
	key := CartAudience("c1")
	h.Success(WithAudience(context.Background(), key), "Producto guardado")

	active := h.Active(key)
	require.Len(t, active, 1)
	assert.Equal(t, Success, active[0].Type)

	assert.Eventually(t, func() bool { return len(h.Active(key)) == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_SubscribeAndDismiss(t *testing.T) {
	h := NewHub(time.Minute)
	key := SessionAudience("s1")
	ctx := WithAudience(context.Background(), key)

	var got []Toast
	stop := h.Subscribe(func(t Toast) { got = append(got, t) })

	h.Error(ctx, "Error al guardar")
	require.Len(t, got, 1)
	assert.Equal(t, Error, got[0].Type)

	assert.True(t, h.Dismiss(got[0].ID, key))
	assert.Empty(t, h.Active(key))

	stop()
	h.Success(ctx, "otro")
	assert.Len(t, got, 1)
}

func TestHub_ToastsStayWithTheirAudience(t *testing.T) {
	h := NewHub(time.Minute)
	admin := SessionAudience("admin-session")
	visitor := CartAudience("visitor-cart")

	h.Success(WithAudience(context.Background(), admin), "Categorías guardadas.")
	h.Success(WithAudience(context.Background(), visitor), "¡Pedido enviado por WhatsApp!")

	require.Len(t, h.Active(admin), 1)
	assert.Equal(t, "Categorías guardadas.", h.Active(admin)[0].Message)
	require.Len(t, h.Active(visitor), 1)
	assert.Empty(t, h.Active())
	assert.Empty(t, h.Active(CartAudience("other")))

	// otro visitante no puede descartar el toast del admin
	id := h.Active(admin)[0].ID
	assert.False(t, h.Dismiss(id, visitor))
	assert.False(t, h.Dismiss(id))
	assert.Len(t, h.Active(admin), 1)
	assert.True(t, h.Dismiss(id, admin))
}

func TestHub_DropsToastsWithoutAudience(t *testing.T) {
	h := NewHub(time.Minute)
	var got []Toast
	h.Subscribe(func(t Toast) { got = append(got, t) })

	h.Error(context.Background(), "Error al guardar")
	assert.Empty(t, got)
}

func TestWithAudience(t *testing.T) {
	ctx := WithAudience(context.Background(), CartAudience("c1"), CartAudience(""))
	ctx = WithAudience(ctx, SessionAudience("s1"), CartAudience("c1"))
	assert.Equal(t, []string{"cart:c1", "session:s1"}, AudienceFrom(ctx))

	toast := Toast{Audience: AudienceFrom(ctx)}
	assert.True(t, toast.VisibleTo([]string{"session:s1"}))
	assert.False(t, toast.VisibleTo([]string{"session:s2"}))
}
