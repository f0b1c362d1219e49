package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	handlers "github.com/andrescris/storefront/pkg/Handlers"
	"github.com/andrescris/storefront/pkg/auth"
	"github.com/andrescris/storefront/pkg/cart"
	"github.com/andrescris/storefront/pkg/catalog"
	"github.com/andrescris/storefront/pkg/config"
	"github.com/andrescris/storefront/pkg/docstore"
	"github.com/andrescris/storefront/pkg/firebase"
	"github.com/andrescris/storefront/pkg/logger"
	"github.com/andrescris/storefront/pkg/media"
	"github.com/andrescris/storefront/pkg/metrics"
	"github.com/andrescris/storefront/pkg/middleware"
	"github.com/andrescris/storefront/pkg/notify"
	"github.com/andrescris/storefront/pkg/orders"
	"github.com/andrescris/storefront/pkg/realtime"
	"github.com/andrescris/storefront/pkg/state"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/cors"
)

// backend agrupa las piezas que cambian entre Firebase y memoria.
type backend struct {
	store    docstore.Store
	identity auth.Identity
	uploader media.Uploader
	memory   *media.Memory
	close    func()
}

func newBackend(ctx context.Context, cfg *config.Configuration) (*backend, error) {
	if cfg.Backend == config.BackendMemory {
		mem := media.NewMemory("http://localhost" + cfg.Address + "/media/")
		return &backend{
			store:    docstore.NewMemory(),
			identity: auth.NewMemoryIdentity(),
			uploader: mem,
			memory:   mem,
			close:    func() {},
		}, nil
	}

	clients, err := firebase.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}
	identity, err := auth.NewFirebaseIdentity(ctx, clients.APIKey, clients.Auth)
	if err != nil {
		clients.Close()
		return nil, err
	}
	return &backend{
		store:    docstore.NewFirestore(clients.Firestore),
		identity: identity,
		uploader: media.NewFirebaseUploader(clients.Bucket, clients.BucketName),
		close:    func() { clients.Close() },
	}, nil
}

func newCartStorage(ctx context.Context, cfg *config.Configuration) (cart.Storage, error) {
	if cfg.RedisAddr == "" {
		return cart.NewMemoryStorage(0), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return cart.NewRedisStorage(client, time.Duration(cfg.CartTTLHours)*time.Hour), nil
}

func originChecker(origins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

func main() {
	// 1. Configuración y logs
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("CRITICAL: invalid configuration: %v", err)
	}
	if err := logger.Init(&cfg.Log); err != nil {
		log.Fatalf("CRITICAL: could not initialize logging: %v", err)
	}
	appLog := logger.GetAppLogger()
	auditLog := logger.GetAuditLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Backend (Firebase o memoria)
	be, err := newBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Error initializing %s backend: %v", cfg.Backend, err)
	}
	defer be.close()

	storage, err := newCartStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Error connecting to Redis at %s: %v", cfg.RedisAddr, err)
	}

	// 3. Estado compartido
	toasts := notify.NewHub(notify.DefaultTTL)
	app := state.NewApp(be.store, toasts, appLog)
	app.Start(ctx)
	app.StartStaff(ctx)
	defer app.Stop()

	live := realtime.NewHub(app, toasts, appLog, originChecker(cfg.AllowedOrigins()))
	live.Start()
	defer live.Close()

	m := metrics.New()
	pricing := cart.Pricing{FreeShippingThreshold: cfg.FreeShippingThreshold, ShippingCost: cfg.ShippingCost}
	carts := cart.NewSessions(storage, time.Duration(cfg.CartTTLHours)*time.Hour, appLog)

	authSvc := auth.NewService(be.identity, app, auth.NewRegistry(24*time.Hour), auth.DemoAccounts{
		AdminEmail:  cfg.DemoAdminEmail,
		SellerEmail: cfg.DemoSellerEmail,
		Password:    cfg.DemoPassword,
	}, toasts, appLog, auditLog)
	defer authSvc.Close()

	h := &handlers.Handler{
		App:     app,
		Catalog: catalog.NewService(app, be.uploader, toasts, appLog, auditLog),
		Carts:   carts,
		Pricing: pricing,
		Orders: orders.NewService(app, carts, toasts, appLog, auditLog, orders.Options{
			Prefix:      cfg.OrderPrefix,
			CounterBase: cfg.OrderCounterBase,
			Pricing:     pricing,
			Opener:      live,
			Recorder:    m,
		}),
		Auth:   authSvc,
		Toasts: toasts,
		Live:   live,
		Log:    appLog,
	}

	// 4. Rutas
	r := gin.New()
	r.Use(gin.LoggerWithWriter(appLog.Writer()), gin.Recovery(), m.Middleware())

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, appLog, m.RateLimited)
	limiter.StartCleanup(10*time.Minute, ctx.Done())
	h.Register(r, limiter)

	r.GET("/metrics", middleware.APIKeyAuthMiddleware(cfg.MetricsAPIKey), gin.WrapH(m.Handler()))
	if be.memory != nil {
		r.GET("/media/*path", func(c *gin.Context) {
			data, ok := be.memory.Object(strings.TrimPrefix(c.Param("path"), "/"))
			if !ok {
				c.Status(http.StatusNotFound)
				return
			}
			c.Data(http.StatusOK, http.DetectContentType(data), data)
		})
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Session-ID", handlers.CartHeader, "X-API-KEY"},
		ExposedHeaders:   []string{"X-Session-ID", handlers.CartHeader},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           corsHandler.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Infof("🚀 Servidor de la tienda iniciado en http://localhost%s (backend: %s)", cfg.Address, cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("CRITICAL: server failed: %v", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("graceful shutdown failed")
	}
}
