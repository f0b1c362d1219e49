package state

import (
	"context"

	"github.com/andrescris/storefront/pkg/docstore"
	"github.com/andrescris/storefront/pkg/models"
	"github.com/andrescris/storefront/pkg/notify"
	"github.com/sirupsen/logrus"
)

// App is the shared state of the store: the singleton documents plus the order and user
// collections. Every mutation goes through one of its syncs.
type App struct {
	Store      docstore.Store
	Config     *Document[models.StoreConfig]
	Banners    *Document[models.BannerList]
	Products   *Document[models.ProductList]
	Categories *Document[models.CategoryList]
	Orders     *Collection[models.Order]
	Users      *Collection[models.User]
}

func NewApp(store docstore.Store, n notify.Notifier, log *logrus.Logger) *App {
	return &App{
		Store:      store,
		Config:     NewDocument(store, models.StoreCollection, models.ConfigDoc, models.InitialConfig(), n, log),
		Banners:    NewDocument(store, models.StoreCollection, models.BannersDoc, models.InitialBanners(), n, log),
		Products:   NewDocument(store, models.StoreCollection, models.ProductsDoc, models.InitialProducts(), n, log),
		Categories: NewDocument(store, models.StoreCollection, models.CategoriesDoc, models.InitialCategories(), n, log),
		Orders:     NewCollection[models.Order](store, models.OrdersCollection, n, log),
		Users:      NewCollection[models.User](store, models.UsersCollection, n, log),
	}
}

// Start subscribes to the public documents. The staff-only collections are started separately.
func (a *App) Start(ctx context.Context) {
	a.Config.Start(ctx)
	a.Banners.Start(ctx)
	a.Products.Start(ctx)
	a.Categories.Start(ctx)
}

// StartStaff subscribes to orders and user roles.
func (a *App) StartStaff(ctx context.Context) {
	a.Orders.Start(ctx)
	a.Users.Start(ctx)
}

func (a *App) Stop() {
	a.Config.Stop()
	a.Banners.Stop()
	a.Products.Stop()
	a.Categories.Stop()
	a.Orders.Stop()
	a.Users.Stop()
}

// Loading is true until the store configuration and the catalog have arrived.
func (a *App) Loading() bool {
	return !a.Config.Loaded() || !a.Products.Loaded()
}
