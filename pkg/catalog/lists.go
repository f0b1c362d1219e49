package catalog

import (
	"context"
	"strings"

	"github.com/andrescris/storefront/pkg/models"
	"github.com/sirupsen/logrus"
)

// --- Categorías ---

func (s *Service) Categories() []models.Category { return s.app.Categories.Get().List }

// AddCategory appends name unless it is already there. It reports whether the list changed.
func (s *Service) AddCategory(ctx context.Context, uid, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.app.Categories.Get()
	if current.Contains(name) {
		return false, nil
	}
	list := append(append([]models.Category{}, current.List...), name)
	if err := s.app.Categories.Set(ctx, models.CategoryList{List: list}); err != nil {
		return false, err
	}
	s.auditLog(uid, "category added", logrus.Fields{"category": name})
	s.notifier.Success(ctx, "Categorías guardadas.")
	return true, nil
}

// RemoveCategory drops a category. Products keep their category string.
func (s *Service) RemoveCategory(ctx context.Context, uid, name string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.app.Categories.Get()
	if !current.Contains(name) {
		return ErrNotFound
	}
	list := make([]models.Category, 0, len(current.List))
	for _, c := range current.List {
		if c != name {
			list = append(list, c)
		}
	}
	if err := s.app.Categories.Set(ctx, models.CategoryList{List: list}); err != nil {
		return err
	}
	s.auditLog(uid, "category removed", logrus.Fields{"category": name})
	s.notifier.Success(ctx, "Categorías guardadas.")
	return nil
}

// SaveCategories writes the whole list, trimmed and without duplicates, keeping first occurrences.
func (s *Service) SaveCategories(ctx context.Context, uid string, names []string) ([]models.Category, error) {
	list := make([]models.Category, 0, len(names))
	seen := map[string]bool{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		list = append(list, n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.app.Categories.Set(ctx, models.CategoryList{List: list}); err != nil {
		return nil, err
	}
	s.auditLog(uid, "categories saved", logrus.Fields{"count": len(list)})
	s.notifier.Success(ctx, "Categorías guardadas.")
	return list, nil
}

// --- Banners ---

func (s *Service) Banners() []models.Banner { return s.app.Banners.Get().List }

// AddBanner appends an empty banner whose id is the current time in milliseconds.
func (s *Service) AddBanner(ctx context.Context, uid string) (models.Banner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.Banners()
	id := s.now().UnixMilli()
	for _, b := range current {
		if b.ID >= id {
			id = b.ID + 1
		}
	}
	b := models.Banner{ID: id, Link: "#"}
	list := append(append([]models.Banner{}, current...), b)
	if err := s.app.Banners.Set(ctx, models.BannerList{List: list}); err != nil {
		return models.Banner{}, err
	}
	s.auditLog(uid, "banner added", logrus.Fields{"banner": id})
	return b, nil
}

// UpdateBanner replaces the banner with the same id.
func (s *Service) UpdateBanner(ctx context.Context, uid string, b models.Banner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceBanner(ctx, uid, b)
}

func (s *Service) replaceBanner(ctx context.Context, uid string, b models.Banner) error {
	current := s.Banners()
	list := make([]models.Banner, len(current))
	found := false
	for i, existing := range current {
		if existing.ID == b.ID {
			list[i] = b
			found = true
			continue
		}
		list[i] = existing
	}
	if !found {
		return ErrNotFound
	}
	if err := s.app.Banners.Set(ctx, models.BannerList{List: list}); err != nil {
		return err
	}
	s.auditLog(uid, "banner updated", logrus.Fields{"banner": b.ID})
	s.notifier.Success(ctx, "Banners guardados.")
	return nil
}

func (s *Service) RemoveBanner(ctx context.Context, uid string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.Banners()
	list := make([]models.Banner, 0, len(current))
	for _, b := range current {
		if b.ID != id {
			list = append(list, b)
		}
	}
	if len(list) == len(current) {
		return ErrNotFound
	}
	if err := s.app.Banners.Set(ctx, models.BannerList{List: list}); err != nil {
		return err
	}
	s.auditLog(uid, "banner removed", logrus.Fields{"banner": id})
	s.notifier.Success(ctx, "Banners guardados.")
	return nil
}

// SaveBanners writes the whole banner list.
func (s *Service) SaveBanners(ctx context.Context, uid string, banners []models.Banner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if banners == nil {
		banners = []models.Banner{}
	}
	if err := s.app.Banners.Set(ctx, models.BannerList{List: banners}); err != nil {
		return err
	}
	s.auditLog(uid, "banners saved", logrus.Fields{"count": len(banners)})
	s.notifier.Success(ctx, "Banners guardados.")
	return nil
}

// --- Configuración ---

type configInput struct {
	Name     string `validate:"required"`
	WhatsApp string `validate:"required,numeric"`
}

func (s *Service) Config() models.StoreConfig { return s.app.Config.Get() }

func (s *Service) UpdateConfig(ctx context.Context, uid string, cfg models.StoreConfig) error {
	if err := s.check(configInput{Name: strings.TrimSpace(cfg.Contact.Name), WhatsApp: cfg.Social.WhatsApp}); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.app.Config.Set(ctx, cfg); err != nil {
		return err
	}
	s.auditLog(uid, "config updated", nil)
	s.notifier.Success(ctx, "Configuración general guardada.")
	return nil
}
