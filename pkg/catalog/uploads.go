package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/andrescris/storefront/pkg/models"
	"github.com/sirupsen/logrus"
)

// Upload is an image received from the admin panel.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// UploadImage stores the file and returns its URL. On failure nothing else changes.
func (s *Service) UploadImage(ctx context.Context, uid string, f Upload) (string, error) {
	url, err := s.uploader.Upload(ctx, f.Filename, f.ContentType, f.Body)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"uid": uid, "file": f.Filename, "op": "upload"}).Error("image upload failed")
		s.notifier.Error(ctx, "Error al subir la imagen.")
		if IsValidation(err) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	s.auditLog(uid, "image uploaded", logrus.Fields{"url": url})
	return url, nil
}

// SetProductImage uploads f and makes it the product's primary image.
func (s *Service) SetProductImage(ctx context.Context, uid, productID string, f Upload) (models.Product, error) {
	if _, err := s.Product(productID); err != nil {
		return models.Product{}, err
	}
	url, err := s.UploadImage(ctx, uid, f)
	if err != nil {
		return models.Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.Product(productID)
	if err != nil {
		return models.Product{}, err
	}
	p = cloneProduct(p)
	p.ImageURL = url
	if err := s.replaceProduct(ctx, uid, p, "Imagen actualizada."); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// SetColorImage uploads f as the image of one color of the product.
func (s *Service) SetColorImage(ctx context.Context, uid, productID, color string, f Upload) (models.Product, error) {
	p, err := s.Product(productID)
	if err != nil {
		return models.Product{}, err
	}
	if !(VariantOp{Dimension: Colors, Label: color}).has(&p) {
		return models.Product{}, ErrUnknownLabel
	}
	url, err := s.UploadImage(ctx, uid, f)
	if err != nil {
		return models.Product{}, err
	}
	return s.EditVariants(ctx, uid, productID, VariantOp{Dimension: Colors, Op: OpImage, Label: color, ImageURL: url})
}

// SetLogo uploads f as the store logo.
func (s *Service) SetLogo(ctx context.Context, uid string, f Upload) (models.StoreConfig, error) {
	return s.setConfigImage(ctx, uid, f, func(c *models.StoreConfig, url string) { c.LogoURL = url })
}

// SetPaymentMethodsImage uploads f as the image listing the accepted payment methods.
func (s *Service) SetPaymentMethodsImage(ctx context.Context, uid string, f Upload) (models.StoreConfig, error) {
	return s.setConfigImage(ctx, uid, f, func(c *models.StoreConfig, url string) { c.PaymentMethodsImageURL = url })
}

func (s *Service) setConfigImage(ctx context.Context, uid string, f Upload, apply func(*models.StoreConfig, string)) (models.StoreConfig, error) {
	url, err := s.UploadImage(ctx, uid, f)
	if err != nil {
		return models.StoreConfig{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.app.Config.Get()
	apply(&cfg, url)
	if err := s.app.Config.Set(ctx, cfg); err != nil {
		return models.StoreConfig{}, err
	}
	s.auditLog(uid, "config image updated", logrus.Fields{"url": url})
	s.notifier.Success(ctx, "Configuración general guardada.")
	return cfg, nil
}

// SetBannerImage uploads f as the image of one banner.
func (s *Service) SetBannerImage(ctx context.Context, uid string, bannerID int64, f Upload) (models.Banner, error) {
	if _, ok := s.banner(bannerID); !ok {
		return models.Banner{}, ErrNotFound
	}
	url, err := s.UploadImage(ctx, uid, f)
	if err != nil {
		return models.Banner{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.banner(bannerID)
	if !ok {
		return models.Banner{}, ErrNotFound
	}
	b.ImageURL = url
	if err := s.replaceBanner(ctx, uid, b); err != nil {
		return models.Banner{}, err
	}
	return b, nil
}

func (s *Service) banner(id int64) (models.Banner, bool) {
	for _, b := range s.Banners() {
		if b.ID == id {
			return b, true
		}
	}
	return models.Banner{}, false
}
