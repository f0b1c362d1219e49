// Package catalog implements the back-office edits over the catalog documents. Every edit reads
// the current list, changes it in memory and writes the whole document back.
package catalog

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/andrescris/storefront/pkg/media"
	"github.com/andrescris/storefront/pkg/notify"
	"github.com/andrescris/storefront/pkg/state"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound        = errors.New("catalog: not found")
	ErrNotConfirmed    = errors.New("catalog: destructive action not confirmed")
	ErrUnknownCategory = errors.New("catalog: category does not exist")
	ErrDuplicateID     = errors.New("catalog: product id already in use")
	ErrEmptyName       = errors.New("catalog: name is required")
	ErrUploadFailed    = errors.New("catalog: image upload failed")
)

// ValidationError lists invalid product or config fields.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "catalog: invalid fields: " + strings.Join(e.Fields, ", ")
}

type Service struct {
	app      *state.App
	uploader media.Uploader
	notifier notify.Notifier
	log      *logrus.Logger
	audit    *logrus.Logger
	validate *validator.Validate
	now      func() time.Time

	// serializa los read-modify-write de las listas en este proceso
	mu sync.Mutex
}

func NewService(app *state.App, uploader media.Uploader, n notify.Notifier, log, audit *logrus.Logger) *Service {
	return &Service{
		app:      app,
		uploader: uploader,
		notifier: n,
		log:      log,
		audit:    audit,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *Service) check(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, fe.Namespace())
	}
	return out
}

func (s *Service) auditLog(uid, action string, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["uid"] = uid
	s.audit.WithFields(fields).Info(action)
}

// IsValidation reports whether err is a rejected input rather than a backend failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v) ||
		errors.Is(err, ErrUnknownCategory) ||
		errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrEmptyName) ||
		errors.Is(err, media.ErrNotAnImage) ||
		errors.Is(err, media.ErrEmptyFile) ||
		errors.Is(err, media.ErrTooLarge)
}

const productIDPrefix = "prod-"

// NewProductID generates ids for products created without one. UUIDv7 keeps them in creation
// order.
func NewProductID() string { return productIDPrefix + uuid.Must(uuid.NewV7()).String() }
