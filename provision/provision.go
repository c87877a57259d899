// Package provision registers new Soketi apps: it validates the request,
// rejects taken ids, applies the creation defaults and stores the record.
package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sorenmh/infrastructure-shared/soketi-app-api/db"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/metrics"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/models"
)

var (
	// ErrConflict is returned when the app id is already registered.
	ErrConflict = db.ErrAppExists

	// ErrInternal wraps every storage failure. Callers should render it
	// without detail.
	ErrInternal = errors.New("internal error")
)

// AppStore is the persistence the service needs. *db.AppRepository implements it.
type AppStore interface {
	IDExists(ctx context.Context, id string) (bool, error)
	CreateApp(ctx context.Context, app *models.App) (*models.App, error)
	FindByID(ctx context.Context, id string) (*models.App, error)
}

type Service struct {
	store   AppStore
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

func NewService(store AppStore, log logrus.FieldLogger, m *metrics.Metrics) *Service {
	return &Service{store: store, log: log, metrics: m}
}

// Create registers an app from a raw JSON request body. The error is
// models.ValidationErrors, ErrConflict or ErrInternal.
func (s *Service) Create(ctx context.Context, body []byte) (*models.App, error) {
	req, err := models.ParseCreateAppRequest(body)
	if err != nil {
		s.metrics.CreateFailed(metrics.ReasonValidation)
		return nil, err
	}
	return s.create(ctx, req)
}

// CreateRequest registers an app from an already decoded request.
func (s *Service) CreateRequest(ctx context.Context, req *models.CreateAppRequest) (*models.App, error) {
	if err := req.Validate(); err != nil {
		s.metrics.CreateFailed(metrics.ReasonValidation)
		return nil, err
	}
	return s.create(ctx, req)
}

func (s *Service) create(ctx context.Context, req *models.CreateAppRequest) (*models.App, error) {
	log := s.log.WithField("app_id", req.ID)

	// The primary key is authoritative; this check only avoids a doomed insert.
	exists, err := s.store.IDExists(ctx, req.ID)
	if err != nil {
		return nil, s.internal(log, err)
	}
	if exists {
		s.metrics.CreateFailed(metrics.ReasonConflict)
		log.Info("app id already registered")
		return nil, fmt.Errorf("app %s: %w", req.ID, ErrConflict)
	}

	app, err := s.store.CreateApp(ctx, models.NewApp(req))
	switch {
	case err == nil:
		s.metrics.AppCreated()
		log.Info("app created")
		return app, nil
	case errors.Is(err, ErrConflict):
		s.metrics.CreateFailed(metrics.ReasonConflict)
		log.Info("app id registered concurrently")
		return nil, err
	default:
		return nil, s.internal(log, err)
	}
}

// Find returns the app with id, or nil when it does not exist.
func (s *Service) Find(ctx context.Context, id string) (*models.App, error) {
	app, err := s.store.FindByID(ctx, id)
	if err != nil {
		s.log.WithField("app_id", id).WithError(err).Error("failed to look up app")
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return app, nil
}

func (s *Service) internal(log logrus.FieldLogger, err error) error {
	var storageErr *db.StorageError
	if errors.As(err, &storageErr) && storageErr.Written() {
		s.metrics.CreateFailed(metrics.ReasonFetch)
		log.WithError(err).
			WithField("anomaly", "written_but_unreadable").
			Error("app row was inserted but could not be read back; do not retry the insert")
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	reason := metrics.ReasonStorage
	if storageErr != nil && storageErr.Phase == db.PhaseInsert {
		reason = metrics.ReasonInsert
	}
	s.metrics.CreateFailed(reason)
	log.WithError(err).Error("failed to create app")
	return fmt.Errorf("%w: %w", ErrInternal, err)
}
