package provision

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorenmh/infrastructure-shared/soketi-app-api/config"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/db"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/metrics"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/models"
)

type mockStore struct {
	apps map[string]*models.App

	existsErr error
	createErr error
	findErr   error

	existsCalls int
	createCalls int
}

func newMockStore() *mockStore {
	return &mockStore{apps: make(map[string]*models.App)}
}

func (m *mockStore) IDExists(ctx context.Context, id string) (bool, error) {
	m.existsCalls++
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.apps[id]
	return ok, nil
}

func (m *mockStore) CreateApp(ctx context.Context, app *models.App) (*models.App, error) {
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	stored := *app
	m.apps[app.ID] = &stored
	return &stored, nil
}

func (m *mockStore) FindByID(ctx context.Context, id string) (*models.App, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.apps[id], nil
}

func newTestService(store AppStore) (*Service, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	return NewService(store, logger, metrics.New()), hook
}

func TestCreateDefaults(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	app, err := svc.Create(context.Background(), []byte(`{"id":"myapp","key":"k1","secret":"s1"}`))
	require.NoError(t, err)

	assert.Equal(t, "myapp", app.ID)
	assert.Equal(t, 100, app.MaxConnections)
	assert.Equal(t, 1, app.EnableClientMessages)
	assert.Equal(t, -1, app.MaxBackendEventsPerSec)
	assert.Equal(t, 1, app.Enabled)
	assert.Equal(t, 1, app.EnableUserAuthentication)
}

func TestCreateValidationFailureSkipsStore(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	app, err := svc.Create(context.Background(), []byte(`{"id":"bad id!","key":"k","secret":"s"}`))
	assert.Nil(t, app)

	var ves models.ValidationErrors
	require.ErrorAs(t, err, &ves)
	assert.True(t, ves.HasField("id"))
	assert.Zero(t, store.existsCalls)
	assert.Zero(t, store.createCalls)
}

func TestCreateRequestValidates(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	_, err := svc.CreateRequest(context.Background(), &models.CreateAppRequest{ID: "ok", Key: "k", Secret: "s"})

	var ves models.ValidationErrors
	require.ErrorAs(t, err, &ves)
	assert.True(t, ves.HasField("max_connections"))
	assert.Zero(t, store.existsCalls)
}

func TestCreateConflictFromExistenceCheck(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, []byte(`{"id":"dup","key":"k","secret":"s"}`))
	require.NoError(t, err)

	_, err = svc.Create(ctx, []byte(`{"id":"dup","key":"k2","secret":"s2"}`))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, store.createCalls)
	assert.Len(t, store.apps, 1)
	assert.Equal(t, "k", store.apps["dup"].Key)
}

func TestCreateConflictFromConstraint(t *testing.T) {
	store := newMockStore()
	store.createErr = fmt.Errorf("insert app race: %w", db.ErrAppExists)
	svc, _ := newTestService(store)

	_, err := svc.Create(context.Background(), []byte(`{"id":"race","key":"k","secret":"s"}`))
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrInternal)
}

func TestCreateStorageFailures(t *testing.T) {
	tests := []struct {
		name        string
		existsErr   error
		createErr   error
		wantAnomaly bool
	}{
		{
			name:      "existence check fails",
			existsErr: &db.StorageError{Op: "check app exists", AppID: "a", Phase: db.PhaseCheck, Err: errors.New("down")},
		},
		{
			name:      "insert fails",
			createErr: &db.StorageError{Op: "insert app", AppID: "a", Phase: db.PhaseInsert, Err: errors.New("down")},
		},
		{
			name:        "fetch after insert fails",
			createErr:   &db.StorageError{Op: "fetch app after insert", AppID: "a", Phase: db.PhaseFetch, Err: errors.New("timeout")},
			wantAnomaly: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			store.existsErr = tt.existsErr
			store.createErr = tt.createErr
			svc, hook := newTestService(store)

			app, err := svc.Create(context.Background(), []byte(`{"id":"a","key":"k","secret":"s"}`))
			assert.Nil(t, app)
			assert.ErrorIs(t, err, ErrInternal)
			assert.NotErrorIs(t, err, ErrConflict)

			var storageErr *db.StorageError
			require.ErrorAs(t, err, &storageErr)
			assert.Equal(t, tt.wantAnomaly, storageErr.Written())

			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, logrus.ErrorLevel, entry.Level)
			assert.Equal(t, "a", entry.Data["app_id"])
			if tt.wantAnomaly {
				assert.Equal(t, "written_but_unreadable", entry.Data["anomaly"])
			} else {
				assert.NotContains(t, entry.Data, "anomaly")
			}
		})
	}
}

func TestFind(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	app, err := svc.Find(ctx, "nonexistent")
	assert.NoError(t, err)
	assert.Nil(t, app)

	created, err := svc.Create(ctx, []byte(`{"id":"found","key":"k","secret":"s"}`))
	require.NoError(t, err)

	app, err = svc.Find(ctx, "found")
	require.NoError(t, err)
	assert.Equal(t, created, app)

	store.findErr = errors.New("down")
	_, err = svc.Find(ctx, "found")
	assert.ErrorIs(t, err, ErrInternal)
}

// TestCreateWithSQLite runs the scenarios against a real repository.
func TestCreateWithSQLite(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, config.DatabaseConfig{
		Driver:          config.DriverSQLite,
		Path:            filepath.Join(t.TempDir(), "apps.db"),
		ConnectionLimit: 1,
	})
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, database.EnsureSchema(ctx))

	svc, _ := newTestService(db.NewAppRepository(database))

	first, err := svc.Create(ctx, []byte(`{"id":"dup","key":"k1","secret":"s1"}`))
	require.NoError(t, err)
	assert.Equal(t, 100, first.MaxConnections)

	_, err = svc.Create(ctx, []byte(`{"id":"dup","key":"k2","secret":"s2"}`))
	assert.ErrorIs(t, err, ErrConflict)

	found, err := svc.Find(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, first, found)

	missing, err := svc.Find(ctx, "nonexistent")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
