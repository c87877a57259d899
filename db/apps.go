package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/sorenmh/infrastructure-shared/soketi-app-api/config"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/models"
)

var appColumns = []string{
	"id",
	"key",
	"secret",
	"max_connections",
	"enable_client_messages",
	"enabled",
	"max_backend_events_per_sec",
	"max_client_events_per_sec",
	"max_read_req_per_sec",
	"max_presence_members_per_channel",
	"max_presence_member_size_in_kb",
	"max_channel_name_length",
	"max_event_channels_at_once",
	"max_event_name_length",
	"max_event_payload_in_kb",
	"max_event_batch_size",
	"webhooks",
	"enable_user_authentication",
}

var (
	// key is reserved in MySQL, so every column is quoted.
	columnList   = "`" + strings.Join(appColumns, "`, `") + "`"
	placeholders = strings.TrimSuffix(strings.Repeat("?, ", len(appColumns)), ", ")

	insertAppQuery     = "INSERT INTO apps (" + columnList + ") VALUES (" + placeholders + ")"
	insertAppReturning = insertAppQuery + " RETURNING " + columnList
	selectAppQuery     = "SELECT " + columnList + " FROM apps WHERE `id` = ?"
	appExistsQuery     = "SELECT EXISTS(SELECT 1 FROM apps WHERE `id` = ?)"
)

// AppRepository handles apps table operations
type AppRepository struct {
	db *sqlx.DB

	// returning is set for drivers that can insert and return the row in
	// one statement.
	returning bool
}

// NewAppRepository creates a new app repository
func NewAppRepository(d *Database) *AppRepository {
	return &AppRepository{
		db:        d.DB,
		returning: d.Driver() == config.DriverSQLite,
	}
}

// IDExists reports whether an app with id is stored.
func (r *AppRepository) IDExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, appExistsQuery, id); err != nil {
		return false, &StorageError{Op: "check app exists", AppID: id, Phase: PhaseCheck, Err: err}
	}
	return exists, nil
}

// CreateApp inserts app and returns the row as stored. A duplicate id yields
// ErrAppExists. Other failures are *StorageError, with PhaseInsert when
// nothing was written and PhaseFetch when the row was written but could not
// be read back.
func (r *AppRepository) CreateApp(ctx context.Context, app *models.App) (*models.App, error) {
	if r.returning {
		return r.insertReturning(ctx, app)
	}

	if _, err := r.db.ExecContext(ctx, insertAppQuery, appArgs(app)...); err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("insert app %s: %w", app.ID, ErrAppExists)
		}
		return nil, &StorageError{Op: "insert app", AppID: app.ID, Phase: PhaseInsert, Err: err}
	}

	stored, err := r.get(ctx, app.ID)
	if errors.Is(err, sql.ErrNoRows) {
		err = errNotVisible
	}
	if err != nil {
		return nil, &StorageError{Op: "fetch app after insert", AppID: app.ID, Phase: PhaseFetch, Err: err}
	}
	return stored, nil
}

func (r *AppRepository) insertReturning(ctx context.Context, app *models.App) (*models.App, error) {
	var stored models.App
	if err := r.db.GetContext(ctx, &stored, insertAppReturning, appArgs(app)...); err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("insert app %s: %w", app.ID, ErrAppExists)
		}
		return nil, &StorageError{Op: "insert app", AppID: app.ID, Phase: PhaseInsert, Err: err}
	}
	return &stored, nil
}

// FindByID returns the app with id, or nil when there is none.
func (r *AppRepository) FindByID(ctx context.Context, id string) (*models.App, error) {
	app, err := r.get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "find app", AppID: id, Phase: PhaseLookup, Err: err}
	}
	return app, nil
}

func (r *AppRepository) get(ctx context.Context, id string) (*models.App, error) {
	var app models.App
	if err := r.db.GetContext(ctx, &app, selectAppQuery, id); err != nil {
		return nil, err
	}
	return &app, nil
}

func appArgs(app *models.App) []interface{} {
	return []interface{}{
		app.ID,
		app.Key,
		app.Secret,
		app.MaxConnections,
		app.EnableClientMessages,
		app.Enabled,
		app.MaxBackendEventsPerSec,
		app.MaxClientEventsPerSec,
		app.MaxReadReqPerSec,
		app.MaxPresenceMembersPerChannel,
		app.MaxPresenceMemberSizeInKb,
		app.MaxChannelNameLength,
		app.MaxEventChannelsAtOnce,
		app.MaxEventNameLength,
		app.MaxEventPayloadInKb,
		app.MaxEventBatchSize,
		app.Webhooks,
		app.EnableUserAuthentication,
	}
}
