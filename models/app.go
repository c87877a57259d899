package models

// Unlimited disables a rate limit.
const Unlimited = -1

// App is a Soketi application as stored in the apps table.
// Flags are stored as 0/1 integers to match the table Soketi reads.
type App struct {
	ID                           string   `db:"id" json:"id"`
	Key                          string   `db:"key" json:"key"`
	Secret                       string   `db:"secret" json:"secret"`
	MaxConnections               int      `db:"max_connections" json:"max_connections"`
	EnableClientMessages         int      `db:"enable_client_messages" json:"enable_client_messages"`
	Enabled                      int      `db:"enabled" json:"enabled"`
	MaxBackendEventsPerSec       int      `db:"max_backend_events_per_sec" json:"max_backend_events_per_sec"`
	MaxClientEventsPerSec        int      `db:"max_client_events_per_sec" json:"max_client_events_per_sec"`
	MaxReadReqPerSec             int      `db:"max_read_req_per_sec" json:"max_read_req_per_sec"`
	MaxPresenceMembersPerChannel *int     `db:"max_presence_members_per_channel" json:"max_presence_members_per_channel"`
	MaxPresenceMemberSizeInKb    *int     `db:"max_presence_member_size_in_kb" json:"max_presence_member_size_in_kb"`
	MaxChannelNameLength         *int     `db:"max_channel_name_length" json:"max_channel_name_length"`
	MaxEventChannelsAtOnce       *int     `db:"max_event_channels_at_once" json:"max_event_channels_at_once"`
	MaxEventNameLength           *int     `db:"max_event_name_length" json:"max_event_name_length"`
	MaxEventPayloadInKb          *int     `db:"max_event_payload_in_kb" json:"max_event_payload_in_kb"`
	MaxEventBatchSize            *int     `db:"max_event_batch_size" json:"max_event_batch_size"`
	Webhooks                     Webhooks `db:"webhooks" json:"webhooks"`
	EnableUserAuthentication     int      `db:"enable_user_authentication" json:"enable_user_authentication"`
}

// NewApp builds the record persisted for a validated request. Everything
// the caller cannot set gets its creation default: the app is enabled,
// rate limits are unlimited, tuning limits and webhooks are unset and user
// authentication is on.
func NewApp(req *CreateAppRequest) *App {
	return &App{
		ID:                       req.ID,
		Key:                      req.Key,
		Secret:                   req.Secret,
		MaxConnections:           req.MaxConnections,
		EnableClientMessages:     req.EnableClientMessages,
		Enabled:                  1,
		MaxBackendEventsPerSec:   Unlimited,
		MaxClientEventsPerSec:    Unlimited,
		MaxReadReqPerSec:         Unlimited,
		Webhooks:                 nil,
		EnableUserAuthentication: 1,
	}
}
